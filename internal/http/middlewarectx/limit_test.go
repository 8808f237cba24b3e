package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerCaller(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "other callers keep their own budget")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(idleTTL + 2*time.Minute)
	l.Allow("b")

	_, ok := l.clients["a"]
	assert.False(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := l.Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID int64) int {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		if userID > 0 {
			req = req.WithContext(WithUserID(context.Background(), userID))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(1))
	assert.Equal(t, http.StatusTooManyRequests, send(1))
	assert.Equal(t, http.StatusOK, send(2))
	assert.Equal(t, http.StatusOK, send(0))
	assert.Equal(t, http.StatusTooManyRequests, send(0))
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "418"))

	for _, path := range []string{"/items/1", "/items/2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	}

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "418"))
	assert.Equal(t, 2.0, after-before)
}

func TestObserveNotification(t *testing.T) {
	before := testutil.ToFloat64(Notifications.WithLabelValues("created", ResultSent))
	ObserveNotification("created", ResultSent)
	assert.Equal(t, 1.0, testutil.ToFloat64(Notifications.WithLabelValues("created", ResultSent))-before)
}

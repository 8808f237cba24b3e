package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, userID int64, req models.CreateTaskRequest) (*models.Task, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantError  string
	}{
		{
			name: "amount as string",
			body: `{"title":"Logo","amount":"150,50 €"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, int64(7), models.CreateTaskRequest{Title: "Logo", Amount: "150,50 €"}).
					Return(&models.Task{ID: 1, UserID: 7, Title: "Logo", Amount: decimal.RequireFromString("150.5")}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "amount as number",
			body: `{"title":"Logo","amount":42}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, int64(7), models.CreateTaskRequest{Title: "Logo", Amount: "42"}).
					Return(&models.Task{ID: 2, UserID: 7, Title: "Logo", Amount: decimal.NewFromInt(42)}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "amount as number with exponent",
			body: `{"title":"Logo","amount":1e3}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, int64(7), models.CreateTaskRequest{Title: "Logo", Amount: "1e3"}).
					Return(&models.Task{ID: 3, UserID: 7, Title: "Logo", Amount: decimal.NewFromInt(1000)}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing title",
			body:       `{"amount":10}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field Title is a required field",
		},
		{
			name:       "bad image url",
			body:       `{"title":"Logo","image_url":"not a url"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field ImageURL must be a valid url",
		},
		{
			name: "bad deadline",
			body: `{"title":"Logo","deadline":"tomorrow"}`,
			setupMock: func(m *ServiceMock) {
				deadline := "tomorrow"
				m.On("Create", mock.Anything, int64(7), models.CreateTaskRequest{Title: "Logo", Deadline: &deadline}).
					Return(nil, models.Invalid("invalid deadline %q", deadline)).Once()
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  `invalid deadline "tomorrow"`,
		},
		{
			name: "storage failure",
			body: `{"title":"Logo"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, int64(7), models.CreateTaskRequest{Title: "Logo"}).
					Return(nil, errors.New("disk full")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
		{
			name:       "broken json",
			body:       `{"title":`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(tt.body))
			req = req.WithContext(middlewarectx.WithUserID(req.Context(), 7))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, "Logo", body["title"])
				assert.Equal(t, float64(7), body["user_id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateHandler_Unauthorized(t *testing.T) {
	svc := new(ServiceMock)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

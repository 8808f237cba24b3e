package list

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func boolPtr(b bool) *bool { return &b }

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		query      string
		filter     *models.ListFilter
		result     []models.Task
		err        error
		wantStatus int
		wantCount  int
	}{
		{
			name:       "no params",
			filter:     &models.ListFilter{},
			result:     []models.Task{{ID: 1, UserID: 3}, {ID: 2, UserID: 3}},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "completed only sorted by amount",
			query:      "?completed=true&sort=amount",
			filter:     &models.ListFilter{Completed: boolPtr(true), SortBy: models.SortByAmount},
			result:     []models.Task{{ID: 5, UserID: 3, Completed: true}},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "pending only, empty result is an array",
			query:      "?completed=false",
			filter:     &models.ListFilter{Completed: boolPtr(false)},
			result:     nil,
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "unknown sort key",
			query:      "?sort=title",
			filter:     &models.ListFilter{SortBy: "title"},
			err:        fmt.Errorf("tasks.List: %w", models.Invalid("unknown sort key %q", "title")),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "garbage completed flag",
			query:      "?completed=maybe",
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.filter != nil {
				if tt.err != nil {
					svc.On("List", mock.Anything, int64(3), *tt.filter).Return(nil, tt.err).Once()
				} else {
					svc.On("List", mock.Anything, int64(3), *tt.filter).Return(tt.result, nil).Once()
				}
			}

			req := httptest.NewRequest(http.MethodGet, "/api/tasks"+tt.query, nil)
			req = req.WithContext(middlewarectx.WithUserID(req.Context(), 3))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got []models.Task
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.NotNil(t, got)
				assert.Len(t, got, tt.wantCount)
			}
			svc.AssertExpectations(t)
		})
	}
}

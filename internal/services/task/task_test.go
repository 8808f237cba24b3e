package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/notify"
	services "github.com/magabrotheeeer/ebt/internal/services/task"
)

type TaskRepoMock struct {
	mock.Mock
}

func (m *TaskRepoMock) Create(ctx context.Context, userID int64, in models.NewTask) (*models.Task, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *TaskRepoMock) List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *TaskRepoMock) All(ctx context.Context, userID int64) ([]models.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *TaskRepoMock) Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, bool, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Task), args.Bool(1), args.Error(2)
}

func (m *TaskRepoMock) Delete(ctx context.Context, userID, id int64) (*models.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

type WebhookSourceMock struct {
	mock.Mock
}

func (m *WebhookSourceMock) WebhookURL(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, webhookURL string, kind notify.Kind, task models.Task) {
	m.Called(ctx, webhookURL, kind, task)
}

const hook = "https://discord.test/hook"

func ptr[T any](v T) *T { return &v }

func newService(repo *TaskRepoMock, hooks *WebhookSourceMock, n *NotifierMock) *services.TaskService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewTaskService(repo, hooks, n, log, time.UTC)
}

func TestTaskService_Create(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	created := &models.Task{ID: 10, UserID: 1, Title: "Logo", Amount: decimal.RequireFromString("12.5")}

	repo.On("Create", mock.Anything, int64(1), mock.MatchedBy(func(in models.NewTask) bool {
		return in.Title == "Logo" &&
			in.Amount.Equal(decimal.RequireFromString("12.5")) &&
			in.Deadline != nil && in.Deadline.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	})).Return(created, nil).Once()
	hooks.On("WebhookURL", mock.Anything, int64(1)).Return(hook, nil).Once()
	n.On("Notify", mock.Anything, hook, notify.KindCreated, *created).Once()

	task, err := newService(repo, hooks, n).Create(context.Background(), 1, models.CreateTaskRequest{
		Title:    "Logo",
		Deadline: ptr("2024-06-01"),
		Amount:   "12,5",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)

	repo.AssertExpectations(t)
	hooks.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestTaskService_CreateParsesAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "json number with exponent", raw: `{"title":"Logo","amount":1e3}`, want: "1000"},
		{name: "upper exponent", raw: `{"title":"Logo","amount":2.5E1}`, want: "25"},
		{name: "thousands separator", raw: `{"title":"Logo","amount":"1,234.50"}`, want: "1234.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req models.CreateTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &req))

			repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
			repo.On("Create", mock.Anything, int64(1), mock.MatchedBy(func(in models.NewTask) bool {
				return in.Amount.Equal(decimal.RequireFromString(tt.want))
			})).Return(&models.Task{ID: 1, UserID: 1}, nil).Once()
			hooks.On("WebhookURL", mock.Anything, int64(1)).Return("", nil).Once()
			n.On("Notify", mock.Anything, "", notify.KindCreated, mock.Anything).Maybe()

			_, err := newService(repo, hooks, n).Create(context.Background(), 1, req)
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateInvalidDeadline(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)

	_, err := newService(repo, hooks, n).Create(context.Background(), 1, models.CreateTaskRequest{
		Title:    "Logo",
		Deadline: ptr("next friday"),
	})
	assert.ErrorIs(t, err, models.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_CreateSurvivesWebhookLookupFailure(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	repo.On("Create", mock.Anything, int64(1), mock.Anything).Return(&models.Task{ID: 1}, nil).Once()
	hooks.On("WebhookURL", mock.Anything, int64(1)).Return("", errors.New("db down")).Once()

	_, err := newService(repo, hooks, n).Create(context.Background(), 1, models.CreateTaskRequest{Title: "t"})
	require.NoError(t, err)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Update(t *testing.T) {
	now := time.Now()
	done := &models.Task{ID: 3, Completed: true, CompletedAt: &now}

	tests := []struct {
		name         string
		req          models.UpdateTaskRequest
		wasCompleted bool
		wantNotify   bool
	}{
		{"false to true notifies", models.UpdateTaskRequest{ID: 3, Completed: ptr(true)}, false, true},
		{"true to true is silent", models.UpdateTaskRequest{ID: 3, Completed: ptr(true)}, true, false},
		{"title change is silent", models.UpdateTaskRequest{ID: 3, Title: ptr("x")}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
			repo.On("Update", mock.Anything, int64(1), int64(3), mock.Anything).Return(done, tt.wasCompleted, nil).Once()
			if tt.wantNotify {
				hooks.On("WebhookURL", mock.Anything, int64(1)).Return(hook, nil).Once()
				n.On("Notify", mock.Anything, hook, notify.KindCompleted, *done).Once()
			}

			_, err := newService(repo, hooks, n).Update(context.Background(), 1, tt.req)
			require.NoError(t, err)
			repo.AssertExpectations(t)
			n.AssertExpectations(t)
			if !tt.wantNotify {
				n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTaskService_UpdateDeadlinePatch(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	repo.On("Update", mock.Anything, int64(1), int64(3), mock.MatchedBy(func(p models.TaskPatch) bool {
		return p.ClearDeadline && p.Deadline == nil
	})).Return(&models.Task{ID: 3}, false, nil).Once()
	repo.On("Update", mock.Anything, int64(1), int64(4), mock.MatchedBy(func(p models.TaskPatch) bool {
		return !p.ClearDeadline && p.Deadline != nil && p.Deadline.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	})).Return(&models.Task{ID: 4}, false, nil).Once()

	svc := newService(repo, hooks, n)
	_, err := svc.Update(context.Background(), 1, models.UpdateTaskRequest{ID: 3, Deadline: ptr("")})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 1, models.UpdateTaskRequest{ID: 4, Deadline: ptr("2024-06-01T10:00:00Z")})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 1, models.UpdateTaskRequest{ID: 5, Deadline: ptr("soon")})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Update(context.Background(), 1, models.UpdateTaskRequest{ID: 5})
	assert.ErrorIs(t, err, models.ErrValidation)
	repo.AssertExpectations(t)
}

func TestTaskService_UpdateNotFound(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	repo.On("Update", mock.Anything, int64(1), int64(9), mock.Anything).Return(nil, false, models.ErrNotFound).Once()

	_, err := newService(repo, hooks, n).Update(context.Background(), 1, models.UpdateTaskRequest{ID: 9, Title: ptr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTaskService_Delete(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	deleted := &models.Task{ID: 3, Title: "gone"}
	repo.On("Delete", mock.Anything, int64(1), int64(3)).Return(deleted, nil).Once()
	repo.On("Delete", mock.Anything, int64(1), int64(4)).Return(nil, models.ErrNotFound).Once()
	hooks.On("WebhookURL", mock.Anything, int64(1)).Return(hook, nil).Once()
	n.On("Notify", mock.Anything, hook, notify.KindCancelled, *deleted).Once()

	svc := newService(repo, hooks, n)
	require.NoError(t, svc.Delete(context.Background(), 1, 3))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, 4), models.ErrNotFound)
	n.AssertExpectations(t)
}

func TestTaskService_Stats(t *testing.T) {
	repo, hooks, n := new(TaskRepoMock), new(WebhookSourceMock), new(NotifierMock)
	now := time.Now().UTC()
	repo.On("All", mock.Anything, int64(1)).Return([]models.Task{
		{ID: 1, Amount: decimal.NewFromInt(10), Completed: true, CompletedAt: &now},
		{ID: 2, Amount: decimal.NewFromInt(30)},
	}, nil).Once()

	report, err := newService(repo, hooks, n).Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTasks)
	assert.Equal(t, 1, report.TotalCompleted)
	assert.InDelta(t, 10.0, report.TotalEarned, 1e-9)
	assert.InDelta(t, 30.0, report.PendingAmount, 1e-9)
}

package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/notify"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListDueTasks(ctx context.Context, from, to time.Time) ([]models.DueTask, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueTask), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event notify.Event) error {
	return m.Called(event).Error(0)
}

func newService(repo *MockRepository, pub *MockPublisher, now time.Time) *ReminderService {
	s := NewReminderService(repo, pub, slog.New(slog.NewTextHandler(io.Discard, nil)), 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestRemindDueTasks(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	deadline := now.Add(5 * time.Hour)
	hook := "https://discord.com/api/webhooks/1/abc"

	t.Run("publishes one event per task", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		due := []models.DueTask{
			{Task: models.Task{ID: 1, UserID: 1, Title: "A", Deadline: &deadline}, WebhookURL: hook},
			{Task: models.Task{ID: 2, UserID: 2, Title: "B", Deadline: &deadline}, WebhookURL: hook},
		}
		repo.On("ListDueTasks", mock.Anything, now, now.Add(24*time.Hour)).Return(due, nil).Once()
		pub.On("Publish", mock.MatchedBy(func(e notify.Event) bool {
			return e.Kind == notify.KindDueSoon && e.WebhookURL == hook && e.OccurredAt.Equal(now)
		})).Return(nil).Twice()

		n, err := newService(repo, pub, now).RemindDueTasks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure does not stop the run", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		due := []models.DueTask{
			{Task: models.Task{ID: 1}, WebhookURL: hook},
			{Task: models.Task{ID: 2}, WebhookURL: hook},
		}
		repo.On("ListDueTasks", mock.Anything, now, now.Add(24*time.Hour)).Return(due, nil).Once()
		pub.On("Publish", mock.MatchedBy(func(e notify.Event) bool { return e.Task.ID == 1 })).Return(errors.New("channel closed")).Once()
		pub.On("Publish", mock.MatchedBy(func(e notify.Event) bool { return e.Task.ID == 2 })).Return(nil).Once()

		n, err := newService(repo, pub, now).RemindDueTasks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		pub.AssertExpectations(t)
	})

	t.Run("nothing due", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		repo.On("ListDueTasks", mock.Anything, now, now.Add(24*time.Hour)).Return([]models.DueTask{}, nil).Once()

		n, err := newService(repo, pub, now).RemindDueTasks(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		pub.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		repo.On("ListDueTasks", mock.Anything, now, now.Add(24*time.Hour)).Return(nil, errors.New("db down")).Once()

		_, err := newService(repo, pub, now).RemindDueTasks(context.Background())
		assert.ErrorContains(t, err, "db down")
	})
}

// Package services содержит логику напоминаний о близких дедлайнах.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/notify"
)

// DueTaskRepository находит незавершённые задачи с дедлайном в окне.
type DueTaskRepository interface {
	ListDueTasks(ctx context.Context, from, to time.Time) ([]models.DueTask, error)
}

// EventPublisher публикует событие в очередь уведомлений.
type EventPublisher interface {
	Publish(event notify.Event) error
}

// ReminderService публикует уведомления due_soon для задач, дедлайн которых
// наступает в пределах horizon.
type ReminderService struct {
	repo      DueTaskRepository
	publisher EventPublisher
	log       *slog.Logger
	horizon   time.Duration
	now       func() time.Time
}

// NewReminderService создает новый экземпляр ReminderService.
func NewReminderService(repo DueTaskRepository, publisher EventPublisher, log *slog.Logger, horizon time.Duration) *ReminderService {
	return &ReminderService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		horizon:   horizon,
		now:       time.Now,
	}
}

// RemindDueTasks публикует по событию на каждую найденную задачу и возвращает
// число опубликованных. Ошибка публикации одного события не прерывает обход.
func (s *ReminderService) RemindDueTasks(ctx context.Context) (int, error) {
	const op = "services.reminder.RemindDueTasks"

	now := s.now()
	s.log.Info("looking for tasks with close deadlines", slog.Duration("horizon", s.horizon))
	due, err := s.repo.ListDueTasks(ctx, now, now.Add(s.horizon))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(due) == 0 {
		s.log.Info("no tasks due soon")
		return 0, nil
	}
	s.log.Info("found tasks due soon", slog.Int("count", len(due)))

	published := 0
	for _, d := range due {
		event := notify.Event{
			WebhookURL: d.WebhookURL,
			Kind:       notify.KindDueSoon,
			Task:       d.Task,
			OccurredAt: now,
		}
		if err := s.publisher.Publish(event); err != nil {
			s.log.Error("failed to publish reminder", slog.Int64("task_id", d.Task.ID), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}

// Run выполняет RemindDueTasks и логирует результат; используется как задание cron.
func (s *ReminderService) Run(ctx context.Context) {
	n, err := s.RemindDueTasks(ctx)
	if err != nil {
		s.log.Error("reminder run failed", sl.Err(err))
		return
	}
	s.log.Info("reminder run finished", slog.Int("published", n))
}

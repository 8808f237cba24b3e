// Package services связывает репозиторий задач, статистику и уведомления.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/period"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/notify"
	"github.com/magabrotheeeer/ebt/internal/stats"
	"github.com/magabrotheeeer/ebt/internal/tasks"
)

// TaskRepository — операции над задачами пользователя.
type TaskRepository interface {
	Create(ctx context.Context, userID int64, in models.NewTask) (*models.Task, error)
	List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error)
	All(ctx context.Context, userID int64) ([]models.Task, error)
	Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, bool, error)
	Delete(ctx context.Context, userID, id int64) (*models.Task, error)
}

// WebhookSource возвращает адрес вебхука пользователя.
type WebhookSource interface {
	WebhookURL(ctx context.Context, userID int64) (string, error)
}

// TaskService реализует сценарии работы с задачами.
type TaskService struct {
	repo     TaskRepository
	webhooks WebhookSource
	notifier notify.Notifier
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewTaskService создаёт сервис. loc — часовой пояс для дат без времени и календаря статистики.
func NewTaskService(repo TaskRepository, webhooks WebhookSource, notifier notify.Notifier, log *slog.Logger, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		repo:     repo,
		webhooks: webhooks,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
}

// Create создаёт задачу и отправляет уведомление "created".
func (s *TaskService) Create(ctx context.Context, userID int64, req models.CreateTaskRequest) (*models.Task, error) {
	const op = "services.task.Create"

	in := models.NewTask{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Amount:      tasks.ParseAmount(string(req.Amount)),
	}
	if req.Deadline != nil && *req.Deadline != "" {
		deadline, err := period.ParseDate(*req.Deadline, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, models.Invalid("invalid deadline %q", *req.Deadline))
		}
		in.Deadline = &deadline
	}

	task, err := s.repo.Create(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("task created", slog.Int64("user_id", userID), slog.Int64("task_id", task.ID))

	s.notify(ctx, userID, notify.KindCreated, *task)
	return task, nil
}

// List возвращает задачи пользователя.
func (s *TaskService) List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error) {
	const op = "services.task.List"
	list, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Update применяет частичное обновление. При переходе в завершённое
// состояние отправляется уведомление "completed".
func (s *TaskService) Update(ctx context.Context, userID int64, req models.UpdateTaskRequest) (*models.Task, error) {
	const op = "services.task.Update"

	patch, err := s.patchFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	task, wasCompleted, err := s.repo.Update(ctx, userID, req.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if task.Completed && !wasCompleted {
		s.log.Info("task completed", slog.Int64("user_id", userID), slog.Int64("task_id", task.ID))
		s.notify(ctx, userID, notify.KindCompleted, *task)
	}
	return task, nil
}

// Delete удаляет задачу и отправляет уведомление "cancelled".
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	const op = "services.task.Delete"
	task, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("task deleted", slog.Int64("user_id", userID), slog.Int64("task_id", id))

	s.notify(ctx, userID, notify.KindCancelled, *task)
	return nil
}

// Stats считает статистику по полному набору задач пользователя на текущий момент.
func (s *TaskService) Stats(ctx context.Context, userID int64) (models.StatsReport, error) {
	const op = "services.task.Stats"
	list, err := s.repo.All(ctx, userID)
	if err != nil {
		return models.StatsReport{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats.Compute(list, s.now().In(s.loc)), nil
}

func (s *TaskService) patchFromRequest(req models.UpdateTaskRequest) (models.TaskPatch, error) {
	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Amount:      req.Amount,
		Completed:   req.Completed,
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			patch.ClearDeadline = true
		} else {
			deadline, err := period.ParseDate(*req.Deadline, s.loc)
			if err != nil {
				return models.TaskPatch{}, models.Invalid("invalid deadline %q", *req.Deadline)
			}
			patch.Deadline = &deadline
		}
	}
	if patch.IsEmpty() {
		return models.TaskPatch{}, models.Invalid("no fields to update")
	}
	return patch, nil
}

// notify не влияет на результат операции: ошибки только логируются.
func (s *TaskService) notify(ctx context.Context, userID int64, kind notify.Kind, task models.Task) {
	webhookURL, err := s.webhooks.WebhookURL(ctx, userID)
	if err != nil {
		s.log.Warn("failed to load webhook url", slog.Int64("user_id", userID), sl.Err(err))
		return
	}
	s.notifier.Notify(ctx, webhookURL, kind, task)
}

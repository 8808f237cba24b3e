// Package tasks — репозиторий задач: создание, выборка с фильтром и сортировкой,
// частичное обновление с переходом статуса завершения и удаление.
// Все операции принимают userID явно и работают только с задачами владельца.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// Store — хранилище записей задач (PostgreSQL или SQLite).
type Store interface {
	InsertTask(ctx context.Context, task models.Task) (*models.Task, error)
	ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID, id int64, apply func(*models.Task) error) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id int64) (*models.Task, error)
}

// Repository реализует операции над задачами поверх Store.
type Repository struct {
	store Store
	now   func() time.Time
}

// New создаёт репозиторий. now может быть nil, тогда используется time.Now.
func New(store Store, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{store: store, now: now}
}

// Create сохраняет новую незавершённую задачу пользователя.
func (r *Repository) Create(ctx context.Context, userID int64, in models.NewTask) (*models.Task, error) {
	const op = "tasks.Create"

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("title is required"))
	}
	amount := in.Amount
	if amount.IsNegative() {
		amount = zero
	}

	task, err := r.store.InsertTask(ctx, models.Task{
		UserID:      userID,
		Title:       title,
		Description: emptyToNil(in.Description),
		ImageURL:    emptyToNil(in.ImageURL),
		Deadline:    in.Deadline,
		Amount:      amount,
		CreatedAt:   r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// List возвращает задачи пользователя с учётом фильтра и порядка сортировки.
func (r *Repository) List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error) {
	const op = "tasks.List"

	if !filter.SortBy.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("unknown sort key %q", filter.SortBy))
	}
	list, err := r.store.ListTasks(ctx, userID, filter.Completed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// хранилище фильтрует само, но контракт проверяем и здесь
	if filter.Completed != nil {
		list = keepCompleted(list, *filter.Completed)
	}
	Sort(list, filter.SortBy)
	return list, nil
}

// All возвращает полный набор задач пользователя без сортировки.
func (r *Repository) All(ctx context.Context, userID int64) ([]models.Task, error) {
	const op = "tasks.All"
	list, err := r.store.ListTasks(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Update применяет патч к задаче пользователя в одной транзакции хранилища.
// Возвращает обновлённую задачу и статус завершения до обновления.
func (r *Repository) Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, bool, error) {
	const op = "tasks.Update"

	var wasCompleted bool
	task, err := r.store.UpdateTask(ctx, userID, id, func(t *models.Task) error {
		wasCompleted = t.Completed
		return ApplyPatch(t, patch, r.now())
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return task, wasCompleted, nil
}

// Delete удаляет задачу пользователя и возвращает удалённую запись.
func (r *Repository) Delete(ctx context.Context, userID, id int64) (*models.Task, error) {
	const op = "tasks.Delete"
	task, err := r.store.DeleteTask(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// ApplyPatch переносит в задачу переданные поля патча.
// Переход false→true ставит CompletedAt = now, true→true сохраняет прежнюю отметку,
// явный false снимает её.
func ApplyPatch(t *models.Task, p models.TaskPatch, now time.Time) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return models.Invalid("title must not be empty")
		}
		t.Title = title
	}
	if p.Amount != nil {
		if p.Amount.IsNegative() {
			return models.Invalid("amount must not be negative")
		}
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = emptyToNil(p.Description)
	}
	if p.ImageURL != nil {
		t.ImageURL = emptyToNil(p.ImageURL)
	}
	switch {
	case p.ClearDeadline:
		t.Deadline = nil
	case p.Deadline != nil:
		d := *p.Deadline
		t.Deadline = &d
	}
	if p.Completed != nil {
		switch {
		case *p.Completed && (!t.Completed || t.CompletedAt == nil):
			stamp := now
			t.CompletedAt = &stamp
		case !*p.Completed:
			t.CompletedAt = nil
		}
		t.Completed = *p.Completed
	}
	return nil
}

func keepCompleted(list []models.Task, completed bool) []models.Task {
	out := list[:0]
	for _, t := range list {
		if t.Completed == completed {
			out = append(out, t)
		}
	}
	return out
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ebt/internal/models"
)

const taskColumns = `id, user_id, title, description, image_url, deadline,
	amount, completed, completed_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, extra ...any) (*models.Task, error) {
	var (
		t                     models.Task
		description, imageURL sql.NullString
		deadline, completedAt sql.NullInt64
		createdAt             int64
	)
	dest := []any{&t.ID, &t.UserID, &t.Title, &description, &imageURL, &deadline,
		&t.Amount, &t.Completed, &completedAt, &createdAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.ImageURL = stringPtr(imageURL)
	t.Deadline = nanosPtr(deadline)
	t.CompletedAt = nanosPtr(completedAt)
	t.CreatedAt = fromNanos(createdAt)
	return &t, nil
}

// InsertTask сохраняет задачу и возвращает её с присвоенным ID.
func (s *Storage) InsertTask(ctx context.Context, task models.Task) (*models.Task, error) {
	const op = "storage.sqlite.InsertTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `INSERT INTO tasks (user_id, title, description, image_url,
			      deadline, amount, completed, completed_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  RETURNING `+taskColumns,
		task.UserID, task.Title, nullString(task.Description), nullString(task.ImageURL),
		nullNanos(task.Deadline), task.Amount.String(), task.Completed, nullNanos(task.CompletedAt),
		nanos(task.CreatedAt))
	stored, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return stored, nil
}

// ListTasks возвращает задачи пользователя, при completed != nil — только с этим статусом.
func (s *Storage) ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error) {
	const op = "storage.sqlite.ListTasks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var filter sql.NullBool
	if completed != nil {
		filter = sql.NullBool{Bool: *completed, Valid: true}
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+taskColumns+`
			  FROM tasks
			  WHERE user_id = ? AND (? IS NULL OR completed = ?)
			  ORDER BY id`, userID, filter, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTask читает задачу пользователя, применяет apply и сохраняет результат в одной транзакции.
func (s *Storage) UpdateTask(ctx context.Context, userID, id int64, apply func(*models.Task) error) (*models.Task, error) {
	const op = "storage.sqlite.UpdateTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+`
			  FROM tasks
			  WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := apply(task); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks
			  SET title = ?, description = ?, image_url = ?, deadline = ?,
			      amount = ?, completed = ?, completed_at = ?
			  WHERE id = ? AND user_id = ?`,
		task.Title, nullString(task.Description), nullString(task.ImageURL), nullNanos(task.Deadline),
		task.Amount.String(), task.Completed, nullNanos(task.CompletedAt), id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// DeleteTask удаляет задачу пользователя и возвращает удалённую запись.
func (s *Storage) DeleteTask(ctx context.Context, userID, id int64) (*models.Task, error) {
	const op = "storage.sqlite.DeleteTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	task, err := scanTask(s.DB.QueryRowContext(ctx, `DELETE FROM tasks
			  WHERE id = ? AND user_id = ?
			  RETURNING `+taskColumns, id, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return task, nil
}

// ListDueTasks возвращает незавершённые задачи с дедлайном в [from, to)
// у пользователей с настроенным вебхуком.
func (s *Storage) ListDueTasks(ctx context.Context, from, to time.Time) ([]models.DueTask, error) {
	const op = "storage.sqlite.ListDueTasks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT t.id, t.user_id, t.title, t.description, t.image_url,
			      t.deadline, t.amount, t.completed, t.completed_at, t.created_at, s.discord_webhook_url
			  FROM tasks t
			  JOIN user_settings s ON s.user_id = t.user_id
			  WHERE t.completed = 0
			      AND t.deadline >= ? AND t.deadline < ?
			      AND COALESCE(s.discord_webhook_url, '') <> ''
			  ORDER BY t.deadline`, nanos(from), nanos(to))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.DueTask
	for rows.Next() {
		var webhook string
		t, err := scanTask(rows, &webhook)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, models.DueTask{Task: *t, WebhookURL: webhook})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

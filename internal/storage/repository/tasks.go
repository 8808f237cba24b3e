package repository

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

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                     models.Task
		description, imageURL sql.NullString
		deadline, completedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &imageURL, &deadline,
		&t.Amount, &t.Completed, &completedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.ImageURL = stringPtr(imageURL)
	t.Deadline = timePtr(deadline)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

// InsertTask сохраняет задачу и возвращает её с присвоенным ID.
func (s *Storage) InsertTask(ctx context.Context, task models.Task) (*models.Task, error) {
	const op = "storage.InsertTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tasks (user_id, title, description, image_url, deadline,
			      amount, completed, completed_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + taskColumns
	row := s.DB.QueryRowContext(ctx, query,
		task.UserID, task.Title, nullString(task.Description), nullString(task.ImageURL),
		nullTime(task.Deadline), task.Amount, task.Completed, nullTime(task.CompletedAt), task.CreatedAt)
	stored, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return stored, nil
}

// ListTasks возвращает задачи пользователя, при completed != nil — только с этим статусом.
func (s *Storage) ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error) {
	const op = "storage.ListTasks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE user_id = $1 AND ($2::BOOLEAN IS NULL OR completed = $2)
			  ORDER BY completed ASC, deadline ASC NULLS LAST, created_at DESC`
	var filter sql.NullBool
	if completed != nil {
		filter = sql.NullBool{Bool: *completed, Valid: true}
	}

	rows, err := s.DB.QueryContext(ctx, query, userID, filter)
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

// UpdateTask читает задачу пользователя под блокировкой строки, применяет к ней
// apply и сохраняет результат в одной транзакции.
func (s *Storage) UpdateTask(ctx context.Context, userID, id int64, apply func(*models.Task) error) (*models.Task, error) {
	const op = "storage.UpdateTask"
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

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+`
			  FROM tasks
			  WHERE id = $1 AND user_id = $2
			  FOR UPDATE`, id, userID)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := apply(task); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks
			  SET title = $1, description = $2, image_url = $3, deadline = $4,
			      amount = $5, completed = $6, completed_at = $7
			  WHERE id = $8 AND user_id = $9`,
		task.Title, nullString(task.Description), nullString(task.ImageURL), nullTime(task.Deadline),
		task.Amount, task.Completed, nullTime(task.CompletedAt), id, userID)
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
	const op = "storage.DeleteTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2
			  RETURNING `+taskColumns, id, userID)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return task, nil
}

// ListDueTasks возвращает незавершённые задачи с дедлайном в [from, to)
// у пользователей с настроенным вебхуком.
func (s *Storage) ListDueTasks(ctx context.Context, from, to time.Time) ([]models.DueTask, error) {
	const op = "storage.ListDueTasks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT t.id, t.user_id, t.title, t.description, t.image_url, t.deadline,
			      t.amount, t.completed, t.completed_at, t.created_at, s.discord_webhook_url
			  FROM tasks t
			  JOIN user_settings s ON s.user_id = t.user_id
			  WHERE t.completed = FALSE
			      AND t.deadline >= $1 AND t.deadline < $2
			      AND COALESCE(s.discord_webhook_url, '') <> ''
			  ORDER BY t.deadline ASC`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.DueTask
	for rows.Next() {
		var (
			due                   models.DueTask
			description, imageURL sql.NullString
			deadline, completedAt sql.NullTime
		)
		t := &due.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &description, &imageURL, &deadline,
			&t.Amount, &t.Completed, &completedAt, &t.CreatedAt, &due.WebhookURL); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Description = stringPtr(description)
		t.ImageURL = stringPtr(imageURL)
		t.Deadline = timePtr(deadline)
		t.CompletedAt = timePtr(completedAt)
		result = append(result, due)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

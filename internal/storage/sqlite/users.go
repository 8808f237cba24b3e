package sqlite

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// CreateUser сохраняет нового пользователя. Занятые email или username дают ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.sqlite.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `INSERT INTO users (username, email, password_hash, created_at)
			  VALUES (?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, nanos(user.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "storage.sqlite.GetUserByEmail", `WHERE email = ?`, email)
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "storage.sqlite.GetUserByID", `WHERE id = ?`, id)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u := &models.User{}
	var createdAt int64
	err := s.DB.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at
			  FROM users `+where, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	u.CreatedAt = fromNanos(createdAt)
	return u, nil
}

// UpdateUserPassword меняет хеш пароля пользователя.
func (s *Storage) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	const op = "storage.sqlite.UpdateUserPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

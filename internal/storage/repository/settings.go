package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ebt/internal/models"
)

const settingsColumns = `user_id, discord_webhook_url, api_key, api_enabled, created_at, updated_at`

func scanSettings(row rowScanner) (*models.Settings, error) {
	var (
		st              models.Settings
		webhook, apiKey sql.NullString
	)
	if err := row.Scan(&st.UserID, &webhook, &apiKey, &st.APIEnabled, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.WebhookURL = stringPtr(webhook)
	st.APIKey = stringPtr(apiKey)
	return &st, nil
}

// GetSettings возвращает настройки пользователя или ErrNotFound, если их ещё нет.
func (s *Storage) GetSettings(ctx context.Context, userID int64) (*models.Settings, error) {
	const op = "storage.GetSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+settingsColumns+`
			  FROM user_settings
			  WHERE user_id = $1`, userID)
	st, err := scanSettings(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return st, nil
}

// UpsertSettings применяет патч к настройкам пользователя, создавая запись при отсутствии.
func (s *Storage) UpsertSettings(ctx context.Context, userID int64, patch models.SettingsPatch, now time.Time) (*models.Settings, error) {
	const op = "storage.UpsertSettings"
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

	current, err := scanSettings(tx.QueryRowContext(ctx, `SELECT `+settingsColumns+`
			  FROM user_settings
			  WHERE user_id = $1
			  FOR UPDATE`, userID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = &models.Settings{UserID: userID, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := patch.Apply(*current)
	next.UpdatedAt = now

	row := tx.QueryRowContext(ctx, `INSERT INTO user_settings (`+settingsColumns+`)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (user_id) DO UPDATE
			  SET discord_webhook_url = EXCLUDED.discord_webhook_url,
			      api_key = EXCLUDED.api_key,
			      api_enabled = EXCLUDED.api_enabled,
			      updated_at = EXCLUDED.updated_at
			  RETURNING `+settingsColumns,
		userID, nullString(next.WebhookURL), nullString(next.APIKey), next.APIEnabled, next.CreatedAt, next.UpdatedAt)
	stored, err := scanSettings(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// FindUserIDByAPIKey возвращает владельца включённого API-ключа.
func (s *Storage) FindUserIDByAPIKey(ctx context.Context, key string) (int64, error) {
	const op = "storage.FindUserIDByAPIKey"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userID int64
	err := s.DB.QueryRowContext(ctx, `SELECT user_id
			  FROM user_settings
			  WHERE api_key = $1 AND api_enabled = TRUE`, key).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return userID, nil
}

// Package services реализует настройки пользователя: вебхук уведомлений,
// API-ключ и его включение, а также проверку API-ключей для шлюза доступа.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/apikey"
	"github.com/magabrotheeeer/ebt/internal/models"
)

// генерация повторяется, если ключ случайно совпал с чужим
const keyAttempts = 3

// SettingsRepository — хранилище настроек.
type SettingsRepository interface {
	GetSettings(ctx context.Context, userID int64) (*models.Settings, error)
	UpsertSettings(ctx context.Context, userID int64, patch models.SettingsPatch, now time.Time) (*models.Settings, error)
	FindUserIDByAPIKey(ctx context.Context, key string) (int64, error)
}

// SettingsService управляет настройками пользователя.
type SettingsService struct {
	repo     SettingsRepository
	log      *slog.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(repo SettingsRepository, log *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		log:      log,
		now:      time.Now,
		generate: apikey.Generate,
	}
}

// Get возвращает настройки пользователя; если записи нет — значения по умолчанию.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*models.Settings, error) {
	const op = "services.settings.Get"
	st, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Settings{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// WebhookURL возвращает адрес вебхука пользователя или пустую строку.
func (s *SettingsService) WebhookURL(ctx context.Context, userID int64) (string, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if st.WebhookURL == nil {
		return "", nil
	}
	return *st.WebhookURL, nil
}

// UpdateWebhook сохраняет адрес вебхука. Пустая строка отключает уведомления.
func (s *SettingsService) UpdateWebhook(ctx context.Context, userID int64, webhookURL string) error {
	const op = "services.settings.UpdateWebhook"
	url := strings.TrimSpace(webhookURL)
	if url != "" && !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("%s: %w", op, models.Invalid("webhook url must be http(s)"))
	}
	if _, err := s.repo.UpsertSettings(ctx, userID, models.SettingsPatch{WebhookURL: &url}, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GenerateAPIKey выпускает новый ключ взамен прежнего и включает доступ по API.
func (s *SettingsService) GenerateAPIKey(ctx context.Context, userID int64) (string, error) {
	const op = "services.settings.GenerateAPIKey"
	enabled := true

	var lastErr error
	for range keyAttempts {
		key, err := s.generate()
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		_, err = s.repo.UpsertSettings(ctx, userID, models.SettingsPatch{APIKey: &key, APIEnabled: &enabled}, s.now().UTC())
		if err == nil {
			s.log.Info("api key generated", slog.Int64("user_id", userID))
			return key, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("%s: %w", op, lastErr)
}

// SetAPIAccess включает или выключает доступ по API-ключу.
func (s *SettingsService) SetAPIAccess(ctx context.Context, userID int64, enabled bool) error {
	const op = "services.settings.SetAPIAccess"
	if _, err := s.repo.UpsertSettings(ctx, userID, models.SettingsPatch{APIEnabled: &enabled}, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResolveAPIKey возвращает владельца ключа. Неверный формат, неизвестный
// или выключенный ключ дают ErrUnauthorized.
func (s *SettingsService) ResolveAPIKey(ctx context.Context, key string) (int64, error) {
	const op = "services.settings.ResolveAPIKey"
	if !apikey.Valid(key) {
		return 0, fmt.Errorf("%s: %w: malformed api key", op, models.ErrUnauthorized)
	}
	userID, err := s.repo.FindUserIDByAPIKey(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w: unknown or disabled api key", op, models.ErrUnauthorized)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return userID, nil
}

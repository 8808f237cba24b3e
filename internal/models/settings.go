package models

import "time"

// Settings хранит пользовательские настройки: адрес вебхука и API-ключ.
// Запись создаётся лениво при первой записи.
type Settings struct {
	UserID     int64     `json:"-"`
	WebhookURL *string   `json:"discord_webhook_url"`
	APIKey     *string   `json:"api_key"`
	APIEnabled bool      `json:"api_enabled"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// SettingsPatch — частичное обновление настроек, nil означает «не менять».
type SettingsPatch struct {
	WebhookURL *string
	APIKey     *string
	APIEnabled *bool
}

// Apply возвращает настройки с применёнными полями патча.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.WebhookURL != nil {
		if *p.WebhookURL == "" {
			s.WebhookURL = nil
		} else {
			url := *p.WebhookURL
			s.WebhookURL = &url
		}
	}
	if p.APIKey != nil {
		key := *p.APIKey
		s.APIKey = &key
	}
	if p.APIEnabled != nil {
		s.APIEnabled = *p.APIEnabled
	}
	return s
}

// WebhookRequest — смена адреса вебхука. Пустая строка отключает уведомления.
type WebhookRequest struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

// APIAccessRequest включает или выключает доступ по API-ключу.
type APIAccessRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

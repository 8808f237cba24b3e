package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError — вебхук ответил статусом вне 2xx.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.Code)
}

// Permanent сообщает, что повтор не поможет: адрес неверен или отозван.
// 429 и 5xx считаются временными.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

// IsPermanent сообщает, что ошибка доставки не исправится повтором.
func IsPermanent(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Permanent()
}

// WebhookClient отправляет payload на адрес Discord-вебхука.
type WebhookClient struct {
	httpClient *http.Client
}

// NewWebhookClient создаёт клиент с общим таймаутом запроса.
func NewWebhookClient(timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send выполняет POST с JSON-телом payload.
func (c *WebhookClient) Send(ctx context.Context, webhookURL string, payload Payload) error {
	const op = "notify.WebhookClient.Send"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, &StatusError{Code: resp.StatusCode})
	}
	return nil
}

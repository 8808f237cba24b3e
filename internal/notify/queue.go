package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/metrics"
	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/rabbitmq"
)

// Event — сообщение очереди уведомлений.
type Event struct {
	WebhookURL string      `json:"webhook_url"`
	Kind       Kind        `json:"kind"`
	Task       models.Task `json:"task"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// MessagePublisher публикует сообщение в брокер в виде JSON.
type MessagePublisher interface {
	Publish(message any) error
}

// QueueNotifier публикует события в RabbitMQ вместо прямой отправки.
type QueueNotifier struct {
	publisher MessagePublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewQueueNotifier создаёт уведомитель, работающий через очередь.
func NewQueueNotifier(publisher MessagePublisher, log *slog.Logger) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, log: log, now: time.Now}
}

// Notify публикует событие. Ошибки публикации только логируются.
func (q *QueueNotifier) Notify(_ context.Context, webhookURL string, kind Kind, task models.Task) {
	if webhookURL == "" {
		return
	}
	if err := q.Publish(Event{WebhookURL: webhookURL, Kind: kind, Task: task, OccurredAt: q.now()}); err != nil {
		metrics.ObserveNotification(string(kind), metrics.ResultFailed)
		q.log.Warn("failed to publish notification",
			slog.String("kind", string(kind)),
			slog.Int64("task_id", task.ID),
			sl.Err(err))
		return
	}
	metrics.ObserveNotification(string(kind), metrics.ResultPublished)
}

// Publish публикует событие.
func (q *QueueNotifier) Publish(event Event) error {
	const op = "notify.QueueNotifier.Publish"
	if err := q.publisher.Publish(event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Handler возвращает обработчик сообщений очереди для notification-sender.
// Нечитаемые сообщения и отказы вебхука 4xx помечаются как окончательные.
func Handler(sender Sender, timeout time.Duration) func(body []byte) error {
	return func(body []byte) error {
		var event Event
		if err := json.Unmarshal(body, &event); err != nil {
			return rabbitmq.Permanent(fmt.Errorf("decode event: %w", err))
		}
		if event.WebhookURL == "" || !event.Kind.Valid() {
			return rabbitmq.Permanent(fmt.Errorf("invalid event: kind %q", event.Kind))
		}
		at := event.OccurredAt
		if at.IsZero() {
			at = time.Now()
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := Deliver(ctx, sender, event.WebhookURL, event.Kind, event.Task, at)
		switch {
		case err == nil:
			metrics.ObserveNotification(string(event.Kind), metrics.ResultSent)
			return nil
		case IsPermanent(err):
			metrics.ObserveNotification(string(event.Kind), metrics.ResultDropped)
			return rabbitmq.Permanent(err)
		default:
			metrics.ObserveNotification(string(event.Kind), metrics.ResultFailed)
			return err
		}
	}
}

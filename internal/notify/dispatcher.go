package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/metrics"
	"github.com/magabrotheeeer/ebt/internal/models"
)

// Notifier принимает уведомление о задаче. Реализации не возвращают ошибок:
// сбой доставки не влияет на результат операции над задачей.
type Notifier interface {
	Notify(ctx context.Context, webhookURL string, kind Kind, task models.Task)
}

// Sender доставляет готовый payload.
type Sender interface {
	Send(ctx context.Context, webhookURL string, payload Payload) error
}

// Deliver строит карточку и отправляет её через sender.
// Ошибка оборачивает models.ErrExternalDelivery.
func Deliver(ctx context.Context, sender Sender, webhookURL string, kind Kind, task models.Task, at time.Time) error {
	embed, err := BuildEmbed(kind, task, at)
	if err != nil {
		return err
	}
	if err := sender.Send(ctx, webhookURL, Payload{Embeds: []Embed{embed}}); err != nil {
		return fmt.Errorf("%w: %w", models.ErrExternalDelivery, err)
	}
	return nil
}

// Dispatcher отправляет уведомления напрямую, каждое в своей горутине
// с собственным таймаутом, не связанным с отменой запроса.
type Dispatcher struct {
	sender  Sender
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDispatcher создаёт диспетчер прямой доставки.
func NewDispatcher(sender Sender, log *slog.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// Notify запускает доставку и сразу возвращает управление.
// Пустой адрес вебхука — ничего не делать.
func (d *Dispatcher) Notify(ctx context.Context, webhookURL string, kind Kind, task models.Task) {
	if webhookURL == "" {
		return
	}
	at := d.now()
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := Deliver(ctx, d.sender, webhookURL, kind, task, at); err != nil {
			metrics.ObserveNotification(string(kind), metrics.ResultFailed)
			d.log.Warn("failed to deliver notification",
				slog.String("kind", string(kind)),
				slog.Int64("task_id", task.ID),
				sl.Err(err))
			return
		}
		metrics.ObserveNotification(string(kind), metrics.ResultSent)
		d.log.Debug("notification delivered", slog.String("kind", string(kind)), slog.Int64("task_id", task.ID))
	}()
}

// Wait ждёт завершения всех запущенных доставок.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

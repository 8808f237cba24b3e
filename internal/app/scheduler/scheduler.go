// Package scheduler содержит процесс напоминаний о близких дедлайнах.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ebt/internal/config"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/notify"
	"github.com/magabrotheeeer/ebt/internal/rabbitmq"
	reminderservice "github.com/magabrotheeeer/ebt/internal/services/reminder"
	"github.com/magabrotheeeer/ebt/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	reminderService *reminderservice.ReminderService
	cron            *cron.Cron
	store           storage.Store
	conn            *amqp.Connection
	ch              *amqp.Channel
	logger          *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	schedule, err := cron.ParseStandard(cfg.Reminder.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.Reminder.Cron, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := rabbitmq.NotificationQueues(cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, queues)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	publisher := notify.NewQueueNotifier(rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey), logger)
	reminderService := reminderservice.NewReminderService(store, publisher, logger, cfg.Reminder.Horizon)

	c := newCron(cfg.Location(), schedule, func() { reminderService.Run(ctx) })

	return &App{
		reminderService: reminderService,
		cron:            c,
		store:           store,
		conn:            conn,
		ch:              ch,
		logger:          logger,
	}, nil
}

// newCron собирает расписание с единственной задачей напоминаний.
func newCron(loc *time.Location, schedule cron.Schedule, job func()) *cron.Cron {
	c := cron.New(cron.WithLocation(loc))
	c.Schedule(schedule, cron.FuncJob(job))
	return c
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает расписание и ждёт отмены ctx; начатый прогон доводится до конца.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start()
	a.logger.Info("reminder scheduler started", slog.Int("jobs", len(a.cron.Entries())))

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	<-a.cron.Stop().Done()

	closeResources(a.ch, a.conn, a.logger)
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}

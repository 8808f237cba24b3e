package ebt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/ebt/internal/config"
	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/lib/jwt"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/notify"
	"github.com/magabrotheeeer/ebt/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/ebt/internal/services/auth"
	settingsservice "github.com/magabrotheeeer/ebt/internal/services/settings"
	taskservice "github.com/magabrotheeeer/ebt/internal/services/task"
	"github.com/magabrotheeeer/ebt/internal/session"
	"github.com/magabrotheeeer/ebt/internal/storage"
	"github.com/magabrotheeeer/ebt/internal/tasks"
)

const shutdownTimeout = 15 * time.Second

// App — процесс REST API.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	store      storage.Store
	sessions   *session.Store
	dispatcher *notify.Dispatcher
	conn       *amqp.Connection
	ch         *amqp.Channel
}

// New поднимает хранилище, хранилище сессий и доставку уведомлений и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.ebt.New"

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, store: store}

	app.sessions, err = session.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notifier, err := app.newNotifier(cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	settingsService := settingsservice.NewSettingsService(store, logger)
	svc := Services{
		Auth:     authservice.NewAuthService(store, app.sessions, jwtMaker, cfg.TokenTTL),
		Settings: settingsService,
		Tasks:    taskservice.NewTaskService(tasks.New(store, nil), settingsService, notifier, logger, cfg.Location()),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, middlewarectx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), cfg.CORS.AllowedOrigins)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) newNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.Notifier.Mode != config.NotifierQueue {
		a.dispatcher = notify.NewDispatcher(notify.NewWebhookClient(cfg.Notifier.Timeout), a.logger, cfg.Notifier.Timeout)
		return a.dispatcher, nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	queues := rabbitmq.NotificationQueues(cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, queues)
	if err != nil {
		return nil, err
	}
	a.ch = ch
	return notify.NewQueueNotifier(rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey), a.logger), nil
}

// Run обслуживает HTTP до отмены ctx, затем останавливает сервер,
// дожидается начатых доставок уведомлений и закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Package storage выбирает бэкенд хранилища записей по конфигу и применяет миграции.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ebt/internal/config"
	"github.com/magabrotheeeer/ebt/internal/migrations"
	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/storage/repository"
	"github.com/magabrotheeeer/ebt/internal/storage/sqlite"
)

// Store — полный набор операций хранилища, общий для PostgreSQL и SQLite.
type Store interface {
	InsertTask(ctx context.Context, task models.Task) (*models.Task, error)
	ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID, id int64, apply func(*models.Task) error) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id int64) (*models.Task, error)
	ListDueTasks(ctx context.Context, from, to time.Time) ([]models.DueTask, error)

	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	GetSettings(ctx context.Context, userID int64) (*models.Settings, error)
	UpsertSettings(ctx context.Context, userID int64, patch models.SettingsPatch, now time.Time) (*models.Settings, error)
	FindUserIDByAPIKey(ctx context.Context, key string) (int64, error)

	Close() error
}

var (
	_ Store = (*repository.Storage)(nil)
	_ Store = (*sqlite.Storage)(nil)
)

const (
	readyAttempts = 10
	readyDelay    = 3 * time.Second
)

// Open подключается к хранилищу из cfg и применяет миграции.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	const op = "storage.Open"

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := repository.New(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := db.WaitReady(ctx, readyAttempts, readyDelay); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.RunPostgres(db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return db, nil
	case config.DriverSQLite:
		db, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.RunSQLite(db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}

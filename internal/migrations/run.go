// Package migrations применяет встроенные SQL-миграции golang-migrate
// к PostgreSQL или SQLite.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// RunPostgres применяет миграции к базе PostgreSQL.
func RunPostgres(db *sql.DB) error {
	const op = "migrations.RunPostgres"
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := up(driver, "postgres", "pgx_v5"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RunSQLite применяет миграции к базе SQLite.
func RunSQLite(db *sql.DB) error {
	const op = "migrations.RunSQLite"
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := up(driver, "sqlite", "sqlite"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func up(driver database.Driver, dir, name string) error {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

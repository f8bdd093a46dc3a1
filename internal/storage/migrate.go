package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. created reports whether the
// database had no schema version before this run.
func RunMigrations(dsn string) (created bool, err error) {
	// Create a separate connection for migrations to avoid interfering with the main connection
	migrateDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return false, fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return false, fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return false, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return false, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if _, _, err := m.Version(); err != nil {
		if !errors.Is(err, migrate.ErrNilVersion) {
			return false, fmt.Errorf("read schema version: %w", err)
		}
		created = true
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return false, fmt.Errorf("run migrations: %w", err)
	}

	return created, nil
}

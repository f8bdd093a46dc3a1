package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the category and transaction store for both kinds.
// It holds a single pooled connection; statements never run concurrently.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// DSN builds the driver connection string for dbPath with foreign keys enforced
// on every connection.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)"
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := requireForeignKeys(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return repo, nil
}

// requireForeignKeys fails if the driver ignored the foreign_keys pragma,
// since category deletion relies on restrict semantics.
func requireForeignKeys(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("read foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return errors.New("foreign keys are not enabled by the sqlite driver")
	}
	return nil
}

// Path returns the database file location.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Ping checks that the database is still reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// EnsureSchema creates the four tables if absent. On first creation it seeds
// the default categories. Safe to call any number of times.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	created, err := RunMigrations(DSN(r.path))
	if err != nil {
		return err
	}
	if !created {
		slog.DebugContext(ctx, "Schema already present", "path", r.path)
		return nil
	}

	slog.InfoContext(ctx, "Schema created, seeding default categories", "path", r.path)
	_, err = r.SeedDefaults(ctx)
	return err
}

package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// The daily_records schema ships inside the binary.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// ErrDirtySchema is returned when a previous migration stopped half way and
// the database needs manual repair before the tracker can use it.
var ErrDirtySchema = errors.New("daily records schema is dirty")

// RunMigrations upgrades the daily records schema at dsn to the newest
// embedded version and returns that version. migrate closes the database it
// is given, so this uses a connection separate from the storage pool.
func RunMigrations(dsn string, logger *zap.Logger) (uint, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	schemaDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return 0, fmt.Errorf("open schema connection: %w", err)
	}
	defer schemaDB.Close()

	target, err := sqlite.WithInstance(schemaDB, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("prepare schema target: %w", err)
	}
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load embedded schema: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("prepare schema upgrade: %w", err)
	}
	defer m.Close()

	var dirtyErr migrate.ErrDirty
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case errors.As(err, &dirtyErr):
		return uint(dirtyErr.Version), fmt.Errorf("%w at version %d", ErrDirtySchema, dirtyErr.Version)
	case err != nil:
		return 0, fmt.Errorf("upgrade daily records schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	logger.Debug("daily records schema up to date", zap.Uint("version", version))
	return version, nil
}

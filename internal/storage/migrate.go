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
var archiveSchema embed.FS

// archiveMigrator owns its connection; Close on the migrator releases it.
func archiveMigrator(dbPath string) (*migrate.Migrate, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive for migration: %w", err)
	}
	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite migration target: %w", err)
	}
	scripts, err := iofs.New(archiveSchema, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("embedded archive schema: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", scripts, "sqlite", target)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies pending archive schema changes and returns the
// resulting schema version. A dirty version from an interrupted run is an error.
func RunMigrations(dbPath string) (uint, error) {
	m, err := archiveMigrator(dbPath)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply archive schema: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read archive schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("archive schema version %d is dirty", version)
	}
	return version, nil
}

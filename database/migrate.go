package database

import (
	"embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies every pending migration and logs the resulting version
func MigrateUp(databaseURL string) error {
	return withMigrate(databaseURL, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info("No new migrations to apply")
				return nil
			}
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logVersion(m, "Migrated schema")
		return nil
	})
}

// MigrateDown rolls back stepsStr migrations, which must be a positive integer
func MigrateDown(databaseURL, stepsStr string) error {
	steps, err := strconv.Atoi(stepsStr)
	if err != nil || steps <= 0 {
		return fmt.Errorf("invalid steps value %q", stepsStr)
	}

	return withMigrate(databaseURL, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info("No migrations to roll back")
				return nil
			}
			return fmt.Errorf("failed to roll back %d migrations: %w", steps, err)
		}
		logVersion(m, "Rolled back schema")
		return nil
	})
}

// MigrateStatus logs the applied version and whether it is dirty
func MigrateStatus(databaseURL string) error {
	return withMigrate(databaseURL, func(m *migrate.Migrate) error {
		if _, _, err := m.Version(); err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		logVersion(m, "Current schema")
		return nil
	})
}

// RunMigrationsWithURL applies pending migrations without logging, used at
// service start and by test containers
func RunMigrationsWithURL(databaseURL string) error {
	return withMigrate(databaseURL, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

func logVersion(m *migrate.Migrate, msg string) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info(msg + ": no migrations applied")
		return
	}
	log.WithFields(log.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info(msg)
}

// withMigrate opens a migrate instance over the embedded SQL, runs fn and
// closes both the source and the database handle
func withMigrate(databaseURL string, fn func(m *migrate.Migrate) error) error {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	driver, err := postgres.WithInstance(stdlib.OpenDB(*poolConfig.ConnConfig), &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.WithFields(log.Fields{
				"sourceError":   srcErr,
				"databaseError": dbErr,
			}).Warn("Failed to close migrate instance")
		}
	}()

	return fn(m)
}

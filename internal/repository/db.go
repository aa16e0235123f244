package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The bot writes one journal row per guide request and touches the users
// table on every update, so the pool stays small.
const (
	poolMaxConns          = 10
	poolMinConns          = 2
	poolHealthCheckPeriod = time.Minute
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.HealthCheckPeriod = poolHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// MigrationSource opens migrationsFS as a migrate source and checks that
// every version ships both an up and a down script.
func MigrationSource(migrationsFS fs.FS) (source.Driver, error) {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	version, err := d.First()
	for err == nil {
		if err := checkPair(d, version); err != nil {
			d.Close()
			return nil, err
		}
		version, err = d.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		d.Close()
		return nil, fmt.Errorf("walk migrations: %w", err)
	}
	return d, nil
}

func checkPair(d source.Driver, version uint) error {
	up, _, err := d.ReadUp(version)
	if err != nil {
		return fmt.Errorf("migration %d has no up script: %w", version, err)
	}
	up.Close()

	down, _, err := d.ReadDown(version)
	if err != nil {
		return fmt.Errorf("migration %d has no down script: %w", version, err)
	}
	down.Close()
	return nil
}

func RunMigrations(databaseURL string, migrationsFS fs.FS) error {
	d, err := MigrationSource(migrationsFS)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		slog.Warn("database schema is dirty", "version", version)
	}
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

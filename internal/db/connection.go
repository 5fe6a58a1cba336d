package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

type logger interface {
	Info(msg string, args ...any)
}

// Schema state after migrations
type MigrationStatus struct {
	Version uint
	// True if no migration was applied, schema was up to date
	UpToDate bool
}

// Run embedded migrations
// Check the example at https://github.com/golang-migrate/migrate/blob/v4.18.1/source/iofs/example_test.go
// dsn: database source name in format postgres://...
func Migrate(dsn string) (MigrationStatus, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return MigrationStatus{}, err
	}

	migrator, err := migrate.NewWithSourceInstance(
		"iofs",
		source,
		strings.NewReplacer(
			"postgres://", "pgx5://", // golang-migrate expects dsn in format 'pgx5://...' only
			"postgresql://", "pgx5://",
		).Replace(dsn),
	)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("error while preparing migrator. Err: %w", err)
	}
	defer migrator.Close() // nolint:errcheck

	var status MigrationStatus
	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		status.UpToDate = true
	case err != nil:
		return MigrationStatus{}, fmt.Errorf("error while applying migrations. Err: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("error while reading schema version. Err: %w", err)
	}
	if dirty {
		return MigrationStatus{}, fmt.Errorf("schema version %d is dirty, fix it manually", version)
	}
	status.Version = version

	return status, nil
}

// Connect creates connection pool and checks database is reachable
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cant initialize connection pool. Err: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database is not reachable. Err: %w", err)
	}

	return pool, nil
}

// Migrate schema of users and refresh tokens, than connect
func ConnectAndMigrate(ctx context.Context, dsn string, l logger) (*pgxpool.Pool, error) {
	status, err := Migrate(dsn)
	if err != nil {
		return nil, err
	}
	l.Info("Database schema migrated", "version", status.Version, "up_to_date", status.UpToDate)

	return Connect(ctx, dsn)
}

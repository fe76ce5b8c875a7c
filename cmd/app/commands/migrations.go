package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/allisson/credentials/internal/config"
	"github.com/allisson/credentials/migrations"
)

// RunMigrations applies the embedded schema of a SQL credential store.
// Returns nil if there is nothing to apply.
func RunMigrations(logger *slog.Logger, storeDriver, connectionString string) error {
	if storeDriver != config.StoreDriverPostgres && storeDriver != config.StoreDriverMySQL {
		return fmt.Errorf("store driver %q has no migrations", storeDriver)
	}

	logger.Info("running database migrations",
		slog.String("driver", storeDriver),
	)

	source, err := iofs.New(migrations.FS, migrations.Dir(storeDriver))
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateDatabaseURL(storeDriver, connectionString))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// migrateDatabaseURL turns a go-sql-driver DSN ("user:pass@tcp(host)/db")
// into the mysql:// URL golang-migrate expects.
func migrateDatabaseURL(storeDriver, connectionString string) string {
	if storeDriver == config.StoreDriverMySQL && !strings.HasPrefix(connectionString, "mysql://") {
		return "mysql://" + connectionString
	}
	return connectionString
}

package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sponsorwall/backend/migrations"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLiteMigrateURL builds the golang-migrate address of a sqlite file.
func SQLiteMigrateURL(path string) string {
	return "sqlite://" + path
}

// RunMigrations applies every pending up migration of driver to the
// database at addr.
func RunMigrations(driver, addr string, log *zap.Logger) error {
	if driver != DriverPostgres && driver != DriverSQLite {
		return fmt.Errorf("unsupported storage driver %q", driver)
	}

	src, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return err
	}
	defer src.Close()

	mg, err := migrate.NewWithSourceInstance("iofs", src, addr)
	if err != nil {
		return err
	}
	defer mg.Close()

	_, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	if dirty {
		return errors.New("database is in dirty state")
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, _, _ := mg.Version()
	log.Info("migrations applied", zap.String("driver", driver), zap.Uint("version", version))
	return nil
}

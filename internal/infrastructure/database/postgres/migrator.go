package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // database driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver

	"github.com/lexintel/LexTriage/pkg/errors"
)

// RunMigrations applies all pending migrations.  Called on startup so the
// schema is current before repositories are used.  A database already at the
// latest version is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: migration failed")
	}
	return nil
}

// RollbackMigrations reverts the schema by steps versions.  Used from the
// CLI in development.
func RollbackMigrations(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "postgres: rollback steps must be positive, got %d", steps)
	}
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to create migrator")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: rollback failed")
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the
// database is in a dirty (half-migrated) state.
func MigrationVersion(dbURL, migrationsPath string) (uint, bool, error) {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to create migrator")
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to read version")
	}
	return version, dirty, nil
}

package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"go-roomchat/migrations"
)

// Migrate applies all pending SQL migrations bundled with the service.
func Migrate(dsn string, log zerolog.Logger) (err error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := migrator.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	version, dirty, verr := migrator.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		log.Info().Msg("No migrations have been applied yet")
	case verr != nil:
		log.Warn().Err(verr).Msg("Error getting migration version")
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration state")
	}

	if dirty {
		log.Warn().Uint("version", version).Msg("Database is in dirty state, forcing version...")
		if forceErr := migrator.Force(int(version)); forceErr != nil {
			return fmt.Errorf("force version %d to clear dirty state: %w", version, forceErr)
		}
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	if finalVersion, _, verr := migrator.Version(); verr == nil {
		log.Info().Uint("version", finalVersion).Msg("Migrations applied")
	}
	return nil
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/database/postgres"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newMigrateCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	// dbTargets resolves the migration source URL and database URL from
	// configuration alone, without opening any backend.
	dbTargets := func() (sourceURL, dbURL string, err error) {
		var cfg *config.Config
		if opts.ConfigPath != "" {
			cfg, err = config.Load(opts.ConfigPath)
		} else {
			cfg, err = config.LoadFromEnv()
		}
		if err != nil {
			return "", "", err
		}

		if cfg.Database.Host == "" {
			return "", "", errors.New(errors.ErrCodeValidation,
				"migrate: no database host configured")
		}

		path := cfg.Database.MigrationPath
		if path == "" {
			path = "migrations"
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return "file://" + abs, postgres.BuildDSN(cfg.Database), nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, db, err := dbTargets()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(db, source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, db, err := dbTargets()
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(db, source, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, db, err := dbTargets()
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(db, source)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty)\n", version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

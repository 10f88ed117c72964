package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateLogger adapts zap to migrate.Logger.
type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool { return false }

func (a *app) migrator() (*migrate.Migrate, error) {
	if a.cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("migrations support the sqlite driver only, got %q", a.cfg.Database.Driver)
	}
	dir, err := filepath.Abs(a.cfg.Database.Migrations)
	if err != nil {
		return nil, fmt.Errorf("invalid migrations path: %w", err)
	}
	dsn := strings.TrimPrefix(a.cfg.Database.DSN, "file:")

	m, err := migrate.New("file://"+filepath.ToSlash(dir), "sqlite://"+dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	m.Log = migrateLogger{log: a.log.Sugar()}
	return m, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations of database.migrations",
	}

	run := func(name string, step func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := step(m, args); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run migrations %s: %w", name, err)
			}
			version, dirty, err := m.Version()
			if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
				return err
			}
			a.log.Info("migrated", zap.String("direction", name), zap.Uint("version", version), zap.Bool("dirty", dirty))
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE:  run("up", func(m *migrate.Migrate, _ []string) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down [n]",
			Short: "Roll back n migrations (all when n is omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: run("down", func(m *migrate.Migrate, args []string) error {
				if len(args) == 0 {
					return m.Down()
				}
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(-n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			Args:  cobra.NoArgs,
			RunE:  run("version", func(*migrate.Migrate, []string) error { return nil }),
		},
	)
	return cmd
}

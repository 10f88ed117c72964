package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/tinywasm/record"
	"github.com/tinywasm/record/pkg/config"
	"github.com/tinywasm/record/pkg/logger"
	"github.com/tinywasm/record/router"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	configFile string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "recordctl",
		Short: "Inspect routes, entity queries and the database of a record application",
		Long: `recordctl works from a YAML configuration (--config) overlaid with RECORD_*
environment variables. The schema and route files it names describe the
entities and the handler table.

Examples:
  # Resolve a path
  recordctl route projects/show/project/5

  # Preview the SQL of a collection
  recordctl sql Project --where "title = ?" --arg demo --order title

  # Print the DDL and apply migrations
  recordctl ddl
  recordctl migrate up`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "configuration file (YAML)")

	root.AddCommand(
		newRouteCmd(a),
		newSQLCmd(a),
		newDDLCmd(a),
		newQueryCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configFile, config.EnvPrefix)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) table() (*router.Table, error) {
	f, err := os.Open(a.cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("failed to open route table: %w", err)
	}
	defer f.Close()
	return router.LoadTable(f)
}

// engine registers the schema file on a DB backed by exec. exec may be nil
// when nothing is executed.
func (a *app) engine(exec record.Executor) (*record.DB, error) {
	f, err := os.Open(a.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()

	schemas, err := record.LoadSchemas(f)
	if err != nil {
		return nil, err
	}
	db := record.New(exec,
		record.WithLogger(a.log),
		record.WithDefaultLimit(a.cfg.Query.DefaultLimit))
	if err := db.Register(schemas...); err != nil {
		return nil, err
	}
	if err := db.ResolveRelations(); err != nil {
		return nil, err
	}
	return db, nil
}

func (a *app) open() (*sql.DB, error) {
	conn, err := sql.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinywasm/record"
)

// selection holds the collection flags shared by sql and query.
type selection struct {
	where  string
	args   []string
	order  string
	limit  int
	offset int
}

func (s *selection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.where, "where", "w", "", "predicate, a primary key or a clause with ? placeholders")
	cmd.Flags().StringArrayVarP(&s.args, "arg", "a", nil, "placeholder value (repeatable)")
	cmd.Flags().StringVarP(&s.order, "order", "o", "", "ORDER BY clause")
	cmd.Flags().IntVarP(&s.limit, "limit", "l", 0, "page size (default from query.default_limit)")
	cmd.Flags().IntVar(&s.offset, "offset", 0, "rows to skip")
}

// collection builds the filtered Collection. An offset without a limit pages
// by pageSize.
func (s *selection) collection(db *record.DB, typeName string, pageSize int) (*record.Collection, error) {
	c, err := db.Select(typeName)
	if err != nil {
		return nil, err
	}
	if s.where != "" {
		args := make([]any, len(s.args))
		for i, v := range s.args {
			args[i] = v
		}
		c.Where(s.where, args...)
	}
	if s.order != "" {
		c.Order(s.order)
	}
	if s.limit > 0 || s.offset > 0 {
		limit := s.limit
		if limit <= 0 {
			limit = pageSize
		}
		c.Limit(limit, s.offset)
	}
	if err := c.Query().Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func newSQLCmd(a *app) *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "sql <Entity>",
		Short: "Print the SELECT statement of an entity collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.engine(nil)
			if err != nil {
				return err
			}
			c, err := sel.collection(db, args[0], a.cfg.Query.DefaultLimit)
			if err != nil {
				return err
			}
			q, err := c.SQL()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), q)
			return nil
		},
	}
	sel.bind(cmd)
	return cmd
}

func newDDLCmd(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print CREATE TABLE statements for the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var exec record.Executor
			if apply {
				conn, err := a.open()
				if err != nil {
					return err
				}
				defer conn.Close()
				exec = record.FromSQL(conn)
			}
			db, err := a.engine(exec)
			if err != nil {
				return err
			}
			for _, name := range db.Types() {
				stmt, err := db.CreateTable(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
				if apply {
					if _, err := db.Exec(stmt); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "also execute the statements on the configured database")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "query <Entity>",
		Short: "Fetch an entity collection and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			db, err := a.engine(record.FromSQL(conn))
			if err != nil {
				return err
			}
			c, err := sel.collection(db, args[0], a.cfg.Query.DefaultLimit)
			if err != nil {
				return err
			}
			out := []record.Values{}
			err = c.Each(func(_ int, r *record.Row) error {
				out = append(out, r.Map())
				return nil
			})
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), out)
		},
	}
	sel.bind(cmd)
	return cmd
}

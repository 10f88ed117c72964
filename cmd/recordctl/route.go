package main

import (
	"github.com/spf13/cobra"

	"github.com/tinywasm/record/router"
)

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>...",
		Short: "Resolve paths against the route table",
		Long: `Resolves every path in order with one router, as a dispatch cycle with
forwards would, and prints the resolved routes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}
			r := router.New(table, router.WithLogger(a.log))

			var out []map[string]any
			for _, path := range args {
				route, err := r.Route(path)
				if err != nil {
					return err
				}
				out = append(out, map[string]any{
					"path":       path,
					"handler":    route.Handler,
					"controller": route.Controller,
					"action":     route.Action,
					"params":     map[string]any(route.Params),
					"url":        r.URL(nil, router.LinkOptions{}),
				})
			}
			return printYAML(cmd.OutOrStdout(), out)
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node -- <docker-machine-args...>",
	Short: "run a raw docker-machine subcommand against each matched machine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		out, err := orch.Node(cmd.Context(), nil, restrictPatterns(cmd), args)
		if err != nil {
			return fatalError(err)
		}
		for name, output := range out {
			fmt.Printf("== %s ==\n%s\n", name, output)
		}
		return nil
	},
}

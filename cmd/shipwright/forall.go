package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forallCmd = &cobra.Command{
	Use:   "forall -- <docker-args...>",
	Short: "run a docker subcommand against every matched machine's daemon",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		out, err := orch.ForallExec(cmd.Context(), nil, restrictPatterns(cmd), args)
		if err != nil {
			return fatalError(err)
		}
		for name, output := range out {
			fmt.Printf("== %s ==\n%s\n", name, output)
		}
		return nil
	},
}

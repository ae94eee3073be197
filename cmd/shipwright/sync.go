package main

import "github.com/spf13/cobra"

var syncCmd = &cobra.Command{
	Use:   "sync [pattern...]",
	Short: "re-run the share/preseed/script phases against already-running machines",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		results := orch.Sync(cmd.Context(), args, restrictPatterns(cmd))
		return printSummary(results)
	},
}

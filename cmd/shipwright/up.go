package main

import (
	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up [pattern...]",
	Short: "bring the cluster (or the matched machines) up, masters first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rc := remoteClient(cmd); rc != nil {
			results, err := rc.Up(cmd.Context(), args, restrictPatterns(cmd))
			if err != nil {
				return fatalError(err)
			}
			return printSummary(results)
		}

		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		results, err := orch.Up(cmd.Context(), args, restrictPatterns(cmd))
		if err != nil {
			return fatalError(err)
		}
		return printSummary(results)
	},
}

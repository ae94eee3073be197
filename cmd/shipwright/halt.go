package main

import "github.com/spf13/cobra"

var haltCmd = &cobra.Command{
	Use:   "halt [pattern...]",
	Short: "stop the matched machines without destroying them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rc := remoteClient(cmd); rc != nil {
			results, err := rc.Halt(cmd.Context(), args, restrictPatterns(cmd))
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

		results := orch.Halt(cmd.Context(), args, restrictPatterns(cmd))
		return printSummary(results)
	},
}

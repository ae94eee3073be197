package main

import "github.com/spf13/cobra"

var destroyCmd = &cobra.Command{
	Use:   "destroy [pattern...]",
	Short: "tear down the matched machines and their checkpoint state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rc := remoteClient(cmd); rc != nil {
			results, err := rc.Destroy(cmd.Context(), args, restrictPatterns(cmd))
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

		results := orch.Destroy(cmd.Context(), args, restrictPatterns(cmd))
		return printSummary(results)
	},
}

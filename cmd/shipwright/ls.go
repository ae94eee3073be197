package main

import (
	"fmt"

	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [pattern...]",
	Short: "list the matched machines, their driver, role, and last-known state",
	RunE: func(cmd *cobra.Command, args []string) error {
		var summaries []orchestrator.MachineSummary
		if rc := remoteClient(cmd); rc != nil {
			s, err := rc.Ls(cmd.Context(), args, restrictPatterns(cmd))
			if err != nil {
				return fatalError(err)
			}
			summaries = s
		} else {
			_, orch, engine, err := setup(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			summaries = orch.Ls(args, restrictPatterns(cmd))
		}

		orchestrator.SortSummaries(summaries)
		for _, s := range summaries {
			role := "worker"
			if s.Master {
				role = "master"
			}
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", s.Real, s.Driver, role, s.State, s.Name)
		}
		return nil
	},
}

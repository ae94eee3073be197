package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps [pattern...]",
	Short: "list containers running on each matched machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		containers, err := orch.Forall(cmd.Context(), args, restrictPatterns(cmd), "")
		if err != nil {
			return fatalError(err)
		}
		for _, c := range containers {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", c.Machine, c.ID, c.Image, c.Names, c.Status)
		}
		return nil
	},
}

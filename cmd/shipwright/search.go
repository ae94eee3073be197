package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <container-name-glob> [pattern...]",
	Short: "find containers by name glob across the matched machines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		containers, err := orch.Forall(cmd.Context(), args[1:], restrictPatterns(cmd), args[0])
		if err != nil {
			return fatalError(err)
		}
		for _, c := range containers {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", c.Machine, c.ID, c.Image, c.Names, c.Status)
		}
		return nil
	},
}

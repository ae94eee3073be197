package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "print the cluster's swarm join token, creating it on first use",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := readGlobalFlags(cmd)
		if err != nil {
			return err
		}
		if flags.Token != "" {
			// "-token STR" (spec §6) bypasses the Token Store entirely.
			fmt.Println(flags.Token)
			return nil
		}

		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		force, _ := cmd.Flags().GetBool("force")
		tok, err := orch.Token(cmd.Context(), force)
		if err != nil {
			return fatalError(err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Bool("force", false, "regenerate the token even if one is already cached")
}

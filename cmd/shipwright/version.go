package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version, commit, and build time",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("shipwright version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
		return nil
	},
}

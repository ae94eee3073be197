package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stackCmd = &cobra.Command{
	Use:   "stack [pattern...]",
	Short: "linearise and forward compose files to a running master via docker stack deploy",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		if rc := remoteClient(cmd); rc != nil {
			files, substitute := remoteFileArgs(cmd)
			master, err := rc.Stack(cmd.Context(), args, files, substitute, name)
			if err != nil {
				return fatalError(err)
			}
			fmt.Printf("✓ deployed via %s\n", master)
			return nil
		}

		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		requests, err := stackRequests(cmd)
		if err != nil {
			return userError(err)
		}
		master, err := orch.Stack(cmd.Context(), args, requests, name)
		if err != nil {
			return fatalError(err)
		}
		fmt.Printf("✓ deployed via %s\n", master.Name)
		return nil
	},
}

func init() {
	stackCmd.Flags().StringArrayP("file", "f", nil, "compose file to forward (repeatable)")
	stackCmd.Flags().StringArray("substitute", nil, "compose file to forward with environment substitution applied (repeatable)")
	stackCmd.Flags().String("name", "default", "stack name passed to docker stack deploy")
}

package main

import (
	"fmt"

	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var swarmCmd = &cobra.Command{
	Use:   "swarm [pattern...]",
	Short: "linearise and forward compose files to a running master via docker-compose up -d",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rc := remoteClient(cmd); rc != nil {
			files, substitute := remoteFileArgs(cmd)
			master, err := rc.Swarm(cmd.Context(), args, files, substitute)
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
		master, err := orch.Swarm(cmd.Context(), args, requests)
		if err != nil {
			return fatalError(err)
		}
		fmt.Printf("✓ deployed via %s\n", master.Name)
		return nil
	},
}

func init() {
	swarmCmd.Flags().StringArrayP("file", "f", nil, "compose file to forward (repeatable)")
	swarmCmd.Flags().StringArray("substitute", nil, "compose file to forward with environment substitution applied (repeatable)")
}

// stackRequests builds the StackRequest slice shared by "swarm" and "stack"
// from their "-f"/"--substitute" flags.
func stackRequests(cmd *cobra.Command) ([]orchestrator.StackRequest, error) {
	plain, _ := cmd.Flags().GetStringArray("file")
	substituted, _ := cmd.Flags().GetStringArray("substitute")

	var out []orchestrator.StackRequest
	for _, f := range plain {
		out = append(out, orchestrator.StackRequest{File: f})
	}
	for _, f := range substituted {
		out = append(out, orchestrator.StackRequest{File: f, Substitution: true})
	}
	return out, nil
}

// remoteFileArgs builds the flat file list + substitution set pkg/client's
// Swarm/Stack take, from the same "-f"/"--substitute" flags.
func remoteFileArgs(cmd *cobra.Command) ([]string, map[string]bool) {
	plain, _ := cmd.Flags().GetStringArray("file")
	substituted, _ := cmd.Flags().GetStringArray("substitute")

	files := append(append([]string{}, plain...), substituted...)
	substitute := make(map[string]bool, len(substituted))
	for _, f := range substituted {
		substitute[f] = true
	}
	return files, substitute
}

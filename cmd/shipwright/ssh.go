package main

import (
	"os"
	"os/exec"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/spf13/cobra"
)

var sshCmd = &cobra.Command{
	Use:   "ssh <machine> [command...]",
	Short: "open an interactive ssh session (or run one command) against a single machine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cluster, _, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		real := cluster.RealName(args[0])
		target, err := engine.ResolveTarget(cmd.Context(), real)
		if err != nil {
			return fatalError(err)
		}

		argv := append(engine.Render(target), args[1:]...)
		c := exec.CommandContext(cmd.Context(), "ssh", argv...)
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			return userError(clustererr.WrapNetwork(err, "ssh %s", real))
		}
		return nil
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/cuemby/shipwright/pkg/compose"
	"github.com/spf13/cobra"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "standalone Compose Linearizer operations",
}

var composeLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "linearise a compose file (resolving extends) and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, order, err := compose.Linearize(args[0])
		if err != nil {
			return userError(err)
		}
		out, err := compose.Marshal(doc, order)
		if err != nil {
			return fatalError(err)
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			fmt.Print(string(out))
			return nil
		}

		// Opened write-only/truncate/create: the "baclin" reference tool
		// opened its -o path read-only and silently wrote nothing.
		f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fatalError(err)
		}
		defer f.Close()
		if _, err := f.Write(out); err != nil {
			return fatalError(err)
		}
		return nil
	},
}

func init() {
	composeLintCmd.Flags().StringP("output", "o", "", "write the linearised document here instead of stdout")
	composeCmd.AddCommand(composeLintCmd)
}

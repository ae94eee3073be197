package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "print the discovery cache as shell-exportable KEY=VALUE lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		var vars map[string]string
		if rc := remoteClient(cmd); rc != nil {
			v, err := rc.Env(cmd.Context())
			if err != nil {
				return fatalError(err)
			}
			vars = v
		} else {
			_, orch, engine, err := setup(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			v, err := orch.Env(cmd.Context())
			if err != nil {
				return fatalError(err)
			}
			vars = v
		}

		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("export %s=%q\n", k, vars[k])
		}
		return nil
	},
}

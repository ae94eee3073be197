package main

import (
	"fmt"

	"github.com/cuemby/shipwright/pkg/yamlmodel"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "parse and fully resolve the cluster descriptor, reporting every config error found",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := readGlobalFlags(cmd)
		if err != nil {
			return err
		}
		descriptorPath, err := discoverDescriptor(flags.Cluster)
		if err != nil {
			return userError(err)
		}

		_, errs := yamlmodel.ValidateCluster(descriptorPath)
		if len(errs) == 0 {
			fmt.Printf("✓ %s is valid\n", descriptorPath)
			return nil
		}
		for _, e := range errs {
			fmt.Printf("✗ %v\n", e)
		}
		return userError(fmt.Errorf("%d config error(s) in %s", len(errs), descriptorPath))
	},
}

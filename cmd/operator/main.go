// Package main provides the operator CLI for deployment and operations tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "operator",
		Short:         "adaptive-tutor operator - Deployment and operations CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSchemaCmd(),
		newValidateCmd(),
		newPolicyCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "adaptive-tutor operator v%s\n", version)
			},
		},
	)
	return root
}

// Package cli is the command tree of the alerting summary binary.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "alerting",
		Short: "TelHawk watch summary service",
		Long: `alerting serves the operator watch summary: the last known status of every
watch of a tenant, trimmed to currently defined actions, filtered and sorted.

Run the API with "serve", query it with "summary" and load demo data with "seed".`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default: environment only)")
	root.PersistentFlags().String("output", "table", "output format: table, json, yaml")

	root.AddCommand(newServeCmd(), newSummaryCmd(), newSeedCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

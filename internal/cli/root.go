// Package cli implements the localboost command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "localboost",
	Short: "Review-submission eligibility and quota engine",
	Long: `localboost is the eligibility and quota engine behind the review
marketplace: it decides whether a posting account may take a listing,
tracks per-sector quotas and cooldowns, scores contributor trust, and
runs the suspension and geo-policy console.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "exhibit",
	Short: "ClearCourse Exhibit - case evidence export engine",
	Long: `Exhibit generates court-ready evidence packages from co-parenting
case records for family-court submissions.

It provides:
  - Court and investigation evidence packages with canonical section ordering
  - Rule-based redaction with per-jurisdiction overrides
  - SHA-256 content hashing and per-case chain of custody
  - Package verification, retention, and download artifacts`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

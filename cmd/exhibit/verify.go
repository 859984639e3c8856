package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyFlags struct {
	format string
}

var verifyCmd = &cobra.Command{
	Use:   "verify <export-number>",
	Short: "Verify a package's chain of custody",
	Long: `Verify an evidence package by recomputing every section hash, the
content hash, and the chain hash from the stored records.

A package verifies as invalid when any stored section no longer matches
its recorded hash, or when the export-level hashes no longer match the
recomputation.

Examples:
  exhibit verify CE-20260401-1a2b3c4d
  exhibit verify CE-20260401-1a2b3c4d --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyFlags.format, "format", "text", "output format: text, json")
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.orch.Verify(context.Background(), args[0])
	if err != nil {
		return err
	}

	if verifyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		status := "VALID"
		if !res.IsValid {
			status = "INVALID"
		}
		fmt.Printf("Export Number:  %s\n", res.ExportNumber)
		fmt.Printf("Integrity:      %s\n", status)
		fmt.Printf("Expired:        %t\n", res.IsExpired)
		fmt.Printf("Content Hash:   %s\n", res.ContentHash)
		fmt.Printf("Chain Hash:     %s\n", res.ChainHash)
		fmt.Printf("Package Type:   %s\n", res.PackageType)
		fmt.Printf("Date Range:     %s to %s\n", res.DateStart.Format("2006-01-02"), res.DateEnd.Format("2006-01-02"))
	}

	if !res.IsValid {
		os.Exit(2)
	}
	return nil
}

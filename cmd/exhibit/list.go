package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var listFlags struct {
	caseID string
	format string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List evidence packages for a case",
	Long: `List every evidence package generated for a case, newest first.

Examples:
  exhibit list --case case-123
  exhibit list --case case-123 --format json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listFlags.caseID, "case", "", "case id (required)")
	listCmd.Flags().StringVar(&listFlags.format, "format", "text", "output format: text, json")
	listCmd.MarkFlagRequired("case")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	exports, err := a.storage.ListExports(context.Background(), listFlags.caseID)
	if err != nil {
		return err
	}

	if listFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exports)
	}

	if len(exports) == 0 {
		fmt.Printf("No exports found for case %s.\n", listFlags.caseID)
		return nil
	}

	fmt.Printf("%-24s %-14s %-11s %-22s %-9s %s\n",
		"EXPORT NUMBER", "PACKAGE", "STATUS", "DATE RANGE", "DOWNLOADS", "GENERATED")
	for _, e := range exports {
		dateRange := fmt.Sprintf("%s/%s",
			e.DateStart.Format("2006-01-02"), e.DateEnd.Format("2006-01-02"))
		fmt.Printf("%-24s %-14s %-11s %-22s %-9d %s\n",
			e.ExportNumber, e.PackageType, e.Status, dateRange,
			e.DownloadCount, e.GeneratedAt.Format(time.RFC3339))
	}
	return nil
}

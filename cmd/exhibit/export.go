package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clearcourse-hq/exhibit/pkg/export"
)

var exportFlags struct {
	caseID         string
	packageType    string
	dateFrom       string
	dateTo         string
	claimType      string
	claimDesc      string
	redaction      string
	sections       []string
	redactMessages bool
	permanent      bool
	format         string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Generate an evidence package for a case",
	Long: `Generate an evidence package covering a case over a date range.

Package Types:
  court          - Comprehensive package with every section
  investigation  - Claim-focused package (requires --claim-type)

Examples:
  # Full court package for Q1
  exhibit export --case case-123 --package court --from 2026-01-01 --to 2026-03-31

  # Investigation package for a parenting-time claim
  exhibit export --case case-123 --package investigation \
      --claim-type parenting_time_interference \
      --from 2026-01-01 --to 2026-03-31

  # Enhanced redaction with message bodies withheld
  exhibit export --case case-123 --package court \
      --from 2026-01-01 --to 2026-03-31 \
      --redaction enhanced --redact-messages`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.caseID, "case", "", "case id (required)")
	exportCmd.Flags().StringVar(&exportFlags.packageType, "package", "court", "package type: court, investigation")
	exportCmd.Flags().StringVar(&exportFlags.dateFrom, "from", "", "start of the evidence window (YYYY-MM-DD, required)")
	exportCmd.Flags().StringVar(&exportFlags.dateTo, "to", "", "end of the evidence window (YYYY-MM-DD, required)")
	exportCmd.Flags().StringVar(&exportFlags.claimType, "claim-type", "", "claim type (required for investigation packages)")
	exportCmd.Flags().StringVar(&exportFlags.claimDesc, "claim-description", "", "free-text claim description")
	exportCmd.Flags().StringVar(&exportFlags.redaction, "redaction", "", "redaction level: none, standard, enhanced (default from config)")
	exportCmd.Flags().StringSliceVar(&exportFlags.sections, "sections", nil, "explicit section subset (default: package defaults)")
	exportCmd.Flags().BoolVar(&exportFlags.redactMessages, "redact-messages", false, "withhold message bodies entirely")
	exportCmd.Flags().BoolVar(&exportFlags.permanent, "permanent", false, "exempt the package from retention expiry")
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "text", "output format: text, json")

	exportCmd.MarkFlagRequired("case")
	exportCmd.MarkFlagRequired("from")
	exportCmd.MarkFlagRequired("to")
}

func runExport(cmd *cobra.Command, args []string) error {
	from, err := parseDay(exportFlags.dateFrom)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseDay(exportFlags.dateTo)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	// The window is inclusive of the final day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	req := export.CreateRequest{
		CaseID:                 exportFlags.caseID,
		PackageType:            export.PackageType(exportFlags.packageType),
		DateStart:              from,
		DateEnd:                to,
		ClaimType:              exportFlags.claimType,
		ClaimDescription:       exportFlags.claimDesc,
		RedactionLevel:         export.RedactionLevel(exportFlags.redaction),
		Sections:               exportFlags.sections,
		MessageContentRedacted: exportFlags.redactMessages,
		IsPermanent:            exportFlags.permanent,
	}

	e, err := a.orch.Export(context.Background(), req)
	if err != nil {
		if e != nil && e.Status == export.StatusFailed {
			fmt.Fprintf(os.Stderr, "export %s failed: %s\n", e.ExportNumber, e.ErrorMessage)
		}
		return err
	}

	if exportFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	fmt.Printf("Export Number:  %s\n", e.ExportNumber)
	fmt.Printf("Case:           %s\n", e.CaseID)
	fmt.Printf("Package Type:   %s\n", e.PackageType)
	fmt.Printf("Date Range:     %s to %s\n", e.DateStart.Format("2006-01-02"), e.DateEnd.Format("2006-01-02"))
	fmt.Printf("Sections:       %s\n", strings.Join(e.SectionsIncluded, ", "))
	fmt.Printf("Redaction:      %s\n", e.RedactionLevel)
	fmt.Printf("Content Hash:   %s\n", e.ContentHash)
	fmt.Printf("Chain Hash:     %s\n", e.ChainHash)
	if e.ExpiresAt != nil {
		fmt.Printf("Expires:        %s\n", e.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("Generation:     %dms\n", e.GenerationTime.Milliseconds())
	return nil
}

// parseDay parses a YYYY-MM-DD day in UTC.
func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

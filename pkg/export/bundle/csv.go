package bundle

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"clearcourse-hq/exhibit/pkg/export"
)

// CSVWriter writes the section index of an export package to CSV format.
// The index carries one row per section with its hash and evidence count;
// section content itself lives in the JSON document.
type CSVWriter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVWriter creates a new CSV section index writer.
func NewCSVWriter(includeHeader bool) *CSVWriter {
	return &CSVWriter{
		IncludeHeader: includeHeader,
	}
}

// Write renders the section index to the provided writer.
func (c *CSVWriter) Write(ctx context.Context, e *export.CaseExport, sections []*export.ExportSection, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if c.IncludeHeader {
		if err := writer.Write(c.headerRow()); err != nil {
			return export.NewBundleError("csv", err)
		}
	}

	for _, sec := range sections {
		if err := writer.Write(c.sectionRow(e, sec)); err != nil {
			return export.NewBundleError("csv", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return export.NewBundleError("csv", err)
	}
	return nil
}

// headerRow returns the CSV header row.
func (c *CSVWriter) headerRow() []string {
	return []string{
		"export_number", "section_order", "section_type", "title",
		"content_hash", "evidence_count", "data_sources", "generation_time_ms",
	}
}

// sectionRow converts one section to a CSV row.
func (c *CSVWriter) sectionRow(e *export.CaseExport, sec *export.ExportSection) []string {
	return []string{
		e.ExportNumber,
		fmt.Sprintf("%d", sec.SectionOrder),
		sec.SectionType,
		sec.Title,
		sec.ContentHash,
		fmt.Sprintf("%d", sec.EvidenceCount),
		strings.Join(sec.DataSources, ";"),
		fmt.Sprintf("%d", sec.GenerationTime.Milliseconds()),
	}
}

package bundle

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clearcourse-hq/exhibit/pkg/export"
)

func fixtureExport() (*export.CaseExport, []*export.ExportSection) {
	e := &export.CaseExport{
		ID:               "export-1",
		CaseID:           "case-1",
		ExportNumber:     "CE-20260115-0a1b2c3d",
		PackageType:      export.PackageCourt,
		DateStart:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:          time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		RedactionLevel:   export.RedactionStandard,
		SectionsIncluded: []string{"agreement_overview", "chain_of_custody"},
		ContentHash:      "aaaa",
		ChainHash:        "bbbb",
		Status:           export.StatusCompleted,
		GeneratedAt:      time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	sections := []*export.ExportSection{
		{
			ID: "s-1", ExportID: "export-1", SectionType: "agreement_overview",
			SectionOrder: 1, Title: "Agreement Overview",
			ContentData: map[string]any{"agreement_count": float64(1)},
			ContentHash: "1111", EvidenceCount: 1,
			DataSources:    []string{"agreements"},
			GenerationTime: 12 * time.Millisecond,
		},
		{
			ID: "s-2", ExportID: "export-1", SectionType: "chain_of_custody",
			SectionOrder: 8, Title: "Chain of Custody",
			ContentData: map[string]any{"total_records": float64(9)},
			ContentHash: "8888", EvidenceCount: 9,
			DataSources:    []string{"cases", "messages"},
			GenerationTime: 3 * time.Millisecond,
		},
	}
	return e, sections
}

func TestJSONWriter_Roundtrip(t *testing.T) {
	e, sections := fixtureExport()

	var buf bytes.Buffer
	if err := NewJSONWriter(true).Write(context.Background(), e, sections, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Export.ExportNumber != e.ExportNumber {
		t.Errorf("export number = %s, want %s", doc.Export.ExportNumber, e.ExportNumber)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Sections[0].SectionType != "agreement_overview" {
		t.Errorf("section order not preserved: %s first", doc.Sections[0].SectionType)
	}
	if doc.Sections[1].ContentHash != "8888" {
		t.Errorf("section hash = %s, want 8888", doc.Sections[1].ContentHash)
	}
}

func TestCSVWriter_SectionIndex(t *testing.T) {
	e, sections := fixtureExport()

	var buf bytes.Buffer
	if err := NewCSVWriter(true).Write(context.Background(), e, sections, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "export_number" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "agreement_overview" || rows[1][4] != "1111" {
		t.Errorf("first section row = %v", rows[1])
	}
	if rows[2][6] != "cases;messages" {
		t.Errorf("data sources = %q, want cases;messages", rows[2][6])
	}
}

func TestCSVWriter_NoHeader(t *testing.T) {
	e, sections := fixtureExport()

	var buf bytes.Buffer
	if err := NewCSVWriter(false).Write(context.Background(), e, sections, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestWriteFiles(t *testing.T) {
	e, sections := fixtureExport()
	dir := t.TempDir()

	paths, err := WriteFiles(context.Background(), dir, e, sections, true)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}

	wantJSON := filepath.Join(dir, "CE-20260115-0a1b2c3d.json")
	wantCSV := filepath.Join(dir, "CE-20260115-0a1b2c3d_sections.csv")
	if paths[0] != wantJSON || paths[1] != wantCSV {
		t.Errorf("paths = %v", paths)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("artifact missing: %v", err)
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", p)
		}
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

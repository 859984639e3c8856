package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clearcourse-hq/exhibit/pkg/export"
)

// WriteFiles writes the standard download artifacts for an export into dir:
// a JSON document (<export_number>.json) and a CSV section index
// (<export_number>_sections.csv). It returns the paths of the files
// written. Files are written via a temporary name and renamed into place so
// a crashed download never leaves a truncated artifact behind.
func WriteFiles(ctx context.Context, dir string, e *export.CaseExport, sections []*export.ExportSection, pretty bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, export.NewBundleError("json", err)
	}

	jsonPath := filepath.Join(dir, e.ExportNumber+".json")
	jsonWriter := NewJSONWriter(pretty)
	if err := writeAtomic(jsonPath, func(f *os.File) error {
		return jsonWriter.Write(ctx, e, sections, f)
	}); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(dir, e.ExportNumber+"_sections.csv")
	csvWriter := NewCSVWriter(true)
	if err := writeAtomic(csvPath, func(f *os.File) error {
		return csvWriter.Write(ctx, e, sections, f)
	}); err != nil {
		return nil, err
	}

	return []string{jsonPath, csvPath}, nil
}

// writeAtomic writes to path via a temp file plus rename.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return export.NewBundleError("file", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return export.NewBundleError("file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return export.NewBundleError("file", fmt.Errorf("rename %s: %w", path, err))
	}
	return nil
}

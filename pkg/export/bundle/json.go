package bundle

import (
	"context"
	"encoding/json"
	"io"

	"clearcourse-hq/exhibit/pkg/export"
)

// Document is the download artifact for one export: the export record and
// its sections in canonical order. The section content is the persisted,
// hash-covered content; the document wrapper itself is presentation only.
type Document struct {
	Export   *export.CaseExport      `json:"export"`
	Sections []*export.ExportSection `json:"sections"`
}

// JSONWriter writes an export package to JSON format.
type JSONWriter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONWriter creates a new JSON package writer.
func NewJSONWriter(pretty bool) *JSONWriter {
	return &JSONWriter{
		Pretty: pretty,
	}
}

// Write renders the export and its sections to the provided writer.
func (j *JSONWriter) Write(ctx context.Context, e *export.CaseExport, sections []*export.ExportSection, w io.Writer) error {
	doc := &Document{
		Export:   e,
		Sections: sections,
	}

	var data []byte
	var err error
	if j.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return export.NewBundleError("json", err)
	}

	if _, err := w.Write(data); err != nil {
		return export.NewBundleError("json", err)
	}
	return nil
}

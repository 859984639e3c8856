package export

import (
	"context"
	"time"
)

// PackageType selects the evidentiary scope of a case export.
type PackageType string

const (
	// PackageCourt is the comprehensive package: every registered section.
	PackageCourt PackageType = "court"

	// PackageInvestigation is the claim-focused package: a curated subset of
	// sections oriented to dispute evidence.
	PackageInvestigation PackageType = "investigation"
)

// RedactionLevel is the ordinal redaction scale. Higher levels include every
// rule of the levels below them.
type RedactionLevel string

const (
	RedactionNone     RedactionLevel = "none"
	RedactionStandard RedactionLevel = "standard"
	RedactionEnhanced RedactionLevel = "enhanced"
)

// Rank returns the ordinal position of the level (none < standard < enhanced).
// Unknown levels rank below none.
func (l RedactionLevel) Rank() int {
	switch l {
	case RedactionNone:
		return 0
	case RedactionStandard:
		return 1
	case RedactionEnhanced:
		return 2
	default:
		return -1
	}
}

// Status is the lifecycle state of a case export. An export is created in
// StatusGenerating and transitions exactly once to StatusCompleted or
// StatusFailed. Terminal rows are immutable; a retry is always a new export.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CaseExport is one generated, versioned evidence package covering a case
// over a date range.
type CaseExport struct {
	// Identity
	ID           string `json:"id"`            // UUID v4
	CaseID       string `json:"case_id"`       // Case this package belongs to
	ExportNumber string `json:"export_number"` // Unique human-facing number (CE-YYYYMMDD-xxxxxxxx)

	// Package scope
	PackageType      PackageType `json:"package_type"`
	ClaimType        string      `json:"claim_type,omitempty"`        // Investigation packages only
	ClaimDescription string      `json:"claim_description,omitempty"` // Investigation packages only
	DateStart        time.Time   `json:"date_start"`
	DateEnd          time.Time   `json:"date_end"`

	// Redaction
	RedactionLevel         RedactionLevel `json:"redaction_level"`
	MessageContentRedacted bool           `json:"message_content_redacted"`

	// Integrity
	SectionsIncluded []string `json:"sections_included"` // Canonical order, effective set
	ContentHash      string   `json:"content_hash"`      // SHA-256 over ordered section hashes
	ChainHash        string   `json:"chain_hash"`        // Links to the case's prior export
	PriorChainHash   string   `json:"prior_chain_hash"`  // Chain hash of the linked prior export ("" if none)

	// Lifecycle
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Access tracking
	DownloadCount    int        `json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`

	// Retention
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsPermanent bool       `json:"is_permanent"`

	// Diagnostics (never part of any hash input)
	GeneratedAt    time.Time     `json:"generated_at"`
	GenerationTime time.Duration `json:"generation_time"`
}

// Expired reports whether the export is past its expiry at the given time.
// Permanent exports never expire.
func (e *CaseExport) Expired(now time.Time) bool {
	if e.IsPermanent || e.ExpiresAt == nil {
		return false
	}
	return now.After(*e.ExpiresAt)
}

// ExportSection is one generator's output within one export. Rows are
// created only as part of a successful run and never mutated afterward.
type ExportSection struct {
	ID            string         `json:"id"`
	ExportID      string         `json:"export_id"`
	SectionType   string         `json:"section_type"`
	SectionOrder  int            `json:"section_order"` // Registry canonical order, not request order
	Title         string         `json:"title"`
	ContentData   map[string]any `json:"content_data"`
	ContentHash   string         `json:"content_hash"` // SHA-256 of canonical ContentData
	EvidenceCount int            `json:"evidence_count"`
	DataSources   []string       `json:"data_sources"`

	// Diagnostics (never part of the content hash)
	GenerationTime time.Duration `json:"generation_time"`
}

// SectionContent is a generator's return value before hashing and
// persistence. It is an ephemeral, run-scoped value.
type SectionContent struct {
	ContentData   map[string]any
	EvidenceCount int
	DataSources   []string
}

// CreateRequest is the input for creating a new case export.
type CreateRequest struct {
	CaseID                 string
	PackageType            PackageType
	DateStart              time.Time
	DateEnd                time.Time
	ClaimType              string
	ClaimDescription       string
	RedactionLevel         RedactionLevel
	Sections               []string // Explicit section subset; empty means package defaults
	MessageContentRedacted bool
	IsPermanent            bool
}

// VerifyResult is the outcome of a chain-of-custody verification.
type VerifyResult struct {
	ExportNumber string      `json:"export_number"`
	IsValid      bool        `json:"is_valid"`
	IsExpired    bool        `json:"is_expired"`
	ContentHash  string      `json:"content_hash"`
	ChainHash    string      `json:"chain_hash"`
	PackageType  PackageType `json:"package_type"`
	DateStart    time.Time   `json:"date_start"`
	DateEnd      time.Time   `json:"date_end"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// Storage defines the persistence interface for case exports and their
// sections. Implementations must be thread-safe and must treat terminal
// exports as immutable.
type Storage interface {
	// CreateExport persists a new export row in StatusGenerating.
	CreateExport(ctx context.Context, export *CaseExport) error

	// GetExport retrieves an export by id.
	GetExport(ctx context.Context, id string) (*CaseExport, error)

	// GetExportByNumber retrieves an export by its export number.
	GetExportByNumber(ctx context.Context, number string) (*CaseExport, error)

	// ListExports returns all exports for a case, newest first.
	ListExports(ctx context.Context, caseID string) ([]*CaseExport, error)

	// LatestCompleted returns the most recently completed export for the
	// case, excluding the given export id, ordered by generated_at then
	// export_number descending. Returns (nil, nil) when none exists.
	LatestCompleted(ctx context.Context, caseID, excludeID string) (*CaseExport, error)

	// CompleteExport atomically persists all section rows and transitions
	// the export from StatusGenerating to StatusCompleted with its hashes.
	// Either everything is written or nothing is.
	CompleteExport(ctx context.Context, export *CaseExport, sections []*ExportSection) error

	// FailExport transitions a generating export to StatusFailed with the
	// given message. No section rows may remain for a failed export.
	FailExport(ctx context.Context, id, errMsg string) error

	// GetSections returns the section rows for an export in section_order.
	GetSections(ctx context.Context, exportID string) ([]*ExportSection, error)

	// RecordDownload increments the download counter and stamps
	// last_downloaded_at. Hashes and content are never touched.
	RecordDownload(ctx context.Context, id string, at time.Time) error

	// DeleteExpired removes expired, non-permanent exports and their
	// sections. Returns the number of exports deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

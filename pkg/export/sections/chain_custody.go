package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// ChainOfCustody documents how this package was assembled: the record
// domains consulted, their counts, the redaction posture, and the hashing
// scheme. Section and chain hashes themselves are computed after
// generation and live on the export record, not inside any section.
type ChainOfCustody struct{}

func (g *ChainOfCustody) SectionType() string { return TypeChainOfCustody }
func (g *ChainOfCustody) Title() string       { return "Chain of Custody" }
func (g *ChainOfCustody) CanonicalOrder() int { return 8 }

// Generate implements Generator.
func (g *ChainOfCustody) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	caseRec, err := run.Case(ctx)
	if err != nil {
		return nil, err
	}

	messages, err := run.Messages(ctx)
	if err != nil {
		return nil, err
	}
	interventions, err := run.Interventions(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := run.ScheduleEntries(ctx)
	if err != nil {
		return nil, err
	}
	exchanges, err := run.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	checkIns, err := run.CheckIns(ctx)
	if err != nil {
		return nil, err
	}
	agreements, err := run.Agreements(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := run.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := run.Payments(ctx)
	if err != nil {
		return nil, err
	}

	recordCounts := map[string]any{
		"messages":         len(messages),
		"interventions":    len(interventions),
		"schedule_entries": len(entries),
		"exchanges":        len(exchanges),
		"check_ins":        len(checkIns),
		"agreements":       len(agreements),
		"expenses":         len(expenses),
		"payments":         len(payments),
	}

	total := len(messages) + len(interventions) + len(entries) + len(exchanges) +
		len(checkIns) + len(agreements) + len(expenses) + len(payments)

	content := map[string]any{
		"case_number":              caseRec.CaseNumber,
		"jurisdiction":             caseRec.Jurisdiction,
		"date_start":               day(run.DateStart),
		"date_end":                 day(run.DateEnd),
		"redaction_level":          string(run.Level),
		"message_content_redacted": run.MessageContentRedacted,
		"record_counts":            recordCounts,
		"total_records":            total,
		"hash_algorithm":           "sha256",
		"serialization":            "canonical-json",
		"ordering":                 "sections persist in registry canonical order",
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: total,
		DataSources: []string{"cases", "messages", "interventions", "schedule",
			"exchanges", "check_ins", "agreements", "expenses", "payments"},
	}, nil
}

package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// ComplianceSummary aggregates compliance rates across the schedule,
// financial, and communication domains into one headline table.
type ComplianceSummary struct{}

func (g *ComplianceSummary) SectionType() string { return TypeComplianceSummary }
func (g *ComplianceSummary) Title() string       { return "Compliance Summary" }
func (g *ComplianceSummary) CanonicalOrder() int { return 2 }

// Generate implements Generator.
func (g *ComplianceSummary) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	entries, err := run.ScheduleEntries(ctx)
	if err != nil {
		return nil, err
	}
	exchanges, err := run.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := run.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := run.Messages(ctx)
	if err != nil {
		return nil, err
	}

	total := len(entries) + len(exchanges) + len(expenses) + len(messages)
	if total == 0 {
		return degraded("no records in any compliance domain for the export date range",
			"schedule", "exchanges", "expenses", "messages"), nil
	}

	// Schedule: completed blocks over non-pending blocks
	completedBlocks, concludedBlocks := 0, 0
	for _, e := range entries {
		switch e.Status {
		case "completed":
			completedBlocks++
			concludedBlocks++
		case "missed", "modified":
			concludedBlocks++
		}
	}

	completedExchanges := 0
	for _, e := range exchanges {
		if e.Status == "completed" {
			completedExchanges++
		}
	}

	settledExpenses, disputedExpenses := 0, 0
	for _, e := range expenses {
		switch e.Status {
		case "settled", "approved":
			settledExpenses++
		case "disputed":
			disputedExpenses++
		}
	}

	clean := 0
	for _, m := range messages {
		if !m.Flagged && !m.Blocked {
			clean++
		}
	}

	content := map[string]any{
		"schedule": map[string]any{
			"blocks":         len(entries),
			"completed":      completedBlocks,
			"compliance_pct": pct(completedBlocks, concludedBlocks),
		},
		"exchanges": map[string]any{
			"total":          len(exchanges),
			"completed":      completedExchanges,
			"compliance_pct": pct(completedExchanges, len(exchanges)),
		},
		"financial": map[string]any{
			"expenses":       len(expenses),
			"settled":        settledExpenses,
			"disputed":       disputedExpenses,
			"compliance_pct": pct(settledExpenses, len(expenses)),
		},
		"communication": map[string]any{
			"messages":       len(messages),
			"clean":          clean,
			"compliance_pct": pct(clean, len(messages)),
		},
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: total,
		DataSources:   []string{"schedule", "exchanges", "expenses", "messages"},
	}, nil
}

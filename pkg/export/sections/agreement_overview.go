package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// AgreementOverview summarizes the agreements on file for the case: their
// status, signatures, and clause inventory.
type AgreementOverview struct{}

func (g *AgreementOverview) SectionType() string { return TypeAgreementOverview }
func (g *AgreementOverview) Title() string       { return "Agreement Overview" }
func (g *AgreementOverview) CanonicalOrder() int { return 1 }

// Generate implements Generator.
func (g *AgreementOverview) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	agreements, err := run.Agreements(ctx)
	if err != nil {
		return nil, err
	}
	if len(agreements) == 0 {
		return degraded("no agreements on file for this case", "agreements"), nil
	}

	active := 0
	items := make([]any, 0, len(agreements))
	clauseCount := 0

	for _, a := range agreements {
		if a.Status == "active" {
			active++
		}

		title, err := run.Redact(a.Title, "agreements")
		if err != nil {
			return nil, err
		}

		clauses, err := run.AgreementSections(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		clauseCount += len(clauses)

		clauseItems := make([]any, 0, len(clauses))
		for _, c := range clauses {
			clauseTitle, err := run.Redact(c.Title, "agreements")
			if err != nil {
				return nil, err
			}
			summary, err := run.Redact(c.Summary, "agreements")
			if err != nil {
				return nil, err
			}
			clauseItems = append(clauseItems, map[string]any{
				"number":  c.Number,
				"title":   clauseTitle,
				"summary": summary,
			})
		}

		items = append(items, map[string]any{
			"title":          title,
			"type":           a.Type,
			"status":         a.Status,
			"effective_date": day(a.EffectiveAt),
			"signed_by_all":  a.SignedByAll,
			"clauses":        clauseItems,
		})
	}

	content := map[string]any{
		"agreement_count": len(agreements),
		"active_count":    active,
		"total_clauses":   clauseCount,
		"agreements":      items,
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(agreements) + clauseCount,
		DataSources:   []string{"agreements"},
	}, nil
}

package sections

import (
	"context"
	"sort"

	"clearcourse-hq/exhibit/pkg/export"
)

// FinancialCompliance reports shared expenses by category, their dispute
// and settlement status, and the per-parent reimbursement balance.
type FinancialCompliance struct{}

func (g *FinancialCompliance) SectionType() string { return TypeFinancialCompliance }
func (g *FinancialCompliance) Title() string       { return "Financial Compliance" }
func (g *FinancialCompliance) CanonicalOrder() int { return 4 }

// Generate implements Generator.
func (g *FinancialCompliance) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	expenses, err := run.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return degraded("no shared expenses in the export date range", "expenses", "payments"), nil
	}

	payments, err := run.Payments(ctx)
	if err != nil {
		return nil, err
	}
	parties, err := run.Parties(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(parties))
	for _, p := range parties {
		labels[p.ID] = PartyLabel(p)
	}

	var totalCents, settledCents, disputedCents int64
	disputed, settled := 0, 0
	byCategory := map[string]int64{}
	owedBy := map[string]int64{} // counterparty share by payer label
	items := make([]any, 0, len(expenses))

	for _, e := range expenses {
		totalCents += e.AmountCents
		byCategory[e.Category] += e.AmountCents

		switch e.Status {
		case "disputed":
			disputed++
			disputedCents += e.AmountCents
		case "settled":
			settled++
			settledCents += e.AmountCents
		}

		label := labels[e.PaidByID]
		if label == "" {
			label = "Party"
		}
		owedBy[label] += e.OwedCents()

		description, err := run.Redact(e.Description, "expenses")
		if err != nil {
			return nil, err
		}
		items = append(items, map[string]any{
			"date":        day(e.IncurredAt),
			"paid_by":     label,
			"category":    e.Category,
			"description": description,
			"amount":      cents(e.AmountCents),
			"split_pct":   e.SplitPct,
			"status":      e.Status,
		})
	}

	var paidCents int64
	for _, p := range payments {
		paidCents += p.AmountCents
	}

	categories := make([]any, 0, len(byCategory))
	for _, cat := range sortedKeys(byCategory) {
		categories = append(categories, map[string]any{
			"category": cat,
			"amount":   cents(byCategory[cat]),
		})
	}

	balances := make([]any, 0, len(owedBy))
	for _, label := range sortedKeys(owedBy) {
		balances = append(balances, map[string]any{
			"paid_by":    label,
			"owed_share": cents(owedBy[label]),
		})
	}

	content := map[string]any{
		"expense_count":   len(expenses),
		"payment_count":   len(payments),
		"total_amount":    cents(totalCents),
		"settled_count":   settled,
		"disputed_count":  disputed,
		"disputed_amount": cents(disputedCents),
		"reimbursed":      cents(paidCents),
		"settlement_pct":  pct(settled, len(expenses)),
		"by_category":     categories,
		"owed_balances":   balances,
		"expenses":        items,
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(expenses) + len(payments),
		DataSources:   []string{"expenses", "payments"},
	}, nil
}

// sortedKeys returns the map's keys in ascending order, keeping content
// trees deterministic.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

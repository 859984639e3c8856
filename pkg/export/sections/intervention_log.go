package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// InterventionLog is the chronological record of moderation events: every
// message the communication pipeline flagged, blocked, or coached on.
type InterventionLog struct{}

func (g *InterventionLog) SectionType() string { return TypeInterventionLog }
func (g *InterventionLog) Title() string       { return "Intervention Log" }
func (g *InterventionLog) CanonicalOrder() int { return 6 }

// Generate implements Generator.
func (g *InterventionLog) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	interventions, err := run.Interventions(ctx)
	if err != nil {
		return nil, err
	}
	if len(interventions) == 0 {
		return degraded("no interventions recorded in the export date range", "interventions"), nil
	}

	parties, err := run.Parties(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(parties))
	for _, p := range parties {
		labels[p.ID] = PartyLabel(p)
	}

	byTrigger := map[string]int{}
	byAction := map[string]int{}
	entries := make([]any, 0, len(interventions))

	for _, iv := range interventions {
		byTrigger[iv.Trigger]++
		byAction[iv.Action]++

		label := labels[iv.PartyID]
		if label == "" {
			label = "Party"
		}

		excerpt, err := run.MessageExcerpt(iv.Excerpt)
		if err != nil {
			return nil, err
		}

		entries = append(entries, map[string]any{
			"occurred_at": stamp(iv.OccurredAt),
			"party":       label,
			"trigger":     iv.Trigger,
			"action":      iv.Action,
			"excerpt":     excerpt,
		})
	}

	triggers := map[string]any{}
	for k, v := range byTrigger {
		triggers[k] = v
	}
	actions := map[string]any{}
	for k, v := range byAction {
		actions[k] = v
	}

	content := map[string]any{
		"intervention_count": len(interventions),
		"by_trigger":         triggers,
		"by_action":          actions,
		"entries":            entries,
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(interventions),
		DataSources:   []string{"interventions"},
	}, nil
}

package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// ParentImpact derives wellbeing indicators for each parent over the
// export window: check-in consistency, reported mood and stress, and
// conflict exposure around custody exchanges.
type ParentImpact struct{}

func (g *ParentImpact) SectionType() string { return TypeParentImpact }
func (g *ParentImpact) Title() string       { return "Parent Impact" }
func (g *ParentImpact) CanonicalOrder() int { return 7 }

// Generate implements Generator.
func (g *ParentImpact) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	checkIns, err := run.CheckIns(ctx)
	if err != nil {
		return nil, err
	}
	if len(checkIns) == 0 {
		return degraded("no check-ins in the export date range", "check_ins"), nil
	}

	parties, err := run.Parties(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(parties))
	for _, p := range parties {
		labels[p.ID] = PartyLabel(p)
	}

	messages, err := run.Messages(ctx)
	if err != nil {
		return nil, err
	}
	exchanges, err := run.Exchanges(ctx)
	if err != nil {
		return nil, err
	}

	// Conflict exposure: flagged messages sent within 24h of an exchange.
	nearExchange := 0
	for _, m := range messages {
		if !m.Flagged {
			continue
		}
		for _, e := range exchanges {
			d := m.SentAt.Sub(e.ScheduledAt)
			if d < 0 {
				d = -d
			}
			if d.Hours() <= 24 {
				nearExchange++
				break
			}
		}
	}

	type tally struct {
		count     int
		moodSum   int
		stressSum int
	}
	tallies := map[string]*tally{}
	order := []string{}
	for _, c := range checkIns {
		label := labels[c.PartyID]
		if label == "" {
			label = "Party"
		}
		t, ok := tallies[label]
		if !ok {
			t = &tally{}
			tallies[label] = t
			order = append(order, label)
		}
		t.count++
		t.moodSum += c.MoodScore
		t.stressSum += c.StressScore
	}

	days := int(run.DateEnd.Sub(run.DateStart).Hours()/24) + 1
	perParty := make([]any, 0, len(order))
	for _, label := range order {
		t := tallies[label]
		perParty = append(perParty, map[string]any{
			"party":           label,
			"check_ins":       t.count,
			"consistency_pct": pct(t.count, days),
			"avg_mood":        round2(float64(t.moodSum) / float64(t.count)),
			"avg_stress":      round2(float64(t.stressSum) / float64(t.count)),
		})
	}

	content := map[string]any{
		"check_in_count":        len(checkIns),
		"window_days":           days,
		"per_party":             perParty,
		"flagged_near_exchange": nearExchange,
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(checkIns),
		DataSources:   []string{"check_ins", "messages", "exchanges"},
	}, nil
}

package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/casedata"
	"clearcourse-hq/exhibit/pkg/export"
)

// ParentingTime reports planned versus actual parenting time per parent
// and the custody exchange log, including GPS verification evidence.
type ParentingTime struct{}

func (g *ParentingTime) SectionType() string { return TypeParentingTime }
func (g *ParentingTime) Title() string       { return "Parenting Time" }
func (g *ParentingTime) CanonicalOrder() int { return 3 }

// Generate implements Generator.
func (g *ParentingTime) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	entries, err := run.ScheduleEntries(ctx)
	if err != nil {
		return nil, err
	}
	exchanges, err := run.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && len(exchanges) == 0 {
		return degraded("no schedule or exchange records in the export date range", "schedule", "exchanges"), nil
	}

	parties, err := run.Parties(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(parties))
	for _, p := range parties {
		labels[p.ID] = PartyLabel(p)
	}

	// Per-parent planned/completed hours
	type tally struct {
		planned   float64
		completed float64
		missed    int
		modified  int
		blocks    int
	}
	tallies := map[string]*tally{}
	order := []string{}
	for _, e := range entries {
		label := labels[e.PartyID]
		if label == "" {
			label = "Party"
		}
		t, ok := tallies[label]
		if !ok {
			t = &tally{}
			tallies[label] = t
			order = append(order, label)
		}
		t.blocks++
		t.planned += e.PlannedHours()
		switch e.Status {
		case "completed":
			t.completed += e.PlannedHours()
		case "missed":
			t.missed++
		case "modified":
			t.modified++
		}
	}

	perParent := make([]any, 0, len(order))
	for _, label := range order {
		t := tallies[label]
		perParent = append(perParent, map[string]any{
			"party":           label,
			"blocks":          t.blocks,
			"planned_hours":   round2(t.planned),
			"completed_hours": round2(t.completed),
			"missed_blocks":   t.missed,
			"modified_blocks": t.modified,
		})
	}

	exchangeLog, gpsVerified, missedExchanges, err := g.exchangeLog(run, exchanges)
	if err != nil {
		return nil, err
	}

	content := map[string]any{
		"schedule_entry_count": len(entries),
		"per_parent":           perParent,
		"exchanges": map[string]any{
			"total":        len(exchanges),
			"gps_verified": gpsVerified,
			"missed":       missedExchanges,
			"verified_pct": pct(gpsVerified, len(exchanges)),
			"log":          exchangeLog,
		},
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(entries) + len(exchanges),
		DataSources:   []string{"schedule", "exchanges"},
	}, nil
}

// exchangeLog renders the exchange entries with their GPS verification
// outcome.
func (g *ParentingTime) exchangeLog(run *Context, exchanges []*casedata.Exchange) (log []any, gpsVerified, missed int, err error) {
	log = make([]any, 0, len(exchanges))
	for _, e := range exchanges {
		if e.GPSVerified {
			gpsVerified++
		}
		if e.Status == "missed" {
			missed++
		}

		location, err := run.Redact(e.Location, "exchanges")
		if err != nil {
			return nil, 0, 0, err
		}

		entry := map[string]any{
			"scheduled_at":    stamp(e.ScheduledAt),
			"location":        location,
			"status":          e.Status,
			"gps_verified":    e.GPSVerified,
			"distance_meters": round2(e.DistanceMeters),
		}
		if e.ActualAt != nil {
			entry["actual_at"] = stamp(*e.ActualAt)
			entry["delay_minutes"] = round2(e.ActualAt.Sub(e.ScheduledAt).Minutes())
		}
		log = append(log, entry)
	}
	return log, gpsVerified, missed, nil
}

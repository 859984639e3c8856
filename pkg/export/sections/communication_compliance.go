package sections

import (
	"context"

	"clearcourse-hq/exhibit/pkg/export"
)

// CommunicationCompliance reports message volumes, moderation outcomes,
// tone statistics, and redacted excerpts of flagged messages.
type CommunicationCompliance struct{}

func (g *CommunicationCompliance) SectionType() string { return TypeCommunicationCompliance }
func (g *CommunicationCompliance) Title() string       { return "Communication Compliance" }
func (g *CommunicationCompliance) CanonicalOrder() int { return 5 }

// Generate implements Generator.
func (g *CommunicationCompliance) Generate(ctx context.Context, run *Context) (*export.SectionContent, error) {
	messages, err := run.Messages(ctx)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return degraded("no messages in the export date range", "messages"), nil
	}

	parties, err := run.Parties(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(parties))
	for _, p := range parties {
		labels[p.ID] = PartyLabel(p)
	}

	type tally struct {
		sent        int
		flagged     int
		blocked     int
		toxicitySum float64
		responses   int
		responseSum float64 // hours
	}
	tallies := map[string]*tally{}
	order := []string{}

	flagged, blocked := 0, 0
	var toxicitySum float64
	flaggedExcerpts := make([]any, 0)

	for _, m := range messages {
		label := labels[m.SenderID]
		if label == "" {
			label = "Party"
		}
		t, ok := tallies[label]
		if !ok {
			t = &tally{}
			tallies[label] = t
			order = append(order, label)
		}

		t.sent++
		t.toxicitySum += m.ToxicityScore
		toxicitySum += m.ToxicityScore
		if m.ResponseTime > 0 {
			t.responses++
			t.responseSum += m.ResponseTime.Hours()
		}

		if m.Flagged {
			flagged++
			t.flagged++
		}
		if m.Blocked {
			blocked++
			t.blocked++
		}

		// Only flagged messages surface content, and only as excerpts.
		if m.Flagged {
			excerpt, err := run.MessageExcerpt(m.Body)
			if err != nil {
				return nil, err
			}
			flaggedExcerpts = append(flaggedExcerpts, map[string]any{
				"sent_at":        stamp(m.SentAt),
				"sender":         label,
				"toxicity_score": round2(m.ToxicityScore),
				"blocked":        m.Blocked,
				"excerpt":        excerpt,
			})
		}
	}

	perParty := make([]any, 0, len(order))
	for _, label := range order {
		t := tallies[label]
		entry := map[string]any{
			"party":        label,
			"sent":         t.sent,
			"flagged":      t.flagged,
			"blocked":      t.blocked,
			"avg_toxicity": round2(t.toxicitySum / float64(t.sent)),
		}
		if t.responses > 0 {
			entry["avg_response_hours"] = round2(t.responseSum / float64(t.responses))
		}
		perParty = append(perParty, entry)
	}

	content := map[string]any{
		"message_count":    len(messages),
		"flagged_count":    flagged,
		"blocked_count":    blocked,
		"flagged_pct":      pct(flagged, len(messages)),
		"avg_toxicity":     round2(toxicitySum / float64(len(messages))),
		"per_party":        perParty,
		"flagged_messages": flaggedExcerpts,
	}

	return &export.SectionContent{
		ContentData:   content,
		EvidenceCount: len(messages),
		DataSources:   []string{"messages"},
	}, nil
}

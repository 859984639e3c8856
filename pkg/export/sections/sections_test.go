package sections

import (
	"context"
	"errors"
	"testing"
	"time"

	"clearcourse-hq/exhibit/pkg/casedata"
	"clearcourse-hq/exhibit/pkg/casedata/memory"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/export/hash"
	"clearcourse-hq/exhibit/pkg/redact"
)

var (
	rangeStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
)

// fixtureStore builds a memory store populated with one case's records
// across every domain.
func fixtureStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()

	s.AddCase(&casedata.Case{
		ID: "case-1", CaseNumber: "FL-2025-0042", Jurisdiction: "US-CA",
		Status: "active", OpenedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddParty(&casedata.Party{ID: "p-a", CaseID: "case-1", Role: "parent_a",
		FirstName: "Dana", LastName: "Rivera", Email: "dana@example.com", Phone: "555-867-5309"})
	s.AddParty(&casedata.Party{ID: "p-b", CaseID: "case-1", Role: "parent_b",
		FirstName: "Sam", LastName: "Rivera"})
	s.AddChild(&casedata.Child{ID: "c-1", CaseID: "case-1", Initials: "J.R.", BirthYear: 2018})

	s.AddAgreement(&casedata.Agreement{ID: "agr-1", CaseID: "case-1",
		Title: "Parenting Plan 2025", Type: "parenting_plan", Status: "active",
		EffectiveAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), SignedByAll: true})
	s.AddAgreementSection(&casedata.AgreementSection{ID: "as-1", AgreementID: "agr-1",
		Number: "1.1", Title: "Custody Schedule", Summary: "Alternating weeks"})
	s.AddAgreementSection(&casedata.AgreementSection{ID: "as-2", AgreementID: "agr-1",
		Number: "2.1", Title: "Expense Sharing", Summary: "50/50 split of medical costs"})

	day := func(d int) time.Time { return time.Date(2026, 1, d, 9, 0, 0, 0, time.UTC) }

	s.AddMessage(&casedata.Message{ID: "m-1", CaseID: "case-1", SenderID: "p-a",
		Body: "Pickup moved to 5pm, call 555-867-5309", SentAt: day(3),
		ToxicityScore: 0.1, ResponseTime: 2 * time.Hour})
	s.AddMessage(&casedata.Message{ID: "m-2", CaseID: "case-1", SenderID: "p-b",
		Body: "You never show up on time", SentAt: day(5),
		ToxicityScore: 0.8, Flagged: true})
	s.AddMessage(&casedata.Message{ID: "m-3", CaseID: "case-1", SenderID: "p-b",
		Body: "completely unacceptable", SentAt: day(6),
		ToxicityScore: 0.9, Flagged: true, Blocked: true})

	s.AddIntervention(&casedata.Intervention{ID: "iv-1", CaseID: "case-1",
		MessageID: "m-2", PartyID: "p-b", Trigger: "toxicity", Action: "flagged",
		Excerpt: "You never show up", OccurredAt: day(5)})
	s.AddIntervention(&casedata.Intervention{ID: "iv-2", CaseID: "case-1",
		MessageID: "m-3", PartyID: "p-b", Trigger: "toxicity", Action: "blocked",
		Excerpt: "completely unacceptable", OccurredAt: day(6)})

	s.AddScheduleEntry(&casedata.ScheduleEntry{ID: "se-1", CaseID: "case-1", PartyID: "p-a",
		Start: day(2), End: day(2).Add(48 * time.Hour), Status: "completed"})
	s.AddScheduleEntry(&casedata.ScheduleEntry{ID: "se-2", CaseID: "case-1", PartyID: "p-b",
		Start: day(9), End: day(9).Add(48 * time.Hour), Status: "missed"})

	actual := day(4).Add(20 * time.Minute)
	s.AddExchange(&casedata.Exchange{ID: "ex-1", CaseID: "case-1",
		ScheduledAt: day(4), ActualAt: &actual, Location: "Lakeside Elementary",
		GPSVerified: true, DistanceMeters: 12, Status: "completed"})
	s.AddExchange(&casedata.Exchange{ID: "ex-2", CaseID: "case-1",
		ScheduledAt: day(11), Location: "Lakeside Elementary", Status: "missed"})

	s.AddCheckIn(&casedata.CheckIn{ID: "ci-1", CaseID: "case-1", PartyID: "p-a",
		SubmittedAt: day(7), MoodScore: 4, StressScore: 2})
	s.AddCheckIn(&casedata.CheckIn{ID: "ci-2", CaseID: "case-1", PartyID: "p-a",
		SubmittedAt: day(14), MoodScore: 3, StressScore: 3})

	s.AddExpense(&casedata.Expense{ID: "e-1", CaseID: "case-1", PaidByID: "p-a",
		Category: "medical", Description: "Dental visit", AmountCents: 24000,
		SplitPct: 50, Status: "settled", IncurredAt: day(8)})
	s.AddExpense(&casedata.Expense{ID: "e-2", CaseID: "case-1", PaidByID: "p-b",
		Category: "education", Description: "School supplies", AmountCents: 6000,
		SplitPct: 50, Status: "disputed", IncurredAt: day(15)})
	s.AddPayment(&casedata.Payment{ID: "pay-1", CaseID: "case-1", PayerID: "p-b",
		ExpenseID: "e-1", AmountCents: 12000, PaidAt: day(20)})

	return s
}

// fixtureRules is the redaction rule set used by section tests.
func fixtureRules() []redact.Rule {
	return []redact.Rule{
		{
			Name: "phone-number", Type: redact.RuleRegex,
			Pattern: `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`, Replacement: "[PHONE]",
			AppliesTo: []string{"*"}, Level: export.RedactionStandard,
			Priority: 100, IsActive: true,
		},
		{
			Name: "school-name", Type: redact.RuleKeyword,
			Pattern: "Lakeside Elementary", Replacement: "[SCHOOL]",
			AppliesTo: []string{"exchanges", "messages"}, Level: export.RedactionEnhanced,
			Priority: 80, IsActive: true,
		},
	}
}

// newRunContext builds a fresh generation context over the fixture store.
func newRunContext(t *testing.T, store *memory.Store, level export.RedactionLevel, msgRedacted bool) *Context {
	t.Helper()
	engine := redact.NewEngine(fixtureRules(), nil)
	run := NewContext("case-1", rangeStart, rangeEnd, level, msgRedacted, store.Stores(), engine)
	run.Jurisdiction = "US-CA"
	return run
}

func TestRegistry_CanonicalOrder(t *testing.T) {
	r := NewDefaultRegistry()

	want := []string{
		TypeAgreementOverview, TypeComplianceSummary, TypeParentingTime,
		TypeFinancialCompliance, TypeCommunicationCompliance,
		TypeInterventionLog, TypeParentImpact, TypeChainOfCustody,
	}

	got := r.Types()
	if len(got) != len(want) {
		t.Fatalf("registry has %d types, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i], want[i])
		}
	}
}

// TestRegistry_ByTypesIgnoresRequestOrder verifies that document order is
// an engine invariant, never client-controlled.
func TestRegistry_ByTypesIgnoresRequestOrder(t *testing.T) {
	r := NewDefaultRegistry()

	gens, err := r.ByTypes([]string{TypeChainOfCustody, TypeAgreementOverview, TypeParentingTime})
	if err != nil {
		t.Fatalf("ByTypes failed: %v", err)
	}

	want := []string{TypeAgreementOverview, TypeParentingTime, TypeChainOfCustody}
	for i, g := range gens {
		if g.SectionType() != want[i] {
			t.Errorf("position %d = %s, want %s", i, g.SectionType(), want[i])
		}
	}
}

func TestRegistry_ByTypesRejectsUnknown(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.ByTypes([]string{TypeParentingTime, "gps_heatmap"})
	if err == nil {
		t.Fatal("expected ValidationError for unknown section type")
	}
	if _, ok := err.(*export.ValidationError); !ok {
		t.Errorf("error type = %T, want *export.ValidationError", err)
	}
}

func TestRegistry_DefaultSections(t *testing.T) {
	r := NewDefaultRegistry()

	court := r.DefaultSections(export.PackageCourt)
	if len(court) != 8 {
		t.Errorf("court defaults = %d sections, want 8", len(court))
	}

	inv := r.DefaultSections(export.PackageInvestigation)
	want := []string{
		TypeAgreementOverview, TypeComplianceSummary, TypeParentingTime,
		TypeCommunicationCompliance, TypeInterventionLog, TypeChainOfCustody,
	}
	if len(inv) != len(want) {
		t.Fatalf("investigation defaults = %v", inv)
	}
	for i := range want {
		if inv[i] != want[i] {
			t.Errorf("investigation position %d = %s, want %s", i, inv[i], want[i])
		}
	}
}

// TestGenerators_Deterministic verifies every generator hashes identically
// across repeated runs over the same source data.
func TestGenerators_Deterministic(t *testing.T) {
	store := fixtureStore(t)
	r := NewDefaultRegistry()

	for _, g := range r.All() {
		t.Run(g.SectionType(), func(t *testing.T) {
			run1 := newRunContext(t, store, export.RedactionEnhanced, false)
			run2 := newRunContext(t, store, export.RedactionEnhanced, false)

			c1, err := g.Generate(context.Background(), run1)
			if err != nil {
				t.Fatalf("first generate failed: %v", err)
			}
			c2, err := g.Generate(context.Background(), run2)
			if err != nil {
				t.Fatalf("second generate failed: %v", err)
			}

			h1, err := hash.HashContent(c1.ContentData)
			if err != nil {
				t.Fatalf("hash failed: %v", err)
			}
			h2, err := hash.HashContent(c2.ContentData)
			if err != nil {
				t.Fatalf("hash failed: %v", err)
			}
			if h1 != h2 {
				t.Errorf("content hashes differ across runs: %s vs %s", h1, h2)
			}
			if c1.EvidenceCount < 0 {
				t.Errorf("evidence count = %d, want >= 0", c1.EvidenceCount)
			}
		})
	}
}

// TestGenerators_DegradedOnMissingData verifies a generator with no source
// records reports evidence of absence instead of failing the run.
func TestGenerators_DegradedOnMissingData(t *testing.T) {
	empty := memory.NewStore()
	empty.AddCase(&casedata.Case{ID: "case-1", CaseNumber: "FL-2025-0042", Status: "active"})

	r := NewDefaultRegistry()
	for _, g := range r.All() {
		if g.SectionType() == TypeChainOfCustody {
			// Chain of custody documents absence itself; it has no
			// degraded form as long as the case record resolves.
			continue
		}
		t.Run(g.SectionType(), func(t *testing.T) {
			run := newRunContext(t, empty, export.RedactionStandard, false)
			content, err := g.Generate(context.Background(), run)
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if content.EvidenceCount != 0 {
				t.Errorf("evidence count = %d, want 0", content.EvidenceCount)
			}
			if _, ok := content.ContentData["error"]; !ok {
				t.Error("degraded section is missing the error key")
			}
		})
	}
}

// TestCommunicationCompliance_Redaction verifies flagged excerpts pass
// through the rule set, and that message_content_redacted withholds them.
func TestCommunicationCompliance_Redaction(t *testing.T) {
	store := fixtureStore(t)
	store.AddMessage(&casedata.Message{ID: "m-4", CaseID: "case-1", SenderID: "p-a",
		Body: "reach me at 555-867-5309", SentAt: rangeStart.Add(12 * time.Hour),
		ToxicityScore: 0.7, Flagged: true})

	g := &CommunicationCompliance{}

	run := newRunContext(t, store, export.RedactionStandard, false)
	content, err := g.Generate(context.Background(), run)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, item := range content.ContentData["flagged_messages"].([]any) {
		excerpt := item.(map[string]any)["excerpt"].(string)
		if containsPhone(excerpt) {
			t.Errorf("unredacted phone number in excerpt: %q", excerpt)
		}
	}

	redactedRun := newRunContext(t, store, export.RedactionStandard, true)
	content, err = g.Generate(context.Background(), redactedRun)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, item := range content.ContentData["flagged_messages"].([]any) {
		excerpt := item.(map[string]any)["excerpt"].(string)
		if excerpt != "[message content redacted]" {
			t.Errorf("excerpt = %q, want full redaction", excerpt)
		}
	}
}

func containsPhone(s string) bool {
	for i := 0; i+12 <= len(s); i++ {
		if s[i:i+12] == "555-867-5309" {
			return true
		}
	}
	return false
}

// TestParentingTime_ExchangeEvidence verifies GPS verification stats are
// carried in the parenting time section.
func TestParentingTime_ExchangeEvidence(t *testing.T) {
	store := fixtureStore(t)
	g := &ParentingTime{}
	run := newRunContext(t, store, export.RedactionEnhanced, false)

	content, err := g.Generate(context.Background(), run)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	exchanges := content.ContentData["exchanges"].(map[string]any)
	if exchanges["total"] != 2 {
		t.Errorf("exchange total = %v, want 2", exchanges["total"])
	}
	if exchanges["gps_verified"] != 1 {
		t.Errorf("gps_verified = %v, want 1", exchanges["gps_verified"])
	}

	// Enhanced level redacts the school name from exchange locations
	for _, item := range exchanges["log"].([]any) {
		loc := item.(map[string]any)["location"].(string)
		if loc != "[SCHOOL]" {
			t.Errorf("location = %q, want [SCHOOL]", loc)
		}
	}

	if content.EvidenceCount != 4 { // 2 schedule entries + 2 exchanges
		t.Errorf("evidence count = %d, want 4", content.EvidenceCount)
	}
}

// TestContext_DataAccessErrorPropagates verifies a store failure becomes a
// DataAccessError that aborts the section.
func TestContext_DataAccessErrorPropagates(t *testing.T) {
	store := fixtureStore(t)
	store.SetError("messages", errors.New("database is locked"))

	g := &CommunicationCompliance{}
	run := newRunContext(t, store, export.RedactionStandard, false)

	_, err := g.Generate(context.Background(), run)
	if err == nil {
		t.Fatal("expected DataAccessError")
	}
	var daErr *export.DataAccessError
	if !errors.As(err, &daErr) {
		t.Fatalf("error = %v (%T), want DataAccessError", err, err)
	}
	if daErr.Source != "messages" {
		t.Errorf("source = %q, want messages", daErr.Source)
	}
}

// TestContext_Memoizes verifies repeated accessor calls hit the store once.
func TestContext_Memoizes(t *testing.T) {
	store := fixtureStore(t)
	counting := &countingMessages{inner: store}
	stores := store.Stores()
	stores.Messages = counting

	engine := redact.NewEngine(fixtureRules(), nil)
	run := NewContext("case-1", rangeStart, rangeEnd, export.RedactionStandard, false, stores, engine)

	for i := 0; i < 3; i++ {
		if _, err := run.Messages(context.Background()); err != nil {
			t.Fatalf("Messages failed: %v", err)
		}
	}
	if counting.calls != 1 {
		t.Errorf("store queried %d times, want 1", counting.calls)
	}
}

type countingMessages struct {
	inner casedata.MessageStore
	calls int
}

func (c *countingMessages) Messages(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Message, error) {
	c.calls++
	return c.inner.Messages(ctx, caseID, from, to)
}

func (c *countingMessages) Interventions(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Intervention, error) {
	return c.inner.Interventions(ctx, caseID, from, to)
}

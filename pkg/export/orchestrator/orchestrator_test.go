package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"clearcourse-hq/exhibit/pkg/casedata"
	"clearcourse-hq/exhibit/pkg/casedata/memory"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/export/hash"
	"clearcourse-hq/exhibit/pkg/export/sections"
	"clearcourse-hq/exhibit/pkg/export/storage"
	"clearcourse-hq/exhibit/pkg/redact"
)

var fixedNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func fixtureStore() *memory.Store {
	s := memory.NewStore()
	s.AddCase(&casedata.Case{
		ID:           "case-1",
		CaseNumber:   "FC-2024-0112",
		Jurisdiction: "US-CA",
		Status:       "active",
		OpenedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddParty(&casedata.Party{ID: "p-a", CaseID: "case-1", Role: "parent_a", FirstName: "Dana", LastName: "Rivera"})
	s.AddParty(&casedata.Party{ID: "p-b", CaseID: "case-1", Role: "parent_b", FirstName: "Sam", LastName: "Rivera"})
	s.AddMessage(&casedata.Message{
		ID: "m-1", CaseID: "case-1", SenderID: "p-a",
		Body:   "Pickup moved to 4pm, call me at 555-201-3344.",
		SentAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	})
	return s
}

func fixtureRules() redact.StaticSource {
	return redact.StaticSource{
		{
			Name:        "phone-number",
			Type:        redact.RuleRegex,
			Pattern:     `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`,
			Replacement: "[PHONE]",
			Level:       export.RedactionStandard,
			AppliesTo:   []string{"*"},
			Priority:    10,
			IsActive:    true,
		},
	}
}

type fixture struct {
	orch    *Orchestrator
	storage export.Storage
	cases   *memory.Store
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	store := fixtureStore()
	st := storage.NewMemoryStorage()
	t.Cleanup(func() { st.Close() })

	opts := Options{
		RetentionTTL: 90 * 24 * time.Hour,
		BundleDir:    t.TempDir(),
		Now:          func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}

	return &fixture{
		orch:    New(st, sections.NewDefaultRegistry(), store.Stores(), fixtureRules(), opts),
		storage: st,
		cases:   store,
	}
}

func validRequest() export.CreateRequest {
	return export.CreateRequest{
		CaseID:      "case-1",
		PackageType: export.PackageCourt,
		DateStart:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:     time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		name   string
		mutate func(*export.CreateRequest)
		field  string
	}{
		{"missing case id", func(r *export.CreateRequest) { r.CaseID = "" }, "case_id"},
		{"unknown package type", func(r *export.CreateRequest) { r.PackageType = "summary" }, "package_type"},
		{"missing dates", func(r *export.CreateRequest) { r.DateStart, r.DateEnd = time.Time{}, time.Time{} }, "date_range"},
		{"inverted range", func(r *export.CreateRequest) { r.DateStart, r.DateEnd = r.DateEnd, r.DateStart }, "date_range"},
		{"investigation without claim", func(r *export.CreateRequest) { r.PackageType = export.PackageInvestigation }, "claim_type"},
		{"unknown redaction level", func(r *export.CreateRequest) { r.RedactionLevel = "maximum" }, "redaction_level"},
		{"unknown section type", func(r *export.CreateRequest) { r.Sections = []string{"surveillance_log"} }, "sections"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := f.orch.Create(context.Background(), req)
			var verr *export.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestCreate_DefaultsAndRetention(t *testing.T) {
	f := newFixture(t, nil)

	e, err := f.orch.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Status != export.StatusGenerating {
		t.Errorf("status = %s, want generating", e.Status)
	}
	if e.RedactionLevel != export.RedactionStandard {
		t.Errorf("redaction level = %s, want standard", e.RedactionLevel)
	}
	if len(e.SectionsIncluded) != 8 {
		t.Errorf("court defaults = %d sections, want 8", len(e.SectionsIncluded))
	}
	if !strings.HasPrefix(e.ExportNumber, "CE-20260115-") {
		t.Errorf("export number %q missing date prefix", e.ExportNumber)
	}
	if e.ExpiresAt == nil || !e.ExpiresAt.Equal(fixedNow.Add(90*24*time.Hour)) {
		t.Errorf("expires_at = %v, want 90 days out", e.ExpiresAt)
	}

	// Permanent exports never get an expiry stamp.
	req := validRequest()
	req.IsPermanent = true
	perm, err := f.orch.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create permanent: %v", err)
	}
	if perm.ExpiresAt != nil {
		t.Errorf("permanent export has expires_at %v", perm.ExpiresAt)
	}
}

func TestCreate_SectionsResolvedToCanonicalOrder(t *testing.T) {
	f := newFixture(t, nil)

	req := validRequest()
	req.Sections = []string{sections.TypeParentingTime, sections.TypeAgreementOverview}
	e, err := f.orch.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{sections.TypeAgreementOverview, sections.TypeParentingTime}
	if len(e.SectionsIncluded) != 2 || e.SectionsIncluded[0] != want[0] || e.SectionsIncluded[1] != want[1] {
		t.Errorf("sections = %v, want %v", e.SectionsIncluded, want)
	}
}

func TestExport_HappyPath(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if e.Status != export.StatusCompleted {
		t.Fatalf("status = %s, want completed", e.Status)
	}
	if e.ContentHash == "" || e.ChainHash == "" {
		t.Error("completed export missing hashes")
	}
	if e.PriorChainHash != "" {
		t.Errorf("first export of case carries prior chain %q", e.PriorChainHash)
	}

	rows, err := f.storage.GetSections(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetSections: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("persisted %d sections, want 8", len(rows))
	}
	hashes := make([]string, len(rows))
	for i, sec := range rows {
		if sec.SectionOrder != i+1 {
			t.Errorf("section %d has order %d", i, sec.SectionOrder)
		}
		h, err := hash.HashContent(sec.ContentData)
		if err != nil {
			t.Fatalf("HashContent: %v", err)
		}
		if h != sec.ContentHash {
			t.Errorf("section %s hash does not match its content", sec.SectionType)
		}
		hashes[i] = sec.ContentHash
	}
	if want := hash.HashString(strings.Join(hashes, "")); e.ContentHash != want {
		t.Errorf("content hash = %s, want %s", e.ContentHash, want)
	}
	if want := hash.ChainHash(hashes, ""); e.ChainHash != want {
		t.Errorf("chain hash = %s, want %s", e.ChainHash, want)
	}
}

func TestGenerate_ChainsToPriorExport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	second, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	if second.PriorChainHash != first.ChainHash {
		t.Errorf("second export prior chain = %s, want %s", second.PriorChainHash, first.ChainHash)
	}
	// Same content, different linkage: the chain hash must differ.
	if second.ChainHash == first.ChainHash {
		t.Error("chained exports share a chain hash")
	}
	if second.ContentHash != first.ContentHash {
		t.Error("identical runs produced different content hashes")
	}
}

func TestGenerate_DataAccessFailureMarksFailed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.cases.SetError("schedule", errors.New("database is locked"))

	e, err := f.orch.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.orch.Generate(ctx, e.ID); err == nil {
		t.Fatal("expected generation error")
	}

	stored, err := f.storage.GetExport(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if stored.Status != export.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if !strings.Contains(stored.ErrorMessage, "database is locked") {
		t.Errorf("error message %q missing cause", stored.ErrorMessage)
	}
	rows, err := f.storage.GetSections(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetSections: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("failed export retains %d sections", len(rows))
	}
}

func TestGenerate_RejectsTerminalExport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	_, err = f.orch.Generate(ctx, e.ID)
	var verr *export.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// gatedCases blocks the first Case lookup until released, so a second
// Generate call can arrive while the first run is still in flight.
type gatedCases struct {
	casedata.CaseStore
	entered chan struct{}
	release chan struct{}
	once    bool
}

func (g *gatedCases) Case(ctx context.Context, caseID string) (*casedata.Case, error) {
	if !g.once {
		g.once = true
		close(g.entered)
		<-g.release
	}
	return g.CaseStore.Case(ctx, caseID)
}

func TestGenerate_ConcurrentRunRejected(t *testing.T) {
	store := fixtureStore()
	gate := &gatedCases{
		CaseStore: store,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	stores := store.Stores()
	stores.Cases = gate

	st := storage.NewMemoryStorage()
	defer st.Close()
	orch := New(st, sections.NewDefaultRegistry(), stores, fixtureRules(), Options{
		Now: func() time.Time { return fixedNow },
	})

	ctx := context.Background()
	e, err := orch.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := orch.Generate(ctx, e.ID)
		done <- err
	}()
	<-gate.entered

	_, err = orch.Generate(ctx, e.ID)
	var cerr *export.ConcurrentGenerationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConcurrentGenerationError, got %v", err)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestVerify_IntactAndTampered(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	res, err := f.orch.Verify(ctx, e.ExportNumber)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.IsValid {
		t.Error("fresh export reported invalid")
	}
	if res.IsExpired {
		t.Error("fresh export reported expired")
	}
	if res.ChainHash != e.ChainHash {
		t.Errorf("verify chain hash = %s, want %s", res.ChainHash, e.ChainHash)
	}

	// A section whose stored hash does not match its stored content is
	// tampering, however internally consistent the export hashes are.
	tampered := &export.CaseExport{
		ID:           "tampered",
		CaseID:       "case-9",
		ExportNumber: "CE-20260115-0000beef",
		PackageType:  export.PackageCourt,
		DateStart:    e.DateStart,
		DateEnd:      e.DateEnd,
		Status:       export.StatusGenerating,
		GeneratedAt:  fixedNow,
	}
	if err := f.storage.CreateExport(ctx, tampered); err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	badRow := &export.ExportSection{
		ID:           "sec-tampered",
		ExportID:     "tampered",
		SectionType:  sections.TypeAgreementOverview,
		SectionOrder: 1,
		Title:        "Agreement Overview",
		ContentData:  map[string]any{"doctored": true},
		ContentHash:  strings.Repeat("ab", 32),
	}
	tampered.Status = export.StatusCompleted
	tampered.ContentHash = hash.HashString(badRow.ContentHash)
	tampered.ChainHash = hash.ChainHash([]string{badRow.ContentHash}, "")
	if err := f.storage.CompleteExport(ctx, tampered, []*export.ExportSection{badRow}); err != nil {
		t.Fatalf("CompleteExport: %v", err)
	}

	res, err = f.orch.Verify(ctx, tampered.ExportNumber)
	if err != nil {
		t.Fatalf("Verify tampered: %v", err)
	}
	if res.IsValid {
		t.Error("tampered section not detected")
	}
}

func TestVerify_RemainsStableAfterNewerExports(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	if _, err := f.orch.Export(ctx, validRequest()); err != nil {
		t.Fatalf("second export: %v", err)
	}

	res, err := f.orch.Verify(ctx, first.ExportNumber)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.IsValid {
		t.Error("earlier export invalidated by a newer one")
	}
}

func TestVerify_ReportsExpiry(t *testing.T) {
	now := fixedNow
	f := newFixture(t, func(o *Options) {
		o.RetentionTTL = time.Hour
		o.Now = func() time.Time { return now }
	})
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	now = fixedNow.Add(2 * time.Hour)
	res, err := f.orch.Verify(ctx, e.ExportNumber)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.IsExpired {
		t.Error("expired export not reported expired")
	}
	if !res.IsValid {
		t.Error("expiry must not invalidate the hashes")
	}
}

func TestDownload_WritesArtifactsAndRecordsAccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	paths, err := f.orch.Download(ctx, e.ExportNumber)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("wrote %d artifacts, want 2", len(paths))
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", p)
		}
	}

	stored, err := f.storage.GetExport(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if stored.DownloadCount != 1 {
		t.Errorf("download count = %d, want 1", stored.DownloadCount)
	}
	if stored.LastDownloadedAt == nil {
		t.Error("last_downloaded_at not stamped")
	}
}

func TestDownload_RejectsExpired(t *testing.T) {
	now := fixedNow
	f := newFixture(t, func(o *Options) {
		o.RetentionTTL = time.Hour
		o.Now = func() time.Time { return now }
	})
	ctx := context.Background()

	e, err := f.orch.Export(ctx, validRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	now = fixedNow.Add(2 * time.Hour)
	_, err = f.orch.Download(ctx, e.ExportNumber)
	var verr *export.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "expires_at" {
		t.Errorf("field = %q, want expires_at", verr.Field)
	}
}

func TestDownload_UnknownExportNumber(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.Download(context.Background(), "CE-20260101-ffffffff")
	var nferr *export.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

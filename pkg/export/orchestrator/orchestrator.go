package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clearcourse-hq/exhibit/pkg/casedata"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/export/bundle"
	"clearcourse-hq/exhibit/pkg/export/hash"
	"clearcourse-hq/exhibit/pkg/export/sections"
	"clearcourse-hq/exhibit/pkg/redact"
	"clearcourse-hq/exhibit/pkg/telemetry/metrics"
)

// RuleSource supplies the redaction rule snapshot a generation run pins for
// its whole duration. The watched rule directory and StaticSource both
// satisfy it.
type RuleSource interface {
	Snapshot() []redact.Rule
}

// Options tunes orchestrator behavior.
type Options struct {
	// RetentionTTL is the lifetime stamped onto new non-permanent exports.
	// Zero means exports never expire.
	RetentionTTL time.Duration

	// DefaultRedactionLevel applies when a request does not specify one.
	DefaultRedactionLevel export.RedactionLevel

	// BundleDir is where download artifacts are written.
	BundleDir string

	// PrettyJSON indents the JSON download artifact.
	PrettyJSON bool

	// Detector is the pluggable entity detector for entity_type rules.
	// Nil leaves entity_type rules inert.
	Detector redact.EntityDetector

	// Metrics records run outcomes. Nil disables instrumentation.
	Metrics *metrics.Collector

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Orchestrator drives the export lifecycle: request validation, export row
// creation, the generation run, hashing and chain linkage, atomic
// persistence, verification, and download artifacts.
type Orchestrator struct {
	storage  export.Storage
	registry *sections.Registry
	stores   casedata.Stores
	rules    RuleSource
	opts     Options
	logger   *slog.Logger

	// inflight guards against concurrent generation runs for one export.
	inflight sync.Map
}

// New creates an orchestrator.
func New(storage export.Storage, registry *sections.Registry, stores casedata.Stores, rules RuleSource, opts Options) *Orchestrator {
	if opts.DefaultRedactionLevel == "" {
		opts.DefaultRedactionLevel = export.RedactionStandard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		storage:  storage,
		registry: registry,
		stores:   stores,
		rules:    rules,
		opts:     opts,
		logger:   slog.Default().With("component", "export.orchestrator"),
	}
}

// Create validates a request and persists a new export row in the
// generating state. The effective section list is resolved and frozen at
// creation time; generation never renegotiates it.
func (o *Orchestrator) Create(ctx context.Context, req export.CreateRequest) (*export.CaseExport, error) {
	if req.RedactionLevel == "" {
		req.RedactionLevel = o.opts.DefaultRedactionLevel
	}
	if err := o.validate(&req); err != nil {
		return nil, err
	}

	effective := req.Sections
	if len(effective) == 0 {
		effective = o.registry.DefaultSections(req.PackageType)
	} else {
		// Resolve to canonical order, rejecting unknown types.
		gens, err := o.registry.ByTypes(effective)
		if err != nil {
			return nil, err
		}
		effective = make([]string, len(gens))
		for i, g := range gens {
			effective[i] = g.SectionType()
		}
	}

	now := o.opts.Now().UTC()
	e := &export.CaseExport{
		ID:                     uuid.NewString(),
		CaseID:                 req.CaseID,
		ExportNumber:           newExportNumber(now),
		PackageType:            req.PackageType,
		ClaimType:              req.ClaimType,
		ClaimDescription:       req.ClaimDescription,
		DateStart:              req.DateStart,
		DateEnd:                req.DateEnd,
		RedactionLevel:         req.RedactionLevel,
		MessageContentRedacted: req.MessageContentRedacted,
		SectionsIncluded:       effective,
		Status:                 export.StatusGenerating,
		IsPermanent:            req.IsPermanent,
		GeneratedAt:            now,
	}
	if !req.IsPermanent && o.opts.RetentionTTL > 0 {
		expires := now.Add(o.opts.RetentionTTL)
		e.ExpiresAt = &expires
	}

	if err := o.storage.CreateExport(ctx, e); err != nil {
		return nil, err
	}

	o.logger.Info("export created",
		"export_id", e.ID,
		"export_number", e.ExportNumber,
		"case_id", e.CaseID,
		"package_type", string(e.PackageType),
		"sections", len(effective),
	)
	return e, nil
}

// validate checks a create request.
func (o *Orchestrator) validate(req *export.CreateRequest) error {
	if req.CaseID == "" {
		return export.NewValidationError("case_id", "case id is required")
	}
	switch req.PackageType {
	case export.PackageCourt, export.PackageInvestigation:
	default:
		return export.NewValidationError("package_type",
			fmt.Sprintf("unknown package type %q", req.PackageType))
	}
	if req.DateStart.IsZero() || req.DateEnd.IsZero() {
		return export.NewValidationError("date_range", "date_start and date_end are required")
	}
	if req.DateEnd.Before(req.DateStart) {
		return export.NewValidationError("date_range", "date_end must not precede date_start")
	}
	if req.PackageType == export.PackageInvestigation && req.ClaimType == "" {
		return export.NewValidationError("claim_type", "investigation packages require a claim type")
	}
	if req.RedactionLevel.Rank() < 0 {
		return export.NewValidationError("redaction_level",
			fmt.Sprintf("unknown redaction level %q", req.RedactionLevel))
	}
	return nil
}

// Generate runs section generation for an export in the generating state
// and drives it to a terminal status. On success every section row and the
// export's hashes are persisted atomically; on any failure the export is
// marked failed and no section content survives.
func (o *Orchestrator) Generate(ctx context.Context, exportID string) (*export.CaseExport, error) {
	if _, loaded := o.inflight.LoadOrStore(exportID, struct{}{}); loaded {
		return nil, export.NewConcurrentGenerationError(exportID)
	}
	defer o.inflight.Delete(exportID)

	e, err := o.storage.GetExport(ctx, exportID)
	if err != nil {
		return nil, err
	}
	if e.Status != export.StatusGenerating {
		return nil, export.NewValidationError("status",
			fmt.Sprintf("export %s is %s; a retry is always a new export", e.ExportNumber, e.Status))
	}

	start := o.opts.Now()
	e, err = o.run(ctx, e, start)
	status := string(export.StatusCompleted)
	if err != nil {
		status = string(export.StatusFailed)
	}
	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordExport(string(e.PackageType), status, o.opts.Now().Sub(start))
	}
	return e, err
}

// run executes one generation attempt. It returns the export in its
// terminal state; the caller has already claimed the in-flight slot.
func (o *Orchestrator) run(ctx context.Context, e *export.CaseExport, start time.Time) (*export.CaseExport, error) {
	fail := func(cause error) (*export.CaseExport, error) {
		o.logger.Error("generation failed",
			"export_id", e.ID,
			"export_number", e.ExportNumber,
			"error", cause.Error(),
		)
		if ferr := o.storage.FailExport(ctx, e.ID, cause.Error()); ferr != nil {
			o.logger.Error("failed to mark export failed", "export_id", e.ID, "error", ferr.Error())
		}
		e.Status = export.StatusFailed
		e.ErrorMessage = cause.Error()
		return e, cause
	}

	// Resolve the case record first: it carries the jurisdiction that
	// scopes jurisdiction-bound redaction rules.
	caseRec, err := o.stores.Cases.Case(ctx, e.CaseID)
	if err != nil {
		return fail(export.NewDataAccessError("cases", err))
	}

	engine := redact.NewEngine(o.rules.Snapshot(), o.opts.Detector)
	run := sections.NewContext(e.CaseID, e.DateStart, e.DateEnd,
		e.RedactionLevel, e.MessageContentRedacted, o.stores, engine)
	run.Jurisdiction = caseRec.Jurisdiction

	results, err := o.registry.GenerateSections(ctx, run, e.SectionsIncluded, e.PackageType)
	if err != nil {
		return fail(err)
	}

	rows := make([]*export.ExportSection, 0, len(results))
	hashes := make([]string, 0, len(results))
	for _, res := range results {
		h, err := hash.HashContent(res.Content.ContentData)
		if err != nil {
			return fail(err)
		}
		hashes = append(hashes, h)
		rows = append(rows, &export.ExportSection{
			ID:             uuid.NewString(),
			ExportID:       e.ID,
			SectionType:    res.Generator.SectionType(),
			SectionOrder:   res.Generator.CanonicalOrder(),
			Title:          res.Generator.Title(),
			ContentData:    res.Content.ContentData,
			ContentHash:    h,
			EvidenceCount:  res.Content.EvidenceCount,
			DataSources:    res.Content.DataSources,
			GenerationTime: res.Elapsed,
		})
		if o.opts.Metrics != nil {
			o.opts.Metrics.RecordSection(res.Generator.SectionType(), res.Elapsed, res.Content.EvidenceCount)
		}
	}

	// Chain linkage: the most recent completed export of the same case at
	// completion time. The prior chain hash is persisted so verification
	// reproduces the linkage even after newer exports complete.
	prior, err := o.storage.LatestCompleted(ctx, e.CaseID, e.ID)
	if err != nil {
		return fail(err)
	}
	priorChain := ""
	if prior != nil {
		priorChain = prior.ChainHash
	}

	e.ContentHash = hash.HashString(strings.Join(hashes, ""))
	e.PriorChainHash = priorChain
	e.ChainHash = hash.ChainHash(hashes, priorChain)
	e.GenerationTime = o.opts.Now().Sub(start)
	e.Status = export.StatusCompleted

	if err := o.storage.CompleteExport(ctx, e, rows); err != nil {
		return fail(err)
	}

	o.logger.Info("export completed",
		"export_id", e.ID,
		"export_number", e.ExportNumber,
		"sections", len(rows),
		"chain_hash", e.ChainHash,
		"elapsed_ms", e.GenerationTime.Milliseconds(),
	)
	return e, nil
}

// Export creates an export from a request and runs generation to a
// terminal state in one call.
func (o *Orchestrator) Export(ctx context.Context, req export.CreateRequest) (*export.CaseExport, error) {
	e, err := o.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Generate(ctx, e.ID)
}

// Verify recomputes the hashes of a completed export from its persisted
// sections and reports whether the package is intact. The stored prior
// chain hash anchors the recomputation, so verification is stable however
// many exports completed since.
func (o *Orchestrator) Verify(ctx context.Context, exportNumber string) (*export.VerifyResult, error) {
	e, err := o.storage.GetExportByNumber(ctx, exportNumber)
	if err != nil {
		return nil, err
	}
	if e.Status != export.StatusCompleted {
		return nil, export.NewValidationError("status",
			fmt.Sprintf("export %s is %s; only completed exports can be verified", exportNumber, e.Status))
	}

	rows, err := o.storage.GetSections(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	valid := true
	hashes := make([]string, 0, len(rows))
	for _, sec := range rows {
		h, err := hash.HashContent(sec.ContentData)
		if err != nil {
			return nil, err
		}
		if h != sec.ContentHash {
			o.logger.Warn("section hash mismatch",
				"export_number", exportNumber,
				"section", sec.SectionType,
			)
			valid = false
		}
		hashes = append(hashes, sec.ContentHash)
	}

	if hash.HashString(strings.Join(hashes, "")) != e.ContentHash {
		valid = false
	}
	if hash.ChainHash(hashes, e.PriorChainHash) != e.ChainHash {
		valid = false
	}

	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordVerification(valid)
	}

	return &export.VerifyResult{
		ExportNumber: e.ExportNumber,
		IsValid:      valid,
		IsExpired:    e.Expired(o.opts.Now()),
		ContentHash:  e.ContentHash,
		ChainHash:    e.ChainHash,
		PackageType:  e.PackageType,
		DateStart:    e.DateStart,
		DateEnd:      e.DateEnd,
		GeneratedAt:  e.GeneratedAt,
	}, nil
}

// Download writes the download artifacts for a completed, unexpired export
// into the orchestrator's bundle directory and records the access. It
// returns the paths written.
func (o *Orchestrator) Download(ctx context.Context, exportNumber string) ([]string, error) {
	e, err := o.storage.GetExportByNumber(ctx, exportNumber)
	if err != nil {
		return nil, err
	}
	if e.Status != export.StatusCompleted {
		return nil, export.NewValidationError("status",
			fmt.Sprintf("export %s is %s; only completed exports can be downloaded", exportNumber, e.Status))
	}
	now := o.opts.Now()
	if e.Expired(now) {
		return nil, export.NewValidationError("expires_at",
			fmt.Sprintf("export %s expired at %s", exportNumber, e.ExpiresAt.UTC().Format(time.RFC3339)))
	}

	rows, err := o.storage.GetSections(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	paths, err := bundle.WriteFiles(ctx, o.opts.BundleDir, e, rows, o.opts.PrettyJSON)
	if err != nil {
		return nil, err
	}

	if err := o.storage.RecordDownload(ctx, e.ID, now); err != nil {
		return nil, err
	}
	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordDownload(string(e.PackageType))
	}

	o.logger.Info("export downloaded",
		"export_number", e.ExportNumber,
		"artifacts", len(paths),
	)
	return paths, nil
}

// newExportNumber allocates a human-facing export number: CE, the UTC
// calendar date, and an 8-hex random suffix.
func newExportNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("CE-%s-%s", now.UTC().Format("20060102"), suffix)
}

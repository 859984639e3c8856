package sections

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"clearcourse-hq/exhibit/pkg/export"
)

// Registry owns the canonical ordering of section generators and resolves
// package-type defaults and explicit section subsets. It is built once at
// process start and is thereafter read-only, so generator dispatch needs
// no locking.
type Registry struct {
	ordered []Generator
	byType  map[string]Generator
	logger  *slog.Logger
}

// NewRegistry builds a registry over the given generators, sorted into
// canonical order. Duplicate section types or canonical orders are a
// programming error and panic at startup.
func NewRegistry(generators ...Generator) *Registry {
	r := &Registry{
		byType: make(map[string]Generator, len(generators)),
		logger: slog.Default().With("component", "export.registry"),
	}

	orders := make(map[int]string, len(generators))
	for _, g := range generators {
		if _, dup := r.byType[g.SectionType()]; dup {
			panic(fmt.Sprintf("duplicate section generator %q", g.SectionType()))
		}
		if prev, dup := orders[g.CanonicalOrder()]; dup {
			panic(fmt.Sprintf("generators %q and %q share canonical order %d", prev, g.SectionType(), g.CanonicalOrder()))
		}
		r.byType[g.SectionType()] = g
		orders[g.CanonicalOrder()] = g.SectionType()
		r.ordered = append(r.ordered, g)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].CanonicalOrder() < r.ordered[j].CanonicalOrder()
	})

	return r
}

// NewDefaultRegistry builds the registry with the full, closed set of
// section generators.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		&AgreementOverview{},
		&ComplianceSummary{},
		&ParentingTime{},
		&FinancialCompliance{},
		&CommunicationCompliance{},
		&InterventionLog{},
		&ParentImpact{},
		&ChainOfCustody{},
	)
}

// Get returns the generator for a section type.
func (r *Registry) Get(sectionType string) (Generator, bool) {
	g, ok := r.byType[sectionType]
	return g, ok
}

// All returns every registered generator in canonical order.
func (r *Registry) All() []Generator {
	out := make([]Generator, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Types returns every registered section type in canonical order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.ordered))
	for i, g := range r.ordered {
		out[i] = g.SectionType()
	}
	return out
}

// ByTypes filters the requested types to the registry's own canonical
// order, ignoring caller-supplied ordering. An unknown type is rejected
// with a ValidationError: silently omitting evidence from a legal export
// package is a correctness risk.
func (r *Registry) ByTypes(types []string) ([]Generator, error) {
	requested := make(map[string]bool, len(types))
	for _, t := range types {
		if _, ok := r.byType[t]; !ok {
			return nil, export.NewValidationError("sections", fmt.Sprintf("unknown section type %q", t))
		}
		requested[t] = true
	}

	var out []Generator
	for _, g := range r.ordered {
		if requested[g.SectionType()] {
			out = append(out, g)
		}
	}
	return out, nil
}

// DefaultSections resolves the default section set for a package type, in
// canonical order. Court packages carry every registered section;
// investigation packages carry the curated dispute-evidence subset.
func (r *Registry) DefaultSections(packageType export.PackageType) []string {
	if packageType == export.PackageInvestigation {
		curated := map[string]bool{
			TypeAgreementOverview:       true,
			TypeComplianceSummary:       true,
			TypeParentingTime:           true, // includes exchange GPS verification evidence
			TypeCommunicationCompliance: true,
			TypeInterventionLog:         true,
			TypeChainOfCustody:          true,
		}
		var out []string
		for _, g := range r.ordered {
			if curated[g.SectionType()] {
				out = append(out, g.SectionType())
			}
		}
		return out
	}
	return r.Types()
}

// Result is one generated section together with its diagnostic elapsed
// time. Elapsed is attached after generation and never participates in
// hashing.
type Result struct {
	Generator Generator
	Content   *export.SectionContent
	Elapsed   time.Duration
}

// GenerateSections resolves the effective section list (the explicit
// request when given, else the package defaults) and invokes each
// generator in canonical order, returning the ordered results.
func (r *Registry) GenerateSections(ctx context.Context, run *Context, requestedTypes []string, packageType export.PackageType) ([]Result, error) {
	effective := requestedTypes
	if len(effective) == 0 {
		effective = r.DefaultSections(packageType)
	}

	generators, err := r.ByTypes(effective)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(generators))
	for _, g := range generators {
		start := time.Now()
		content, err := g.Generate(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", g.SectionType(), err)
		}
		elapsed := time.Since(start)

		r.logger.Debug("section generated",
			"section", g.SectionType(),
			"evidence_count", content.EvidenceCount,
			"elapsed_ms", elapsed.Milliseconds(),
		)

		results = append(results, Result{Generator: g, Content: content, Elapsed: elapsed})
	}
	return results, nil
}

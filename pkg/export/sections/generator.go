package sections

import (
	"context"
	"math"
	"time"

	"clearcourse-hq/exhibit/pkg/export"
)

// Section type identifiers, one per generator. The constants double as the
// values of CaseExport.SectionsIncluded and ExportSection.SectionType.
const (
	TypeAgreementOverview       = "agreement_overview"
	TypeComplianceSummary       = "compliance_summary"
	TypeParentingTime           = "parenting_time"
	TypeFinancialCompliance     = "financial_compliance"
	TypeCommunicationCompliance = "communication_compliance"
	TypeInterventionLog         = "intervention_log"
	TypeParentImpact            = "parent_impact"
	TypeChainOfCustody          = "chain_of_custody"
)

// Generator turns raw case data into one structured, redacted evidence
// section. Implementations form a closed set, registered once into a
// read-only Registry at process start.
//
// Contract: queries are scoped strictly to the context's case id and date
// range; any free text surfaced in the content tree must first pass
// through the context's redaction handle; and output must be deterministic
// given the same source data and rule set. Wall-clock diagnostics are
// attached by the orchestrator after hashing, never inside ContentData.
//
// When the required upstream data is simply absent, a generator returns a
// degraded SectionContent (an "error" key and zero evidence count);
// evidence of absence, not a pipeline failure. When the data-access layer
// itself errors, the generator propagates the DataAccessError and the
// whole run aborts.
type Generator interface {
	// SectionType returns the stable section type identifier.
	SectionType() string

	// Title returns the section's display title.
	Title() string

	// CanonicalOrder returns the section's fixed position in the
	// document. Document order is an engine invariant, never
	// client-controlled.
	CanonicalOrder() int

	// Generate produces the section's content for one run.
	Generate(ctx context.Context, run *Context) (*export.SectionContent, error)
}

// degraded builds the standard missing-data section content.
func degraded(reason string, sources ...string) *export.SectionContent {
	return &export.SectionContent{
		ContentData:   map[string]any{"error": reason},
		EvidenceCount: 0,
		DataSources:   sources,
	}
}

// round2 rounds to two decimal places. Content trees carry only rounded
// floats so regenerated sections hash identically across platforms.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// pct returns the percentage part/total rounded to one decimal place, or 0
// when total is zero.
func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// day formats a timestamp as a calendar date for content trees.
func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// stamp formats a timestamp for content trees.
func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// cents renders a cent amount as whole currency units.
func cents(c int64) float64 {
	return round2(float64(c) / 100)
}

package casedata

import (
	"context"
	"time"
)

// The store interfaces below are the engine's read-only view of the
// surrounding record domains. Implementations must be thread-safe; every
// query is scoped to a case id and, where applicable, a date range. The
// engine never writes through these interfaces.

// CaseStore resolves case metadata.
type CaseStore interface {
	// Case returns the case record, or an error if the store fails.
	Case(ctx context.Context, caseID string) (*Case, error)
}

// PartyStore resolves the parties and children on a case.
type PartyStore interface {
	Parties(ctx context.Context, caseID string) ([]*Party, error)
	Children(ctx context.Context, caseID string) ([]*Child, error)
}

// MessageStore resolves co-parenting messages and moderation events.
type MessageStore interface {
	// Messages returns messages sent within [from, to], oldest first.
	Messages(ctx context.Context, caseID string, from, to time.Time) ([]*Message, error)

	// Interventions returns moderation events within [from, to], oldest first.
	Interventions(ctx context.Context, caseID string, from, to time.Time) ([]*Intervention, error)
}

// ScheduleStore resolves parenting-time blocks, exchanges, and check-ins.
type ScheduleStore interface {
	Entries(ctx context.Context, caseID string, from, to time.Time) ([]*ScheduleEntry, error)
	Exchanges(ctx context.Context, caseID string, from, to time.Time) ([]*Exchange, error)
	CheckIns(ctx context.Context, caseID string, from, to time.Time) ([]*CheckIn, error)
}

// AgreementStore resolves agreements and their clauses.
type AgreementStore interface {
	Agreements(ctx context.Context, caseID string) ([]*Agreement, error)
	Sections(ctx context.Context, agreementID string) ([]*AgreementSection, error)
}

// FinanceStore resolves shared expenses and reimbursement payments.
type FinanceStore interface {
	Expenses(ctx context.Context, caseID string, from, to time.Time) ([]*Expense, error)
	Payments(ctx context.Context, caseID string, from, to time.Time) ([]*Payment, error)
}

// Stores bundles every collaborator a generation run may consult.
type Stores struct {
	Cases      CaseStore
	Parties    PartyStore
	Messages   MessageStore
	Schedule   ScheduleStore
	Agreements AgreementStore
	Finance    FinanceStore
}

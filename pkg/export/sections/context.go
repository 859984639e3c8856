package sections

import (
	"context"
	"sync"
	"time"

	"clearcourse-hq/exhibit/pkg/casedata"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/redact"
)

// memo lazily loads and caches one collaborator query result. Generators
// within a run may execute concurrently, so loads are guarded by
// sync.Once; whichever generator asks first pays for the query and every
// later caller gets the cached result.
type memo[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (m *memo[T]) get(load func() (T, error)) (T, error) {
	m.once.Do(func() {
		m.val, m.err = load()
	})
	return m.val, m.err
}

// Context is the per-run, exclusive data-access cache plus the run's scope
// and redaction handle. A fresh Context is built for every generation run
// and never shared across runs, even for the same case, so stale
// cross-run data can never silently enter a hash.
type Context struct {
	CaseID    string
	DateStart time.Time
	DateEnd   time.Time

	// Jurisdiction is resolved from the case record before generation.
	Jurisdiction string

	Level                  export.RedactionLevel
	MessageContentRedacted bool

	stores   casedata.Stores
	redactor *redact.Engine

	// Memoized collaborator queries
	caseRec       memo[*casedata.Case]
	parties       memo[[]*casedata.Party]
	children      memo[[]*casedata.Child]
	messages      memo[[]*casedata.Message]
	interventions memo[[]*casedata.Intervention]
	entries       memo[[]*casedata.ScheduleEntry]
	exchanges     memo[[]*casedata.Exchange]
	checkIns      memo[[]*casedata.CheckIn]
	agreements    memo[[]*casedata.Agreement]
	expenses      memo[[]*casedata.Expense]
	payments      memo[[]*casedata.Payment]

	// Agreement clauses are memoized per agreement id.
	agrMu       sync.Mutex
	agrSections map[string][]*casedata.AgreementSection
}

// NewContext builds a fresh generation context for one run.
func NewContext(caseID string, dateStart, dateEnd time.Time, level export.RedactionLevel, messageContentRedacted bool, stores casedata.Stores, redactor *redact.Engine) *Context {
	return &Context{
		CaseID:                 caseID,
		DateStart:              dateStart,
		DateEnd:                dateEnd,
		Level:                  level,
		MessageContentRedacted: messageContentRedacted,
		stores:                 stores,
		redactor:               redactor,
		agrSections:            make(map[string][]*casedata.AgreementSection),
	}
}

// Case returns the case record. The jurisdiction on the context is set
// from this record by the orchestrator before generators run.
func (c *Context) Case(ctx context.Context) (*casedata.Case, error) {
	return c.caseRec.get(func() (*casedata.Case, error) {
		rec, err := c.stores.Cases.Case(ctx, c.CaseID)
		if err != nil {
			return nil, export.NewDataAccessError("cases", err)
		}
		return rec, nil
	})
}

// Parties returns the parties on the case.
func (c *Context) Parties(ctx context.Context) ([]*casedata.Party, error) {
	return c.parties.get(func() ([]*casedata.Party, error) {
		out, err := c.stores.Parties.Parties(ctx, c.CaseID)
		if err != nil {
			return nil, export.NewDataAccessError("parties", err)
		}
		return out, nil
	})
}

// Children returns the children on the case.
func (c *Context) Children(ctx context.Context) ([]*casedata.Child, error) {
	return c.children.get(func() ([]*casedata.Child, error) {
		out, err := c.stores.Parties.Children(ctx, c.CaseID)
		if err != nil {
			return nil, export.NewDataAccessError("parties", err)
		}
		return out, nil
	})
}

// Messages returns the case's messages within the run's date range.
func (c *Context) Messages(ctx context.Context) ([]*casedata.Message, error) {
	return c.messages.get(func() ([]*casedata.Message, error) {
		out, err := c.stores.Messages.Messages(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("messages", err)
		}
		return out, nil
	})
}

// Interventions returns moderation events within the run's date range.
func (c *Context) Interventions(ctx context.Context) ([]*casedata.Intervention, error) {
	return c.interventions.get(func() ([]*casedata.Intervention, error) {
		out, err := c.stores.Messages.Interventions(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("messages", err)
		}
		return out, nil
	})
}

// ScheduleEntries returns parenting-time blocks within the date range.
func (c *Context) ScheduleEntries(ctx context.Context) ([]*casedata.ScheduleEntry, error) {
	return c.entries.get(func() ([]*casedata.ScheduleEntry, error) {
		out, err := c.stores.Schedule.Entries(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("schedule", err)
		}
		return out, nil
	})
}

// Exchanges returns custody exchanges within the date range.
func (c *Context) Exchanges(ctx context.Context) ([]*casedata.Exchange, error) {
	return c.exchanges.get(func() ([]*casedata.Exchange, error) {
		out, err := c.stores.Schedule.Exchanges(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("schedule", err)
		}
		return out, nil
	})
}

// CheckIns returns wellbeing check-ins within the date range.
func (c *Context) CheckIns(ctx context.Context) ([]*casedata.CheckIn, error) {
	return c.checkIns.get(func() ([]*casedata.CheckIn, error) {
		out, err := c.stores.Schedule.CheckIns(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("schedule", err)
		}
		return out, nil
	})
}

// Agreements returns the agreements on file for the case.
func (c *Context) Agreements(ctx context.Context) ([]*casedata.Agreement, error) {
	return c.agreements.get(func() ([]*casedata.Agreement, error) {
		out, err := c.stores.Agreements.Agreements(ctx, c.CaseID)
		if err != nil {
			return nil, export.NewDataAccessError("agreements", err)
		}
		return out, nil
	})
}

// AgreementSections returns the clauses of one agreement.
func (c *Context) AgreementSections(ctx context.Context, agreementID string) ([]*casedata.AgreementSection, error) {
	c.agrMu.Lock()
	cached, ok := c.agrSections[agreementID]
	c.agrMu.Unlock()
	if ok {
		return cached, nil
	}

	out, err := c.stores.Agreements.Sections(ctx, agreementID)
	if err != nil {
		return nil, export.NewDataAccessError("agreements", err)
	}

	c.agrMu.Lock()
	c.agrSections[agreementID] = out
	c.agrMu.Unlock()
	return out, nil
}

// Expenses returns shared expenses within the date range.
func (c *Context) Expenses(ctx context.Context) ([]*casedata.Expense, error) {
	return c.expenses.get(func() ([]*casedata.Expense, error) {
		out, err := c.stores.Finance.Expenses(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("finance", err)
		}
		return out, nil
	})
}

// Payments returns reimbursement payments within the date range.
func (c *Context) Payments(ctx context.Context) ([]*casedata.Payment, error) {
	return c.payments.get(func() ([]*casedata.Payment, error) {
		out, err := c.stores.Finance.Payments(ctx, c.CaseID, c.DateStart, c.DateEnd)
		if err != nil {
			return nil, export.NewDataAccessError("finance", err)
		}
		return out, nil
	})
}

// Redact routes free text through the run's redaction engine under the
// run's level and jurisdiction. Every piece of free text that enters a
// section's content tree must pass through here.
func (c *Context) Redact(text, scope string) (string, error) {
	return c.redactor.RedactText(text, scope, c.Level, c.Jurisdiction)
}

// MessageExcerpt prepares a message body for inclusion in a section. When
// the export was requested with message content redacted, the body is
// withheld entirely; otherwise it passes through the rule set.
func (c *Context) MessageExcerpt(body string) (string, error) {
	if c.MessageContentRedacted {
		return "[message content redacted]", nil
	}
	return c.Redact(body, "messages")
}

// PartyLabel returns the stable, role-based label used for a party in
// aggregate tables ("Parent A", "Parent B", "Guardian").
func PartyLabel(p *casedata.Party) string {
	switch p.Role {
	case "parent_a":
		return "Parent A"
	case "parent_b":
		return "Parent B"
	case "guardian":
		return "Guardian"
	default:
		return "Party"
	}
}

// Package memory provides an in-memory implementation of the casedata
// store interfaces. It is used by tests and local fixtures; records are
// added up front and served back filtered by case id and date range.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"clearcourse-hq/exhibit/pkg/casedata"
)

// Store is an in-memory implementation of every casedata store interface.
// It is safe for concurrent use. An error can be injected per domain to
// exercise data-access failure paths in tests.
type Store struct {
	mu sync.RWMutex

	cases         map[string]*casedata.Case
	parties       []*casedata.Party
	children      []*casedata.Child
	messages      []*casedata.Message
	interventions []*casedata.Intervention
	entries       []*casedata.ScheduleEntry
	exchanges     []*casedata.Exchange
	checkIns      []*casedata.CheckIn
	agreements    []*casedata.Agreement
	agrSections   []*casedata.AgreementSection
	expenses      []*casedata.Expense
	payments      []*casedata.Payment

	errs map[string]error // domain -> injected error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		cases: make(map[string]*casedata.Case),
		errs:  make(map[string]error),
	}
}

// Stores returns a casedata.Stores bundle backed entirely by this store.
func (s *Store) Stores() casedata.Stores {
	return casedata.Stores{
		Cases:      s,
		Parties:    s,
		Messages:   s,
		Schedule:   s,
		Agreements: s,
		Finance:    s,
	}
}

// SetError injects an error for a domain ("cases", "parties", "messages",
// "schedule", "agreements", "finance"). Pass nil to clear.
func (s *Store) SetError(domain string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, domain)
		return
	}
	s.errs[domain] = err
}

func (s *Store) domainErr(domain string) error {
	if err, ok := s.errs[domain]; ok {
		return err
	}
	return nil
}

// AddCase registers a case record.
func (s *Store) AddCase(c *casedata.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c
}

// AddParty appends a party record.
func (s *Store) AddParty(p *casedata.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties = append(s.parties, p)
}

// AddChild appends a child record.
func (s *Store) AddChild(c *casedata.Child) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, c)
}

// AddMessage appends a message record.
func (s *Store) AddMessage(m *casedata.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// AddIntervention appends a moderation event.
func (s *Store) AddIntervention(i *casedata.Intervention) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interventions = append(s.interventions, i)
}

// AddScheduleEntry appends a parenting-time block.
func (s *Store) AddScheduleEntry(e *casedata.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// AddExchange appends a custody exchange.
func (s *Store) AddExchange(e *casedata.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, e)
}

// AddCheckIn appends a check-in.
func (s *Store) AddCheckIn(c *casedata.CheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkIns = append(s.checkIns, c)
}

// AddAgreement appends an agreement.
func (s *Store) AddAgreement(a *casedata.Agreement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreements = append(s.agreements, a)
}

// AddAgreementSection appends an agreement clause.
func (s *Store) AddAgreementSection(a *casedata.AgreementSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agrSections = append(s.agrSections, a)
}

// AddExpense appends a shared expense.
func (s *Store) AddExpense(e *casedata.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
}

// AddPayment appends a reimbursement payment.
func (s *Store) AddPayment(p *casedata.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
}

// Case implements casedata.CaseStore.
func (s *Store) Case(ctx context.Context, caseID string) (*casedata.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("cases"); err != nil {
		return nil, err
	}
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s not found", caseID)
	}
	cp := *c
	return &cp, nil
}

// Parties implements casedata.PartyStore.
func (s *Store) Parties(ctx context.Context, caseID string) ([]*casedata.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("parties"); err != nil {
		return nil, err
	}
	var out []*casedata.Party
	for _, p := range s.parties {
		if p.CaseID == caseID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

// Children implements casedata.PartyStore.
func (s *Store) Children(ctx context.Context, caseID string) ([]*casedata.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("parties"); err != nil {
		return nil, err
	}
	var out []*casedata.Child
	for _, c := range s.children {
		if c.CaseID == caseID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Initials < out[j].Initials })
	return out, nil
}

// Messages implements casedata.MessageStore.
func (s *Store) Messages(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("messages"); err != nil {
		return nil, err
	}
	var out []*casedata.Message
	for _, m := range s.messages {
		if m.CaseID == caseID && inRange(m.SentAt, from, to) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

// Interventions implements casedata.MessageStore.
func (s *Store) Interventions(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("messages"); err != nil {
		return nil, err
	}
	var out []*casedata.Intervention
	for _, i := range s.interventions {
		if i.CaseID == caseID && inRange(i.OccurredAt, from, to) {
			cp := *i
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// Entries implements casedata.ScheduleStore.
func (s *Store) Entries(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("schedule"); err != nil {
		return nil, err
	}
	var out []*casedata.ScheduleEntry
	for _, e := range s.entries {
		if e.CaseID == caseID && inRange(e.Start, from, to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Exchanges implements casedata.ScheduleStore.
func (s *Store) Exchanges(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("schedule"); err != nil {
		return nil, err
	}
	var out []*casedata.Exchange
	for _, e := range s.exchanges {
		if e.CaseID == caseID && inRange(e.ScheduledAt, from, to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// CheckIns implements casedata.ScheduleStore.
func (s *Store) CheckIns(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("schedule"); err != nil {
		return nil, err
	}
	var out []*casedata.CheckIn
	for _, c := range s.checkIns {
		if c.CaseID == caseID && inRange(c.SubmittedAt, from, to) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// Agreements implements casedata.AgreementStore.
func (s *Store) Agreements(ctx context.Context, caseID string) ([]*casedata.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("agreements"); err != nil {
		return nil, err
	}
	var out []*casedata.Agreement
	for _, a := range s.agreements {
		if a.CaseID == caseID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveAt.Before(out[j].EffectiveAt) })
	return out, nil
}

// Sections implements casedata.AgreementStore.
func (s *Store) Sections(ctx context.Context, agreementID string) ([]*casedata.AgreementSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("agreements"); err != nil {
		return nil, err
	}
	var out []*casedata.AgreementSection
	for _, a := range s.agrSections {
		if a.AgreementID == agreementID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// Expenses implements casedata.FinanceStore.
func (s *Store) Expenses(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("finance"); err != nil {
		return nil, err
	}
	var out []*casedata.Expense
	for _, e := range s.expenses {
		if e.CaseID == caseID && inRange(e.IncurredAt, from, to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncurredAt.Before(out[j].IncurredAt) })
	return out, nil
}

// Payments implements casedata.FinanceStore.
func (s *Store) Payments(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.domainErr("finance"); err != nil {
		return nil, err
	}
	var out []*casedata.Payment
	for _, p := range s.payments {
		if p.CaseID == caseID && inRange(p.PaidAt, from, to) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

// inRange reports whether t falls inside the inclusive [from, to] range.
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

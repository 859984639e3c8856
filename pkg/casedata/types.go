package casedata

import "time"

// Case is the record of a custody relationship between two parents and
// their children.
type Case struct {
	ID           string
	CaseNumber   string
	Jurisdiction string // Court jurisdiction code (e.g. "US-CA"), may be empty
	Status       string // "active", "closed"
	OpenedAt     time.Time
}

// Party is one parent or guardian on a case.
type Party struct {
	ID        string
	CaseID    string
	Role      string // "parent_a", "parent_b", "guardian"
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// DisplayName returns the party's name as surfaced in evidence sections.
// Free-text name fields still pass through redaction before inclusion.
func (p *Party) DisplayName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// Child is a child on a case. Children are referenced in sections only by
// initials and birth year.
type Child struct {
	ID        string
	CaseID    string
	Initials  string
	BirthYear int
}

// Message is one co-parenting message exchanged on the case.
type Message struct {
	ID            string
	CaseID        string
	SenderID      string // Party id
	Body          string
	SentAt        time.Time
	ToxicityScore float64       // 0..1, produced upstream
	Flagged       bool          // Crossed the flagging threshold
	Blocked       bool          // Withheld from delivery
	ResponseTime  time.Duration // Time until the counterparty replied, 0 if never
}

// Intervention is one moderation event: a message that was flagged,
// rewritten, or blocked by the communication pipeline.
type Intervention struct {
	ID         string
	CaseID     string
	MessageID  string
	PartyID    string // Party whose message triggered the intervention
	Trigger    string // "toxicity", "keyword", "escalation"
	Action     string // "flagged", "blocked", "coaching_shown"
	Excerpt    string // Short excerpt of the offending text
	OccurredAt time.Time
}

// ScheduleEntry is one planned parenting-time block.
type ScheduleEntry struct {
	ID      string
	CaseID  string
	PartyID string // Custodial party for the block
	Start   time.Time
	End     time.Time
	Status  string // "completed", "missed", "modified", "scheduled"
	Note    string
}

// PlannedHours returns the planned duration of the block in hours.
func (s *ScheduleEntry) PlannedHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Exchange is one custody exchange event (hand-off of the children).
type Exchange struct {
	ID             string
	CaseID         string
	ScheduledAt    time.Time
	ActualAt       *time.Time // nil when the exchange never happened
	Location       string
	GPSVerified    bool    // Check-in fell inside the exchange geofence
	DistanceMeters float64 // Distance from the agreed location at check-in
	Status         string  // "completed", "missed", "late"
}

// CheckIn is one wellbeing check-in submitted by a party.
type CheckIn struct {
	ID          string
	CaseID      string
	PartyID     string
	SubmittedAt time.Time
	MoodScore   int // 1..5
	StressScore int // 1..5
	Note        string
}

// Agreement is one custody or parenting agreement on file for the case.
type Agreement struct {
	ID          string
	CaseID      string
	Title       string
	Type        string // "custody", "parenting_plan", "support"
	Status      string // "active", "superseded", "draft"
	EffectiveAt time.Time
	SignedByAll bool
}

// AgreementSection is one clause of an agreement.
type AgreementSection struct {
	ID          string
	AgreementID string
	Number      string // "3.2"
	Title       string
	Summary     string
}

// Expense is one shared child-related expense.
type Expense struct {
	ID          string
	CaseID      string
	PaidByID    string // Party id
	Category    string // "medical", "education", "activities", "other"
	Description string
	AmountCents int64
	SplitPct    int    // Counterparty's share, 0..100
	Status      string // "pending", "approved", "disputed", "settled"
	IncurredAt  time.Time
}

// OwedCents returns the counterparty's share of the expense.
func (e *Expense) OwedCents() int64 {
	return e.AmountCents * int64(e.SplitPct) / 100
}

// Payment is one reimbursement payment against shared expenses.
type Payment struct {
	ID          string
	CaseID      string
	PayerID     string
	ExpenseID   string // May be empty for lump-sum payments
	AmountCents int64
	PaidAt      time.Time
}

// Package sqlite provides a read-only casedata adapter over the platform's
// case database. The export engine never writes through this adapter; the
// connection is opened in read-only mode so a bug here cannot alter the
// records it is packaging as evidence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"clearcourse-hq/exhibit/pkg/casedata"
)

// Config configures the read-only case database adapter.
type Config struct {
	// Path is the case database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Store is a read-only casedata adapter backed by the platform's SQLite
// case database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens the case database read-only.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("case database path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?mode=ro&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open case database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	logger := slog.Default().With("component", "casedata.sqlite")
	logger.Info("case database opened", "path", cfg.Path, "mode", "read-only")

	return &Store{db: db, logger: logger}, nil
}

// Stores returns a casedata.Stores bundle backed by this adapter.
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

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Case implements casedata.CaseStore.
func (s *Store) Case(ctx context.Context, caseID string) (*casedata.Case, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, case_number, jurisdiction, status, opened_at
		FROM cases WHERE id = ?`, caseID)

	var c casedata.Case
	var jurisdiction sql.NullString
	if err := row.Scan(&c.ID, &c.CaseNumber, &jurisdiction, &c.Status, &c.OpenedAt); err != nil {
		return nil, fmt.Errorf("case %s: %w", caseID, err)
	}
	c.Jurisdiction = jurisdiction.String
	return &c, nil
}

// Parties implements casedata.PartyStore.
func (s *Store) Parties(ctx context.Context, caseID string) ([]*casedata.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, role, first_name, last_name, email, phone
		FROM parties WHERE case_id = ? ORDER BY role`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Party
	for rows.Next() {
		var p casedata.Party
		var email, phone sql.NullString
		if err := rows.Scan(&p.ID, &p.CaseID, &p.Role, &p.FirstName, &p.LastName, &email, &phone); err != nil {
			return nil, err
		}
		p.Email, p.Phone = email.String, phone.String
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Children implements casedata.PartyStore.
func (s *Store) Children(ctx context.Context, caseID string) ([]*casedata.Child, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, initials, birth_year
		FROM children WHERE case_id = ? ORDER BY initials`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Child
	for rows.Next() {
		var c casedata.Child
		if err := rows.Scan(&c.ID, &c.CaseID, &c.Initials, &c.BirthYear); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Messages implements casedata.MessageStore.
func (s *Store) Messages(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, sender_id, body, sent_at, toxicity_score, flagged, blocked, response_time_ms
		FROM messages
		WHERE case_id = ? AND sent_at >= ? AND sent_at <= ?
		ORDER BY sent_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Message
	for rows.Next() {
		var m casedata.Message
		var responseMs int64
		if err := rows.Scan(&m.ID, &m.CaseID, &m.SenderID, &m.Body, &m.SentAt,
			&m.ToxicityScore, &m.Flagged, &m.Blocked, &responseMs); err != nil {
			return nil, err
		}
		m.ResponseTime = time.Duration(responseMs) * time.Millisecond
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Interventions implements casedata.MessageStore.
func (s *Store) Interventions(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Intervention, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, message_id, party_id, trigger, action, excerpt, occurred_at
		FROM interventions
		WHERE case_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Intervention
	for rows.Next() {
		var i casedata.Intervention
		if err := rows.Scan(&i.ID, &i.CaseID, &i.MessageID, &i.PartyID,
			&i.Trigger, &i.Action, &i.Excerpt, &i.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

// Entries implements casedata.ScheduleStore.
func (s *Store) Entries(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, party_id, start_at, end_at, status, note
		FROM schedule_entries
		WHERE case_id = ? AND start_at >= ? AND start_at <= ?
		ORDER BY start_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.ScheduleEntry
	for rows.Next() {
		var e casedata.ScheduleEntry
		var note sql.NullString
		if err := rows.Scan(&e.ID, &e.CaseID, &e.PartyID, &e.Start, &e.End, &e.Status, &note); err != nil {
			return nil, err
		}
		e.Note = note.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Exchanges implements casedata.ScheduleStore.
func (s *Store) Exchanges(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, scheduled_at, actual_at, location, gps_verified, distance_meters, status
		FROM exchanges
		WHERE case_id = ? AND scheduled_at >= ? AND scheduled_at <= ?
		ORDER BY scheduled_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Exchange
	for rows.Next() {
		var e casedata.Exchange
		var actual sql.NullTime
		var location sql.NullString
		if err := rows.Scan(&e.ID, &e.CaseID, &e.ScheduledAt, &actual, &location,
			&e.GPSVerified, &e.DistanceMeters, &e.Status); err != nil {
			return nil, err
		}
		if actual.Valid {
			t := actual.Time
			e.ActualAt = &t
		}
		e.Location = location.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CheckIns implements casedata.ScheduleStore.
func (s *Store) CheckIns(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, party_id, submitted_at, mood_score, stress_score, note
		FROM check_ins
		WHERE case_id = ? AND submitted_at >= ? AND submitted_at <= ?
		ORDER BY submitted_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.CheckIn
	for rows.Next() {
		var c casedata.CheckIn
		var note sql.NullString
		if err := rows.Scan(&c.ID, &c.CaseID, &c.PartyID, &c.SubmittedAt,
			&c.MoodScore, &c.StressScore, &note); err != nil {
			return nil, err
		}
		c.Note = note.String
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Agreements implements casedata.AgreementStore.
func (s *Store) Agreements(ctx context.Context, caseID string) ([]*casedata.Agreement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, title, type, status, effective_at, signed_by_all
		FROM agreements WHERE case_id = ? ORDER BY effective_at`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Agreement
	for rows.Next() {
		var a casedata.Agreement
		if err := rows.Scan(&a.ID, &a.CaseID, &a.Title, &a.Type, &a.Status,
			&a.EffectiveAt, &a.SignedByAll); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Sections implements casedata.AgreementStore.
func (s *Store) Sections(ctx context.Context, agreementID string) ([]*casedata.AgreementSection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agreement_id, number, title, summary
		FROM agreement_sections WHERE agreement_id = ? ORDER BY number`, agreementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.AgreementSection
	for rows.Next() {
		var a casedata.AgreementSection
		var summary sql.NullString
		if err := rows.Scan(&a.ID, &a.AgreementID, &a.Number, &a.Title, &summary); err != nil {
			return nil, err
		}
		a.Summary = summary.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Expenses implements casedata.FinanceStore.
func (s *Store) Expenses(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, paid_by_id, category, description, amount_cents, split_pct, status, incurred_at
		FROM expenses
		WHERE case_id = ? AND incurred_at >= ? AND incurred_at <= ?
		ORDER BY incurred_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Expense
	for rows.Next() {
		var e casedata.Expense
		if err := rows.Scan(&e.ID, &e.CaseID, &e.PaidByID, &e.Category, &e.Description,
			&e.AmountCents, &e.SplitPct, &e.Status, &e.IncurredAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Payments implements casedata.FinanceStore.
func (s *Store) Payments(ctx context.Context, caseID string, from, to time.Time) ([]*casedata.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, payer_id, expense_id, amount_cents, paid_at
		FROM payments
		WHERE case_id = ? AND paid_at >= ? AND paid_at <= ?
		ORDER BY paid_at`, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*casedata.Payment
	for rows.Next() {
		var p casedata.Payment
		var expenseID sql.NullString
		if err := rows.Scan(&p.ID, &p.CaseID, &p.PayerID, &expenseID, &p.AmountCents, &p.PaidAt); err != nil {
			return nil, err
		}
		p.ExpenseID = expenseID.String
		out = append(out, &p)
	}
	return out, rows.Err()
}

/*
Package sqlite provides the SQLite-backed implementation of the
persistence interfaces.

PURPOSE:
  Implements engine.Store (properties, tenancies, charges, allocations,
  billing periods, occupancy events) using SQLite. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

TRANSACTIONAL GUARANTEES:
  ReplaceAllocations runs delete+insert inside one SQL transaction, so a
  failed replace never leaves a mixed old/new allocation set visible to
  readers. Property deletion cascades to tenancies, charges and
  allocations through foreign keys.

APPEND-ONLY ENFORCEMENT:
  occupancy_events has no UPDATE or DELETE statement anywhere in this
  package, and no foreign keys: the audit trail survives the cascade
  when a property is removed.

MONEY AND DATES:
  Decimal amounts are stored as TEXT and parsed with shopspring/decimal;
  dates as "YYYY-MM-DD" TEXT, timestamps as RFC 3339.

WAL MODE:
  The database is opened with WAL so readers do not block on the single
  writer, plus a busy timeout for contended dev setups.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

// Store implements engine.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		capacity INTEGER,
		total_area TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS tenancies (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		monthly_rent TEXT NOT NULL,
		room_area TEXT NOT NULL,
		occupants INTEGER NOT NULL DEFAULT 1 CHECK (occupants >= 1),
		move_in TEXT NOT NULL,
		move_out TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tenancies_property ON tenancies(property_id);

	CREATE TABLE IF NOT EXISTS utility_charges (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		period_month INTEGER NOT NULL CHECK (period_month BETWEEN 1 AND 12),
		period_year INTEGER NOT NULL,
		category TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		method TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_charges_property_period
		ON utility_charges(property_id, period_year, period_month);

	CREATE TABLE IF NOT EXISTS allocations (
		charge_id TEXT NOT NULL REFERENCES utility_charges(id) ON DELETE CASCADE,
		tenancy_id TEXT NOT NULL REFERENCES tenancies(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		PRIMARY KEY (charge_id, tenancy_id)
	);
	CREATE INDEX IF NOT EXISTS idx_allocations_tenancy ON allocations(tenancy_id);

	CREATE TABLE IF NOT EXISTS billing_periods (
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		period_month INTEGER NOT NULL CHECK (period_month BETWEEN 1 AND 12),
		period_year INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		notes TEXT NOT NULL DEFAULT '',
		generated_at TEXT NOT NULL,
		finalized_at TEXT,
		PRIMARY KEY (property_id, period_month, period_year)
	);

	-- Append-only audit trail. No UPDATE or DELETE is ever issued
	-- against this table; it deliberately has no foreign keys so the
	-- history survives property/tenancy cascades.
	CREATE TABLE IF NOT EXISTS occupancy_events (
		id TEXT PRIMARY KEY,
		tenancy_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		previous_value TEXT NOT NULL DEFAULT '',
		new_value TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_tenancy ON occupancy_events(tenancy_id, recorded_at);
	CREATE INDEX IF NOT EXISTS idx_events_property ON occupancy_events(property_id, recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (s *Store) SaveProperty(ctx context.Context, p engine.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, name, address, capacity, total_area)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			capacity = excluded.capacity,
			total_area = excluded.total_area`,
		p.ID.String(), p.Name, p.Address, nullableInt(p.Capacity), p.TotalArea.String())
	return err
}

func (s *Store) Property(ctx context.Context, id uuid.UUID) (engine.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, capacity, total_area FROM properties WHERE id = ?`,
		id.String())
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Property{}, &engine.NotFoundError{Kind: "property", ID: id.String()}
	}
	return p, err
}

func (s *Store) Properties(ctx context.Context) ([]engine.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, capacity, total_area FROM properties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &engine.NotFoundError{Kind: "property", ID: id.String()}
	}
	return nil
}

// =============================================================================
// TENANCIES
// =============================================================================

func (s *Store) SaveTenancy(ctx context.Context, t engine.Tenancy) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenancies (id, property_id, name, monthly_rent, room_area, occupants, move_in, move_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			monthly_rent = excluded.monthly_rent,
			room_area = excluded.room_area,
			occupants = excluded.occupants,
			move_in = excluded.move_in,
			move_out = excluded.move_out`,
		t.ID.String(), t.PropertyID.String(), t.Name,
		t.MonthlyRent.String(), t.RoomArea.String(), t.Occupants,
		t.MoveIn.String(), nullableDate(t.MoveOut))
	return err
}

func (s *Store) Tenancy(ctx context.Context, id uuid.UUID) (engine.Tenancy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, name, monthly_rent, room_area, occupants, move_in, move_out
		FROM tenancies WHERE id = ?`, id.String())
	t, err := scanTenancy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Tenancy{}, &engine.NotFoundError{Kind: "tenancy", ID: id.String()}
	}
	return t, err
}

func (s *Store) TenanciesByProperty(ctx context.Context, propertyID uuid.UUID) ([]engine.Tenancy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, name, monthly_rent, room_area, occupants, move_in, move_out
		FROM tenancies WHERE property_id = ? ORDER BY id`, propertyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITY CHARGES
// =============================================================================

func (s *Store) SaveCharge(ctx context.Context, c engine.UtilityCharge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO utility_charges (id, property_id, period_month, period_year, category, total_amount, method)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			category = excluded.category,
			total_amount = excluded.total_amount,
			method = excluded.method`,
		c.ID.String(), c.PropertyID.String(), c.Period.Month, c.Period.Year,
		string(c.Category), c.TotalAmount.String(), string(c.Method))
	return err
}

func (s *Store) Charge(ctx context.Context, id uuid.UUID) (engine.UtilityCharge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, period_month, period_year, category, total_amount, method
		FROM utility_charges WHERE id = ?`, id.String())
	c, err := scanCharge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.UtilityCharge{}, &engine.NotFoundError{Kind: "charge", ID: id.String()}
	}
	return c, err
}

func (s *Store) ChargesByProperty(ctx context.Context, propertyID uuid.UUID) ([]engine.UtilityCharge, error) {
	return s.queryCharges(ctx, `
		SELECT id, property_id, period_month, period_year, category, total_amount, method
		FROM utility_charges WHERE property_id = ?
		ORDER BY period_year, period_month, id`, propertyID.String())
}

func (s *Store) ChargesForPeriod(ctx context.Context, propertyID uuid.UUID, p engine.Period) ([]engine.UtilityCharge, error) {
	return s.queryCharges(ctx, `
		SELECT id, property_id, period_month, period_year, category, total_amount, method
		FROM utility_charges WHERE property_id = ? AND period_month = ? AND period_year = ?
		ORDER BY id`, propertyID.String(), p.Month, p.Year)
}

func (s *Store) queryCharges(ctx context.Context, q string, args ...any) ([]engine.UtilityCharge, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.UtilityCharge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCharge(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM utility_charges WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &engine.NotFoundError{Kind: "charge", ID: id.String()}
	}
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// ReplaceAllocations swaps the charge's allocation set atomically.
func (s *Store) ReplaceAllocations(ctx context.Context, chargeID uuid.UUID, allocations []engine.Allocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM utility_charges WHERE id = ?`, chargeID.String()).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return &engine.NotFoundError{Kind: "charge", ID: chargeID.String()}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM allocations WHERE charge_id = ?`, chargeID.String()); err != nil {
		return err
	}
	for _, a := range allocations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO allocations (charge_id, tenancy_id, amount) VALUES (?, ?, ?)`,
			a.ChargeID.String(), a.TenancyID.String(), a.Amount.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) AllocationsByCharge(ctx context.Context, chargeID uuid.UUID) ([]engine.Allocation, error) {
	return s.queryAllocations(ctx, `
		SELECT charge_id, tenancy_id, amount FROM allocations
		WHERE charge_id = ? ORDER BY tenancy_id`, chargeID.String())
}

func (s *Store) AllocationsByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]engine.Allocation, error) {
	return s.queryAllocations(ctx, `
		SELECT charge_id, tenancy_id, amount FROM allocations
		WHERE tenancy_id = ? ORDER BY charge_id`, tenancyID.String())
}

func (s *Store) queryAllocations(ctx context.Context, q string, args ...any) ([]engine.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Allocation
	for rows.Next() {
		var chargeID, tenancyID, amount string
		if err := rows.Scan(&chargeID, &tenancyID, &amount); err != nil {
			return nil, err
		}
		a, err := buildAllocation(chargeID, tenancyID, amount)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// BILLING PERIODS
// =============================================================================

func (s *Store) UpsertBillingPeriod(ctx context.Context, bp engine.BillingPeriod) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM billing_periods
		WHERE property_id = ? AND period_month = ? AND period_year = ?`,
		bp.PropertyID.String(), bp.Period.Month, bp.Period.Year).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO billing_periods (property_id, period_month, period_year, status, notes, generated_at)
			VALUES (?, ?, ?, 'draft', ?, ?)`,
			bp.PropertyID.String(), bp.Period.Month, bp.Period.Year,
			bp.Notes, bp.GeneratedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	case err != nil:
		return err
	case status == string(engine.BillingFinalized):
		return engine.ErrPeriodFinalized
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE billing_periods SET notes = ?, generated_at = ?
			WHERE property_id = ? AND period_month = ? AND period_year = ?`,
			bp.Notes, bp.GeneratedAt.UTC().Format(time.RFC3339),
			bp.PropertyID.String(), bp.Period.Month, bp.Period.Year); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) BillingPeriod(ctx context.Context, propertyID uuid.UUID, p engine.Period) (engine.BillingPeriod, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT property_id, period_month, period_year, status, notes, generated_at, finalized_at
		FROM billing_periods WHERE property_id = ? AND period_month = ? AND period_year = ?`,
		propertyID.String(), p.Month, p.Year)
	bp, err := scanBillingPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.BillingPeriod{}, &engine.NotFoundError{
			Kind: "billing_period", ID: propertyID.String() + "/" + p.String()}
	}
	return bp, err
}

func (s *Store) BillingPeriodsByProperty(ctx context.Context, propertyID uuid.UUID) ([]engine.BillingPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, period_month, period_year, status, notes, generated_at, finalized_at
		FROM billing_periods WHERE property_id = ?
		ORDER BY period_year, period_month`, propertyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.BillingPeriod
	for rows.Next() {
		bp, err := scanBillingPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}

func (s *Store) FinalizeBillingPeriod(ctx context.Context, propertyID uuid.UUID, p engine.Period) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE billing_periods SET status = 'finalized', finalized_at = ?
		WHERE property_id = ? AND period_month = ? AND period_year = ? AND status = 'draft'`,
		time.Now().UTC().Format(time.RFC3339), propertyID.String(), p.Month, p.Year)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Distinguish "never generated" from "already finalized".
	if _, err := s.BillingPeriod(ctx, propertyID, p); err != nil {
		return err
	}
	return engine.ErrPeriodFinalized
}

// =============================================================================
// OCCUPANCY EVENTS - Append-only
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, e engine.OccupancyEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO occupancy_events
			(id, tenancy_id, property_id, event_type, effective_date, previous_value, new_value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.TenancyID.String(), e.PropertyID.String(), string(e.Type),
		e.EffectiveDate.String(), e.Previous, e.New, e.RecordedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) EventsByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]engine.OccupancyEvent, error) {
	return s.queryEvents(ctx, `
		SELECT id, tenancy_id, property_id, event_type, effective_date, previous_value, new_value, recorded_at
		FROM occupancy_events WHERE tenancy_id = ? ORDER BY recorded_at, id`, tenancyID.String())
}

func (s *Store) EventsByProperty(ctx context.Context, propertyID uuid.UUID) ([]engine.OccupancyEvent, error) {
	return s.queryEvents(ctx, `
		SELECT id, tenancy_id, property_id, event_type, effective_date, previous_value, new_value, recorded_at
		FROM occupancy_events WHERE property_id = ? ORDER BY recorded_at, id`, propertyID.String())
}

func (s *Store) queryEvents(ctx context.Context, q string, args ...any) ([]engine.OccupancyEvent, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.OccupancyEvent
	for rows.Next() {
		var (
			e                                 engine.OccupancyEvent
			id, tenancyID, propertyID, evType string
			effective, recorded               string
		)
		if err := rows.Scan(&id, &tenancyID, &propertyID, &evType, &effective, &e.Previous, &e.New, &recorded); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.TenancyID, err = uuid.Parse(tenancyID); err != nil {
			return nil, err
		}
		if e.PropertyID, err = uuid.Parse(propertyID); err != nil {
			return nil, err
		}
		e.Type = engine.EventType(evType)
		if e.EffectiveDate, err = engine.ParseDate(effective); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(r scanner) (engine.Property, error) {
	var (
		p             engine.Property
		id, totalArea string
		capacity      sql.NullInt64
	)
	if err := r.Scan(&id, &p.Name, &p.Address, &capacity, &totalArea); err != nil {
		return engine.Property{}, err
	}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return engine.Property{}, err
	}
	if p.TotalArea, err = decimal.NewFromString(totalArea); err != nil {
		return engine.Property{}, err
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		p.Capacity = &c
	}
	return p, nil
}

func scanTenancy(r scanner) (engine.Tenancy, error) {
	var (
		t                              engine.Tenancy
		id, propertyID, rent, area, in string
		out                            sql.NullString
	)
	if err := r.Scan(&id, &propertyID, &t.Name, &rent, &area, &t.Occupants, &in, &out); err != nil {
		return engine.Tenancy{}, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return engine.Tenancy{}, err
	}
	if t.PropertyID, err = uuid.Parse(propertyID); err != nil {
		return engine.Tenancy{}, err
	}
	if t.MonthlyRent, err = decimal.NewFromString(rent); err != nil {
		return engine.Tenancy{}, err
	}
	if t.RoomArea, err = decimal.NewFromString(area); err != nil {
		return engine.Tenancy{}, err
	}
	if t.MoveIn, err = engine.ParseDate(in); err != nil {
		return engine.Tenancy{}, err
	}
	if out.Valid {
		d, err := engine.ParseDate(out.String)
		if err != nil {
			return engine.Tenancy{}, err
		}
		t.MoveOut = &d
	}
	// Loaded data must satisfy the same invariants as written data;
	// a violation here is corruption and surfaces as an error.
	if err := t.Validate(); err != nil {
		return engine.Tenancy{}, err
	}
	return t, nil
}

func scanCharge(r scanner) (engine.UtilityCharge, error) {
	var (
		c                                   engine.UtilityCharge
		id, propertyID, cat, amount, method string
	)
	if err := r.Scan(&id, &propertyID, &c.Period.Month, &c.Period.Year, &cat, &amount, &method); err != nil {
		return engine.UtilityCharge{}, err
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return engine.UtilityCharge{}, err
	}
	if c.PropertyID, err = uuid.Parse(propertyID); err != nil {
		return engine.UtilityCharge{}, err
	}
	if c.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return engine.UtilityCharge{}, err
	}
	c.Category = engine.Category(cat)
	c.Method = engine.AllocationMethod(method)
	return c, nil
}

func scanBillingPeriod(r scanner) (engine.BillingPeriod, error) {
	var (
		bp            engine.BillingPeriod
		propertyID    string
		status, genAt string
		finalizedAt   sql.NullString
	)
	if err := r.Scan(&propertyID, &bp.Period.Month, &bp.Period.Year, &status, &bp.Notes, &genAt, &finalizedAt); err != nil {
		return engine.BillingPeriod{}, err
	}
	var err error
	if bp.PropertyID, err = uuid.Parse(propertyID); err != nil {
		return engine.BillingPeriod{}, err
	}
	bp.Status = engine.BillingStatus(status)
	if bp.GeneratedAt, err = time.Parse(time.RFC3339, genAt); err != nil {
		return engine.BillingPeriod{}, err
	}
	if finalizedAt.Valid {
		t, err := time.Parse(time.RFC3339, finalizedAt.String)
		if err != nil {
			return engine.BillingPeriod{}, err
		}
		bp.FinalizedAt = &t
	}
	return bp, nil
}

func buildAllocation(chargeID, tenancyID, amount string) (engine.Allocation, error) {
	var (
		a   engine.Allocation
		err error
	)
	if a.ChargeID, err = uuid.Parse(chargeID); err != nil {
		return engine.Allocation{}, err
	}
	if a.TenancyID, err = uuid.Parse(tenancyID); err != nil {
		return engine.Allocation{}, err
	}
	if a.Amount, err = decimal.NewFromString(amount); err != nil {
		return engine.Allocation{}, err
	}
	return a, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableDate(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

/*
Package engine contains the occupancy-aware proration and allocation core.

PURPOSE:
  This package holds the pure calculation logic of the tenant manager:
  calendar/occupancy day counting, rent proration, and utility cost
  allocation, together with the domain types they operate on. Everything
  here is a pure function over immutable inputs - no I/O, no clock, no
  database. The billing and occupancy packages orchestrate these
  calculations against the persistence interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day (no time-of-day component)
  - Period: A (month, year) billing period
  - Tenancy: One lease, bounded by move-in/move-out dates
  - UtilityCharge / Allocation: A shared cost and its per-tenancy split
  - BillingPeriod: Draft/finalized state for one property-month
  - OccupancyEvent: Immutable audit entry for occupancy changes

DESIGN PRINCIPLES:
  1. Precision: All money is decimal.Decimal, never float64
  2. Explicitness: Property IDs are required parameters, never defaulted
  3. Single source of truth: Day counting lives in calendar.go only
  4. Auditability: Occupancy changes are recorded, never rewritten

SEE ALSO:
  - calendar.go: Occupancy day arithmetic
  - prorate.go: Rent proration
  - allocate.go: Utility cost splitting
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces
*/
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar day abstraction
// =============================================================================

// Date is a calendar day in UTC. Time-of-day never participates in
// occupancy arithmetic, so it is normalized away at construction.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time.Time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) AfterOrEqual(other Date) bool {
	return d.After(other) || d.Equal(other)
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CATEGORIES AND METHODS
// =============================================================================

// Category classifies a shared utility charge. The engine never formats
// these for display; rendering layers translate the identifiers.
type Category string

const (
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategoryHeating     Category = "heating"
	CategoryInternet    Category = "internet"
	CategoryGarbage     Category = "garbage"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectricity, CategoryWater, CategoryHeating,
		CategoryInternet, CategoryGarbage, CategoryOther:
		return true
	}
	return false
}

// AllocationMethod selects how a charge is split across a roster.
type AllocationMethod string

const (
	// SplitPerOccupant divides equally per tenancy, regardless of how many
	// people share the room. The simple flat split most house shares use.
	SplitPerOccupant AllocationMethod = "per_occupant"

	// SplitPerOccupantWeighted weights each tenancy's share by its
	// registered occupant count.
	SplitPerOccupantWeighted AllocationMethod = "per_occupant_weighted"

	// SplitPerArea weights each tenancy's share by its room area.
	SplitPerArea AllocationMethod = "per_area"
)

func (m AllocationMethod) Valid() bool {
	switch m {
	case SplitPerOccupant, SplitPerOccupantWeighted, SplitPerArea:
		return true
	}
	return false
}

// =============================================================================
// PROPERTY AND TENANCY
// =============================================================================

// Property is the aggregation root: it owns tenancies and utility charges.
type Property struct {
	ID       uuid.UUID
	Name     string
	Address  string
	Capacity *int            // max concurrent tenancies, nil = unlimited
	TotalArea decimal.Decimal // m², allocation denominator fallback
}

// Tenancy is one lease for one property, bounded by move-in/move-out.
// MoveOut nil means the tenancy is open-ended (still active). MoveOut is
// the LAST occupied day, inclusive - not an exclusive boundary.
//
// A terminated tenancy is never re-activated; a returning tenant gets a
// new Tenancy record.
type Tenancy struct {
	ID          uuid.UUID
	PropertyID  uuid.UUID
	Name        string
	MonthlyRent decimal.Decimal
	RoomArea    decimal.Decimal // m², must be positive
	Occupants   int             // people on the lease, >= 1
	MoveIn      Date
	MoveOut     *Date
}

// Validate checks the structural invariants of a tenancy record. A
// violation in loaded data indicates corruption and must surface as an
// error, never be silently repaired.
func (t Tenancy) Validate() error {
	if t.PropertyID == uuid.Nil {
		return &CorruptTenancyError{TenancyID: t.ID, Reason: "missing property reference"}
	}
	if t.MoveIn.IsZero() {
		return &CorruptTenancyError{TenancyID: t.ID, Reason: "missing move-in date"}
	}
	if t.MoveOut != nil && t.MoveOut.Before(t.MoveIn) {
		return &CorruptTenancyError{TenancyID: t.ID, Reason: "move-out before move-in"}
	}
	if t.Occupants < 1 {
		return &CorruptTenancyError{TenancyID: t.ID, Reason: "occupant count below 1"}
	}
	if t.RoomArea.IsNegative() {
		return &CorruptTenancyError{TenancyID: t.ID, Reason: "negative room area"}
	}
	return nil
}

// ActiveIn reports whether the tenancy occupied the property for at least
// one day of the period.
func (t Tenancy) ActiveIn(p Period) bool {
	return OccupiedDays(t.MoveIn, t.MoveOut, p) > 0
}

// =============================================================================
// UTILITY CHARGE AND ALLOCATION
// =============================================================================

// UtilityCharge is one shared bill for one property and billing month.
type UtilityCharge struct {
	ID          uuid.UUID
	PropertyID  uuid.UUID
	Period      Period
	Category    Category
	TotalAmount decimal.Decimal
	Method      AllocationMethod
}

func (c UtilityCharge) Validate() error {
	if err := c.Period.Validate(); err != nil {
		return err
	}
	if !c.Category.Valid() {
		return &AllocationError{ChargeID: c.ID, Reason: "unknown category: " + string(c.Category)}
	}
	if !c.Method.Valid() {
		return &AllocationError{ChargeID: c.ID, Reason: "unknown allocation method: " + string(c.Method)}
	}
	if c.TotalAmount.IsNegative() {
		return &AllocationError{ChargeID: c.ID, Reason: "negative total amount"}
	}
	return nil
}

// Allocation is one tenancy's computed share of a utility charge.
//
// Allocations are a materialized view: whenever the parent charge or the
// roster changes they are deleted and recomputed wholesale, never edited
// row by row. The sum over a charge always equals the charge total, with
// rounding remainder folded into the last share.
type Allocation struct {
	ChargeID  uuid.UUID
	TenancyID uuid.UUID
	Amount    decimal.Decimal
}

// =============================================================================
// BILLING PERIOD
// =============================================================================

// BillingStatus is the lifecycle of a property's billing month.
// draft -> finalized, and finalized is terminal.
type BillingStatus string

const (
	BillingDraft     BillingStatus = "draft"
	BillingFinalized BillingStatus = "finalized"
)

// BillingPeriod is the per-(property, month, year) generation record.
// Created as draft on the first statement generation request; once
// finalized, statement and allocation recomputation for the period must
// be refused.
type BillingPeriod struct {
	PropertyID  uuid.UUID
	Period      Period
	Status      BillingStatus
	Notes       string
	GeneratedAt time.Time
	FinalizedAt *time.Time
}

// =============================================================================
// OCCUPANCY EVENT
// =============================================================================

// EventType classifies an occupancy-affecting change.
type EventType string

const (
	EventMoveIn    EventType = "move_in"
	EventMoveOut   EventType = "move_out"
	EventAmendment EventType = "amendment"
)

// OccupancyEvent is one append-only audit entry. Events are the sole
// record of occupancy history: they are never mutated or deleted.
type OccupancyEvent struct {
	ID            uuid.UUID
	TenancyID     uuid.UUID
	PropertyID    uuid.UUID
	Type          EventType
	EffectiveDate Date
	Previous      string // snapshot of the changed value before, "" for move-in
	New           string // snapshot after
	RecordedAt    time.Time
}

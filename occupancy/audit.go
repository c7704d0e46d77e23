/*
Package occupancy owns the tenancy lifecycle and its audit trail.

PURPOSE:
  Every occupancy-affecting mutation - move-in (tenancy creation),
  move-out (termination), amendment (rent/area/occupant/date changes) -
  goes through this package so the corresponding OccupancyEvent is
  recorded next to the write. The event log is append-only and is the
  sole record of occupancy history; statistics are derived from the
  tenancy records using the same day arithmetic billing uses
  (engine.OccupiedDays), never a private reimplementation.

LIFECYCLE RULES:
  A tenancy's move-out date is set once. A terminated tenancy is never
  re-activated in place; a returning tenant gets a new Tenancy record.
*/
package occupancy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

// Service performs tenancy mutations and records their audit events.
type Service struct {
	Properties engine.PropertyStore
	Tenancies  engine.TenancyStore
	Events     engine.EventStore

	Log zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(s engine.Store, log zerolog.Logger) *Service {
	return &Service{
		Properties: s,
		Tenancies:  s,
		Events:     s,
		Log:        log,
		now:        time.Now,
	}
}

// =============================================================================
// TENANCY LIFECYCLE
// =============================================================================

// MoveIn creates a tenancy and records the move-in event.
func (s *Service) MoveIn(ctx context.Context, t engine.Tenancy) (engine.Tenancy, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Occupants == 0 {
		t.Occupants = 1
	}
	if err := t.Validate(); err != nil {
		return engine.Tenancy{}, err
	}
	property, err := s.Properties.Property(ctx, t.PropertyID)
	if err != nil {
		return engine.Tenancy{}, err
	}
	if err := s.checkCapacity(ctx, property, t.MoveIn); err != nil {
		return engine.Tenancy{}, err
	}

	if err := s.Tenancies.SaveTenancy(ctx, t); err != nil {
		return engine.Tenancy{}, err
	}
	if err := s.record(ctx, t, engine.EventMoveIn, t.MoveIn, "", t.MoveIn.String()); err != nil {
		return engine.Tenancy{}, err
	}
	s.Log.Info().
		Str("tenancy_id", t.ID.String()).
		Str("property_id", t.PropertyID.String()).
		Str("move_in", t.MoveIn.String()).
		Msg("tenancy created")
	return t, nil
}

// checkCapacity refuses a move-in that would exceed the property's
// maximum number of concurrent tenancies. A tenancy counts against
// capacity if it is open-ended or moves out on or after the new
// move-in date. Properties without a capacity admit freely.
func (s *Service) checkCapacity(ctx context.Context, property engine.Property, moveIn engine.Date) error {
	if property.Capacity == nil {
		return nil
	}
	tenancies, err := s.Tenancies.TenanciesByProperty(ctx, property.ID)
	if err != nil {
		return err
	}
	concurrent := 0
	for _, t := range tenancies {
		if t.MoveOut == nil || t.MoveOut.AfterOrEqual(moveIn) {
			concurrent++
		}
	}
	if concurrent >= *property.Capacity {
		return fmt.Errorf("property %s holds %d of %d tenancies: %w",
			property.ID, concurrent, *property.Capacity, engine.ErrCapacityExceeded)
	}
	return nil
}

// MoveOut terminates a tenancy by setting its move-out date (the last
// occupied day, inclusive). Setting it twice is an error.
func (s *Service) MoveOut(ctx context.Context, tenancyID uuid.UUID, moveOut engine.Date) (engine.Tenancy, error) {
	t, err := s.Tenancies.Tenancy(ctx, tenancyID)
	if err != nil {
		return engine.Tenancy{}, err
	}
	if t.MoveOut != nil {
		return engine.Tenancy{}, fmt.Errorf("tenancy %s moved out on %s: %w",
			tenancyID, t.MoveOut, engine.ErrAlreadyTerminated)
	}
	if moveOut.Before(t.MoveIn) {
		return engine.Tenancy{}, &engine.CorruptTenancyError{TenancyID: tenancyID, Reason: "move-out before move-in"}
	}

	t.MoveOut = &moveOut
	if err := s.Tenancies.SaveTenancy(ctx, t); err != nil {
		return engine.Tenancy{}, err
	}
	if err := s.record(ctx, t, engine.EventMoveOut, moveOut, "", moveOut.String()); err != nil {
		return engine.Tenancy{}, err
	}
	s.Log.Info().
		Str("tenancy_id", t.ID.String()).
		Str("move_out", moveOut.String()).
		Msg("tenancy terminated")
	return t, nil
}

// Amend applies non-lifecycle changes (rent, area, occupants, name) and
// records one amendment event per changed field.
func (s *Service) Amend(ctx context.Context, updated engine.Tenancy) (engine.Tenancy, error) {
	current, err := s.Tenancies.Tenancy(ctx, updated.ID)
	if err != nil {
		return engine.Tenancy{}, err
	}

	// Lifecycle fields do not move through Amend.
	updated.PropertyID = current.PropertyID
	updated.MoveIn = current.MoveIn
	updated.MoveOut = current.MoveOut
	if updated.Occupants == 0 {
		updated.Occupants = current.Occupants
	}
	if err := updated.Validate(); err != nil {
		return engine.Tenancy{}, err
	}

	changes := diffTenancy(current, updated)
	if len(changes) == 0 {
		return current, nil
	}

	if err := s.Tenancies.SaveTenancy(ctx, updated); err != nil {
		return engine.Tenancy{}, err
	}
	effective := engine.DateOf(s.now())
	for _, c := range changes {
		if err := s.record(ctx, updated, engine.EventAmendment, effective, c.before, c.after); err != nil {
			return engine.Tenancy{}, err
		}
	}
	s.Log.Info().
		Str("tenancy_id", updated.ID.String()).
		Int("changes", len(changes)).
		Msg("tenancy amended")
	return updated, nil
}

type fieldChange struct {
	before string
	after  string
}

func diffTenancy(before, after engine.Tenancy) []fieldChange {
	var changes []fieldChange
	add := func(field, b, a string) {
		changes = append(changes, fieldChange{before: field + "=" + b, after: field + "=" + a})
	}
	if before.Name != after.Name {
		add("name", before.Name, after.Name)
	}
	if !before.MonthlyRent.Equal(after.MonthlyRent) {
		add("monthly_rent", before.MonthlyRent.String(), after.MonthlyRent.String())
	}
	if !before.RoomArea.Equal(after.RoomArea) {
		add("room_area", before.RoomArea.String(), after.RoomArea.String())
	}
	if before.Occupants != after.Occupants {
		add("occupants", fmt.Sprint(before.Occupants), fmt.Sprint(after.Occupants))
	}
	return changes
}

func (s *Service) record(ctx context.Context, t engine.Tenancy, typ engine.EventType, effective engine.Date, previous, next string) error {
	return s.Events.AppendEvent(ctx, engine.OccupancyEvent{
		ID:            uuid.New(),
		TenancyID:     t.ID,
		PropertyID:    t.PropertyID,
		Type:          typ,
		EffectiveDate: effective,
		Previous:      previous,
		New:           next,
		RecordedAt:    s.now().UTC(),
	})
}

// =============================================================================
// HISTORY AND STATISTICS
// =============================================================================

// History returns a tenancy's occupancy events, chronologically.
func (s *Service) History(ctx context.Context, tenancyID uuid.UUID) ([]engine.OccupancyEvent, error) {
	if _, err := s.Tenancies.Tenancy(ctx, tenancyID); err != nil {
		return nil, err
	}
	return s.Events.EventsByTenancy(ctx, tenancyID)
}

// Statistics summarizes a property's occupancy over one month or a
// whole year.
type Statistics struct {
	PropertyID uuid.UUID
	Year       int
	Month      *int // nil = whole year

	// TotalOccupiedDays sums occupied tenancy-days across the roster.
	TotalOccupiedDays int

	// AverageOccupancyRate is occupied days over tenancy-month capacity,
	// in [0, 1], zero when the property had no tenancies.
	AverageOccupancyRate decimal.Decimal

	EventCounts map[engine.EventType]int
}

// StatisticsFor computes occupancy statistics, reusing the same
// OccupiedDays arithmetic the billing path uses.
func (s *Service) StatisticsFor(ctx context.Context, propertyID uuid.UUID, year int, month *int) (Statistics, error) {
	periods, err := statisticsPeriods(year, month)
	if err != nil {
		return Statistics{}, err
	}
	if _, err := s.Properties.Property(ctx, propertyID); err != nil {
		return Statistics{}, err
	}
	tenancies, err := s.Tenancies.TenanciesByProperty(ctx, propertyID)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		PropertyID:  propertyID,
		Year:        year,
		Month:       month,
		EventCounts: make(map[engine.EventType]int),
	}

	occupied := 0
	capacity := 0
	for _, p := range periods {
		for _, t := range tenancies {
			if err := t.Validate(); err != nil {
				return Statistics{}, err
			}
			days := engine.OccupiedDays(t.MoveIn, t.MoveOut, p)
			occupied += days
			if days > 0 {
				capacity += p.Days()
			}
		}
	}
	stats.TotalOccupiedDays = occupied
	if capacity > 0 {
		stats.AverageOccupancyRate = decimal.NewFromInt(int64(occupied)).
			Div(decimal.NewFromInt(int64(capacity))).Round(4)
	}

	events, err := s.Events.EventsByProperty(ctx, propertyID)
	if err != nil {
		return Statistics{}, err
	}
	for _, e := range events {
		if e.EffectiveDate.Year() != year {
			continue
		}
		if month != nil && int(e.EffectiveDate.Month()) != *month {
			continue
		}
		stats.EventCounts[e.Type]++
	}
	return stats, nil
}

func statisticsPeriods(year int, month *int) ([]engine.Period, error) {
	if month != nil {
		p := engine.Period{Month: *month, Year: year}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return []engine.Period{p}, nil
	}
	if err := (engine.Period{Month: 1, Year: year}).Validate(); err != nil {
		return nil, err
	}
	periods := make([]engine.Period, 0, 12)
	for m := 1; m <= 12; m++ {
		periods = append(periods, engine.Period{Month: m, Year: year})
	}
	return periods, nil
}

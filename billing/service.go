/*
Package billing orchestrates the proration and allocation engine against
the persistence layer: utility charge allocation, statement assembly and
the billing period lifecycle.

PURPOSE:
  The engine package computes; this package decides when to compute,
  with what roster, and what to do with the result. It owns the two
  pieces of shared mutable state the system has - the allocation set of
  each charge and the per-property billing period record - and guards
  them accordingly.

CONCURRENCY:
  Allocation recomputation is at-most-one per charge: a second caller
  colliding with a running recompute gets ErrConcurrentModification
  instead of queueing. Batch statement generation fans out per tenancy
  and serializes only the result collection and the billing period
  write.

SEE ALSO:
  - statement.go: Statement assembly and batch generation
  - engine/allocate.go: The pure split calculation
*/
package billing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

// Service wires the calculation engine to the stores. Fields are the
// narrow store interfaces so tests can substitute individual pieces.
type Service struct {
	Properties  engine.PropertyStore
	Tenancies   engine.TenancyStore
	Charges     engine.ChargeStore
	Allocations engine.AllocationStore
	Periods     engine.BillingPeriodStore

	Log zerolog.Logger

	// chargeLocks holds one entry per charge with a recompute in flight.
	chargeLocks sync.Map
}

// NewService builds a Service backed by a single store implementation.
func NewService(s engine.Store, log zerolog.Logger) *Service {
	return &Service{
		Properties:  s,
		Tenancies:   s,
		Charges:     s,
		Allocations: s,
		Periods:     s,
		Log:         log,
	}
}

// =============================================================================
// CHARGE LIFECYCLE
// =============================================================================

// CreateCharge validates and persists a charge, then allocates it
// against the current roster. An empty roster is not fatal: the charge
// is kept unallocated and ErrEmptyRoster is returned so the caller can
// flag it for operator attention.
func (s *Service) CreateCharge(ctx context.Context, charge engine.UtilityCharge) ([]engine.Allocation, error) {
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Properties.Property(ctx, charge.PropertyID); err != nil {
		return nil, err
	}
	if err := s.Charges.SaveCharge(ctx, charge); err != nil {
		return nil, err
	}
	return s.RecomputeAllocations(ctx, charge.ID)
}

// UpdateCharge persists a changed charge and recomputes its allocation
// set wholesale. Allocations are a materialized view of the charge, so
// there is no partial-update path.
func (s *Service) UpdateCharge(ctx context.Context, charge engine.UtilityCharge) ([]engine.Allocation, error) {
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Charges.Charge(ctx, charge.ID); err != nil {
		return nil, err
	}
	if err := s.Charges.SaveCharge(ctx, charge); err != nil {
		return nil, err
	}
	return s.RecomputeAllocations(ctx, charge.ID)
}

// RecomputeAllocations re-splits a charge against the property's roster
// for the charge's billing month and replaces the stored allocation set.
//
// Exclusivity: at most one recompute per charge runs at a time. The
// whole replace is delegated to the store transactionally, so readers
// never see a mixed old/new set even if this call fails midway.
//
// The roster is every tenancy that occupied the property for at least
// one day of the charge's billing month, sorted by ID so reruns are
// deterministic. Shares are not scaled by each tenant's occupancy
// fraction within that month; the split invariant (sum equals the
// charge total) holds over full shares. For per-area splits, tenancies
// without a recorded room area fall back to an equal cut of the
// property's unmeasured floor space (TotalArea minus measured rooms).
func (s *Service) RecomputeAllocations(ctx context.Context, chargeID uuid.UUID) ([]engine.Allocation, error) {
	if _, loaded := s.chargeLocks.LoadOrStore(chargeID, struct{}{}); loaded {
		return nil, fmt.Errorf("allocation recompute for charge %s: %w", chargeID, engine.ErrConcurrentModification)
	}
	defer s.chargeLocks.Delete(chargeID)

	charge, err := s.Charges.Charge(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	// Finalized statements must not change underneath their readers. A
	// charge for month P feeds the statements of P+1, so that is the
	// period whose finalization freezes this charge.
	if err := s.ensureNotFinalized(ctx, charge.PropertyID, charge.Period.Next()); err != nil {
		return nil, err
	}

	roster, err := s.rosterFor(ctx, charge.PropertyID, charge.Period)
	if err != nil {
		return nil, err
	}
	if charge.Method == engine.SplitPerArea {
		property, err := s.Properties.Property(ctx, charge.PropertyID)
		if err != nil {
			return nil, err
		}
		if roster, err = withAreaFallback(charge, property, roster); err != nil {
			return nil, err
		}
	}

	if len(roster) == 0 {
		if err := s.Allocations.ReplaceAllocations(ctx, chargeID, nil); err != nil {
			return nil, err
		}
		s.Log.Warn().
			Str("charge_id", chargeID.String()).
			Str("period", charge.Period.String()).
			Msg("charge has no active tenancies, left unallocated")
		return nil, fmt.Errorf("charge %s: %w", chargeID, engine.ErrEmptyRoster)
	}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		return nil, err
	}
	if err := s.Allocations.ReplaceAllocations(ctx, chargeID, allocations); err != nil {
		return nil, err
	}

	s.Log.Info().
		Str("charge_id", chargeID.String()).
		Str("category", string(charge.Category)).
		Str("period", charge.Period.String()).
		Int("tenancies", len(roster)).
		Msg("allocations recomputed")
	return allocations, nil
}

// DeleteCharge removes a charge and, through the store, its allocations.
func (s *Service) DeleteCharge(ctx context.Context, chargeID uuid.UUID) error {
	charge, err := s.Charges.Charge(ctx, chargeID)
	if err != nil {
		return err
	}
	if err := s.ensureNotFinalized(ctx, charge.PropertyID, charge.Period.Next()); err != nil {
		return err
	}
	return s.Charges.DeleteCharge(ctx, chargeID)
}

// rosterFor returns the tenancies participating in a charge period,
// sorted by ID. Corrupt records abort the run rather than being skipped.
func (s *Service) rosterFor(ctx context.Context, propertyID uuid.UUID, p engine.Period) ([]engine.Tenancy, error) {
	all, err := s.Tenancies.TenanciesByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	var roster []engine.Tenancy
	for _, t := range all {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.ActiveIn(p) {
			roster = append(roster, t)
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID.String() < roster[j].ID.String() })
	return roster, nil
}

// withAreaFallback fills in missing room areas for a per-area split from
// the property's total area: the floor space not claimed by measured
// rooms is divided equally among the tenancies without a recorded area.
// A property whose total area cannot cover the measured rooms has no
// usable denominator, which is an allocation error, not a guess.
func withAreaFallback(charge engine.UtilityCharge, property engine.Property, roster []engine.Tenancy) ([]engine.Tenancy, error) {
	var missing []int
	measured := decimal.Zero
	for i, t := range roster {
		if t.RoomArea.IsPositive() {
			measured = measured.Add(t.RoomArea)
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return roster, nil
	}

	remaining := property.TotalArea.Sub(measured)
	if !remaining.IsPositive() {
		return nil, &engine.AllocationError{
			ChargeID: charge.ID,
			Reason: fmt.Sprintf("property total area %s leaves no floor space for %d tenancies without a recorded room area",
				property.TotalArea, len(missing)),
		}
	}

	out := make([]engine.Tenancy, len(roster))
	copy(out, roster)
	fallback := remaining.Div(decimal.NewFromInt(int64(len(missing))))
	for _, i := range missing {
		out[i].RoomArea = fallback
	}
	return out, nil
}

func (s *Service) ensureNotFinalized(ctx context.Context, propertyID uuid.UUID, p engine.Period) error {
	bp, err := s.Periods.BillingPeriod(ctx, propertyID, p)
	if err != nil {
		if engine.IsNotFound(err) {
			return nil // no generation yet, nothing to protect
		}
		return err
	}
	if bp.Status == engine.BillingFinalized {
		return fmt.Errorf("period %s for property %s: %w", p, propertyID, engine.ErrPeriodFinalized)
	}
	return nil
}

/*
statement.go - Statement assembly and batch generation

PURPOSE:
  Builds per-tenancy monthly statements: the current month's prorated
  rent plus the tenancy's utility allocations from the PREVIOUS calendar
  month. The one-month utility lag is a business rule ("this month's
  rent, last month's metered usage"), not an implementation accident;
  January reaches back to December of the prior year.

BATCH SEMANTICS:
  Generation over a property's roster is partial-failure tolerant. One
  tenancy failing to build never aborts the batch; the result carries
  the succeeded statements and the per-tenancy failures side by side.

BILLING PERIOD:
  The first generation run for a (property, month, year) creates the
  billing period record as draft. Once the period is finalized, both
  generation and recalculation are refused.
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

// RentLine is the rent portion of a statement.
type RentLine struct {
	MonthlyRent decimal.Decimal
	engine.Proration
}

// UtilityLine is one allocated utility share on a statement. Period is
// the charge's billing month, always the month before the statement's.
type UtilityLine struct {
	ChargeID uuid.UUID
	Category engine.Category
	Period   engine.Period
	Amount   decimal.Decimal
}

// Statement is the assembled monthly bill for one tenancy. Amounts are
// plain decimals; currency formatting and localization belong to the
// rendering layer.
type Statement struct {
	TenancyID   uuid.UUID
	TenancyName string
	PropertyID  uuid.UUID
	Period      engine.Period
	Rent        RentLine
	Utilities   []UtilityLine
	TotalDue    decimal.Decimal
}

// BatchResult carries the outcome of a generation run: the succeeded
// statements, the per-tenancy failures, and the billing period record
// the run wrote.
type BatchResult struct {
	Statements []Statement
	Failed     []engine.ItemError
	Period     engine.BillingPeriod
}

// =============================================================================
// SINGLE STATEMENT
// =============================================================================

// BuildStatement assembles the statement for one tenancy and month.
// A tenancy with zero occupied days in the month produces no statement
// at all - the return is (nil, nil), not a zero-amount statement.
func (s *Service) BuildStatement(ctx context.Context, tenancyID uuid.UUID, p engine.Period) (*Statement, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tenancy, err := s.Tenancies.Tenancy(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	if err := tenancy.Validate(); err != nil {
		return nil, err
	}

	occupied := engine.OccupiedDays(tenancy.MoveIn, tenancy.MoveOut, p)
	if occupied == 0 {
		return nil, nil
	}

	rent := RentLine{
		MonthlyRent: tenancy.MonthlyRent,
		Proration:   engine.Prorate(tenancy.MonthlyRent, occupied, p.Days()),
	}

	utilities, err := s.utilityLines(ctx, tenancy, p.Previous())
	if err != nil {
		return nil, err
	}

	total := rent.BillableAmount
	for _, u := range utilities {
		total = total.Add(u.Amount)
	}

	return &Statement{
		TenancyID:   tenancy.ID,
		TenancyName: tenancy.Name,
		PropertyID:  tenancy.PropertyID,
		Period:      p,
		Rent:        rent,
		Utilities:   utilities,
		TotalDue:    engine.RoundCents(total),
	}, nil
}

// utilityLines collects the tenancy's allocations from charges of the
// given (previous) month. Charges of any other month never appear on
// the statement.
func (s *Service) utilityLines(ctx context.Context, tenancy engine.Tenancy, chargePeriod engine.Period) ([]UtilityLine, error) {
	charges, err := s.Charges.ChargesForPeriod(ctx, tenancy.PropertyID, chargePeriod)
	if err != nil {
		return nil, err
	}

	var lines []UtilityLine
	for _, charge := range charges {
		allocations, err := s.Allocations.AllocationsByCharge(ctx, charge.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range allocations {
			if a.TenancyID == tenancy.ID {
				lines = append(lines, UtilityLine{
					ChargeID: charge.ID,
					Category: charge.Category,
					Period:   charge.Period,
					Amount:   a.Amount,
				})
			}
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ChargeID.String() < lines[j].ChargeID.String() })
	return lines, nil
}

// =============================================================================
// BATCH GENERATION
// =============================================================================

// GenerateStatements builds statements for every tenancy occupying the
// property during the period. Per-tenancy builds run concurrently; a
// failed build is collected, not fatal. The run upserts the property's
// billing period as draft and refuses to run against a finalized one.
//
// Cancellation stops issuing new per-tenancy work; builds already
// started run to completion.
func (s *Service) GenerateStatements(ctx context.Context, propertyID uuid.UUID, p engine.Period) (BatchResult, error) {
	if err := p.Validate(); err != nil {
		return BatchResult{}, err
	}
	if _, err := s.Properties.Property(ctx, propertyID); err != nil {
		return BatchResult{}, err
	}
	if err := s.ensureNotFinalized(ctx, propertyID, p); err != nil {
		return BatchResult{}, err
	}

	tenancies, err := s.Tenancies.TenanciesByProperty(ctx, propertyID)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		statements []Statement
		failed     []engine.ItemError
	)

	for _, tenancy := range tenancies {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(t engine.Tenancy) {
			defer wg.Done()
			stmt, err := s.BuildStatement(ctx, t.ID, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed = append(failed, engine.ItemError{TenancyID: t.ID, Err: err})
			case stmt != nil:
				statements = append(statements, *stmt)
			}
			// stmt == nil, err == nil: not occupying this month, no line.
		}(tenancy)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(statements, func(i, j int) bool {
		return statements[i].TenancyID.String() < statements[j].TenancyID.String()
	})
	sort.Slice(failed, func(i, j int) bool {
		return failed[i].TenancyID.String() < failed[j].TenancyID.String()
	})

	bp := engine.BillingPeriod{
		PropertyID:  propertyID,
		Period:      p,
		Status:      engine.BillingDraft,
		Notes:       fmt.Sprintf("generated %d statements, %d failures", len(statements), len(failed)),
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.Periods.UpsertBillingPeriod(ctx, bp); err != nil {
		return BatchResult{}, err
	}
	stored, err := s.Periods.BillingPeriod(ctx, propertyID, p)
	if err != nil {
		return BatchResult{}, err
	}

	s.Log.Info().
		Str("property_id", propertyID.String()).
		Str("period", p.String()).
		Int("statements", len(statements)).
		Int("failed", len(failed)).
		Msg("statement batch generated")

	return BatchResult{Statements: statements, Failed: failed, Period: stored}, nil
}

// =============================================================================
// BILLING PERIOD LIFECYCLE
// =============================================================================

// Finalize performs the one-way draft -> finalized transition for a
// property's billing month. There is no reopen.
func (s *Service) Finalize(ctx context.Context, propertyID uuid.UUID, p engine.Period) (engine.BillingPeriod, error) {
	if err := p.Validate(); err != nil {
		return engine.BillingPeriod{}, err
	}
	if err := s.Periods.FinalizeBillingPeriod(ctx, propertyID, p); err != nil {
		return engine.BillingPeriod{}, err
	}
	bp, err := s.Periods.BillingPeriod(ctx, propertyID, p)
	if err != nil {
		return engine.BillingPeriod{}, err
	}
	s.Log.Info().
		Str("property_id", propertyID.String()).
		Str("period", p.String()).
		Msg("billing period finalized")
	return bp, nil
}

// Recalculate re-runs a draft period end to end: allocations for the
// previous month's charges (the ones this period bills), then the
// statement batch. Refused for finalized periods.
func (s *Service) Recalculate(ctx context.Context, propertyID uuid.UUID, p engine.Period) (BatchResult, error) {
	if err := p.Validate(); err != nil {
		return BatchResult{}, err
	}
	if err := s.ensureNotFinalized(ctx, propertyID, p); err != nil {
		return BatchResult{}, err
	}

	charges, err := s.Charges.ChargesForPeriod(ctx, propertyID, p.Previous())
	if err != nil {
		return BatchResult{}, err
	}
	for _, charge := range charges {
		if _, err := s.RecomputeAllocations(ctx, charge.ID); err != nil {
			// An unallocated charge is a warning on the statement run,
			// not a reason to stop recalculating the rest.
			if !IsUnallocated(err) {
				return BatchResult{}, err
			}
		}
	}

	return s.GenerateStatements(ctx, propertyID, p)
}

// IsUnallocated reports whether an allocation run ended with an empty
// roster (charge kept, no shares).
func IsUnallocated(err error) bool {
	return errors.Is(err, engine.ErrEmptyRoster)
}

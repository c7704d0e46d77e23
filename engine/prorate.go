/*
prorate.go - Rent proration

PURPOSE:
  Converts a monthly rent plus an occupancy day count into the billable
  figure for the month. The full-month case returns the rent verbatim so
  the common path never accumulates rounding drift; partial months keep
  the daily rate at full decimal precision and round once, at the end.

ROUNDING POLICY:
  Half-up to 2 decimal places, applied only when producing a billable
  amount. Intermediate per-day rates are never rounded.
*/
package engine

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Proration is the rent line for one tenancy and one month.
type Proration struct {
	OccupiedDays     int
	DaysInMonth      int
	IsFullMonth      bool
	DailyRate        decimal.Decimal // full precision, informational
	BillableAmount   decimal.Decimal // rounded to cents
	OccupancyPercent int             // 0-100, rounded
}

// Prorate computes the billable rent for occupiedDays out of a
// daysInMonth-day month. occupiedDays must already come from
// OccupiedDays, so it is trusted to be within [0, daysInMonth].
func Prorate(monthlyRent decimal.Decimal, occupiedDays, daysInMonth int) Proration {
	p := Proration{
		OccupiedDays: occupiedDays,
		DaysInMonth:  daysInMonth,
	}

	if occupiedDays <= 0 {
		p.DailyRate = decimal.Zero
		p.BillableAmount = decimal.Zero
		return p
	}

	dim := decimal.NewFromInt(int64(daysInMonth))
	days := decimal.NewFromInt(int64(occupiedDays))
	p.DailyRate = monthlyRent.Div(dim)

	if occupiedDays == daysInMonth {
		// Full month bills the monthly rent exactly; no divide-then-
		// multiply round trip for the common case.
		p.IsFullMonth = true
		p.BillableAmount = monthlyRent
		p.OccupancyPercent = 100
		return p
	}

	p.BillableAmount = RoundCents(p.DailyRate.Mul(days))
	p.OccupancyPercent = int(days.Mul(hundred).Div(dim).Round(0).IntPart())
	return p
}

// RoundCents rounds half-up to two decimal places. This is the only
// rounding applied to currency amounts anywhere in the engine.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

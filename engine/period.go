package engine

import "time"

// =============================================================================
// PERIOD - One calendar billing month
// =============================================================================

// Period identifies a billing month. Unlike a Date it carries no day
// component; statements, charges and billing records are all keyed by it.
type Period struct {
	Month int // 1-12
	Year  int
}

// Validate rejects out-of-range months and non-4-digit years. Callers are
// expected to validate HTTP input before reaching the engine, but the
// engine does not trust them.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &InvalidPeriodError{Month: p.Month, Year: p.Year, Reason: "month out of range"}
	}
	if p.Year < 1000 || p.Year > 9999 {
		return &InvalidPeriodError{Month: p.Month, Year: p.Year, Reason: "year out of range"}
	}
	return nil
}

// Previous returns the preceding calendar month, rolling the year
// backward across January. This is the "billing lag" lookup: a statement
// for period P bills the utility charges of P.Previous().
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Start returns the first day of the month.
func (p Period) Start() Date {
	return NewDate(p.Year, time.Month(p.Month), 1)
}

// End returns the last day of the month.
func (p Period) End() Date {
	return NewDate(p.Year, time.Month(p.Month), DaysInMonth(p.Year, time.Month(p.Month)))
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return DaysInMonth(p.Year, time.Month(p.Month))
}

func (p Period) Equal(other Period) bool {
	return p.Month == other.Month && p.Year == other.Year
}

func (p Period) String() string {
	return p.Start().t.Format("2006-01")
}

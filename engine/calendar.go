/*
calendar.go - Occupancy day arithmetic

PURPOSE:
  The single source of truth for "how many days of month M did this
  tenancy occupy the unit". Rent proration, statement assembly and the
  occupancy statistics all call OccupiedDays; no other day-counting
  implementation exists in this module, and none may be added. Divergent
  copies of this arithmetic are the dominant correctness risk in systems
  like this one.

CONTRACT:
  The occupancy interval is [MoveIn, MoveOut] with MoveOut INCLUSIVE
  (the last occupied day), or [MoveIn, +inf) while the tenancy is open.
  The result is clamped to [0, DaysInMonth] and is never negative; a
  tenancy that does not intersect the month yields 0 rather than an
  error.
*/
package engine

import "time"

// DaysInMonth returns the number of calendar days in a month,
// accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OccupiedDays returns the inclusive-day overlap between the occupancy
// interval [moveIn, moveOut] (moveOut nil = open-ended) and the calendar
// month identified by p.
func OccupiedDays(moveIn Date, moveOut *Date, p Period) int {
	monthStart := p.Start()
	monthEnd := p.End()

	start := moveIn
	if start.Before(monthStart) {
		start = monthStart
	}

	end := monthEnd
	if moveOut != nil && moveOut.Before(monthEnd) {
		end = *moveOut
	}

	if end.Before(start) {
		return 0
	}
	return daysInclusive(start, end)
}

// daysInclusive counts calendar days in [from, to], both endpoints
// included. Both dates are midnight UTC so the division is exact.
func daysInclusive(from, to Date) int {
	return int(to.t.Sub(from.t).Hours()/24) + 1
}

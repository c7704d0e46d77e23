package engine_test

import (
	"testing"
	"time"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

func date(year int, month time.Month, day int) engine.Date {
	return engine.NewDate(year, month, day)
}

func dptr(d engine.Date) *engine.Date { return &d }

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29}, // leap year
		{2000, time.February, 29}, // divisible by 400
		{1900, time.February, 28}, // divisible by 100 but not 400
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, c := range cases {
		if got := engine.DaysInMonth(c.year, c.month); got != c.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestOccupiedDays_MidMonthMoveIn(t *testing.T) {
	// GIVEN: Move-in on 2025-01-15, no move-out
	// WHEN: Counting days for January 2025 (31 days)
	// THEN: 15th through 31st inclusive = 17 days

	got := engine.OccupiedDays(date(2025, time.January, 15), nil, engine.Period{Month: 1, Year: 2025})
	if got != 17 {
		t.Errorf("expected 17 occupied days, got %d", got)
	}
}

func TestOccupiedDays_OpenEndedBeforeMonthStart_IsFullMonth(t *testing.T) {
	// GIVEN: Move-in before the month, no move-out
	// WHEN: Counting days for any later month
	// THEN: The whole month is occupied

	p := engine.Period{Month: 4, Year: 2025}
	got := engine.OccupiedDays(date(2023, time.June, 1), nil, p)
	if got != p.Days() {
		t.Errorf("expected full month (%d days), got %d", p.Days(), got)
	}
}

func TestOccupiedDays_MovedOutBeforeMonth_IsZero(t *testing.T) {
	// GIVEN: Move-out on 2024-12-20
	// WHEN: Counting days for January 2025
	// THEN: Zero days, no error

	got := engine.OccupiedDays(
		date(2024, time.March, 1),
		dptr(date(2024, time.December, 20)),
		engine.Period{Month: 1, Year: 2025},
	)
	if got != 0 {
		t.Errorf("expected 0 occupied days, got %d", got)
	}
}

func TestOccupiedDays_MoveInAfterMonth_IsZero(t *testing.T) {
	got := engine.OccupiedDays(date(2025, time.March, 1), nil, engine.Period{Month: 1, Year: 2025})
	if got != 0 {
		t.Errorf("expected 0 occupied days, got %d", got)
	}
}

func TestOccupiedDays_MoveOutIsInclusive(t *testing.T) {
	// GIVEN: Move-out on January 10
	// WHEN: Counting days for January
	// THEN: The 10th counts as an occupied day

	got := engine.OccupiedDays(
		date(2024, time.June, 1),
		dptr(date(2025, time.January, 10)),
		engine.Period{Month: 1, Year: 2025},
	)
	if got != 10 {
		t.Errorf("expected 10 occupied days, got %d", got)
	}
}

func TestOccupiedDays_SingleDayStay(t *testing.T) {
	d := date(2025, time.July, 4)
	got := engine.OccupiedDays(d, dptr(d), engine.Period{Month: 7, Year: 2025})
	if got != 1 {
		t.Errorf("expected 1 occupied day, got %d", got)
	}
}

func TestOccupiedDays_LeapFebruary(t *testing.T) {
	got := engine.OccupiedDays(date(2024, time.January, 1), nil, engine.Period{Month: 2, Year: 2024})
	if got != 29 {
		t.Errorf("expected 29 occupied days in leap February, got %d", got)
	}
}

func TestOccupiedDays_AlwaysWithinBounds(t *testing.T) {
	// Property: 0 <= occupiedDays <= daysInMonth for a grid of intervals.
	moveIns := []engine.Date{
		date(2024, time.December, 1),
		date(2025, time.January, 1),
		date(2025, time.January, 15),
		date(2025, time.January, 31),
		date(2025, time.February, 1),
	}
	moveOuts := []*engine.Date{
		nil,
		dptr(date(2024, time.December, 31)),
		dptr(date(2025, time.January, 1)),
		dptr(date(2025, time.January, 20)),
		dptr(date(2025, time.March, 10)),
	}
	for _, p := range []engine.Period{{Month: 1, Year: 2025}, {Month: 2, Year: 2025}, {Month: 2, Year: 2024}} {
		for _, in := range moveIns {
			for _, out := range moveOuts {
				if out != nil && out.Before(in) {
					continue
				}
				got := engine.OccupiedDays(in, out, p)
				if got < 0 || got > p.Days() {
					t.Errorf("OccupiedDays(%s, %v, %s) = %d out of [0, %d]", in, out, p, got, p.Days())
				}
			}
		}
	}
}

func TestPeriod_PreviousRollsAcrossJanuary(t *testing.T) {
	prev := engine.Period{Month: 1, Year: 2025}.Previous()
	if prev.Month != 12 || prev.Year != 2024 {
		t.Errorf("expected 2024-12, got %v", prev)
	}

	prev = engine.Period{Month: 3, Year: 2025}.Previous()
	if prev.Month != 2 || prev.Year != 2025 {
		t.Errorf("expected 2025-02, got %v", prev)
	}
}

func TestPeriod_Validate(t *testing.T) {
	for _, p := range []engine.Period{{Month: 0, Year: 2025}, {Month: 13, Year: 2025}, {Month: 6, Year: 99}} {
		if err := p.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", p)
		}
	}
	if err := (engine.Period{Month: 12, Year: 2025}).Validate(); err != nil {
		t.Errorf("unexpected error for valid period: %v", err)
	}
}

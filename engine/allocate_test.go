package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

func testTenancy(area string, occupants int) engine.Tenancy {
	return engine.Tenancy{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		Name:        "tenant",
		MonthlyRent: dec("500"),
		RoomArea:    dec(area),
		Occupants:   occupants,
		MoveIn:      date(2024, time.January, 1),
	}
}

func testCharge(total string, method engine.AllocationMethod) engine.UtilityCharge {
	return engine.UtilityCharge{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		Period:      engine.Period{Month: 2, Year: 2025},
		Category:    engine.CategoryElectricity,
		TotalAmount: dec(total),
		Method:      method,
	}
}

func sumAllocations(allocations []engine.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}

func TestAllocate_PerArea(t *testing.T) {
	// GIVEN: A 150.00 charge split per area between rooms of 20 and 30 m²
	// WHEN: Allocating
	// THEN: Shares are 60.00 and 90.00

	charge := testCharge("150.00", engine.SplitPerArea)
	roster := []engine.Tenancy{testTenancy("20", 1), testTenancy("30", 1)}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if !allocations[0].Amount.Equal(dec("60.00")) {
		t.Errorf("expected 60.00 for 20m² room, got %s", allocations[0].Amount)
	}
	if !allocations[1].Amount.Equal(dec("90.00")) {
		t.Errorf("expected 90.00 for 30m² room, got %s", allocations[1].Amount)
	}
}

func TestAllocate_PerOccupant_EqualSplitWithRemainder(t *testing.T) {
	// GIVEN: 100.00 split equally three ways
	// WHEN: Allocating
	// THEN: The spare cent lands on one share via cumulative rounding
	//       and the set sums exactly to the total

	charge := testCharge("100.00", engine.SplitPerOccupant)
	roster := []engine.Tenancy{testTenancy("10", 1), testTenancy("10", 2), testTenancy("10", 3)}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allocations[0].Amount.Equal(dec("33.33")) {
		t.Errorf("expected 33.33 first share, got %s", allocations[0].Amount)
	}
	if !allocations[1].Amount.Equal(dec("33.34")) {
		t.Errorf("expected the spare cent on the second share, got %s", allocations[1].Amount)
	}
	if !allocations[2].Amount.Equal(dec("33.33")) {
		t.Errorf("expected 33.33 last share, got %s", allocations[2].Amount)
	}
	if !sumAllocations(allocations).Equal(charge.TotalAmount) {
		t.Errorf("sum %s != total %s", sumAllocations(allocations), charge.TotalAmount)
	}
}

func TestAllocate_PerOccupantWeighted(t *testing.T) {
	// GIVEN: 90.00 weighted by occupants 1 and 2
	// THEN: 30.00 and 60.00

	charge := testCharge("90.00", engine.SplitPerOccupantWeighted)
	roster := []engine.Tenancy{testTenancy("10", 1), testTenancy("10", 2)}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allocations[0].Amount.Equal(dec("30.00")) || !allocations[1].Amount.Equal(dec("60.00")) {
		t.Errorf("expected 30.00/60.00, got %s/%s", allocations[0].Amount, allocations[1].Amount)
	}
}

func TestAllocate_EmptyRoster_NoAllocations(t *testing.T) {
	allocations, err := engine.Allocate(testCharge("150.00", engine.SplitPerArea), nil)
	if err != nil {
		t.Fatalf("empty roster must not error, got %v", err)
	}
	if allocations != nil {
		t.Errorf("expected no allocations, got %d", len(allocations))
	}
}

func TestAllocate_ZeroAreaTenancy_IsAllocationError(t *testing.T) {
	// GIVEN: Per-area split where one tenancy has no recorded area
	// THEN: AllocationError, never NaN or Infinity downstream

	charge := testCharge("150.00", engine.SplitPerArea)
	roster := []engine.Tenancy{testTenancy("0", 1)}

	_, err := engine.Allocate(charge, roster)
	if !errors.Is(err, engine.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
}

func TestAllocate_UnknownMethod_IsAllocationError(t *testing.T) {
	charge := testCharge("150.00", engine.AllocationMethod("per_vibes"))
	_, err := engine.Allocate(charge, []engine.Tenancy{testTenancy("10", 1)})
	if !errors.Is(err, engine.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
}

func TestAllocate_NegativeTotal_Rejected(t *testing.T) {
	charge := testCharge("150.00", engine.SplitPerOccupant)
	charge.TotalAmount = dec("-1")
	_, err := engine.Allocate(charge, []engine.Tenancy{testTenancy("10", 1)})
	if !errors.Is(err, engine.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
}

func TestAllocate_TinyTotalOverLargeRoster_SharesNeverNegative(t *testing.T) {
	// GIVEN: 0.05 split equally across ten tenancies
	// WHEN: Allocating
	// THEN: Five cents land on five tenancies, the rest get zero, and no
	//       share is negative; accumulated round-ups must never push the
	//       final share below zero

	charge := testCharge("0.05", engine.SplitPerOccupant)
	var roster []engine.Tenancy
	for i := 0; i < 10; i++ {
		roster = append(roster, testTenancy("10", 1))
	}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, a := range allocations {
		if a.Amount.IsNegative() {
			t.Errorf("share %d is negative: %s", i, a.Amount)
		}
		if a.Amount.GreaterThan(dec("0.01")) {
			t.Errorf("share %d exceeds one cent: %s", i, a.Amount)
		}
	}
	if !sumAllocations(allocations).Equal(charge.TotalAmount) {
		t.Errorf("sum %s != total %s", sumAllocations(allocations), charge.TotalAmount)
	}
}

func TestAllocate_ShareWithinOneCentOfExact(t *testing.T) {
	// Property: with cumulative rounding every share stays within one
	// cent of its exact proportional value.
	charge := testCharge("99.97", engine.SplitPerArea)
	roster := []engine.Tenancy{
		testTenancy("7.1", 1), testTenancy("13.9", 1), testTenancy("22.3", 1), testTenancy("5.5", 1),
	}

	allocations, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totalWeight := dec("48.8")
	for i, roomArea := range []string{"7.1", "13.9", "22.3", "5.5"} {
		exact := charge.TotalAmount.Mul(dec(roomArea)).Div(totalWeight)
		drift := allocations[i].Amount.Sub(exact).Abs()
		if drift.GreaterThan(dec("0.01")) {
			t.Errorf("share %d drifts %s from exact %s", i, drift, exact)
		}
	}
	if !sumAllocations(allocations).Equal(charge.TotalAmount) {
		t.Errorf("sum %s != total", sumAllocations(allocations))
	}
}

func TestAllocate_SumEqualsTotal(t *testing.T) {
	// Property: allocations sum to the charge total for awkward
	// total/roster combinations.
	totals := []string{"0.01", "0.10", "100.00", "123.45", "999.97"}
	rosters := [][]engine.Tenancy{
		{testTenancy("17.5", 1)},
		{testTenancy("17.5", 1), testTenancy("9.3", 2), testTenancy("21.07", 1)},
		{testTenancy("1", 1), testTenancy("1", 1), testTenancy("1", 1), testTenancy("1", 1), testTenancy("1", 1), testTenancy("1", 1), testTenancy("1", 1)},
	}
	for _, method := range []engine.AllocationMethod{engine.SplitPerOccupant, engine.SplitPerOccupantWeighted, engine.SplitPerArea} {
		for _, total := range totals {
			for _, roster := range rosters {
				charge := testCharge(total, method)
				allocations, err := engine.Allocate(charge, roster)
				if err != nil {
					t.Fatalf("%s/%s: unexpected error: %v", method, total, err)
				}
				if !sumAllocations(allocations).Equal(charge.TotalAmount) {
					t.Errorf("%s/%s: sum %s != total", method, total, sumAllocations(allocations))
				}
			}
		}
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	// Idempotence: identical inputs yield identical output sets.
	charge := testCharge("123.45", engine.SplitPerArea)
	roster := []engine.Tenancy{testTenancy("17.5", 1), testTenancy("9.3", 2), testTenancy("21.07", 1)}

	first, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Allocate(charge, roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TenancyID != second[i].TenancyID || !first[i].Amount.Equal(second[i].Amount) {
			t.Errorf("allocation %d differs between runs", i)
		}
	}
}

/*
allocate.go - Utility cost splitting

PURPOSE:
  Splits one utility charge's total across a roster of tenancies by the
  charge's allocation method. The output is a full replacement set: the
  caller deletes any prior allocations for the charge and inserts these,
  never merges.

EXACTNESS:
  Shares come from cumulative rounding: each tenancy receives the rounded
  running total minus what was already assigned. The set always sums to
  the charge total exactly, every share stays within one cent of its
  exact proportional value, and no share can go negative - naive
  per-share rounding would let the accumulated round-ups of a small total
  over a large roster push the final remainder share below zero.

EDGE CASES:
  Empty roster       -> (nil, nil): charge stays unallocated, flagged by
                        the service layer rather than silently dropped.
  Zero denominator   -> AllocationError, never NaN/Infinity downstream.
*/
package engine

import "github.com/shopspring/decimal"

// Allocate splits charge.TotalAmount across the roster. The roster must
// already be filtered to tenancies participating in the charge's period;
// order determines which tenancy absorbs the rounding remainder, so
// callers sort it (the billing service sorts by tenancy ID) to keep
// reruns deterministic.
func Allocate(charge UtilityCharge, roster []Tenancy) ([]Allocation, error) {
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, nil
	}

	weights, err := weightsFor(charge, roster)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	if !total.IsPositive() {
		return nil, &AllocationError{ChargeID: charge.ID, Reason: "allocation denominator is zero"}
	}

	allocations := make([]Allocation, len(roster))
	assigned := decimal.Zero
	cumulative := decimal.Zero
	for i, t := range roster {
		var share decimal.Decimal
		if i == len(roster)-1 {
			// Final share is the exact remainder, keeping the sum exact.
			share = charge.TotalAmount.Sub(assigned)
		} else {
			// Rounded running total minus what is already out the door;
			// the running total is monotone, so shares never go negative.
			cumulative = cumulative.Add(weights[i])
			share = RoundCents(charge.TotalAmount.Mul(cumulative).Div(total)).Sub(assigned)
		}
		assigned = assigned.Add(share)
		allocations[i] = Allocation{
			ChargeID:  charge.ID,
			TenancyID: t.ID,
			Amount:    share,
		}
	}
	return allocations, nil
}

func weightsFor(charge UtilityCharge, roster []Tenancy) ([]decimal.Decimal, error) {
	weights := make([]decimal.Decimal, len(roster))
	switch charge.Method {
	case SplitPerOccupant:
		// Flat split per tenancy, regardless of occupant count.
		for i := range roster {
			weights[i] = decimal.NewFromInt(1)
		}

	case SplitPerOccupantWeighted:
		for i, t := range roster {
			if t.Occupants < 1 {
				return nil, &AllocationError{ChargeID: charge.ID, Reason: "tenancy " + t.ID.String() + " has no occupants"}
			}
			weights[i] = decimal.NewFromInt(int64(t.Occupants))
		}

	case SplitPerArea:
		for i, t := range roster {
			if !t.RoomArea.IsPositive() {
				return nil, &AllocationError{ChargeID: charge.ID, Reason: "tenancy " + t.ID.String() + " has no room area"}
			}
			weights[i] = t.RoomArea
		}

	default:
		return nil, &AllocationError{ChargeID: charge.ID, Reason: "unknown allocation method: " + string(charge.Method)}
	}
	return weights, nil
}

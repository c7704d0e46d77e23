/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All engine error types in one place. Service and API layers match on
  the sentinels with errors.Is() and unwrap the structured types with
  errors.As() for detail.

ERROR CATEGORIES:
  1. Input errors     - bad periods, bad allocation inputs
  2. Lookup errors    - referenced records absent
  3. Lifecycle errors - finalized periods, concurrent recomputes
  4. Corruption       - persisted data violating basic invariants;
                        raised, never silently repaired
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned for a month outside 1-12 or a year
	// outside four digits.
	ErrInvalidPeriod = errors.New("invalid billing period")

	// ErrAllocation is returned when a charge cannot be split: zero
	// denominator, invalid method, or malformed charge.
	ErrAllocation = errors.New("allocation failed")

	// ErrEmptyRoster is returned when a charge requires a roster and the
	// property has no active tenancies for the charge period. The charge
	// stays unallocated and is flagged for operator attention.
	ErrEmptyRoster = errors.New("no active tenancies for charge period")

	// ErrNotFound is returned when a referenced property, tenancy or
	// charge does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when an allocation recompute
	// collides with one already running for the same charge.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrPeriodFinalized is returned when statement generation or
	// allocation recomputation touches a finalized billing period.
	ErrPeriodFinalized = errors.New("billing period is finalized")

	// ErrAlreadyTerminated is returned when setting a move-out date on
	// a tenancy that already has one. A new lease means a new Tenancy.
	ErrAlreadyTerminated = errors.New("tenancy already terminated")

	// ErrCorruptTenancy is returned when persisted tenancy data fails
	// basic invariant checks (e.g. move-out before move-in).
	ErrCorruptTenancy = errors.New("corrupt tenancy record")

	// ErrCapacityExceeded is returned when a move-in would exceed the
	// property's maximum number of concurrent tenancies.
	ErrCapacityExceeded = errors.New("property capacity exceeded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPeriodError reports an out-of-range month/year.
type InvalidPeriodError struct {
	Month  int
	Year   int
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %d-%02d: %s", e.Year, e.Month, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrInvalidPeriod }

// AllocationError reports why a charge could not be split.
type AllocationError struct {
	ChargeID uuid.UUID
	Reason   string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate charge %s: %s", e.ChargeID, e.Reason)
}

func (e *AllocationError) Unwrap() error { return ErrAllocation }

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "property", "tenancy", "charge", "billing_period"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CorruptTenancyError flags persisted data violating tenancy invariants.
type CorruptTenancyError struct {
	TenancyID uuid.UUID
	Reason    string
}

func (e *CorruptTenancyError) Error() string {
	return fmt.Sprintf("corrupt tenancy %s: %s", e.TenancyID, e.Reason)
}

func (e *CorruptTenancyError) Unwrap() error { return ErrCorruptTenancy }

// =============================================================================
// BATCH ERRORS - Partial failure reporting
// =============================================================================

// ItemError is one failed item of a batch run.
type ItemError struct {
	TenancyID uuid.UUID
	Err       error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("tenancy %s: %v", e.TenancyID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// BatchError aggregates per-item failures from a batch statement run.
// A batch never aborts on a single item: callers receive the succeeded
// subset alongside this error and decide how to present the failures.
type BatchError struct {
	Items []ItemError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of batch items failed", len(e.Items))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid input
// rather than an internal fault. The API maps these to 4xx. Tenancy
// invariant violations are included: on write paths they describe the
// caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrAllocation) ||
		errors.Is(err, ErrEmptyRoster) ||
		errors.Is(err, ErrCorruptTenancy)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether the error indicates a state conflict:
// concurrent recompute, a finalized period, a terminated tenancy or a
// full property.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrPeriodFinalized) ||
		errors.Is(err, ErrAlreadyTerminated) ||
		errors.Is(err, ErrCapacityExceeded)
}

/*
store.go - Persistence interfaces for the billing engine

PURPOSE:
  Defines the boundary between the pure calculations and the database.
  The billing and occupancy services depend only on these interfaces;
  store/sqlite implements them all on one handle, engine/store provides
  an in-memory implementation for tests.

TRANSACTIONAL REQUIREMENTS:
  ReplaceAllocations is atomic: a failed replace must not leave a mixed
  old/new allocation set visible to readers. AppendEvent is all-or-
  nothing. The events table is append-only - no update or delete
  operation exists on it, in the interface or in any implementation.
*/
package engine

import (
	"context"

	"github.com/google/uuid"
)

// PropertyStore persists properties. Deleting a property cascades to its
// tenancies, charges and allocations.
type PropertyStore interface {
	SaveProperty(ctx context.Context, p Property) error
	Property(ctx context.Context, id uuid.UUID) (Property, error)
	Properties(ctx context.Context) ([]Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
}

// TenancyStore persists tenancies.
type TenancyStore interface {
	SaveTenancy(ctx context.Context, t Tenancy) error
	Tenancy(ctx context.Context, id uuid.UUID) (Tenancy, error)

	// TenanciesByProperty returns all tenancies of a property, including
	// terminated ones, ordered by ID for deterministic iteration.
	TenanciesByProperty(ctx context.Context, propertyID uuid.UUID) ([]Tenancy, error)
}

// ChargeStore persists utility charges.
type ChargeStore interface {
	SaveCharge(ctx context.Context, c UtilityCharge) error
	Charge(ctx context.Context, id uuid.UUID) (UtilityCharge, error)
	ChargesByProperty(ctx context.Context, propertyID uuid.UUID) ([]UtilityCharge, error)
	ChargesForPeriod(ctx context.Context, propertyID uuid.UUID, p Period) ([]UtilityCharge, error)
	DeleteCharge(ctx context.Context, id uuid.UUID) error
}

// AllocationStore persists the materialized allocation view.
type AllocationStore interface {
	// ReplaceAllocations atomically deletes all allocations of the charge
	// and inserts the given set. Readers never observe a mix of old and
	// new rows.
	ReplaceAllocations(ctx context.Context, chargeID uuid.UUID, allocations []Allocation) error

	AllocationsByCharge(ctx context.Context, chargeID uuid.UUID) ([]Allocation, error)
	AllocationsByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]Allocation, error)
}

// BillingPeriodStore persists the per-property-month generation record.
type BillingPeriodStore interface {
	// UpsertBillingPeriod creates the record as draft on first use, or
	// refreshes GeneratedAt/Notes on a later draft run. It must not
	// touch a finalized record.
	UpsertBillingPeriod(ctx context.Context, bp BillingPeriod) error

	// BillingPeriod returns the record, or a NotFoundError when no
	// generation has happened for the tuple yet.
	BillingPeriod(ctx context.Context, propertyID uuid.UUID, p Period) (BillingPeriod, error)

	BillingPeriodsByProperty(ctx context.Context, propertyID uuid.UUID) ([]BillingPeriod, error)

	// FinalizeBillingPeriod performs the one-way draft -> finalized
	// transition. Finalizing an already-finalized period fails with
	// ErrPeriodFinalized.
	FinalizeBillingPeriod(ctx context.Context, propertyID uuid.UUID, p Period) error
}

// EventStore persists occupancy events. Append-only.
type EventStore interface {
	AppendEvent(ctx context.Context, e OccupancyEvent) error
	EventsByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]OccupancyEvent, error)
	EventsByProperty(ctx context.Context, propertyID uuid.UUID) ([]OccupancyEvent, error)
}

// Store bundles every persistence interface. Both implementations
// satisfy it; the services take the narrow interfaces they need.
type Store interface {
	PropertyStore
	TenancyStore
	ChargeStore
	AllocationStore
	BillingPeriodStore
	EventStore
}

// Package store provides an in-memory engine.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/th0r88/tenant-manager-sub000/engine"
)

type periodKey struct {
	PropertyID uuid.UUID
	Month      int
	Year       int
}

// Memory implements engine.Store with maps behind a single RWMutex.
type Memory struct {
	mu          sync.RWMutex
	properties  map[uuid.UUID]engine.Property
	tenancies   map[uuid.UUID]engine.Tenancy
	charges     map[uuid.UUID]engine.UtilityCharge
	allocations map[uuid.UUID][]engine.Allocation // keyed by charge ID
	periods     map[periodKey]engine.BillingPeriod
	events      []engine.OccupancyEvent
}

func NewMemory() *Memory {
	return &Memory{
		properties:  make(map[uuid.UUID]engine.Property),
		tenancies:   make(map[uuid.UUID]engine.Tenancy),
		charges:     make(map[uuid.UUID]engine.UtilityCharge),
		allocations: make(map[uuid.UUID][]engine.Allocation),
		periods:     make(map[periodKey]engine.BillingPeriod),
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (m *Memory) SaveProperty(_ context.Context, p engine.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
	return nil
}

func (m *Memory) Property(_ context.Context, id uuid.UUID) (engine.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return engine.Property{}, &engine.NotFoundError{Kind: "property", ID: id.String()}
	}
	return p, nil
}

func (m *Memory) Properties(_ context.Context) ([]engine.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Property, 0, len(m.properties))
	for _, p := range m.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *Memory) DeleteProperty(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[id]; !ok {
		return &engine.NotFoundError{Kind: "property", ID: id.String()}
	}
	delete(m.properties, id)
	// Cascade: tenancies, charges and their allocations.
	for tid, t := range m.tenancies {
		if t.PropertyID == id {
			delete(m.tenancies, tid)
		}
	}
	for cid, c := range m.charges {
		if c.PropertyID == id {
			delete(m.charges, cid)
			delete(m.allocations, cid)
		}
	}
	for k := range m.periods {
		if k.PropertyID == id {
			delete(m.periods, k)
		}
	}
	return nil
}

// =============================================================================
// TENANCIES
// =============================================================================

func (m *Memory) SaveTenancy(_ context.Context, t engine.Tenancy) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenancies[t.ID] = t
	return nil
}

func (m *Memory) Tenancy(_ context.Context, id uuid.UUID) (engine.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenancies[id]
	if !ok {
		return engine.Tenancy{}, &engine.NotFoundError{Kind: "tenancy", ID: id.String()}
	}
	return t, nil
}

func (m *Memory) TenanciesByProperty(_ context.Context, propertyID uuid.UUID) ([]engine.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Tenancy
	for _, t := range m.tenancies {
		if t.PropertyID == propertyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// =============================================================================
// CHARGES AND ALLOCATIONS
// =============================================================================

func (m *Memory) SaveCharge(_ context.Context, c engine.UtilityCharge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[c.ID] = c
	return nil
}

func (m *Memory) Charge(_ context.Context, id uuid.UUID) (engine.UtilityCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.charges[id]
	if !ok {
		return engine.UtilityCharge{}, &engine.NotFoundError{Kind: "charge", ID: id.String()}
	}
	return c, nil
}

func (m *Memory) ChargesByProperty(_ context.Context, propertyID uuid.UUID) ([]engine.UtilityCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.UtilityCharge
	for _, c := range m.charges {
		if c.PropertyID == propertyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *Memory) ChargesForPeriod(_ context.Context, propertyID uuid.UUID, p engine.Period) ([]engine.UtilityCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.UtilityCharge
	for _, c := range m.charges {
		if c.PropertyID == propertyID && c.Period.Equal(p) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *Memory) DeleteCharge(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charges[id]; !ok {
		return &engine.NotFoundError{Kind: "charge", ID: id.String()}
	}
	delete(m.charges, id)
	delete(m.allocations, id)
	return nil
}

func (m *Memory) ReplaceAllocations(_ context.Context, chargeID uuid.UUID, allocations []engine.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charges[chargeID]; !ok {
		return &engine.NotFoundError{Kind: "charge", ID: chargeID.String()}
	}
	replacement := make([]engine.Allocation, len(allocations))
	copy(replacement, allocations)
	m.allocations[chargeID] = replacement
	return nil
}

func (m *Memory) AllocationsByCharge(_ context.Context, chargeID uuid.UUID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Allocation, len(m.allocations[chargeID]))
	copy(out, m.allocations[chargeID])
	return out, nil
}

func (m *Memory) AllocationsByTenancy(_ context.Context, tenancyID uuid.UUID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Allocation
	for _, set := range m.allocations {
		for _, a := range set {
			if a.TenancyID == tenancyID {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// =============================================================================
// BILLING PERIODS
// =============================================================================

func (m *Memory) UpsertBillingPeriod(_ context.Context, bp engine.BillingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := periodKey{PropertyID: bp.PropertyID, Month: bp.Period.Month, Year: bp.Period.Year}
	if existing, ok := m.periods[k]; ok {
		if existing.Status == engine.BillingFinalized {
			return engine.ErrPeriodFinalized
		}
		existing.GeneratedAt = bp.GeneratedAt
		existing.Notes = bp.Notes
		m.periods[k] = existing
		return nil
	}
	bp.Status = engine.BillingDraft
	m.periods[k] = bp
	return nil
}

func (m *Memory) BillingPeriod(_ context.Context, propertyID uuid.UUID, p engine.Period) (engine.BillingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bp, ok := m.periods[periodKey{PropertyID: propertyID, Month: p.Month, Year: p.Year}]
	if !ok {
		return engine.BillingPeriod{}, &engine.NotFoundError{Kind: "billing_period", ID: propertyID.String() + "/" + p.String()}
	}
	return bp, nil
}

func (m *Memory) BillingPeriodsByProperty(_ context.Context, propertyID uuid.UUID) ([]engine.BillingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.BillingPeriod
	for _, bp := range m.periods {
		if bp.PropertyID == propertyID {
			out = append(out, bp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period.Year != out[j].Period.Year {
			return out[i].Period.Year < out[j].Period.Year
		}
		return out[i].Period.Month < out[j].Period.Month
	})
	return out, nil
}

func (m *Memory) FinalizeBillingPeriod(_ context.Context, propertyID uuid.UUID, p engine.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := periodKey{PropertyID: propertyID, Month: p.Month, Year: p.Year}
	bp, ok := m.periods[k]
	if !ok {
		return &engine.NotFoundError{Kind: "billing_period", ID: propertyID.String() + "/" + p.String()}
	}
	if bp.Status == engine.BillingFinalized {
		return engine.ErrPeriodFinalized
	}
	now := time.Now().UTC()
	bp.Status = engine.BillingFinalized
	bp.FinalizedAt = &now
	m.periods[k] = bp
	return nil
}

// =============================================================================
// EVENTS - Append-only
// =============================================================================

func (m *Memory) AppendEvent(_ context.Context, e engine.OccupancyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) EventsByTenancy(_ context.Context, tenancyID uuid.UUID) ([]engine.OccupancyEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.OccupancyEvent
	for _, e := range m.events {
		if e.TenancyID == tenancyID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (m *Memory) EventsByProperty(_ context.Context, propertyID uuid.UUID) ([]engine.OccupancyEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.OccupancyEvent
	for _, e := range m.events {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func sortEvents(events []engine.OccupancyEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].RecordedAt.Equal(events[j].RecordedAt) {
			return events[i].RecordedAt.Before(events[j].RecordedAt)
		}
		return events[i].ID.String() < events[j].ID.String()
	})
}

package occupancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/engine"
	"github.com/th0r88/tenant-manager-sub000/engine/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(year int, month time.Month, d int) engine.Date {
	return engine.NewDate(year, month, d)
}

func newTestService(t *testing.T) (*Service, *store.Memory, engine.Property) {
	t.Helper()
	mem := store.NewMemory()
	property := engine.Property{
		ID:        uuid.New(),
		Name:      "Stara Pekarna",
		Address:   "Trubarjeva 40, Maribor",
		TotalArea: dec("95"),
	}
	if err := mem.SaveProperty(context.Background(), property); err != nil {
		t.Fatalf("seeding property: %v", err)
	}
	svc := NewService(mem, zerolog.Nop())
	// Advancing fake clock keeps event ordering deterministic.
	tick := 0
	svc.now = func() time.Time {
		tick++
		return time.Date(2025, time.March, 20, 12, 0, tick, 0, time.UTC)
	}
	return svc, mem, property
}

func newTenancy(propertyID uuid.UUID, moveIn engine.Date) engine.Tenancy {
	return engine.Tenancy{
		PropertyID:  propertyID,
		Name:        "Ana",
		MonthlyRent: dec("550.00"),
		RoomArea:    dec("18"),
		Occupants:   1,
		MoveIn:      moveIn,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestMoveIn_AssignsIDAndRecordsEvent(t *testing.T) {
	// GIVEN: A new tenancy without an ID
	// WHEN: Moving in
	// THEN: An ID is assigned, the record persists, and a move_in event
	//       lands in the audit trail

	svc, mem, property := newTestService(t)

	created, err := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected an assigned ID")
	}

	events, err := mem.EventsByTenancy(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != engine.EventMoveIn {
		t.Errorf("expected move_in event, got %s", events[0].Type)
	}
	if !events[0].EffectiveDate.Equal(created.MoveIn) {
		t.Errorf("event effective date should be the move-in date")
	}
}

func TestMoveIn_UnknownProperty_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.MoveIn(context.Background(), newTenancy(uuid.New(), day(2025, time.January, 15)))
	if !engine.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMoveIn_RefusedWhenPropertyFull(t *testing.T) {
	// GIVEN: A property with capacity 1 and a sitting tenant
	// WHEN: Moving a second tenancy in
	// THEN: Refused until the first one has moved out before the new
	//       move-in date

	svc, mem, property := newTestService(t)
	capacity := 1
	property.Capacity = &capacity
	if err := mem.SaveProperty(context.Background(), property); err != nil {
		t.Fatalf("updating property: %v", err)
	}

	first, err := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))
	if err != nil {
		t.Fatalf("first move-in: %v", err)
	}

	second := newTenancy(property.ID, day(2025, time.March, 1))
	second.Name = "Bojan"
	if _, err := svc.MoveIn(context.Background(), second); !errors.Is(err, engine.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Moving out on the prospective move-in day still blocks it: the
	// move-out day is occupied, inclusive.
	if _, err := svc.MoveOut(context.Background(), first.ID, day(2025, time.March, 1)); err != nil {
		t.Fatalf("move-out: %v", err)
	}
	if _, err := svc.MoveIn(context.Background(), second); !errors.Is(err, engine.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded on the shared day, got %v", err)
	}

	second.MoveIn = day(2025, time.March, 2)
	if _, err := svc.MoveIn(context.Background(), second); err != nil {
		t.Fatalf("move-in after vacancy: %v", err)
	}
}

func TestMoveIn_NoCapacityAdmitsFreely(t *testing.T) {
	svc, _, property := newTestService(t)
	for i, name := range []string{"Ana", "Bojan", "Cvetka"} {
		tenancy := newTenancy(property.ID, day(2025, time.January, 1+i))
		tenancy.Name = name
		if _, err := svc.MoveIn(context.Background(), tenancy); err != nil {
			t.Fatalf("move-in %s: %v", name, err)
		}
	}
}

func TestMoveOut_SetsDateOnceAndRecordsEvent(t *testing.T) {
	svc, mem, property := newTestService(t)
	created, err := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))
	if err != nil {
		t.Fatalf("move-in: %v", err)
	}

	terminated, err := svc.MoveOut(context.Background(), created.ID, day(2025, time.March, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if terminated.MoveOut == nil || !terminated.MoveOut.Equal(day(2025, time.March, 10)) {
		t.Fatalf("move-out date not persisted")
	}

	events, _ := mem.EventsByTenancy(context.Background(), created.ID)
	if len(events) != 2 || events[1].Type != engine.EventMoveOut {
		t.Fatalf("expected move_in then move_out events, got %d", len(events))
	}
}

func TestMoveOut_Twice_IsRefused(t *testing.T) {
	// The move-out date is set once; a returning tenant gets a new record.
	svc, _, property := newTestService(t)
	created, _ := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))
	if _, err := svc.MoveOut(context.Background(), created.ID, day(2025, time.March, 10)); err != nil {
		t.Fatalf("first move-out: %v", err)
	}

	_, err := svc.MoveOut(context.Background(), created.ID, day(2025, time.April, 1))
	if !errors.Is(err, engine.ErrAlreadyTerminated) {
		t.Fatalf("expected ErrAlreadyTerminated, got %v", err)
	}
}

func TestMoveOut_BeforeMoveIn_IsRefused(t *testing.T) {
	svc, _, property := newTestService(t)
	created, _ := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.March, 15)))

	_, err := svc.MoveOut(context.Background(), created.ID, day(2025, time.March, 1))
	if !errors.Is(err, engine.ErrCorruptTenancy) {
		t.Fatalf("expected corrupt-tenancy rejection, got %v", err)
	}
}

func TestAmend_RecordsOneEventPerChangedField(t *testing.T) {
	// GIVEN: A tenancy whose rent and occupant count both change
	// WHEN: Amending
	// THEN: Two amendment events, each carrying before/after snapshots,
	//       and lifecycle fields untouched

	svc, mem, property := newTestService(t)
	created, _ := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))

	updated := created
	updated.MonthlyRent = dec("600.00")
	updated.Occupants = 2
	updated.MoveIn = day(2020, time.January, 1) // must be ignored

	amended, err := svc.Amend(context.Background(), updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amended.MoveIn.Equal(created.MoveIn) {
		t.Errorf("Amend must not touch the move-in date")
	}

	events, _ := mem.EventsByTenancy(context.Background(), created.ID)
	var amendments []engine.OccupancyEvent
	for _, e := range events {
		if e.Type == engine.EventAmendment {
			amendments = append(amendments, e)
		}
	}
	if len(amendments) != 2 {
		t.Fatalf("expected 2 amendment events, got %d", len(amendments))
	}
	if amendments[0].Previous != "monthly_rent=550" || amendments[0].New != "monthly_rent=600" {
		t.Errorf("unexpected rent snapshots: %q -> %q", amendments[0].Previous, amendments[0].New)
	}
	if amendments[1].Previous != "occupants=1" || amendments[1].New != "occupants=2" {
		t.Errorf("unexpected occupants snapshots: %q -> %q", amendments[1].Previous, amendments[1].New)
	}
}

func TestAmend_NoChanges_NoEvents(t *testing.T) {
	svc, mem, property := newTestService(t)
	created, _ := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))

	if _, err := svc.Amend(context.Background(), created); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, _ := mem.EventsByTenancy(context.Background(), created.ID)
	if len(events) != 1 {
		t.Fatalf("a no-op amend must not append events, got %d", len(events))
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestStatisticsFor_SingleMonth(t *testing.T) {
	// GIVEN: One full-month tenancy and one mid-month move-in (Mar 15)
	// WHEN: Computing March 2025 statistics
	// THEN: 31 + 17 occupied days over a 62-day capacity

	svc, _, property := newTestService(t)
	if _, err := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2024, time.June, 1))); err != nil {
		t.Fatalf("move-in: %v", err)
	}
	second := newTenancy(property.ID, day(2025, time.March, 15))
	second.Name = "Bojan"
	if _, err := svc.MoveIn(context.Background(), second); err != nil {
		t.Fatalf("move-in: %v", err)
	}

	march := 3
	stats, err := svc.StatisticsFor(context.Background(), property.ID, 2025, &march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalOccupiedDays != 48 {
		t.Errorf("expected 48 occupied days, got %d", stats.TotalOccupiedDays)
	}
	if !stats.AverageOccupancyRate.Equal(dec("0.7742")) {
		t.Errorf("expected rate 48/62 = 0.7742, got %s", stats.AverageOccupancyRate)
	}
	if stats.EventCounts[engine.EventMoveIn] != 1 {
		t.Errorf("expected 1 move_in effective in March, got %d", stats.EventCounts[engine.EventMoveIn])
	}
}

func TestStatisticsFor_WholeYearCountsEvents(t *testing.T) {
	svc, _, property := newTestService(t)
	created, _ := svc.MoveIn(context.Background(), newTenancy(property.ID, day(2025, time.January, 15)))
	if _, err := svc.MoveOut(context.Background(), created.ID, day(2025, time.March, 10)); err != nil {
		t.Fatalf("move-out: %v", err)
	}

	stats, err := svc.StatisticsFor(context.Background(), property.ID, 2025, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Jan 15 through Mar 10 inclusive: 17 + 28 + 10 days.
	if stats.TotalOccupiedDays != 55 {
		t.Errorf("expected 55 occupied days, got %d", stats.TotalOccupiedDays)
	}
	if stats.EventCounts[engine.EventMoveIn] != 1 || stats.EventCounts[engine.EventMoveOut] != 1 {
		t.Errorf("unexpected event counts: %v", stats.EventCounts)
	}
}

func TestStatisticsFor_InvalidMonth_Rejected(t *testing.T) {
	svc, _, property := newTestService(t)
	thirteen := 13
	_, err := svc.StatisticsFor(context.Background(), property.ID, 2025, &thirteen)
	if !errors.Is(err, engine.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestHistory_UnknownTenancy_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.History(context.Background(), uuid.New())
	if !engine.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API surface, decoupled from the engine types.
  Amounts are serialized as decimal strings so clients never receive
  binary-float currency; display formatting and localization are the
  client's job.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/th0r88/tenant-manager-sub000/billing"
	"github.com/th0r88/tenant-manager-sub000/engine"
	"github.com/th0r88/tenant-manager-sub000/occupancy"
)

// =============================================================================
// PROPERTIES
// =============================================================================

type PropertyDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address,omitempty"`
	Capacity  *int            `json:"capacity,omitempty"`
	TotalArea decimal.Decimal `json:"totalArea"`
}

type CreatePropertyRequest struct {
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Capacity  *int            `json:"capacity"`
	TotalArea decimal.Decimal `json:"totalArea"`
}

func toPropertyDTO(p engine.Property) PropertyDTO {
	return PropertyDTO{
		ID:        p.ID.String(),
		Name:      p.Name,
		Address:   p.Address,
		Capacity:  p.Capacity,
		TotalArea: p.TotalArea,
	}
}

// =============================================================================
// TENANCIES
// =============================================================================

type TenancyDTO struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"propertyId"`
	Name        string          `json:"name"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	RoomArea    decimal.Decimal `json:"roomArea"`
	Occupants   int             `json:"occupants"`
	MoveIn      engine.Date     `json:"moveInDate"`
	MoveOut     *engine.Date    `json:"moveOutDate,omitempty"`
}

type CreateTenancyRequest struct {
	Name        string          `json:"name"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	RoomArea    decimal.Decimal `json:"roomArea"`
	Occupants   int             `json:"occupants"`
	MoveIn      string          `json:"moveInDate"`
}

type AmendTenancyRequest struct {
	Name        string          `json:"name"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	RoomArea    decimal.Decimal `json:"roomArea"`
	Occupants   int             `json:"occupants"`
}

type TerminateTenancyRequest struct {
	MoveOut string `json:"moveOutDate"`
}

func toTenancyDTO(t engine.Tenancy) TenancyDTO {
	return TenancyDTO{
		ID:          t.ID.String(),
		PropertyID:  t.PropertyID.String(),
		Name:        t.Name,
		MonthlyRent: t.MonthlyRent,
		RoomArea:    t.RoomArea,
		Occupants:   t.Occupants,
		MoveIn:      t.MoveIn,
		MoveOut:     t.MoveOut,
	}
}

// =============================================================================
// CHARGES AND ALLOCATIONS
// =============================================================================

type ChargeDTO struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"propertyId"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Category    string          `json:"category"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Method      string          `json:"allocationMethod"`
}

type CreateChargeRequest struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Category    string          `json:"category"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Method      string          `json:"allocationMethod"`
}

type AllocationDTO struct {
	ChargeID  string          `json:"chargeId"`
	TenancyID string          `json:"tenancyId"`
	Amount    decimal.Decimal `json:"allocatedAmount"`
}

// ChargeResponse carries a charge plus its allocation outcome. Unallocated
// is set when the roster was empty and no shares could be produced - the
// operator warning flag, not an error.
type ChargeResponse struct {
	Charge      ChargeDTO       `json:"charge"`
	Allocations []AllocationDTO `json:"allocations"`
	Unallocated bool            `json:"unallocated,omitempty"`
}

func toChargeDTO(c engine.UtilityCharge) ChargeDTO {
	return ChargeDTO{
		ID:          c.ID.String(),
		PropertyID:  c.PropertyID.String(),
		Month:       c.Period.Month,
		Year:        c.Period.Year,
		Category:    string(c.Category),
		TotalAmount: c.TotalAmount,
		Method:      string(c.Method),
	}
}

func toAllocationDTOs(allocations []engine.Allocation) []AllocationDTO {
	out := make([]AllocationDTO, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, AllocationDTO{
			ChargeID:  a.ChargeID.String(),
			TenancyID: a.TenancyID.String(),
			Amount:    a.Amount,
		})
	}
	return out
}

// =============================================================================
// STATEMENTS
// =============================================================================

type RentLineDTO struct {
	MonthlyRent      decimal.Decimal `json:"monthlyRent"`
	OccupiedDays     int             `json:"occupiedDays"`
	DaysInMonth      int             `json:"daysInMonth"`
	IsFullMonth      bool            `json:"isFullMonth"`
	BillableAmount   decimal.Decimal `json:"billableAmount"`
	OccupancyPercent int             `json:"occupancyPercentage"`
}

type UtilityLineDTO struct {
	ChargeID string          `json:"chargeId"`
	Category string          `json:"category"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Amount   decimal.Decimal `json:"allocatedAmount"`
}

type StatementDTO struct {
	TenancyID   string           `json:"tenancyId"`
	TenancyName string           `json:"tenancyName"`
	Month       int              `json:"month"`
	Year        int              `json:"year"`
	Rent        RentLineDTO      `json:"rent"`
	Utilities   []UtilityLineDTO `json:"utilities"`
	TotalDue    decimal.Decimal  `json:"totalDue"`
}

type StatementFailureDTO struct {
	TenancyID string `json:"tenancyId"`
	Error     string `json:"error"`
}

type BatchResultDTO struct {
	Statements []StatementDTO        `json:"statements"`
	Failures   []StatementFailureDTO `json:"failures"`
	Period     BillingPeriodDTO      `json:"billingPeriod"`
}

func toStatementDTO(s billing.Statement) StatementDTO {
	utilities := make([]UtilityLineDTO, 0, len(s.Utilities))
	for _, u := range s.Utilities {
		utilities = append(utilities, UtilityLineDTO{
			ChargeID: u.ChargeID.String(),
			Category: string(u.Category),
			Month:    u.Period.Month,
			Year:     u.Period.Year,
			Amount:   u.Amount,
		})
	}
	return StatementDTO{
		TenancyID:   s.TenancyID.String(),
		TenancyName: s.TenancyName,
		Month:       s.Period.Month,
		Year:        s.Period.Year,
		Rent: RentLineDTO{
			MonthlyRent:      s.Rent.MonthlyRent,
			OccupiedDays:     s.Rent.OccupiedDays,
			DaysInMonth:      s.Rent.DaysInMonth,
			IsFullMonth:      s.Rent.IsFullMonth,
			BillableAmount:   s.Rent.BillableAmount,
			OccupancyPercent: s.Rent.OccupancyPercent,
		},
		Utilities: utilities,
		TotalDue:  s.TotalDue,
	}
}

func toBatchResultDTO(r billing.BatchResult) BatchResultDTO {
	statements := make([]StatementDTO, 0, len(r.Statements))
	for _, s := range r.Statements {
		statements = append(statements, toStatementDTO(s))
	}
	failures := make([]StatementFailureDTO, 0, len(r.Failed))
	for _, f := range r.Failed {
		failures = append(failures, StatementFailureDTO{
			TenancyID: f.TenancyID.String(),
			Error:     f.Err.Error(),
		})
	}
	return BatchResultDTO{
		Statements: statements,
		Failures:   failures,
		Period:     toBillingPeriodDTO(r.Period),
	}
}

// =============================================================================
// BILLING PERIODS
// =============================================================================

type BillingPeriodDTO struct {
	PropertyID  string     `json:"propertyId"`
	Month       int        `json:"month"`
	Year        int        `json:"year"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	GeneratedAt time.Time  `json:"generatedAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

func toBillingPeriodDTO(bp engine.BillingPeriod) BillingPeriodDTO {
	return BillingPeriodDTO{
		PropertyID:  bp.PropertyID.String(),
		Month:       bp.Period.Month,
		Year:        bp.Period.Year,
		Status:      string(bp.Status),
		Notes:       bp.Notes,
		GeneratedAt: bp.GeneratedAt,
		FinalizedAt: bp.FinalizedAt,
	}
}

// =============================================================================
// OCCUPANCY
// =============================================================================

type OccupancyEventDTO struct {
	ID            string      `json:"id"`
	TenancyID     string      `json:"tenancyId"`
	PropertyID    string      `json:"propertyId"`
	Type          string      `json:"eventType"`
	EffectiveDate engine.Date `json:"effectiveDate"`
	Previous      string      `json:"previousValue,omitempty"`
	New           string      `json:"newValue,omitempty"`
	RecordedAt    time.Time   `json:"recordedAt"`
}

type StatisticsDTO struct {
	PropertyID           string          `json:"propertyId"`
	Year                 int             `json:"year"`
	Month                *int            `json:"month,omitempty"`
	TotalOccupiedDays    int             `json:"totalOccupiedTenancyDays"`
	AverageOccupancyRate decimal.Decimal `json:"averageOccupancyRate"`
	EventCounts          map[string]int  `json:"eventCounts"`
}

func toEventDTO(e engine.OccupancyEvent) OccupancyEventDTO {
	return OccupancyEventDTO{
		ID:            e.ID.String(),
		TenancyID:     e.TenancyID.String(),
		PropertyID:    e.PropertyID.String(),
		Type:          string(e.Type),
		EffectiveDate: e.EffectiveDate,
		Previous:      e.Previous,
		New:           e.New,
		RecordedAt:    e.RecordedAt,
	}
}

func toStatisticsDTO(s occupancy.Statistics) StatisticsDTO {
	counts := make(map[string]int, len(s.EventCounts))
	for k, v := range s.EventCounts {
		counts[string(k)] = v
	}
	return StatisticsDTO{
		PropertyID:           s.PropertyID.String(),
		Year:                 s.Year,
		Month:                s.Month,
		TotalOccupiedDays:    s.TotalOccupiedDays,
		AverageOccupancyRate: s.AverageOccupancyRate,
		EventCounts:          counts,
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

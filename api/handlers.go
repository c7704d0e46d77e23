/*
handlers.go - HTTP handlers for the tenant manager API

PURPOSE:
  Exposes the billing engine over REST. Handlers parse and validate
  input, delegate to the billing/occupancy services, and map engine
  errors to HTTP statuses.

ERROR MAPPING:
  400: invalid input, bad periods, allocation input errors
  404: missing property/tenancy/charge/billing period
  409: finalized period, concurrent allocation recompute
  500: everything else

  Batch statement generation returns 200 with the failures listed in
  the body; a partially failed batch is a successful run by contract.
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/th0r88/tenant-manager-sub000/billing"
	"github.com/th0r88/tenant-manager-sub000/engine"
	"github.com/th0r88/tenant-manager-sub000/occupancy"
)

// Handler holds the API dependencies.
type Handler struct {
	Store     engine.Store
	Billing   *billing.Service
	Occupancy *occupancy.Service
	Log       zerolog.Logger
}

// NewHandler wires the services on top of one store.
func NewHandler(store engine.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Billing:   billing.NewService(store, log),
		Occupancy: occupancy.NewService(store, log),
		Log:       log,
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Store.Properties(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]PropertyDTO, 0, len(properties))
	for _, p := range properties {
		out = append(out, toPropertyDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}
	p := engine.Property{
		ID:        uuid.New(),
		Name:      req.Name,
		Address:   req.Address,
		Capacity:  req.Capacity,
		TotalArea: req.TotalArea,
	}
	if err := h.Store.SaveProperty(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(p))
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.Property(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(p))
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	existing, err := h.Store.Property(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	existing.Name = req.Name
	existing.Address = req.Address
	existing.Capacity = req.Capacity
	existing.TotalArea = req.TotalArea
	if err := h.Store.SaveProperty(r.Context(), existing); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(existing))
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteProperty(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TENANCIES
// =============================================================================

func (h *Handler) ListTenancies(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	tenancies, err := h.Store.TenanciesByProperty(r.Context(), propertyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]TenancyDTO, 0, len(tenancies))
	for _, t := range tenancies {
		out = append(out, toTenancyDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateTenancy(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateTenancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	moveIn, err := engine.ParseDate(req.MoveIn)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "moveInDate must be YYYY-MM-DD"})
		return
	}
	t, err := h.Occupancy.MoveIn(r.Context(), engine.Tenancy{
		PropertyID:  propertyID,
		Name:        req.Name,
		MonthlyRent: req.MonthlyRent,
		RoomArea:    req.RoomArea,
		Occupants:   req.Occupants,
		MoveIn:      moveIn,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenancyDTO(t))
}

func (h *Handler) GetTenancy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Store.Tenancy(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(t))
}

func (h *Handler) AmendTenancy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req AmendTenancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	t, err := h.Occupancy.Amend(r.Context(), engine.Tenancy{
		ID:          id,
		Name:        req.Name,
		MonthlyRent: req.MonthlyRent,
		RoomArea:    req.RoomArea,
		Occupants:   req.Occupants,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(t))
}

func (h *Handler) TerminateTenancy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req TerminateTenancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	moveOut, err := engine.ParseDate(req.MoveOut)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "moveOutDate must be YYYY-MM-DD"})
		return
	}
	t, err := h.Occupancy.MoveOut(r.Context(), id, moveOut)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(t))
}

func (h *Handler) TenancyHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	events, err := h.Occupancy.History(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]OccupancyEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// CHARGES AND ALLOCATIONS
// =============================================================================

func (h *Handler) ListCharges(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var (
		charges []engine.UtilityCharge
		err     error
	)
	if r.URL.Query().Get("month") != "" || r.URL.Query().Get("year") != "" {
		p, perr := periodFromQuery(r)
		if perr != nil {
			h.writeError(w, perr)
			return
		}
		charges, err = h.Store.ChargesForPeriod(r.Context(), propertyID, p)
	} else {
		charges, err = h.Store.ChargesByProperty(r.Context(), propertyID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]ChargeDTO, 0, len(charges))
	for _, c := range charges {
		out = append(out, toChargeDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	charge := engine.UtilityCharge{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		Period:      engine.Period{Month: req.Month, Year: req.Year},
		Category:    engine.Category(req.Category),
		TotalAmount: req.TotalAmount,
		Method:      engine.AllocationMethod(req.Method),
	}
	allocations, err := h.Billing.CreateCharge(r.Context(), charge)
	if err != nil && !billing.IsUnallocated(err) {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ChargeResponse{
		Charge:      toChargeDTO(charge),
		Allocations: toAllocationDTOs(allocations),
		Unallocated: billing.IsUnallocated(err),
	})
}

func (h *Handler) GetCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	charge, err := h.Store.Charge(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChargeDTO(charge))
}

func (h *Handler) UpdateCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	existing, err := h.Store.Charge(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req CreateChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	existing.Period = engine.Period{Month: req.Month, Year: req.Year}
	existing.Category = engine.Category(req.Category)
	existing.TotalAmount = req.TotalAmount
	existing.Method = engine.AllocationMethod(req.Method)

	allocations, err := h.Billing.UpdateCharge(r.Context(), existing)
	if err != nil && !billing.IsUnallocated(err) {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChargeResponse{
		Charge:      toChargeDTO(existing),
		Allocations: toAllocationDTOs(allocations),
		Unallocated: billing.IsUnallocated(err),
	})
}

func (h *Handler) DeleteCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Billing.DeleteCharge(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Store.Charge(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	allocations, err := h.Store.AllocationsByCharge(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTOs(allocations))
}

func (h *Handler) RecomputeAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	allocations, err := h.Billing.RecomputeAllocations(r.Context(), id)
	if err != nil && !billing.IsUnallocated(err) {
		h.writeError(w, err)
		return
	}
	charge, cerr := h.Store.Charge(r.Context(), id)
	if cerr != nil {
		h.writeError(w, cerr)
		return
	}
	writeJSON(w, http.StatusOK, ChargeResponse{
		Charge:      toChargeDTO(charge),
		Allocations: toAllocationDTOs(allocations),
		Unallocated: billing.IsUnallocated(err),
	})
}

// =============================================================================
// STATEMENTS AND BILLING PERIODS
// =============================================================================

func (h *Handler) GenerateStatements(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := periodFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.Billing.GenerateStatements(r.Context(), propertyID, p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResultDTO(result))
}

func (h *Handler) ListBillingPeriods(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	periods, err := h.Store.BillingPeriodsByProperty(r.Context(), propertyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]BillingPeriodDTO, 0, len(periods))
	for _, bp := range periods {
		out = append(out, toBillingPeriodDTO(bp))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) FinalizeBillingPeriod(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := periodFromPath(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	bp, err := h.Billing.Finalize(r.Context(), propertyID, p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillingPeriodDTO(bp))
}

func (h *Handler) RecalculateBillingPeriod(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := periodFromPath(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.Billing.Recalculate(r.Context(), propertyID, p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResultDTO(result))
}

// =============================================================================
// OCCUPANCY STATISTICS
// =============================================================================

func (h *Handler) OccupancyStatistics(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "year query parameter is required"})
		return
	}
	var month *int
	if m := r.URL.Query().Get("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "month must be an integer"})
			return
		}
		month = &v
	}
	stats, err := h.Occupancy.StatisticsFor(r.Context(), propertyID, year, month)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func periodFromQuery(r *http.Request) (engine.Period, error) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return engine.Period{}, &engine.InvalidPeriodError{Reason: "month query parameter is required"}
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return engine.Period{}, &engine.InvalidPeriodError{Month: month, Reason: "year query parameter is required"}
	}
	p := engine.Period{Month: month, Year: year}
	return p, p.Validate()
}

func periodFromPath(r *http.Request) (engine.Period, error) {
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return engine.Period{}, &engine.InvalidPeriodError{Reason: "month path segment must be an integer"}
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return engine.Period{}, &engine.InvalidPeriodError{Month: month, Reason: "year path segment must be an integer"}
	}
	p := engine.Period{Month: month, Year: year}
	return p, p.Validate()
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case engine.IsNotFound(err):
		status = http.StatusNotFound
	case engine.IsClientError(err):
		status = http.StatusBadRequest
	case engine.IsConflict(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

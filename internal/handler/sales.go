package handler

import (
	"context"
	"net/http"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	mw "github.com/carsound-ops/api/internal/middleware"
	"github.com/carsound-ops/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SalesService is the intake and confirmation workflow.
// Satisfied by *service.SalesService.
type SalesService interface {
	Create(ctx context.Context, req service.CreateSaleRequest) (database.SaleOperation, error)
	List(ctx context.Context, status string) ([]database.SaleOperation, error)
	Confirm(ctx context.Context, id uuid.UUID) (database.SaleOperation, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateSaleRequest) (database.SaleOperation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SalesHandler handles sale intake, confirmation and the admin edit queue.
type SalesHandler struct {
	svc            SalesService
	confirmPinHash string
}

func NewSalesHandler(svc SalesService, confirmPinHash string) *SalesHandler {
	return &SalesHandler{svc: svc, confirmPinHash: confirmPinHash}
}

// RegisterRoutes registers sale endpoints. Expected to be mounted at /sales
// behind Authenticate.
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(mw.RequireRole(enum.UserRoleSales, enum.UserRoleAdmin)).Post("/", h.Create)
	r.With(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleAdmin)).Post("/{id}/confirm", h.Confirm)
	r.With(mw.RequireRole(enum.UserRoleAdmin)).Put("/{id}", h.Update)
	r.With(mw.RequireRole(enum.UserRoleAdmin), mw.RequireConfirmation(h.confirmPinHash)).Delete("/{id}", h.Delete)
}

// --- Request types ---

type createSaleRequest struct {
	CarType     string `json:"car_type" validate:"required"`
	Details     string `json:"details"`
	AmountTotal string `json:"amount_total" validate:"required"`
	Salesperson string `json:"salesperson"`
}

type updateSaleRequest struct {
	CarType     string `json:"car_type" validate:"required"`
	Details     string `json:"details"`
	AmountTotal string `json:"amount_total" validate:"required"`
}

// --- Handlers ---

// List returns sales in the requested status, newest first. Defaults to pending.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = enum.SaleStatusPending
	}

	sales, err := h.svc.List(r.Context(), status)
	if err != nil {
		writeServiceError(w, "list sales", err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// Create records a new pending sale. The salesperson defaults to the caller.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	salesperson := req.Salesperson
	if salesperson == "" {
		salesperson = mw.Actor(r.Context())
	}

	sale, err := h.svc.Create(r.Context(), service.CreateSaleRequest{
		CarType:     req.CarType,
		Details:     req.Details,
		AmountTotal: req.AmountTotal,
		Salesperson: salesperson,
	})
	if err != nil {
		writeServiceError(w, "create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// Confirm marks a pending sale as paid at the till.
func (h *SalesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale ID"})
		return
	}

	sale, err := h.svc.Confirm(r.Context(), id)
	if err != nil {
		writeServiceError(w, "confirm sale", err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale ID"})
		return
	}

	var req updateSaleRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	sale, err := h.svc.Update(r.Context(), id, service.UpdateSaleRequest{
		CarType:     req.CarType,
		Details:     req.Details,
		AmountTotal: req.AmountTotal,
	})
	if err != nil {
		writeServiceError(w, "update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// Delete removes a sale and its unpaid incentive.
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

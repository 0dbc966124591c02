package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/incentive"
	mw "github.com/carsound-ops/api/internal/middleware"
	"github.com/carsound-ops/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AssignmentService writes the incentive ledger.
// Satisfied by *service.AssignmentService.
type AssignmentService interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*service.TransferResult, error)
	DeleteIncentive(ctx context.Context, id uuid.UUID) error
	AddExtra(ctx context.Context, id uuid.UUID, extra string) (database.TechnicianIncentive, error)
	CreateRetroactive(ctx context.Context, req service.RetroactiveRequest) (*service.RetroactiveResult, error)
}

// LedgerReader reads unpaid ledger snapshots.
// Satisfied by *service.ReportService.
type LedgerReader interface {
	Unpaid(ctx context.Context) ([]incentive.Entry, error)
	SaleGroup(ctx context.Context, saleID uuid.UUID) (incentive.Group, error)
}

// IncentiveHandler handles the admin assignment endpoints.
type IncentiveHandler struct {
	svc            AssignmentService
	ledger         LedgerReader
	confirmPinHash string
}

func NewIncentiveHandler(svc AssignmentService, ledger LedgerReader, confirmPinHash string) *IncentiveHandler {
	return &IncentiveHandler{svc: svc, ledger: ledger, confirmPinHash: confirmPinHash}
}

// RegisterRoutes registers incentive endpoints. Expected to be mounted at
// /incentives behind Authenticate and RequireRole(ADMIN).
func (h *IncentiveHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListUnpaid)
	r.Post("/transfer", h.Transfer)
	r.Post("/retroactive", h.CreateRetroactive)
	r.Get("/sales/{saleID}", h.SaleGroup)
	r.Patch("/{id}/extra", h.AddExtra)
	r.With(mw.RequireConfirmation(h.confirmPinHash)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type transferItemRequest struct {
	SaleID      string   `json:"sale_id" validate:"required,uuid"`
	Technicians []string `json:"technicians"`
	Standard    *bool    `json:"standard"`
	Additional  string   `json:"additional"`
	Notes       string   `json:"notes"`
}

type transferRequest struct {
	Items []transferItemRequest `json:"items" validate:"min=1,dive"`
}

type addExtraRequest struct {
	Extra string `json:"extra" validate:"required"`
}

type retroactiveRequest struct {
	Date        string   `json:"date" validate:"required"`
	CarType     string   `json:"car_type" validate:"required"`
	Details     string   `json:"details"`
	AmountTotal string   `json:"amount_total" validate:"required"`
	Technicians []string `json:"technicians" validate:"min=1"`
	Incentive   string   `json:"incentive"`
	Notes       string   `json:"notes"`
}

type entryResponse struct {
	ID               uuid.UUID `json:"id"`
	SaleID           uuid.UUID `json:"sale_id"`
	CarType          string    `json:"car_type"`
	Details          string    `json:"details"`
	AmountTotal      int64     `json:"amount_total"`
	SaleStatus       string    `json:"sale_status"`
	Technicians      []string  `json:"technicians"`
	IsStandard       bool      `json:"is_standard"`
	AdditionalAmount int64     `json:"additional_amount"`
	Amount           int64     `json:"amount"`
	Notes            *string   `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
}

func toEntryResponse(e incentive.Entry) entryResponse {
	resp := entryResponse{
		ID:               e.ID,
		SaleID:           e.SaleID,
		CarType:          e.CarType,
		Details:          e.Details,
		AmountTotal:      e.AmountTotal,
		SaleStatus:       e.SaleStatus,
		Technicians:      e.Technicians,
		IsStandard:       e.IsStandard,
		AdditionalAmount: e.AdditionalAmount,
		Amount:           e.Amount,
		CreatedAt:        e.CreatedAt,
	}
	if resp.Technicians == nil {
		resp.Technicians = []string{}
	}
	if e.Notes != "" {
		notes := e.Notes
		resp.Notes = &notes
	}
	return resp
}

// --- Handlers ---

// ListUnpaid returns the open ledger, newest first. Paid history is not
// served here.
func (h *IncentiveHandler) ListUnpaid(w http.ResponseWriter, r *http.Request) {
	if paid := r.URL.Query().Get("paid"); paid != "" && paid != "false" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only unpaid incentives can be listed"})
		return
	}

	entries, err := h.ledger.Unpaid(r.Context())
	if err != nil {
		writeServiceError(w, "list unpaid incentives", err)
		return
	}

	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Transfer assigns technicians to a batch of confirmed sales.
func (h *IncentiveHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	items := make([]service.TransferItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.TransferItem{
			SaleID:      it.SaleID,
			Technicians: it.Technicians,
			Standard:    it.Standard,
			Additional:  it.Additional,
			Notes:       it.Notes,
		}
	}

	result, err := h.svc.Transfer(r.Context(), service.TransferRequest{Items: items})
	if err != nil {
		writeServiceError(w, "transfer incentives", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateRetroactive records an incentive for a past day.
func (h *IncentiveHandler) CreateRetroactive(w http.ResponseWriter, r *http.Request) {
	var req retroactiveRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	result, err := h.svc.CreateRetroactive(r.Context(), service.RetroactiveRequest{
		Day:         req.Date,
		CarType:     req.CarType,
		Details:     req.Details,
		AmountTotal: req.AmountTotal,
		Technicians: req.Technicians,
		Incentive:   req.Incentive,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, "create retroactive incentive", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SaleGroup returns one sale's ledger rows merged into a single line.
func (h *IncentiveHandler) SaleGroup(w http.ResponseWriter, r *http.Request) {
	saleID, ok := parseIDParam(r, "saleID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale ID"})
		return
	}

	group, err := h.ledger.SaleGroup(r.Context(), saleID)
	if err != nil {
		writeServiceError(w, "get sale group", err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *IncentiveHandler) AddExtra(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incentive ID"})
		return
	}

	var req addExtraRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.svc.AddExtra(r.Context(), id, req.Extra)
	if err != nil {
		writeServiceError(w, "add extra", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete rolls an assignment back and returns the sale to the queue.
func (h *IncentiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incentive ID"})
		return
	}

	if err := h.svc.DeleteIncentive(r.Context(), id); err != nil {
		writeServiceError(w, "delete incentive", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

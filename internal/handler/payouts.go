package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/carsound-ops/api/internal/export"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// PayoutService computes payout sheets.
// Satisfied by *service.PayoutService.
type PayoutService interface {
	Compute(ctx context.Context, req service.PayoutRequest) (incentive.PayoutSheet, error)
}

// PayoutHandler handles the payout distributor endpoints. Nothing here writes;
// the sheet is recomputed on every call.
type PayoutHandler struct {
	svc       PayoutService
	exportOpt export.Options
}

func NewPayoutHandler(svc PayoutService, exportOpt export.Options) *PayoutHandler {
	return &PayoutHandler{svc: svc, exportOpt: exportOpt}
}

func (h *PayoutHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Default)
	r.Post("/preview", h.Preview)
	r.Post("/export", h.Export)
}

type payoutRequest struct {
	Date              string            `json:"date"`
	Supervisors       int               `json:"supervisors" validate:"gte=0"`
	TechnicianPayouts map[string]string `json:"technician_payouts"`
	StaffPayouts      map[string]string `json:"staff_payouts"`
}

func (req payoutRequest) toService() service.PayoutRequest {
	return service.PayoutRequest{
		Day:               req.Date,
		Supervisors:       req.Supervisors,
		TechnicianPayouts: req.TechnicianPayouts,
		StaffPayouts:      req.StaffPayouts,
	}
}

// Default returns the suggested sheet with no overrides.
func (h *PayoutHandler) Default(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.PayoutRequest{Day: q.Get("date")}
	if raw := q.Get("supervisors"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": incentive.ErrInvalidSupervisorCount.Error()})
			return
		}
		req.Supervisors = n
	}

	sheet, err := h.svc.Compute(r.Context(), req)
	if err != nil {
		writeServiceError(w, "compute payout", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// Preview applies operator overrides and returns the resulting sheet.
func (h *PayoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	sheet, err := h.svc.Compute(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "compute payout", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (h *PayoutHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	sheet, err := h.svc.Compute(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "compute payout", err)
		return
	}

	var buf bytes.Buffer
	if err := export.PayoutSheet(&buf, sheet, h.exportOpt); err != nil {
		writeServiceError(w, "export payout", err)
		return
	}
	writeWorkbook(w, fmt.Sprintf("payout-%s.xlsx", sheet.Day), &buf)
}

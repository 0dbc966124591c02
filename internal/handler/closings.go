package handler

import (
	"context"
	"net/http"

	mw "github.com/carsound-ops/api/internal/middleware"
	"github.com/carsound-ops/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ClosingService marks a day paid.
// Satisfied by *service.ClosingService.
type ClosingService interface {
	Close(ctx context.Context, day, closedBy string) (*service.ClosingResult, error)
}

type ClosingHandler struct {
	svc            ClosingService
	confirmPinHash string
}

func NewClosingHandler(svc ClosingService, confirmPinHash string) *ClosingHandler {
	return &ClosingHandler{svc: svc, confirmPinHash: confirmPinHash}
}

func (h *ClosingHandler) RegisterRoutes(r chi.Router) {
	r.With(mw.RequireConfirmation(h.confirmPinHash)).Post("/", h.Close)
}

type closeDayRequest struct {
	Date string `json:"date" validate:"required"`
}

// Close marks every unpaid incentive of the day as paid. Closing a day twice
// returns rows_closed 0.
func (h *ClosingHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeDayRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	result, err := h.svc.Close(r.Context(), req.Date, mw.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, "close day", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

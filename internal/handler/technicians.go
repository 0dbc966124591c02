package handler

import (
	"context"
	"net/http"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TechnicianStore defines the directory reads needed by the handler.
// Satisfied by *database.Queries.
type TechnicianStore interface {
	ListTechnicians(ctx context.Context) ([]database.Technician, error)
	ListTechniciansByRole(ctx context.Context, role string) ([]database.Technician, error)
}

// TechnicianHandler serves the read-only staff directory.
type TechnicianHandler struct {
	store TechnicianStore
}

func NewTechnicianHandler(store TechnicianStore) *TechnicianHandler {
	return &TechnicianHandler{store: store}
}

func (h *TechnicianHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type technicianResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// List returns the directory, optionally filtered by role. A staff member
// with no role is listed as a technician.
func (h *TechnicianHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	var (
		techs []database.Technician
		err   error
	)
	if role == "" {
		techs, err = h.store.ListTechnicians(r.Context())
	} else {
		if !enum.ValidStaffRole(role) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be technician, prep or sales"})
			return
		}
		techs, err = h.store.ListTechniciansByRole(r.Context(), role)
	}
	if err != nil {
		log.WithError(err).Error("list technicians")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]technicianResponse, len(techs))
	for i, t := range techs {
		resp[i] = technicianResponse{ID: t.ID, Name: t.Name, Role: enum.StaffRoleTechnician}
		if t.Role.Valid {
			resp[i].Role = t.Role.String
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

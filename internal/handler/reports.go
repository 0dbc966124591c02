package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/carsound-ops/api/internal/export"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// ReportService builds the daily reconciliation views.
// Satisfied by *service.ReportService.
type ReportService interface {
	AvailableDays(ctx context.Context) ([]string, error)
	Daily(ctx context.Context, day, view string) (incentive.Report, error)
	Consistency(ctx context.Context) ([]incentive.Issue, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	svc       ReportService
	exportOpt export.Options
}

func NewReportsHandler(svc ReportService, exportOpt export.Options) *ReportsHandler {
	return &ReportsHandler{svc: svc, exportOpt: exportOpt}
}

// RegisterRoutes registers report endpoints. Expected to be mounted at
// /reports behind Authenticate and RequireRole(ADMIN).
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dates", h.Dates)
	r.Get("/daily", h.Daily)
	r.Get("/daily/export", h.ExportDaily)
	r.Get("/consistency", h.Consistency)
}

// Dates lists days with unpaid incentives, newest first.
func (h *ReportsHandler) Dates(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.AvailableDays(r.Context())
	if err != nil {
		writeServiceError(w, "list report dates", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": days})
}

// Daily returns the two-section report. Without ?date= the newest open day
// is used.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.svc.Daily(r.Context(), q.Get("date"), q.Get("view"))
	if err != nil {
		writeServiceError(w, "daily report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportDaily streams the daily report as an xlsx workbook.
func (h *ReportsHandler) ExportDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.svc.Daily(r.Context(), q.Get("date"), q.Get("view"))
	if err != nil {
		writeServiceError(w, "daily report", err)
		return
	}

	var buf bytes.Buffer
	if err := export.DailyReport(&buf, report, h.exportOpt); err != nil {
		writeServiceError(w, "export daily report", err)
		return
	}
	writeWorkbook(w, fmt.Sprintf("incentives-%s.xlsx", report.Day), &buf)
}

func (h *ReportsHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.Consistency(r.Context())
	if err != nil {
		writeServiceError(w, "consistency check", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

func writeWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).WithField("file", filename).Error("failed to write workbook")
	}
}

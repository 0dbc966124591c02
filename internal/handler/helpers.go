package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode JSON response")
	}
}

// decodeJSON reads the body into dst and runs its validate tags. The returned
// message is safe to show to the client.
func decodeJSON(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid request body", false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationMessage(verrs[0]), false
		}
		return "invalid request body", false
	}
	return "", true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " must be a valid id"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// writeServiceError maps service and ledger errors to a status code. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isNotFoundError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.WithError(err).Error(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isValidationError checks if the error is a known validation error
// that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrCarTypeRequired) ||
		errors.Is(err, service.ErrInvalidTotal) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidSaleID) ||
		errors.Is(err, service.ErrInvalidStaffID) ||
		errors.Is(err, service.ErrEmptyTransfer) ||
		errors.Is(err, service.ErrDuplicateSale) ||
		errors.Is(err, service.ErrNoTechnicians) ||
		errors.Is(err, service.ErrInvalidExtra) ||
		errors.Is(err, service.ErrInvalidIncentive) ||
		errors.Is(err, service.ErrDayRequired) ||
		errors.Is(err, incentive.ErrInvalidDay) ||
		errors.Is(err, incentive.ErrInvalidView) ||
		errors.Is(err, incentive.ErrInvalidAmount) ||
		errors.Is(err, incentive.ErrInvalidSupervisorCount) ||
		errors.Is(err, incentive.ErrNegativePayout) ||
		errors.Is(err, incentive.ErrUnknownStaff) ||
		errors.Is(err, incentive.ErrUnknownTechnician)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, service.ErrSaleNotFound) ||
		errors.Is(err, service.ErrIncentiveNotFound) ||
		errors.Is(err, service.ErrNoOpenDays)
}

func isConflictError(err error) bool {
	return errors.Is(err, service.ErrInvalidTransition) ||
		errors.Is(err, service.ErrAlreadyAssigned) ||
		errors.Is(err, service.ErrAlreadyPaid) ||
		errors.Is(err, service.ErrNotStandard) ||
		errors.Is(err, service.ErrBusy)
}

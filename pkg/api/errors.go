package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/backup"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/recurrence"
	"github.com/pigeonworks-llc/club-billing/pkg/validate"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string                `json:"error"`
	ErrorDescription string                `json:"error_description,omitempty"`
	Fields           []validate.FieldError `json:"fields,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var conflicts = []error{
	app.ErrDuplicateID,
	app.ErrStudentReferenced,
	app.ErrClassReferenced,
	app.ErrClassFull,
	app.ErrAlreadyEnrolled,
	app.ErrAttendanceRecorded,
	app.ErrClassCancelled,
	app.ErrAlreadyInvoiced,
	attendance.ErrAlreadyRecorded,
}

var unprocessable = []error{
	billing.ErrNothingSelected,
	billing.ErrNothingPending,
	billing.ErrNoAdjustment,
	billing.ErrNotPending,
	billing.ErrDuplicateSelection,
	billing.ErrInvalidMode,
	attendance.ErrNotEnrolled,
	attendance.ErrInvalidStatus,
	recurrence.ErrNoSourceClasses,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError maps a command or import error to a status code.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *validate.ValidationError
	var ierr *backup.ImportError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "invalid_parameter",
			ErrorDescription: verr.Error(),
			Fields:           verr.Fields,
		})
	case errors.As(err, &ierr):
		writeJSONError(w, http.StatusBadRequest, "invalid_backup", ierr.Msg)
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case isAny(err, conflicts):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case isAny(err, unprocessable):
		writeJSONError(w, http.StatusUnprocessableEntity, "unprocessable", err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Internal error")
	}
}

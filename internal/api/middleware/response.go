package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/edufin/internal/approvals"
	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/fraud"
	"github.com/dvloznov/edufin/internal/identity"
	"github.com/dvloznov/edufin/internal/jobs/inmemory"
	"github.com/dvloznov/edufin/internal/payment"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/dvloznov/edufin/internal/salary"
)

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, payment.ErrValidation),
		errors.Is(err, payment.ErrUnsupportedMethod),
		errors.Is(err, payment.ErrCancelled),
		errors.Is(err, salary.ErrInvalidBasic),
		errors.Is(err, salary.ErrMissingField),
		errors.Is(err, prediction.ErrInvalidInput),
		errors.Is(err, approvals.ErrInvalidRequest),
		errors.Is(err, approvals.ErrUnknownDepartment):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, fees.ErrNotFound),
		errors.Is(err, salary.ErrUnknownStaff),
		errors.Is(err, payment.ErrSessionNotFound),
		errors.Is(err, fraud.ErrAlertNotFound),
		errors.Is(err, inmemory.ErrJobNotFound),
		errors.Is(err, archive.ErrNotArchived),
		errors.Is(err, approvals.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrInvalidTransition),
		errors.Is(err, fees.ErrNotOutstanding),
		errors.Is(err, identity.ErrAccountExists),
		errors.Is(err, approvals.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, payment.ErrExpired):
		return http.StatusGone
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, identity.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErr writes err with the status StatusFor chooses. Internal errors
// are reported generically.
func WriteErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	WriteError(w, status, msg)
}

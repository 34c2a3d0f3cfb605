// Package handlers exposes the fee, payment, salary, prediction and review
// workflows over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate *validator.Validate = validator.New()

var errBadRequest = errors.New("invalid request body")

// decodeJSON reads a size-limited JSON body into v and validates its tags.
func decodeJSON(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil {
		return err
	}
	return validateStruct(v)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// writeErr extends middleware.WriteErr with request decoding failures.
func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteErr(w, err)
}

// canAccessStudent reports whether user may read or act for studentID.
// Admins reach every student; students only themselves.
func canAccessStudent(user domain.User, studentID string) bool {
	return user.Role == domain.RoleAdmin || user.ID == studentID
}

// requireStudentAccess writes 403 and returns false when the caller may
// not act for studentID.
func requireStudentAccess(w http.ResponseWriter, r *http.Request, studentID string) (domain.User, bool) {
	user, _ := middleware.UserFromContext(r.Context())
	if !canAccessStudent(user, studentID) {
		middleware.WriteError(w, http.StatusForbidden, "Access denied")
		return user, false
	}
	return user, true
}

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

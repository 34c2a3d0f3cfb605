package handlers

import (
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/identity"
	"github.com/rs/zerolog"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	auth      *identity.Authenticator
	directory directory.Repository
	log       zerolog.Logger
}

// NewAuthHandler creates a new auth handler. repo may be nil.
func NewAuthHandler(auth *identity.Authenticator, repo directory.Repository, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, directory: repo, log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Signup handles POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req identity.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	user, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("Signup failed")
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/user/{id}
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	caller, ok := requireStudentAccess(w, r, id)
	if !ok {
		return
	}
	if h.directory == nil {
		if caller.ID == id {
			middleware.WriteJSON(w, http.StatusOK, caller)
			return
		}
		middleware.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.directory.GetByUserID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

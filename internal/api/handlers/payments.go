package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/payment"
	"github.com/rs/zerolog"
)

// PaymentsHandler handles the three payment flows. Form payments complete
// in one request; QR and checkout payments span several.
type PaymentsHandler struct {
	service  *payment.Service
	qr       *payment.QRAdapter
	checkout *payment.CheckoutAdapter
	log      zerolog.Logger
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(service *payment.Service, qr *payment.QRAdapter, checkout *payment.CheckoutAdapter, log zerolog.Logger) *PaymentsHandler {
	return &PaymentsHandler{service: service, qr: qr, checkout: checkout, log: log}
}

// bindPayer decodes a payment request and pins it to the caller when the
// caller is a student. A non-empty method overrides the body's.
func bindPayer(r *http.Request, method domain.Method) (payment.Request, error) {
	var req payment.Request
	if err := readJSON(r, &req); err != nil {
		return req, err
	}
	if method != "" {
		req.Method = method
	}
	if err := validateStruct(&req); err != nil {
		return req, err
	}
	user, _ := middleware.UserFromContext(r.Context())
	if user.Role == domain.RoleStudent {
		req.StudentID = user.ID
		req.StudentName = user.Name
	}
	return req, nil
}

// Pay handles POST /api/payments
func (h *PaymentsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	req, err := bindPayer(r, "")
	if err != nil {
		writeErr(w, err)
		return
	}
	switch req.Method {
	case domain.MethodQRCode:
		middleware.WriteError(w, http.StatusBadRequest, "QR payments start at /api/payments/qr")
		return
	case domain.MethodRazorpay:
		middleware.WriteError(w, http.StatusBadRequest, "Checkout payments start at /create-order")
		return
	}

	out, err := h.service.Pay(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, out)
}

// OpenQR handles POST /api/payments/qr. When upiId is supplied the code is
// generated straight away.
func (h *PaymentsHandler) OpenQR(w http.ResponseWriter, r *http.Request) {
	req, err := bindPayer(r, domain.MethodQRCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req, err = h.service.Prepare(req); err != nil {
		writeErr(w, err)
		return
	}

	session, err := h.qr.Open(req)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.UPIID != "" {
		if session, err = h.qr.Generate(r.Context(), session.ID, req.UPIID); err != nil {
			_ = h.qr.Close(session.ID)
			writeErr(w, err)
			return
		}
	}
	middleware.WriteJSON(w, http.StatusCreated, session)
}

// qrSession loads the session named in the path and checks the caller owns it.
func (h *PaymentsHandler) qrSession(w http.ResponseWriter, r *http.Request) (payment.QRSession, bool) {
	session, err := h.qr.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return session, false
	}
	if session.Request.StudentID != "" {
		if _, ok := requireStudentAccess(w, r, session.Request.StudentID); !ok {
			return session, false
		}
	}
	return session, true
}

// GetQR handles GET /api/payments/qr/{id}
func (h *PaymentsHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

type generateRequest struct {
	UPIID string `json:"upiId" validate:"required"`
}

// GenerateQR handles POST /api/payments/qr/{id}/generate
func (h *PaymentsHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	session, err := h.qr.Generate(r.Context(), session.ID, req.UPIID)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

// ConfirmQR handles POST /api/payments/qr/{id}/confirm
func (h *PaymentsHandler) ConfirmQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	session, err := h.qr.Confirm(session.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

// VerifyQR handles POST /api/payments/qr/{id}/verify. A verified session
// settles the payment; an expired one counts as a failed attempt.
func (h *PaymentsHandler) VerifyQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	result, err := h.qr.Verify(ctx, session.ID)
	if err != nil {
		if !errors.Is(err, payment.ErrInvalidTransition) && !errors.Is(err, payment.ErrSessionNotFound) {
			h.service.Fail(ctx, session.Request, err)
		}
		writeErr(w, err)
		return
	}

	out, err := h.service.Settle(ctx, session.Request, result)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("session_id", session.ID).Msg("Verified QR payment could not be settled")
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// RegenerateQR handles POST /api/payments/qr/{id}/regenerate
func (h *PaymentsHandler) RegenerateQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	session, err := h.qr.Regenerate(session.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

// CloseQR handles DELETE /api/payments/qr/{id}. Closing an unverified
// session is a cancelled attempt.
func (h *PaymentsHandler) CloseQR(w http.ResponseWriter, r *http.Request) {
	session, ok := h.qrSession(w, r)
	if !ok {
		return
	}
	if err := h.qr.Close(session.ID); err != nil {
		writeErr(w, err)
		return
	}
	if session.State != payment.StateVerified {
		h.service.Fail(r.Context(), session.Request, payment.ErrCancelled)
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateOrder handles POST /create-order
func (h *PaymentsHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := bindPayer(r, domain.MethodRazorpay)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req, err = h.service.Prepare(req); err != nil {
		writeErr(w, err)
		return
	}

	co, err := h.checkout.Start(r.Context(), req)
	if err != nil {
		h.service.Fail(r.Context(), req, err)
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, co)
}

// CompleteCheckout handles POST /api/payments/checkout/complete
func (h *PaymentsHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	var cb payment.Callback
	if err := decodeJSON(r, &cb); err != nil {
		writeErr(w, err)
		return
	}
	pending, ok := h.checkout.Pending(cb.OrderID)
	if !ok {
		writeErr(w, fmt.Errorf("CompleteCheckout: %w: order %s", payment.ErrSessionNotFound, cb.OrderID))
		return
	}
	if pending.StudentID != "" {
		if _, ok := requireStudentAccess(w, r, pending.StudentID); !ok {
			return
		}
	}

	ctx := r.Context()
	result, req, err := h.checkout.Complete(ctx, cb)
	if err != nil {
		if !errors.Is(err, payment.ErrSessionNotFound) {
			h.service.Fail(ctx, req, err)
		}
		writeErr(w, err)
		return
	}

	out, err := h.service.Settle(ctx, req, result)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("order_id", cb.OrderID).Msg("Completed checkout could not be settled")
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

package handlers

import (
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/rs/zerolog"
)

// PredictHandler handles fee and budget prediction endpoints.
type PredictHandler struct {
	predictor prediction.Predictor
	log       zerolog.Logger
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(p prediction.Predictor, log zerolog.Logger) *PredictHandler {
	return &PredictHandler{predictor: p, log: log}
}

// PredictFee handles POST /api/predict_fee
func (h *PredictHandler) PredictFee(w http.ResponseWriter, r *http.Request) {
	var req prediction.FeeRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErr(w, prediction.ErrInvalidInput)
		return
	}
	out, err := h.predictor.PredictFee(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// PredictBudget handles POST /api/predict_budget
func (h *PredictHandler) PredictBudget(w http.ResponseWriter, r *http.Request) {
	var req prediction.BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErr(w, prediction.ErrInvalidInput)
		return
	}
	out, err := h.predictor.PredictBudget(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Insights handles GET /api/financial_insights
func (h *PredictHandler) Insights(w http.ResponseWriter, r *http.Request) {
	out, err := h.predictor.Insights(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Projection handles GET /api/fee_projection
func (h *PredictHandler) Projection(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, prediction.SeedProjection())
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/fraud"
	"github.com/rs/zerolog"
)

// FraudHandler exposes the alert review queue to admins.
type FraudHandler struct {
	detector *fraud.Detector
	log      zerolog.Logger
}

// NewFraudHandler creates a new fraud handler.
func NewFraudHandler(detector *fraud.Detector, log zerolog.Logger) *FraudHandler {
	return &FraudHandler{detector: detector, log: log}
}

// ListAlerts handles GET /api/fraud/alerts?severity=
func (h *FraudHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	severity := domain.Severity(r.URL.Query().Get("severity"))
	switch severity {
	case "", domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
	default:
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", severity))
		return
	}
	alerts := h.detector.Alerts(severity)
	if alerts == nil {
		alerts = []domain.FraudAlert{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"counts": h.detector.Counts(),
	})
}

// Resolve handles POST /api/fraud/alerts/{id}/resolve
func (h *FraudHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	alert, err := h.detector.Resolve(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.log.Info().Str("alert_id", alert.ID).Msg("Fraud alert resolved")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alert":   alert,
		"message": fmt.Sprintf("Fraud alert %s has been marked as resolved", alert.ID),
	})
}

// Ignore handles POST /api/fraud/alerts/{id}/ignore
func (h *FraudHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	alert, err := h.detector.Ignore(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.log.Info().Str("alert_id", alert.ID).Msg("Fraud alert ignored")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alert":   alert,
		"message": fmt.Sprintf("Fraud alert %s has been ignored", alert.ID),
	})
}

// Export handles GET /api/fraud/alerts/export
func (h *FraudHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="fraud_alerts.csv"`)
	if err := h.detector.ExportCSV(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to export fraud alerts")
	}
}

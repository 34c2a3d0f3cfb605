package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/salary"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SalaryHandler handles salary slip endpoints.
type SalaryHandler struct {
	generator *salary.Generator
	archiver  *archive.Archiver
	jobs      jobs.Publisher
	log       zerolog.Logger
}

// NewSalaryHandler creates a new salary handler. archiver and publisher may be nil.
func NewSalaryHandler(generator *salary.Generator, archiver *archive.Archiver, publisher jobs.Publisher, log zerolog.Logger) *SalaryHandler {
	return &SalaryHandler{generator: generator, archiver: archiver, jobs: publisher, log: log}
}

type slipResponse struct {
	Slip  domain.SalarySlip `json:"slip"`
	JobID string            `json:"jobId,omitempty"`
}

// Generate handles POST /api/salary/slips
func (h *SalaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req salary.Request
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	slip, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, slipResponse{Slip: slip, JobID: h.enqueueArchive(r.Context(), slip)})
}

type batchRequest struct {
	Month time.Month `json:"month" validate:"required,min=1,max=12"`
	Year  int        `json:"year" validate:"required,min=2000,max=2100"`
}

// GenerateAll handles POST /api/salary/slips/batch
func (h *SalaryHandler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	slips, err := h.generator.GenerateAll(r.Context(), req.Month, req.Year)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]slipResponse, 0, len(slips))
	for _, slip := range slips {
		out = append(out, slipResponse{Slip: slip, JobID: h.enqueueArchive(r.Context(), slip)})
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"slips": out,
		"count": len(out),
	})
}

// enqueueArchive schedules the slip for archiving. Failures only cost the
// archive copy, so they are logged and the slip is still returned.
func (h *SalaryHandler) enqueueArchive(ctx context.Context, slip domain.SalarySlip) string {
	if h.jobs == nil {
		return ""
	}
	job, err := jobs.NewJob(jobs.JobTypeArchiveSlip, jobs.SlipPayload{Slip: slip})
	if err == nil {
		err = h.jobs.Publish(ctx, job)
	}
	if err != nil {
		h.log.Error().Err(err).Str("slip_id", slip.ID).Msg("Failed to enqueue slip archive")
		return ""
	}
	return job.JobID
}

// GetSlip handles GET /api/salary/slips/{id}
func (h *SalaryHandler) GetSlip(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		middleware.WriteError(w, http.StatusNotFound, "Slip archive is not configured")
		return
	}
	slip, err := h.archiver.Fetch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, slip)
}

// Staff handles GET /api/salary/staff
func (h *SalaryHandler) Staff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.generator.Directory.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, staff)
}

// Words handles GET /api/words?amount=
func (h *SalaryHandler) Words(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil || amount.IsNegative() {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be a non-negative number")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"amount": amount.StringFixed(2),
		"words":  salary.AmountInWords(amount),
	})
}

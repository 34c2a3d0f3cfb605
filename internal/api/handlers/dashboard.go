package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/dashboard"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/rs/zerolog"
)

// DashboardHandler serves dashboard aggregates, fee schedules and payment history.
type DashboardHandler struct {
	registry *dashboard.Registry
	book     *fees.Book
	ledger   ledger.Store
	reminder fees.ReminderPolicy
	now      func() time.Time
	log      zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(registry *dashboard.Registry, book *fees.Book, store ledger.Store, reminder fees.ReminderPolicy, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{registry: registry, book: book, ledger: store, reminder: reminder, now: time.Now, log: log}
}

// Admin handles GET /api/dashboard
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.registry.Admin().Snapshot())
}

// Student handles GET /api/students/{id}/dashboard
func (h *DashboardHandler) Student(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := requireStudentAccess(w, r, id); !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.registry.Store(id).Snapshot())
}

type feesResponse struct {
	Fees         []domain.FeeObligation `json:"fees"`
	Outstanding  int                    `json:"outstanding"`
	PendingTotal int64                  `json:"pendingTotal"`
	OverdueTotal int64                  `json:"overdueTotal"`
	NextDueDate  *time.Time             `json:"nextDueDate,omitempty"`
	Reminders    []domain.FeeObligation `json:"reminders"`
}

// Fees handles GET /api/students/{id}/fees
func (h *DashboardHandler) Fees(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := requireStudentAccess(w, r, id); !ok {
		return
	}
	l := h.book.For(id)
	resp := feesResponse{
		Fees:         l.All(),
		Outstanding:  len(l.Outstanding()),
		PendingTotal: l.PendingTotal(),
		OverdueTotal: l.OverdueTotal(),
		Reminders:    h.reminder.Due(l, h.now()),
	}
	if resp.Reminders == nil {
		resp.Reminders = []domain.FeeObligation{}
	}
	if next := l.NextDueDate(); !next.IsZero() {
		resp.NextDueDate = &next
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Transactions handles GET /api/transactions/{studentID}
func (h *DashboardHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("studentID")
	if _, ok := requireStudentAccess(w, r, id); !ok {
		return
	}
	entries, err := h.ledger.ListByStudent(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", id).Msg("Failed to list transactions")
		writeErr(w, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": entries,
		"count":        len(entries),
	})
}

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/printout"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

// ListStudents handles GET /api/v1/students. ?q filters by name or DNI.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	students := []domain.Student{}
	for _, st := range h.svc.State().Students {
		if q == "" || strings.Contains(strings.ToLower(st.Name), q) || strings.Contains(st.DNI, q) {
			students = append(students, st)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

// GetStudent handles GET /api/v1/students/{id}.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	st, ok := h.svc.State().Student(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"student": st})
}

// CreateStudent handles POST /api/v1/students.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var st domain.Student
	if err := decode(r, &st); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusCreated, app.AddStudent{Student: st})
}

// UpdateStudent handles PUT /api/v1/students/{id}.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var st domain.Student
	if err := decode(r, &st); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	st.ID = chi.URLParam(r, "id")
	h.apply(w, r, http.StatusOK, app.UpdateStudent{Student: st})
}

// DeleteStudent handles DELETE /api/v1/students/{id}.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, app.DeleteStudent{ID: chi.URLParam(r, "id")})
}

// StudentAccount handles GET /api/v1/students/{id}/account.
// ?status=Presente|Ausente filters lines; ?format=csv|html renders the
// statement instead of JSON.
func (h *Handler) StudentAccount(w http.ResponseWriter, r *http.Request) {
	status := domain.AttendanceStatus(r.URL.Query().Get("status"))
	acc, err := h.svc.State().StudentAccount(chi.URLParam(r, "id"), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		attachment(w, "text/csv; charset=utf-8", report.AccountFilename(acc.Student.Name, h.now()))
		if err := report.WriteAccountCSV(w, acc); err != nil {
			h.logger.Error("failed to write account CSV", "error", err)
		}
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := printout.RenderAccount(w, printout.AccountPage{Account: acc, GeneratedAt: h.now()}); err != nil {
			h.logger.Error("failed to render account", "error", err)
		}
	default:
		writeJSON(w, http.StatusOK, map[string]any{"account": acc})
	}
}

// StudentTransactions handles GET /api/v1/students/{id}/transactions.
// ?pending=true keeps only pending charges.
func (h *Handler) StudentTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s := h.svc.State()
	if _, ok := s.Student(id); !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "Student not found")
		return
	}

	txns := s.StudentTransactions(id)
	if r.URL.Query().Get("pending") == "true" {
		txns = billing.PendingCharges(txns, id)
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"pendingTotal": billing.PendingTotal(txns, id),
	})
}

// Debtors handles GET /api/v1/debtors.
func (h *Handler) Debtors(w http.ResponseWriter, r *http.Request) {
	debtors := h.svc.State().Debtors()
	if debtors == nil {
		debtors = []app.Debtor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"debtors": debtors})
}

// DiscountRequest is the body of POST /students/{id}/discount.
type DiscountRequest struct {
	Mode   billing.Mode         `json:"mode"`
	Value  decimal.Decimal      `json:"value"`
	Method domain.PaymentMethod `json:"method,omitempty"`
}

// ApplyDiscount handles POST /api/v1/students/{id}/discount.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusCreated, app.ApplyDiscount{
		StudentID: chi.URLParam(r, "id"),
		Discount:  billing.Discount{Mode: req.Mode, Value: req.Value},
		Method:    req.Method,
	})
}

// SettleRequest is the body of POST /students/{id}/settle.
type SettleRequest struct {
	TransactionIDs []string             `json:"transactionIds"`
	Discount       *billing.Discount    `json:"discount,omitempty"`
	PaymentNow     *decimal.Decimal     `json:"paymentNow,omitempty"`
	Method         domain.PaymentMethod `json:"method,omitempty"`
	Note           string               `json:"note,omitempty"`
}

// Settle handles POST /api/v1/students/{id}/settle.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusCreated, app.SettleCharges{
		StudentID:      chi.URLParam(r, "id"),
		TransactionIDs: req.TransactionIDs,
		Discount:       req.Discount,
		PaymentNow:     req.PaymentNow,
		Method:         req.Method,
		Note:           req.Note,
	})
}

// SettleLinesRequest is the body of POST /students/{id}/settle-lines.
type SettleLinesRequest struct {
	Lines  []app.LineInput      `json:"lines"`
	Method domain.PaymentMethod `json:"method,omitempty"`
}

// SettleLines handles POST /api/v1/students/{id}/settle-lines.
func (h *Handler) SettleLines(w http.ResponseWriter, r *http.Request) {
	var req SettleLinesRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusCreated, app.SettleLines{
		StudentID: chi.URLParam(r, "id"),
		Lines:     req.Lines,
		Method:    req.Method,
	})
}

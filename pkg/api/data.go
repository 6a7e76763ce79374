package api

import (
	"net/http"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/backup"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

// TransactionsReport handles GET /api/v1/reports/transactions.
// ?format is json (default), csv or xlsx.
func (h *Handler) TransactionsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	rng, err := report.ParseRange(from, to, h.loc)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid date range")
		return
	}
	rep := report.BuildTransactions(h.svc.State().Transactions, rng)

	switch q.Get("format") {
	case "csv":
		attachment(w, "text/csv; charset=utf-8", report.TransactionsFilename(from, to, "csv"))
		err = report.WriteTransactionsCSV(w, rep)
	case "xlsx":
		attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.TransactionsFilename(from, to, "xlsx"))
		err = report.WriteTransactionsXLSX(w, rep)
	case "", "json":
		writeJSON(w, http.StatusOK, rep)
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown format")
	}
	if err != nil {
		h.logger.Error("failed to write report", "error", err)
	}
}

// ExportBackup handles GET /api/v1/backup.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	attachment(w, "application/json", backup.Filename(now))
	if err := backup.Export(w, h.svc.State(), h.settings.ClubName, now); err != nil {
		h.logger.Error("failed to export backup", "error", err)
		return
	}
	if h.activity != nil {
		if err := h.activity.RecordBackup(r.Context(), now); err != nil {
			h.logger.Warn("failed to record backup time", "error", err)
		}
	}
}

// ImportBackup handles POST /api/v1/backup. A rejected document leaves
// the data untouched.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := backup.Import(r.Body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.svc.Apply(r.Context(), doc.Restore()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": doc.Summary()})
}

// GetUser handles GET /api/v1/user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": h.svc.State().CurrentUser})
}

// SetUser handles PUT /api/v1/user.
func (h *Handler) SetUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := decode(r, &u); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusOK, app.SetUser{User: u})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Activity log not configured")
		return
	}
	stats, err := h.activity.GetStats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recent, err := h.activity.Recent(r.Context(), 20)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats, "recent": recent})
}

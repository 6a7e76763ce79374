package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/printout"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

// ListReceipts handles GET /api/v1/receipts. ?name, ?from and ?to filter;
// ?format=csv downloads the receipt lines.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := report.ParseRange(q.Get("from"), q.Get("to"), h.loc)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid date range")
		return
	}

	receipts := report.FilterReceipts(h.svc.State().Receipts, report.ReceiptFilter{Name: q.Get("name"), Range: rng})
	if q.Get("format") == "csv" {
		attachment(w, "text/csv; charset=utf-8", report.ReceiptsFilename(h.now()))
		if err := report.WriteReceiptsCSV(w, receipts); err != nil {
			h.logger.Error("failed to write receipts CSV", "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"receipts": receipts,
		"total":    report.ReceiptsTotal(receipts),
	})
}

// GetReceipt handles GET /api/v1/receipts/{id}.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.svc.State().Receipt(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "Receipt not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receipt": rec})
}

// PrintReceipt handles GET /api/v1/receipts/{id}/print. ?format=pdf
// renders through headless Chrome.
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.svc.State().Receipt(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "Receipt not found")
		return
	}

	var buf bytes.Buffer
	page := printout.ReceiptPage{ClubName: h.settings.ClubName, Footer: h.settings.ReceiptFooter, Receipt: rec}
	if err := printout.RenderReceipt(&buf, page); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if r.URL.Query().Get("format") != "pdf" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}

	pdf, err := printout.RenderPDF(r.Context(), buf.String(), printout.DefaultPDFTimeout)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	attachment(w, "application/pdf", "recibo-"+rec.ID+".pdf")
	_, _ = w.Write(pdf)
}

// DeleteReceipt handles DELETE /api/v1/receipts/{id}.
func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, app.DeleteReceipt{ID: chi.URLParam(r, "id")})
}

// IssueInvoice handles POST /api/v1/receipts/{id}/invoice.
func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusCreated, app.IssueInvoice{ReceiptID: chi.URLParam(r, "id")})
}

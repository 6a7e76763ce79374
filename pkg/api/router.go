// Package api serves the club's data and commands as a JSON HTTP API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/config"
	"github.com/pigeonworks-llc/club-billing/pkg/db"
)

// Options configures the router.
type Options struct {
	Settings config.Settings
	// Activity, when set, serves GET /stats.
	Activity *db.ActivityLog
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

// Handler serves the API over one Service.
type Handler struct {
	svc      *app.Service
	settings config.Settings
	activity *db.ActivityLog
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(svc *app.Service, opts Options) *Handler {
	h := &Handler{
		svc:      svc,
		settings: opts.Settings,
		activity: opts.Activity,
		logger:   opts.Logger,
		loc:      opts.Location,
		now:      opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// NewRouter returns the API routes mounted under /api/v1, plus /health.
func NewRouter(svc *app.Service, opts Options) http.Handler {
	h := NewHandler(svc, opts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudent)
			r.Put("/{id}", h.UpdateStudent)
			r.Delete("/{id}", h.DeleteStudent)
			r.Get("/{id}/account", h.StudentAccount)
			r.Get("/{id}/transactions", h.StudentTransactions)
			r.Post("/{id}/discount", h.ApplyDiscount)
			r.Post("/{id}/settle", h.Settle)
			r.Post("/{id}/settle-lines", h.SettleLines)
		})
		r.Get("/debtors", h.Debtors)

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", h.ListClasses)
			r.Post("/", h.CreateClass)
			r.Post("/replicate", h.ReplicateMonth)
			r.Get("/{id}", h.GetClass)
			r.Put("/{id}", h.UpdateClass)
			r.Delete("/{id}", h.DeleteClass)
			r.Post("/{id}/students", h.Enroll)
			r.Post("/{id}/attendance", h.RecordAttendance)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", h.ListReceipts)
			r.Get("/{id}", h.GetReceipt)
			r.Get("/{id}/print", h.PrintReceipt)
			r.Delete("/{id}", h.DeleteReceipt)
			r.Post("/{id}/invoice", h.IssueInvoice)
		})

		r.Get("/reports/transactions", h.TransactionsReport)
		r.Get("/backup", h.ExportBackup)
		r.Post("/backup", h.ImportBackup)
		r.Get("/user", h.GetUser)
		r.Put("/user", h.SetUser)
		r.Get("/stats", h.Stats)
	})

	return r
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// apply runs cmd and writes its effect, or the error.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, status int, cmd app.Command) {
	eff, err := h.svc.Apply(r.Context(), cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, eff)
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

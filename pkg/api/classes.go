package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

// ListClasses handles GET /api/v1/classes. ?from and ?to (YYYY-MM-DD)
// bound the class date.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	rng, err := report.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.loc)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid date range")
		return
	}

	classes := []domain.Class{}
	for _, c := range h.svc.State().Classes {
		if rng.Contains(c.Date) {
			classes = append(classes, c)
		}
	}
	slices.SortStableFunc(classes, func(a, b domain.Class) int { return a.Date.Compare(b.Date) })
	writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

// GetClass handles GET /api/v1/classes/{id}.
func (h *Handler) GetClass(w http.ResponseWriter, r *http.Request) {
	c, ok := h.svc.State().Class(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "Class not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"class": c})
}

// CreateClass handles POST /api/v1/classes. A class without a price gets
// the configured default for its type.
func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var c domain.Class
	if err := decode(r, &c); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if c.PricePerStudent.IsZero() {
		c.PricePerStudent = h.settings.DefaultPrice(c.Type)
	}
	h.apply(w, r, http.StatusCreated, app.AddClass{Class: c})
}

// UpdateClass handles PUT /api/v1/classes/{id}.
func (h *Handler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	var c domain.Class
	if err := decode(r, &c); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	c.ID = chi.URLParam(r, "id")
	h.apply(w, r, http.StatusOK, app.UpdateClass{Class: c})
}

// DeleteClass handles DELETE /api/v1/classes/{id}.
func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, app.DeleteClass{ID: chi.URLParam(r, "id")})
}

// EnrollRequest is the body of POST /classes/{id}/students.
type EnrollRequest struct {
	StudentID string `json:"studentId"`
}

// Enroll handles POST /api/v1/classes/{id}/students.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusOK, app.EnrollStudent{ClassID: chi.URLParam(r, "id"), StudentID: req.StudentID})
}

// AttendanceRequest is the body of POST /classes/{id}/attendance.
type AttendanceRequest struct {
	Marks []attendance.Mark `json:"marks"`
}

// RecordAttendance handles POST /api/v1/classes/{id}/attendance.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	h.apply(w, r, http.StatusCreated, app.RecordAttendance{ClassID: chi.URLParam(r, "id"), Marks: req.Marks})
}

// ReplicateRequest is the body of POST /classes/replicate.
type ReplicateRequest struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ReplicateMonth handles POST /api/v1/classes/replicate.
func (h *Handler) ReplicateMonth(w http.ResponseWriter, r *http.Request) {
	var req ReplicateRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Year == 0 || req.Month < time.January || req.Month > time.December {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid year or month")
		return
	}
	h.apply(w, r, http.StatusCreated, app.ReplicateMonth{Year: req.Year, Month: req.Month, Location: h.loc})
}

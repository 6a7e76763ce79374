package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/api"
	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/config"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	n := 0
	reducer := app.NewReducer(
		app.WithClock(func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }),
		app.WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewService(store.NewMemory(), app.WithReducer(reducer), app.WithLogger(quiet))

	srv := httptest.NewServer(api.NewRouter(svc, api.Options{Settings: config.DefaultSettings(), Logger: quiet, Location: time.UTC}))
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestClientFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	eff, err := c.CreateStudent(ctx, domain.Student{Name: "Ana", Condition: domain.ConditionTitular})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}
	studentID := eff.Student.ID

	eff, err = c.CreateClass(ctx, domain.Class{
		Date:            time.Date(2024, 5, 7, 19, 0, 0, 0, time.UTC),
		Type:            domain.ClassGroup,
		MaxStudents:     4,
		PricePerStudent: decimal.NewFromInt(1500),
		Students:        []string{studentID},
	})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}
	classID := eff.Classes[0].ID

	if _, err := c.RecordAttendance(ctx, classID, api.AttendanceRequest{Marks: []attendance.Mark{{StudentID: studentID, Status: domain.AttendancePresent}}}); err != nil {
		t.Fatalf("RecordAttendance() error = %v", err)
	}

	pending, err := c.PendingCharges(ctx, studentID)
	if err != nil {
		t.Fatalf("PendingCharges() error = %v", err)
	}
	if len(pending.Transactions) != 1 || !pending.PendingTotal.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("pending = %+v", pending)
	}

	payment := decimal.NewFromInt(1000)
	eff, err = c.Settle(ctx, studentID, api.SettleRequest{
		TransactionIDs: []string{pending.Transactions[0].ID},
		Discount:       billing.Amount(decimal.NewFromInt(100)),
		PaymentNow:     &payment,
		Method:         domain.MethodTransfer,
	})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !eff.Receipt.CarriedAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("carried = %s, expected 400", eff.Receipt.CarriedAmount)
	}

	debtors, err := c.Debtors(ctx)
	if err != nil {
		t.Fatalf("Debtors() error = %v", err)
	}
	if len(debtors) != 1 || !debtors[0].Pending.Equal(decimal.NewFromInt(400)) {
		t.Errorf("debtors = %+v", debtors)
	}

	students, err := c.ListStudents(ctx, "an")
	if err != nil || len(students) != 1 {
		t.Errorf("ListStudents() = %v, %v", students, err)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	tests := []struct {
		name   string
		call   func() error
		status int
		code   string
		fields int
	}{
		{
			name: "validation",
			call: func() error {
				_, err := c.CreateStudent(ctx, domain.Student{Condition: "Socio"})
				return err
			},
			status: http.StatusBadRequest,
			code:   "invalid_parameter",
			fields: 2,
		},
		{
			name: "not found",
			call: func() error {
				_, err := c.PendingCharges(ctx, "nope")
				return err
			},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name: "unknown student",
			call: func() error {
				_, err := c.Settle(ctx, "nope", api.SettleRequest{})
				return err
			},
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, expected *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.code || len(apiErr.Fields) != tt.fields {
				t.Errorf("error = %+v", apiErr)
			}
		})
	}
}

func TestParseErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Debtors(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Description != "bad gateway" {
		t.Errorf("error = %+v", apiErr)
	}
}

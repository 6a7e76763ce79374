package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

var exportTime = time.Date(2024, 5, 20, 14, 3, 9, 0, time.UTC)

func sampleState() app.State {
	s := app.NewState()
	s.Students = []domain.Student{{ID: "s1", Name: "Ana", Condition: domain.ConditionTitular, CurrentBalance: decimal.NewFromInt(1500)}}
	s.Transactions = []domain.Transaction{
		{ID: "t1", StudentID: "s1", Amount: decimal.NewFromInt(1500), Status: domain.StatusPending, Type: domain.TypeCharge},
	}
	s.Receipts = []domain.Receipt{{ID: "r1", StudentID: "s1", TotalAmount: decimal.NewFromInt(1000), DiscountAmount: decimal.NewFromInt(100)}}
	return s
}

func TestFilename(t *testing.T) {
	got := Filename(exportTime)
	expected := "backup-padel-2024-05-20-14-03-09.json"
	if got != expected {
		t.Errorf("Filename() = %q, expected %q", got, expected)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleState(), "Mi Club de Pádel", exportTime); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "1.0"`) || !strings.Contains(buf.String(), `"totalStudents": 1`) {
		t.Errorf("export = %s", buf.String())
	}

	doc, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if doc.ClubName != "Mi Club de Pádel" || !doc.ExportDate.Equal(exportTime) {
		t.Errorf("header = %q, %v", doc.ClubName, doc.ExportDate)
	}
	if len(doc.Students) != 1 || !doc.Students[0].CurrentBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("students = %+v", doc.Students)
	}
	if !doc.Receipts[0].PaidAmount().Equal(decimal.NewFromInt(900)) {
		t.Errorf("receipt paid = %s, expected 900", doc.Receipts[0].PaidAmount())
	}
	if doc.Summary() != "1 alumnos, 0 clases, 1 transacciones, 1 recibos" {
		t.Errorf("Summary() = %q", doc.Summary())
	}
}

func TestImportLegacyBackup(t *testing.T) {
	legacy := `{
  "version": "1.0",
  "exportDate": "2024-05-01T12:30:00.000Z",
  "clubId": "default",
  "clubName": "Mi Club de Pádel",
  "students": [{"id": "s1", "name": "Ana", "condition": "Titular", "currentBalance": 0,
    "createdAt": "2024-03-01T10:00:00.000Z",
    "accountHistory": [{"id": "e1", "date": "2024-04-01T19:00:00.000Z", "className": "Grupal", "attendanceStatus": "Presente", "amount": 1500, "createdAt": "2024-04-01T21:00:00.000Z"}]}],
  "classes": [],
  "transactions": [],
  "receipts": [{"id": "r1", "studentId": "s1", "studentName": "Ana", "date": "2024-04-02T10:00:00.000Z",
    "transactions": [{"id": "t1", "className": "Grupal", "date": "2024-04-01T19:00:00.000Z", "amount": 1500}],
    "totalAmount": 1500, "discountAmount": 0, "paidAmount": 1000}],
  "metadata": {"totalStudents": 1, "totalClasses": 0, "totalTransactions": 0, "totalReceipts": 1}
}`

	doc, err := Import(strings.NewReader(legacy))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !doc.Receipts[0].CarriedAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("carried = %s, expected 500", doc.Receipts[0].CarriedAmount)
	}
	if doc.Students[0].AccountHistory[0].Amount.IntPart() != 1500 {
		t.Errorf("entry = %+v", doc.Students[0].AccountHistory[0])
	}
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"not json", `{"version":`, "El archivo no es un JSON válido"},
		{"missing transactions", `{"version":"1.0","exportDate":"2024-05-01T00:00:00Z","students":[],"classes":[],"receipts":[],"metadata":{}}`, "Campo requerido faltante: transactions"},
		{"missing version", `{"exportDate":"x","students":[],"classes":[],"transactions":[],"receipts":[],"metadata":{}}`, "Campo requerido faltante: version"},
		{"not arrays", `{"version":"1.0","exportDate":"2024-05-01T00:00:00Z","students":{},"classes":[],"transactions":[],"receipts":[],"metadata":{}}`, "Los datos deben ser arrays válidos"},
		{"bad metadata", `{"version":"1.0","exportDate":"2024-05-01T00:00:00Z","students":[],"classes":[],"transactions":[],"receipts":[],"metadata":3}`, "Metadata inválida"},
		{"null metadata", `{"version":"1.0","exportDate":"2024-05-01T00:00:00Z","students":[],"classes":[],"transactions":[],"receipts":[],"metadata":null}`, "Metadata inválida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tt.input))
			var iErr *ImportError
			if !errors.As(err, &iErr) {
				t.Fatalf("Import() error = %v, expected *ImportError", err)
			}
			if iErr.Msg != tt.expected {
				t.Errorf("Import() message = %q, expected %q", iErr.Msg, tt.expected)
			}
		})
	}
}

func TestRejectedImportLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(store.NewMemory())
	seeded := sampleState()
	restore := app.Restore{Students: seeded.Students, Transactions: seeded.Transactions, Receipts: seeded.Receipts}
	if _, err := svc.Apply(ctx, restore); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	input := `{"version":"1.0","exportDate":"2024-05-01T00:00:00Z","students":[],"classes":[],"receipts":[],"metadata":{}}`
	doc, err := Import(strings.NewReader(input))
	if err == nil {
		_, err = svc.Apply(ctx, doc.Restore())
	}
	if err == nil {
		t.Fatal("import without transactions succeeded")
	}

	s := svc.State()
	if len(s.Students) != 1 || len(s.Transactions) != 1 || len(s.Receipts) != 1 {
		t.Errorf("state replaced: %d students, %d transactions, %d receipts", len(s.Students), len(s.Transactions), len(s.Receipts))
	}
}

func TestWriteFile(t *testing.T) {
	path, err := WriteFile(t.TempDir()+"/backups", sampleState(), "Club", exportTime)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !strings.HasSuffix(path, Filename(exportTime)) {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat error = %v", err)
	}

	doc, err := ImportFile(path)
	if err != nil || doc.Metadata.TotalTransactions != 1 {
		t.Errorf("ImportFile() = %+v, %v", doc.Metadata, err)
	}
}

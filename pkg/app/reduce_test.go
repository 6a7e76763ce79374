package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
	"github.com/pigeonworks-llc/club-billing/pkg/validate"
)

var testNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

func newTestReducer() *Reducer {
	n := 0
	return NewReducer(
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seed returns a state with two students, one group class on May 7 and
// three pending charges for Ana.
func seed() State {
	s := NewState()
	s.Students = []domain.Student{
		{ID: "s1", Name: "Ana", Condition: domain.ConditionTitular, CurrentBalance: dec("4500"), AccountHistory: []domain.AccountEntry{}},
		{ID: "s2", Name: "Beto", Condition: domain.ConditionFamiliar, CurrentBalance: decimal.Zero, AccountHistory: []domain.AccountEntry{}},
	}
	s.Classes = []domain.Class{{
		ID:              "c1",
		Date:            time.Date(2024, 5, 7, 19, 0, 0, 0, time.UTC),
		Type:            domain.ClassGroup,
		MaxStudents:     2,
		PricePerStudent: dec("1500"),
		Repeating:       domain.RepeatNone,
		Students:        []string{"s1", "s2"},
		Attendances:     map[string]bool{},
		Status:          domain.ClassScheduled,
	}}
	for i, amt := range []string{"1000", "1500", "2000"} {
		s.Transactions = append(s.Transactions, domain.Transaction{
			ID:          fmt.Sprintf("t%d", i+1),
			StudentID:   "s1",
			StudentName: "Ana",
			ClassName:   "Clase Grupal",
			Type:        domain.TypeCharge,
			Amount:      dec(amt),
			Date:        time.Date(2024, 4, 1+i, 19, 0, 0, 0, time.UTC),
			Description: "Clase grupal",
			Status:      domain.StatusPending,
		})
	}
	return s
}

func TestReduceAbsenceCreatesNoCharge(t *testing.T) {
	s := seed()
	next, eff, err := newTestReducer().Reduce(s, RecordAttendance{
		ClassID: "c1",
		Marks:   []attendance.Mark{{StudentID: "s2", Status: domain.AttendanceAbsent}},
	})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}

	if len(next.Transactions) != len(s.Transactions) {
		t.Errorf("transactions = %d, expected %d", len(next.Transactions), len(s.Transactions))
	}
	beto, _ := next.Student("s2")
	if !beto.CurrentBalance.IsZero() {
		t.Errorf("balance = %s, expected 0", beto.CurrentBalance)
	}
	if len(beto.AccountHistory) != 1 || !beto.AccountHistory[0].Amount.IsZero() {
		t.Errorf("history = %+v, expected one zero entry", beto.AccountHistory)
	}
	cl, _ := next.Class("c1")
	if cl.Status != domain.ClassCompleted {
		t.Errorf("class status = %s", cl.Status)
	}
	for _, key := range eff.Touched {
		if key == store.KeyTransactions {
			t.Error("transactions touched by an absence")
		}
	}

	// Input state untouched.
	if orig, _ := s.Class("c1"); len(orig.Attendances) != 0 {
		t.Errorf("input class attendances = %v", orig.Attendances)
	}
	if orig, _ := s.Student("s2"); len(orig.AccountHistory) != 0 {
		t.Errorf("input student history = %v", orig.AccountHistory)
	}
}

func TestReducePresenceCharges(t *testing.T) {
	next, eff, err := newTestReducer().Reduce(seed(), RecordAttendance{
		ClassID: "c1",
		Marks:   []attendance.Mark{{StudentID: "s2", Status: domain.AttendancePresent}},
	})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}

	if len(eff.Charges) != 1 || !eff.Charges[0].Amount.Equal(dec("1500")) || eff.Charges[0].StudentName != "Beto" {
		t.Fatalf("charges = %+v", eff.Charges)
	}
	if !billing.PendingTotal(next.Transactions, "s2").Equal(dec("1500")) {
		t.Errorf("pending total = %s", billing.PendingTotal(next.Transactions, "s2"))
	}

	_, _, err = newTestReducer().Reduce(next, RecordAttendance{
		ClassID: "c1",
		Marks:   []attendance.Mark{{StudentID: "s2", Status: domain.AttendancePresent}},
	})
	if !errors.Is(err, attendance.ErrAlreadyRecorded) {
		t.Errorf("second record error = %v, expected %v", err, attendance.ErrAlreadyRecorded)
	}
}

func TestReduceSettleCharges(t *testing.T) {
	payment := dec("4000")
	next, eff, err := newTestReducer().Reduce(seed(), SettleCharges{
		StudentID:      "s1",
		TransactionIDs: []string{"t3", "t1", "t2"},
		Discount:       billing.Percent(dec("10")),
		PaymentNow:     &payment,
	})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}

	if eff.Receipt == nil || !eff.Receipt.PaidAmount().Equal(payment) || !eff.Receipt.DiscountAmount.Equal(dec("450")) {
		t.Fatalf("receipt = %+v", eff.Receipt)
	}
	if len(next.Receipts) != 1 || len(next.Payments) != 1 {
		t.Errorf("receipts = %d, payments = %d", len(next.Receipts), len(next.Payments))
	}
	if !eff.Amount.Valid || !eff.Amount.Decimal.Equal(payment) {
		t.Errorf("effect amount = %+v", eff.Amount)
	}
	if !billing.PendingTotal(next.Transactions, "s1").Equal(dec("50")) {
		t.Errorf("pending after settle = %s, expected 50", billing.PendingTotal(next.Transactions, "s1"))
	}
	for _, id := range []string{"t1", "t2", "t3"} {
		if tx, _ := next.Transaction(id); tx.Status != domain.StatusPaid {
			t.Errorf("%s status = %s", id, tx.Status)
		}
	}
	ana, _ := next.Student("s1")
	if !ana.CurrentBalance.Equal(dec("4050")) {
		t.Errorf("balance = %s, expected 4050", ana.CurrentBalance)
	}

	expected := map[string]bool{store.KeyTransactions: true, store.KeyReceipts: true, store.KeyStudents: true, store.KeyPayments: true}
	if len(eff.Touched) != len(expected) {
		t.Errorf("touched = %v", eff.Touched)
	}
	for _, key := range eff.Touched {
		if !expected[key] {
			t.Errorf("unexpected touched key %s", key)
		}
	}
}

func TestReduceGuardsLeaveStateUnchanged(t *testing.T) {
	s := seed()
	s.Transactions = nil

	tests := []struct {
		name     string
		cmd      Command
		expected error
	}{
		{"discount without pending", ApplyDiscount{StudentID: "s1", Discount: *billing.Amount(dec("100"))}, billing.ErrNothingPending},
		{"settle nothing", SettleCharges{StudentID: "s1"}, billing.ErrNothingSelected},
		{"unknown student", ApplyDiscount{StudentID: "zz", Discount: *billing.Amount(dec("100"))}, ErrNotFound},
		{"unknown transaction", SettleCharges{StudentID: "s1", TransactionIDs: []string{"t9"}}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, eff, err := newTestReducer().Reduce(s, tt.cmd)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("Reduce() error = %v, expected %v", err, tt.expected)
			}
			if len(eff.Touched) != 0 || len(next.Receipts) != 0 || len(next.Transactions) != 0 {
				t.Errorf("state changed: %+v, %+v", eff, next)
			}
			if st, _ := next.Student("s1"); !st.CurrentBalance.Equal(dec("4500")) {
				t.Errorf("balance = %s", st.CurrentBalance)
			}
		})
	}
}

func TestReduceSettleRepeatedSelection(t *testing.T) {
	s := seed()
	pay := dec("1000")

	tests := []struct {
		name string
		cmd  Command
	}{
		{"settle", SettleCharges{StudentID: "s1", TransactionIDs: []string{"t1", "t1"}, PaymentNow: &pay}},
		{"settle lines", SettleLines{StudentID: "s1", Lines: []LineInput{{TransactionID: "t1"}, {TransactionID: "t1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, eff, err := newTestReducer().Reduce(s, tt.cmd)
			if !errors.Is(err, billing.ErrDuplicateSelection) {
				t.Fatalf("Reduce() error = %v, expected %v", err, billing.ErrDuplicateSelection)
			}
			if len(eff.Touched) != 0 || len(next.Receipts) != 0 || len(next.Transactions) != 3 {
				t.Errorf("state changed: %+v", eff)
			}
			if got := billing.PendingTotal(next.Transactions, "s1"); !got.Equal(dec("4500")) {
				t.Errorf("pending = %s, expected 4500", got)
			}
		})
	}
}

func TestReduceSettleOutOfOrderSelection(t *testing.T) {
	pay := dec("2500")
	next, eff, err := newTestReducer().Reduce(seed(), SettleCharges{
		StudentID:      "s1",
		TransactionIDs: []string{"t3", "t1"},
		PaymentNow:     &pay,
	})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}

	carried := decimal.Zero
	for _, r := range eff.Remainders {
		carried = carried.Add(r.Amount)
	}
	// 1000 + 2000 selected, 2500 paid oldest first.
	if !carried.Equal(dec("500")) {
		t.Errorf("carried = %s, expected 500", carried)
	}
	if eff.Receipt == nil || !eff.Receipt.CarriedAmount.Equal(dec("500")) {
		t.Errorf("receipt = %+v, expected 500 carried", eff.Receipt)
	}
	if got := billing.PendingTotal(next.Transactions, "s1"); !got.Equal(dec("2000")) {
		t.Errorf("pending = %s, expected 2000 (t2 plus the remainder)", got)
	}
	for _, id := range []string{"t1", "t3"} {
		if tx, _ := next.Transaction(id); tx.Status != domain.StatusPaid {
			t.Errorf("%s status = %s, expected %s", id, tx.Status, domain.StatusPaid)
		}
	}
}

func TestReduceAddStudent(t *testing.T) {
	r := newTestReducer()

	next, eff, err := r.Reduce(NewState(), AddStudent{Student: domain.Student{Name: "  Carla ", Condition: domain.ConditionTitular}})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if eff.Student == nil || eff.Student.ID == "" || eff.Student.Name != "Carla" || !eff.Student.CreatedAt.Equal(testNow) {
		t.Errorf("student = %+v", eff.Student)
	}
	if len(next.Students) != 1 {
		t.Errorf("students = %d", len(next.Students))
	}

	_, _, err = r.Reduce(NewState(), AddStudent{Student: domain.Student{Condition: "Otro"}})
	var vErr *validate.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Reduce() error = %v, expected *ValidationError", err)
	}
	if len(vErr.Fields) != 2 {
		t.Errorf("fields = %+v, expected name and condition", vErr.Fields)
	}
}

func TestReduceDeleteStudent(t *testing.T) {
	s := seed()

	if _, _, err := newTestReducer().Reduce(s, DeleteStudent{ID: "s1"}); !errors.Is(err, ErrStudentReferenced) {
		t.Errorf("delete referenced error = %v, expected %v", err, ErrStudentReferenced)
	}

	next, eff, err := newTestReducer().Reduce(s, DeleteStudent{ID: "s2"})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if _, ok := next.Student("s2"); ok {
		t.Error("student still present")
	}
	if cl, _ := next.Class("c1"); cl.HasStudent("s2") {
		t.Errorf("roster still has s2: %v", cl.Students)
	}
	if cl, _ := s.Class("c1"); !cl.HasStudent("s2") {
		t.Error("input roster was modified")
	}
	if len(eff.Touched) != 2 {
		t.Errorf("touched = %v", eff.Touched)
	}
}

func TestReduceAddClass(t *testing.T) {
	tests := []struct {
		name     string
		class    domain.Class
		created  int
		expected error
	}{
		{
			name:    "weekly expands",
			class:   domain.Class{Date: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC), Type: domain.ClassGroup, MaxStudents: 4, PricePerStudent: dec("1200"), Repeating: domain.RepeatWeekly, Students: []string{"s1"}},
			created: 5,
		},
		{
			name:    "individual forces capacity",
			class:   domain.Class{Date: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC), Type: domain.ClassIndividual, MaxStudents: 4, Students: []string{"s1"}},
			created: 1,
		},
		{
			name:     "over capacity",
			class:    domain.Class{Date: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC), Type: domain.ClassIndividual, Students: []string{"s1", "s2"}},
			expected: ErrClassFull,
		},
		{
			name:     "unknown student",
			class:    domain.Class{Date: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC), Type: domain.ClassGroup, MaxStudents: 2, Students: []string{"zz"}},
			expected: ErrNotFound,
		},
		{
			name:     "negative price",
			class:    domain.Class{Date: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC), Type: domain.ClassGroup, MaxStudents: 2, PricePerStudent: dec("-1")},
			expected: validate.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seed()
			next, eff, err := newTestReducer().Reduce(s, AddClass{Class: tt.class})
			if !errors.Is(err, tt.expected) {
				t.Fatalf("Reduce() error = %v, expected %v", err, tt.expected)
			}
			if err != nil {
				return
			}
			if len(eff.Classes) != tt.created || len(next.Classes) != len(s.Classes)+tt.created {
				t.Errorf("created %d classes, expected %d", len(eff.Classes), tt.created)
			}
			if eff.Classes[0].MaxStudents < 1 || eff.Classes[0].Status != domain.ClassScheduled {
				t.Errorf("class = %+v", eff.Classes[0])
			}
			if len(next.Transactions) != len(s.Transactions) {
				t.Error("adding a class created charges")
			}
		})
	}
}

func TestReduceUpdateClass(t *testing.T) {
	s, _, err := newTestReducer().Reduce(seed(), RecordAttendance{
		ClassID: "c1",
		Marks:   []attendance.Mark{{StudentID: "s2", Status: domain.AttendancePresent}},
	})
	if err != nil {
		t.Fatalf("record error = %v", err)
	}

	cl, _ := s.Class("c1")
	cl.Students = []string{"s1"}
	if _, _, err := newTestReducer().Reduce(s, UpdateClass{Class: cl}); !errors.Is(err, ErrAttendanceRecorded) {
		t.Errorf("drop attended student error = %v, expected %v", err, ErrAttendanceRecorded)
	}

	cl, _ = s.Class("c1")
	cl.Observations = "Avanzados"
	cl.PricePerStudent = dec("2000")
	next, _, err := newTestReducer().Reduce(s, UpdateClass{Class: cl})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	updated, _ := next.Class("c1")
	if updated.DisplayName() != "Avanzados" || updated.Status != domain.ClassCompleted || !updated.Attendances["s2"] {
		t.Errorf("updated = %+v", updated)
	}
	if !billing.PendingTotal(next.Transactions, "s2").Equal(dec("1500")) {
		t.Error("update regenerated charges")
	}

	if _, _, err := newTestReducer().Reduce(next, DeleteClass{ID: "c1"}); !errors.Is(err, ErrClassReferenced) {
		t.Errorf("delete error = %v, expected %v", err, ErrClassReferenced)
	}
}

func TestReduceEnrollStudent(t *testing.T) {
	s := seed()
	s.Students = append(s.Students, domain.Student{ID: "s3", Name: "Caro", Condition: domain.ConditionTitular})

	tests := []struct {
		name     string
		cmd      EnrollStudent
		expected error
	}{
		{"full", EnrollStudent{ClassID: "c1", StudentID: "s3"}, ErrClassFull},
		{"already", EnrollStudent{ClassID: "c1", StudentID: "s1"}, ErrAlreadyEnrolled},
		{"no class", EnrollStudent{ClassID: "c9", StudentID: "s3"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := newTestReducer().Reduce(s, tt.cmd); !errors.Is(err, tt.expected) {
				t.Errorf("Reduce() error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestReduceIssueInvoice(t *testing.T) {
	r := newTestReducer()
	s, eff, err := r.Reduce(seed(), SettleCharges{StudentID: "s1", TransactionIDs: []string{"t1", "t2"}, Method: domain.MethodTransfer})
	if err != nil {
		t.Fatalf("settle error = %v", err)
	}
	receiptID := eff.Receipt.ID

	next, eff, err := r.Reduce(s, IssueInvoice{ReceiptID: receiptID})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	inv := eff.Invoice
	if inv.Number != "F-000001" || inv.Status != domain.InvoicePaid || !inv.Total.Equal(dec("2500")) || len(inv.Items) != 2 {
		t.Errorf("invoice = %+v", inv)
	}
	if inv.PaymentMethod != domain.MethodTransfer || inv.PaidAt == nil {
		t.Errorf("invoice payment = %s, %v", inv.PaymentMethod, inv.PaidAt)
	}
	if tx, _ := next.Transaction("t1"); tx.InvoiceID != inv.ID {
		t.Errorf("t1 invoice id = %q", tx.InvoiceID)
	}
	if next.Payments[0].InvoiceID != inv.ID {
		t.Errorf("payment invoice id = %q", next.Payments[0].InvoiceID)
	}

	if _, _, err := r.Reduce(next, IssueInvoice{ReceiptID: receiptID}); !errors.Is(err, ErrAlreadyInvoiced) {
		t.Errorf("second invoice error = %v", err)
	}

	after, _, err := r.Reduce(next, DeleteReceipt{ID: receiptID})
	if err != nil {
		t.Fatalf("delete receipt error = %v", err)
	}
	if len(after.Receipts) != 0 {
		t.Error("receipt not deleted")
	}
	if tx, _ := after.Transaction("t1"); tx.Status != domain.StatusPaid {
		t.Error("deleting a receipt reopened its charges")
	}
}

func TestReduceRestoreNormalizes(t *testing.T) {
	next, eff, err := newTestReducer().Reduce(seed(), Restore{
		Students: []domain.Student{{ID: "x", Name: "Legacy", AccountHistory: []domain.AccountEntry{{Amount: dec("-100")}}}},
		Transactions: []domain.Transaction{
			{ID: "z", Amount: decimal.Zero, Status: domain.StatusPending},
			{ID: "k", Amount: dec("10"), Status: domain.StatusPending},
		},
	})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if len(next.Transactions) != 1 || next.Transactions[0].ID != "k" {
		t.Errorf("transactions = %+v", next.Transactions)
	}
	if next.Students[0].AccountHistory[0].Kind != domain.EntryDiscount {
		t.Errorf("legacy entry kind = %q", next.Students[0].AccountHistory[0].Kind)
	}
	if next.Classes == nil || next.Receipts == nil {
		t.Error("nil collections after restore")
	}
	if len(eff.Touched) != 4 {
		t.Errorf("touched = %v", eff.Touched)
	}
}

func TestStudentAccount(t *testing.T) {
	s, _, err := newTestReducer().Reduce(seed(), RecordAttendance{
		ClassID: "c1",
		Marks: []attendance.Mark{
			{StudentID: "s1", Status: domain.AttendancePresent},
			{StudentID: "s2", Status: domain.AttendanceAbsent},
		},
	})
	if err != nil {
		t.Fatalf("record error = %v", err)
	}

	acc, err := s.StudentAccount("s1", "")
	if err != nil {
		t.Fatalf("StudentAccount() error = %v", err)
	}
	if acc.Present != 1 || len(acc.Lines) != 1 || acc.Lines[0].PaymentStatus != "Pendiente" {
		t.Errorf("account = %+v", acc)
	}
	if !acc.TotalPending.Equal(dec("6000")) {
		t.Errorf("pending = %s, expected 6000", acc.TotalPending)
	}

	beto, _ := s.StudentAccount("s2", domain.AttendancePresent)
	if beto.Absent != 1 || len(beto.Lines) != 0 {
		t.Errorf("filtered account = %+v", beto)
	}

	debtors := s.Debtors()
	if len(debtors) != 1 || debtors[0].Student.ID != "s1" || debtors[0].Charges != 4 {
		t.Errorf("debtors = %+v", debtors)
	}
}

package app

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// PaymentStatusNone is shown for ledger entries without a charge.
const PaymentStatusNone = "N/A"

// AccountLine is a ledger entry with the payment status of its class.
type AccountLine struct {
	Entry         domain.AccountEntry `json:"entry"`
	PaymentStatus string              `json:"paymentStatus"`
}

// Account is the statement of one student.
type Account struct {
	Student      domain.Student  `json:"student"`
	Lines        []AccountLine   `json:"lines"`
	Present      int             `json:"present"`
	Absent       int             `json:"absent"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	TotalPending decimal.Decimal `json:"totalPending"`
}

// StudentAccount builds the statement of a student. A non-empty filter
// keeps only entries with that attendance status.
func (s State) StudentAccount(studentID string, filter domain.AttendanceStatus) (Account, error) {
	st, ok := s.Student(studentID)
	if !ok {
		return Account{}, fmt.Errorf("%w: student %s", ErrNotFound, studentID)
	}

	txns := s.StudentTransactions(studentID)
	acc := Account{
		Student:      st,
		TotalAmount:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}

	for _, t := range txns {
		switch t.Status {
		case domain.StatusPaid:
			acc.TotalPaid = acc.TotalPaid.Add(t.Amount)
		case domain.StatusPending:
			acc.TotalPending = acc.TotalPending.Add(t.Amount)
		}
	}

	for _, e := range st.AccountHistory {
		switch e.AttendanceStatus {
		case domain.AttendancePresent:
			acc.Present++
		case domain.AttendanceAbsent:
			acc.Absent++
		}
		acc.TotalAmount = acc.TotalAmount.Add(e.Amount)

		if filter != "" && e.AttendanceStatus != filter {
			continue
		}
		acc.Lines = append(acc.Lines, AccountLine{Entry: e, PaymentStatus: paymentStatus(txns, e)})
	}

	return acc, nil
}

// A class with any pending charge left is still pending, even after a
// partial payment closed the original charge.
func paymentStatus(txns []domain.Transaction, e domain.AccountEntry) string {
	if e.ClassID == "" {
		return PaymentStatusNone
	}
	var found bool
	for _, t := range txns {
		if t.ClassID != e.ClassID {
			continue
		}
		if t.Status == domain.StatusPending {
			return string(domain.StatusPending)
		}
		found = true
	}
	if !found {
		return PaymentStatusNone
	}
	return string(domain.StatusPaid)
}

// Debtor is a student with pending charges.
type Debtor struct {
	Student domain.Student  `json:"student"`
	Pending decimal.Decimal `json:"pending"`
	Charges int             `json:"charges"`
}

// Debtors lists students with pending charges, largest balance first.
func (s State) Debtors() []Debtor {
	var out []Debtor
	for _, st := range s.Students {
		var d Debtor
		d.Pending = decimal.Zero
		for _, t := range s.Transactions {
			if t.StudentID == st.ID && t.IsPendingCharge() {
				d.Pending = d.Pending.Add(t.Amount)
				d.Charges++
			}
		}
		if d.Charges > 0 {
			d.Student = st
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b Debtor) int { return b.Pending.Cmp(a.Pending) })
	return out
}

package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Condition is the membership condition of a student.
type Condition string

const (
	ConditionTitular  Condition = "Titular"
	ConditionFamiliar Condition = "Familiar"
)

// AttendanceStatus is the outcome recorded for a student in a class.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Presente"
	AttendanceAbsent  AttendanceStatus = "Ausente"
)

// EntryKind tags a ledger entry.
type EntryKind string

const (
	EntryClassAttendance EntryKind = "class-attendance"
	EntryDiscount        EntryKind = "discount"
)

// AccountEntry is one line of a student's ledger.
type AccountEntry struct {
	ID               string           `json:"id"`
	Kind             EntryKind        `json:"kind"`
	Date             time.Time        `json:"date"`
	ClassID          string           `json:"classId,omitempty"`
	ClassName        string           `json:"className"`
	AttendanceStatus AttendanceStatus `json:"attendanceStatus,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	ReceiptID        string           `json:"receiptId,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Student is a registered client of the club.
type Student struct {
	ID             string          `json:"id"`
	Name           string          `json:"name" validate:"required,max=120"`
	DNI            string          `json:"dni" validate:"omitempty,max=20"`
	Phone          string          `json:"phone" validate:"omitempty,max=40"`
	Lot            string          `json:"lot"`
	Neighborhood   string          `json:"neighborhood"`
	Condition      Condition       `json:"condition" validate:"required,condition"`
	Observations   string          `json:"observations"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	AccountHistory []AccountEntry  `json:"accountHistory"`
}

// AppendEntry appends e to the ledger and applies its amount to the
// balance. Discounts never take the balance below zero. The entry's
// CreatedAt is moved forward if it would precede the previous entry.
func (s *Student) AppendEntry(e AccountEntry) {
	if n := len(s.AccountHistory); n > 0 {
		if last := s.AccountHistory[n-1].CreatedAt; e.CreatedAt.Before(last) {
			e.CreatedAt = last
		}
	}
	s.AccountHistory = append(slices.Clip(s.AccountHistory), e)

	s.CurrentBalance = Round(s.CurrentBalance.Add(e.Amount))
	if e.Kind == EntryDiscount && s.CurrentBalance.IsNegative() {
		s.CurrentBalance = decimal.Zero
	}
}

// ClassifyEntries fills in the kind of ledger entries written before
// entries were tagged.
func (s *Student) ClassifyEntries() {
	for i := range s.AccountHistory {
		e := &s.AccountHistory[i]
		if e.Kind != "" {
			continue
		}
		if e.AttendanceStatus == "" && e.Amount.IsNegative() {
			e.Kind = EntryDiscount
		} else {
			e.Kind = EntryClassAttendance
		}
	}
}

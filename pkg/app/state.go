// Package app holds the application state and the commands that change it.
package app

import (
	"errors"
	"slices"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

var (
	// ErrNotFound is returned when a command targets a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when creating an entity whose id exists.
	ErrDuplicateID = errors.New("id already exists")

	// ErrStudentReferenced is returned when deleting a student that still
	// has transactions, receipts or payments.
	ErrStudentReferenced = errors.New("student has billing records")

	// ErrClassReferenced is returned when deleting a class with recorded
	// attendance or charges.
	ErrClassReferenced = errors.New("class has attendance or charges")

	// ErrClassFull is returned when a roster would exceed the capacity.
	ErrClassFull = errors.New("class is full")

	// ErrAlreadyEnrolled is returned when enrolling a student twice.
	ErrAlreadyEnrolled = errors.New("student already enrolled")

	// ErrAttendanceRecorded is returned when an update would drop a student
	// whose attendance is recorded.
	ErrAttendanceRecorded = errors.New("attendance already recorded for student")

	// ErrClassCancelled is returned when recording attendance or enrolling
	// into a cancelled class.
	ErrClassCancelled = errors.New("class is cancelled")

	// ErrAlreadyInvoiced is returned when a receipt already has an invoice.
	ErrAlreadyInvoiced = errors.New("receipt already invoiced")

	// ErrUnknownCommand is returned by Reduce for a command it does not
	// handle.
	ErrUnknownCommand = errors.New("unknown command")
)

// State is the whole data set of the club.
type State struct {
	Students     []domain.Student     `json:"students"`
	Classes      []domain.Class       `json:"classes"`
	Transactions []domain.Transaction `json:"transactions"`
	Receipts     []domain.Receipt     `json:"receipts"`
	Payments     []domain.Payment     `json:"payments"`
	Invoices     []domain.Invoice     `json:"invoices"`
	CurrentUser  domain.User          `json:"currentUser"`
}

// NewState returns an empty state with the default user.
func NewState() State {
	return State{CurrentUser: domain.DefaultUser()}.Normalize()
}

// Normalize drops zero-amount transactions, classifies legacy ledger
// entries and replaces nil collections with empty ones.
func (s State) Normalize() State {
	s.Students = slices.Clone(s.Students)
	for i := range s.Students {
		st := &s.Students[i]
		st.AccountHistory = slices.Clone(st.AccountHistory)
		st.ClassifyEntries()
		if st.AccountHistory == nil {
			st.AccountHistory = []domain.AccountEntry{}
		}
	}

	s.Transactions = slices.DeleteFunc(slices.Clone(s.Transactions), func(t domain.Transaction) bool {
		return t.Amount.IsZero()
	})

	s.Classes = slices.Clone(s.Classes)
	for i := range s.Classes {
		if s.Classes[i].Attendances == nil {
			s.Classes[i].Attendances = map[string]bool{}
		}
	}

	s.Students = orEmpty(s.Students)
	s.Classes = orEmpty(s.Classes)
	s.Transactions = orEmpty(s.Transactions)
	s.Receipts = orEmpty(s.Receipts)
	s.Payments = orEmpty(s.Payments)
	s.Invoices = orEmpty(s.Invoices)
	if s.CurrentUser.ID == "" {
		s.CurrentUser = domain.DefaultUser()
	}
	return s
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Value returns the collection stored under a store key.
func (s State) Value(key string) any {
	switch key {
	case store.KeyStudents:
		return s.Students
	case store.KeyClasses:
		return s.Classes
	case store.KeyTransactions:
		return s.Transactions
	case store.KeyReceipts:
		return s.Receipts
	case store.KeyPayments:
		return s.Payments
	case store.KeyInvoices:
		return s.Invoices
	case store.KeyCurrentUser:
		return s.CurrentUser
	}
	return nil
}

// target returns the pointer Load decodes a store key into.
func (s *State) target(key string) any {
	switch key {
	case store.KeyStudents:
		return &s.Students
	case store.KeyClasses:
		return &s.Classes
	case store.KeyTransactions:
		return &s.Transactions
	case store.KeyReceipts:
		return &s.Receipts
	case store.KeyPayments:
		return &s.Payments
	case store.KeyInvoices:
		return &s.Invoices
	case store.KeyCurrentUser:
		return &s.CurrentUser
	}
	return nil
}

// Student looks up a student by id.
func (s State) Student(id string) (domain.Student, bool) {
	i := slices.IndexFunc(s.Students, func(st domain.Student) bool { return st.ID == id })
	if i < 0 {
		return domain.Student{}, false
	}
	return s.Students[i], true
}

// Class looks up a class by id.
func (s State) Class(id string) (domain.Class, bool) {
	i := slices.IndexFunc(s.Classes, func(c domain.Class) bool { return c.ID == id })
	if i < 0 {
		return domain.Class{}, false
	}
	return s.Classes[i], true
}

// Receipt looks up a receipt by id.
func (s State) Receipt(id string) (domain.Receipt, bool) {
	i := slices.IndexFunc(s.Receipts, func(r domain.Receipt) bool { return r.ID == id })
	if i < 0 {
		return domain.Receipt{}, false
	}
	return s.Receipts[i], true
}

// Transaction looks up a transaction by id.
func (s State) Transaction(id string) (domain.Transaction, bool) {
	i := slices.IndexFunc(s.Transactions, func(t domain.Transaction) bool { return t.ID == id })
	if i < 0 {
		return domain.Transaction{}, false
	}
	return s.Transactions[i], true
}

// StudentTransactions returns the transactions of a student in stored
// order.
func (s State) StudentTransactions(studentID string) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range s.Transactions {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	return out
}

// StudentReceipts returns the receipts of a student, newest first.
func (s State) StudentReceipts(studentID string) []domain.Receipt {
	var out []domain.Receipt
	for _, r := range s.Receipts {
		if studentID == "" || r.StudentID == studentID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Receipt) int { return b.Date.Compare(a.Date) })
	return out
}

// replaceByID returns a copy of items with the elements of updates
// swapped in by id.
func replaceByID[T any](items []T, id func(T) string, updates ...T) []T {
	out := slices.Clone(items)
	for _, u := range updates {
		uid := id(u)
		for i := range out {
			if id(out[i]) == uid {
				out[i] = u
				break
			}
		}
	}
	return out
}

func studentID(s domain.Student) string         { return s.ID }
func classID(c domain.Class) string             { return c.ID }
func transactionID(t domain.Transaction) string { return t.ID }
func paymentID(p domain.Payment) string         { return p.ID }

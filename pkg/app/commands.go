package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// Command is a request to change the state. The set of commands is closed:
// only the types in this file implement it.
type Command interface {
	// Name identifies the command in logs and the activity log.
	Name() string
	command()
}

// AddStudent registers a student. ID is generated when empty.
type AddStudent struct {
	Student domain.Student
}

// UpdateStudent replaces the profile fields of a student. Balance and
// history are kept.
type UpdateStudent struct {
	Student domain.Student
}

// DeleteStudent removes a student without billing records.
type DeleteStudent struct {
	ID string
}

// AddClass schedules a class and its weekly or monthly siblings.
type AddClass struct {
	Class domain.Class
}

// UpdateClass edits a class. Existing charges are not regenerated.
type UpdateClass struct {
	Class domain.Class
}

// DeleteClass removes a class without attendance or charges.
type DeleteClass struct {
	ID string
}

// EnrollStudent adds a student to a class roster.
type EnrollStudent struct {
	ClassID   string
	StudentID string
}

// RecordAttendance records attendance for students of a class.
type RecordAttendance struct {
	ClassID string
	Marks   []attendance.Mark
}

// ApplyDiscount discounts and closes all pending charges of a student.
type ApplyDiscount struct {
	StudentID string
	Discount  billing.Discount
	Method    domain.PaymentMethod
}

// SettleCharges settles a selection of pending charges with an optional
// discount and an optional partial payment.
type SettleCharges struct {
	StudentID      string
	TransactionIDs []string
	Discount       *billing.Discount
	PaymentNow     *decimal.Decimal
	Method         domain.PaymentMethod
	Note           string
}

// LineInput adjusts one charge in SettleLines.
type LineInput struct {
	TransactionID string           `json:"transactionId"`
	CustomAmount  *decimal.Decimal `json:"customAmount,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
}

// SettleLines settles charges one by one with per-line amounts.
type SettleLines struct {
	StudentID string
	Lines     []LineInput
	Method    domain.PaymentMethod
}

// DeleteReceipt removes a receipt. The charges it closed stay closed.
type DeleteReceipt struct {
	ID string
}

// IssueInvoice creates an invoice for the money collected by a receipt.
type IssueInvoice struct {
	ReceiptID string
}

// ReplicateMonth copies the previous month's schedule into a month.
type ReplicateMonth struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// SetUser sets the current user.
type SetUser struct {
	User domain.User
}

// Restore replaces students, classes, transactions and receipts, as when
// importing a backup.
type Restore struct {
	Students     []domain.Student
	Classes      []domain.Class
	Transactions []domain.Transaction
	Receipts     []domain.Receipt
}

func (AddStudent) Name() string       { return "add-student" }
func (UpdateStudent) Name() string    { return "update-student" }
func (DeleteStudent) Name() string    { return "delete-student" }
func (AddClass) Name() string         { return "add-class" }
func (UpdateClass) Name() string      { return "update-class" }
func (DeleteClass) Name() string      { return "delete-class" }
func (EnrollStudent) Name() string    { return "enroll-student" }
func (RecordAttendance) Name() string { return "record-attendance" }
func (ApplyDiscount) Name() string    { return "apply-discount" }
func (SettleCharges) Name() string    { return "settle-charges" }
func (SettleLines) Name() string      { return "settle-lines" }
func (DeleteReceipt) Name() string    { return "delete-receipt" }
func (IssueInvoice) Name() string     { return "issue-invoice" }
func (ReplicateMonth) Name() string   { return "replicate-month" }
func (SetUser) Name() string          { return "set-user" }
func (Restore) Name() string          { return "restore" }

func (AddStudent) command()       {}
func (UpdateStudent) command()    {}
func (DeleteStudent) command()    {}
func (AddClass) command()         {}
func (UpdateClass) command()      {}
func (DeleteClass) command()      {}
func (EnrollStudent) command()    {}
func (RecordAttendance) command() {}
func (ApplyDiscount) command()    {}
func (SettleCharges) command()    {}
func (SettleLines) command()      {}
func (DeleteReceipt) command()    {}
func (IssueInvoice) command()     {}
func (ReplicateMonth) command()   {}
func (SetUser) command()          {}
func (Restore) command()          {}

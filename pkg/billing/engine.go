package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var (
	// ErrNothingSelected is returned when a settlement includes no charges.
	ErrNothingSelected = errors.New("no charges selected")

	// ErrNothingPending is returned when a discount targets a student
	// without pending charges.
	ErrNothingPending = errors.New("student has no pending charges")

	// ErrNoAdjustment is returned when a settlement would neither discount
	// nor collect anything.
	ErrNoAdjustment = errors.New("nothing to discount or collect")

	// ErrNotPending is returned when a selected transaction is not an open
	// charge of the student being settled.
	ErrNotPending = errors.New("transaction is not a pending charge of the student")

	// ErrDuplicateSelection is returned when a settlement selects the same
	// charge more than once.
	ErrDuplicateSelection = errors.New("charge selected more than once")

	// ErrInvalidMode is returned for an unknown discount mode.
	ErrInvalidMode = errors.New("invalid discount mode")
)

const (
	remainderSuffix   = "(saldo restante)"
	discountEntryName = "Descuento"
)

// Engine builds settlements. It has no state besides its clock and id
// source, so one Engine can be shared.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs sets the identifier source.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an Engine using the wall clock and random ids unless
// overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, newID: domain.NewID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settlement is everything a reconciliation produces. Closed holds the
// selected charges with their new status; the caller replaces the
// originals with them and appends Remainders.
type Settlement struct {
	Student    domain.Student
	Closed     []domain.Transaction
	Remainders []domain.Transaction
	Receipt    domain.Receipt
	Payment    *domain.Payment
	Entry      *domain.AccountEntry
}

// PendingCharges returns the open charges of a student in chronological
// order.
func PendingCharges(txns []domain.Transaction, studentID string) []domain.Transaction {
	var pending []domain.Transaction
	for _, t := range txns {
		if t.StudentID == studentID && t.IsPendingCharge() {
			pending = append(pending, t)
		}
	}
	sortChronological(pending)
	return pending
}

// PendingTotal sums the open charges of a student.
func PendingTotal(txns []domain.Transaction, studentID string) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.StudentID == studentID && t.IsPendingCharge() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CanApplyDiscount reports whether a discount on the given pending total
// would change anything.
func CanApplyDiscount(pendingTotal decimal.Decimal, d Discount) bool {
	return d.Validate() == nil && d.Resolve(pendingTotal).IsPositive()
}

func (e *Engine) receiptFor(student domain.Student, charges []domain.Transaction, now time.Time) domain.Receipt {
	lines := make([]domain.ReceiptLine, 0, len(charges))
	total := decimal.Zero
	for _, c := range charges {
		lines = append(lines, domain.ReceiptLine{
			TransactionID: c.ID,
			ClassName:     c.ClassName,
			Date:          c.Date,
			Amount:        c.Amount,
		})
		total = total.Add(c.Amount)
	}

	name := student.Name
	if name == "" && len(charges) > 0 {
		name = charges[0].StudentName
	}

	return domain.Receipt{
		ID:           e.newID(),
		StudentID:    student.ID,
		StudentName:  name,
		Date:         now,
		Transactions: lines,
		TotalAmount:  total,
	}
}

func (e *Engine) remainderOf(c domain.Transaction, amount decimal.Decimal) domain.Transaction {
	desc := c.Description
	if desc == "" {
		desc = c.ClassName
	}
	return domain.Transaction{
		ID:          e.newID(),
		StudentID:   c.StudentID,
		StudentName: c.StudentName,
		ClassID:     c.ClassID,
		ClassName:   c.ClassName,
		Type:        domain.TypeCharge,
		Amount:      amount,
		Date:        c.Date,
		Description: desc + " " + remainderSuffix,
		Status:      domain.StatusPending,
	}
}

func (e *Engine) paymentFor(r domain.Receipt, method domain.PaymentMethod, closed []domain.Transaction) *domain.Payment {
	paid := r.PaidAmount()
	if !paid.IsPositive() {
		return nil
	}
	if !method.Valid() {
		method = domain.MethodCash
	}

	ids := make([]string, 0, len(closed))
	for _, c := range closed {
		ids = append(ids, c.ID)
	}
	return &domain.Payment{
		ID:             e.newID(),
		StudentID:      r.StudentID,
		ReceiptID:      r.ID,
		Amount:         paid,
		Method:         method,
		Date:           r.Date,
		Description:    "Pago recibo " + r.ID,
		TransactionIDs: ids,
	}
}

func (e *Engine) discountEntry(r domain.Receipt) *domain.AccountEntry {
	if !r.DiscountAmount.IsPositive() {
		return nil
	}
	return &domain.AccountEntry{
		ID:        e.newID(),
		Kind:      domain.EntryDiscount,
		Date:      r.Date,
		ClassName: discountEntryName,
		Amount:    r.DiscountAmount.Neg(),
		ReceiptID: r.ID,
		CreatedAt: r.Date,
	}
}

func closeCharge(c domain.Transaction, receiptID string, kind domain.SettlementKind) domain.Transaction {
	c.Status = domain.StatusPaid
	c.ReceiptID = receiptID
	c.SettlementKind = kind
	return c
}

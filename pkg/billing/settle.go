package billing

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// Request describes the settlement of a selection of pending charges.
// PaymentNow defaults to the subtotal minus the discount.
type Request struct {
	Student    domain.Student
	Charges    []domain.Transaction
	Discount   *Discount
	PaymentNow *decimal.Decimal
	Method     domain.PaymentMethod
	Note       string
}

// Allocation is how one charge was covered.
type Allocation struct {
	Charge    domain.Transaction
	Discount  decimal.Decimal
	Paid      decimal.Decimal
	Remainder decimal.Decimal
}

// Quote is the arithmetic of a settlement before anything is committed.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	ToPay    decimal.Decimal
	Carried  decimal.Decimal
	Lines    []Allocation
}

// Actionable reports whether committing q would discount or collect
// anything.
func (q Quote) Actionable() bool {
	return q.Discount.IsPositive() || q.ToPay.IsPositive()
}

// QuoteSettlement allocates the discount and then the payment across the
// charges, oldest first.
func QuoteSettlement(charges []domain.Transaction, d *Discount, paymentNow *decimal.Decimal) (Quote, error) {
	if len(charges) == 0 {
		return Quote{}, ErrNothingSelected
	}
	if d != nil {
		if err := d.Validate(); err != nil {
			return Quote{}, err
		}
	}

	ordered := slices.Clone(charges)
	sortChronological(ordered)

	q := Quote{Subtotal: decimal.Zero, Carried: decimal.Zero}
	for _, c := range ordered {
		q.Subtotal = q.Subtotal.Add(c.Amount)
	}

	q.Discount = resolve(d, q.Subtotal)
	maxPay := q.Subtotal.Sub(q.Discount)
	q.ToPay = maxPay
	if paymentNow != nil {
		q.ToPay = domain.Clamp(domain.Round(*paymentNow), decimal.Zero, maxPay)
	}

	remainingDiscount, remainingPayment := q.Discount, q.ToPay
	for _, c := range ordered {
		share := decimal.Min(c.Amount, remainingDiscount)
		remainingDiscount = remainingDiscount.Sub(share)

		afterDiscount := c.Amount.Sub(share)
		pay := decimal.Min(afterDiscount, remainingPayment)
		remainingPayment = remainingPayment.Sub(pay)

		remainder := afterDiscount.Sub(pay)
		q.Carried = q.Carried.Add(remainder)
		q.Lines = append(q.Lines, Allocation{Charge: c, Discount: share, Paid: pay, Remainder: remainder})
	}

	return q, nil
}

// Settle closes the selected charges of req.Student. The discount applies
// to the selection's subtotal; whatever the payment does not cover becomes
// new pending charges.
func (e *Engine) Settle(req Request) (Settlement, error) {
	if len(req.Charges) == 0 {
		return Settlement{}, ErrNothingSelected
	}
	if err := checkPending(req.Student, req.Charges); err != nil {
		return Settlement{}, err
	}

	q, err := QuoteSettlement(req.Charges, req.Discount, req.PaymentNow)
	if err != nil {
		return Settlement{}, err
	}
	if !q.Actionable() {
		return Settlement{}, ErrNoAdjustment
	}

	return e.commit(req.Student, q, req.Method, req.Note), nil
}

// ApplyDiscount discounts the whole pending balance of a student found in
// txns and closes every pending charge.
func (e *Engine) ApplyDiscount(student domain.Student, txns []domain.Transaction, d Discount, method domain.PaymentMethod) (Settlement, error) {
	if err := d.Validate(); err != nil {
		return Settlement{}, err
	}

	pending := PendingCharges(txns, student.ID)
	if len(pending) == 0 {
		return Settlement{}, ErrNothingPending
	}
	if !CanApplyDiscount(PendingTotal(pending, student.ID), d) {
		return Settlement{}, ErrNoAdjustment
	}

	q, err := QuoteSettlement(pending, &d, nil)
	if err != nil {
		return Settlement{}, err
	}
	return e.commit(student, q, method, ""), nil
}

// Line adjusts a single charge. CustomAmount replaces the amount charged
// now; otherwise Discount is subtracted from it. The difference stays
// pending as a new charge.
type Line struct {
	Charge       domain.Transaction
	CustomAmount *decimal.Decimal
	Discount     *decimal.Decimal
}

// SettleLines closes each charge for its own final amount.
func (e *Engine) SettleLines(student domain.Student, lines []Line, method domain.PaymentMethod) (Settlement, error) {
	if len(lines) == 0 {
		return Settlement{}, ErrNothingSelected
	}

	charges := make([]domain.Transaction, 0, len(lines))
	for _, l := range lines {
		charges = append(charges, l.Charge)
	}
	if err := checkPending(student, charges); err != nil {
		return Settlement{}, err
	}

	ordered := slices.Clone(lines)
	slices.SortStableFunc(ordered, func(a, b Line) int {
		return a.Charge.Date.Compare(b.Charge.Date)
	})

	q := Quote{Subtotal: decimal.Zero, Discount: decimal.Zero, ToPay: decimal.Zero, Carried: decimal.Zero}
	for _, l := range ordered {
		amount := l.Charge.Amount
		final := amount
		switch {
		case l.CustomAmount != nil:
			final = *l.CustomAmount
		case l.Discount != nil:
			final = amount.Sub(*l.Discount)
		}
		final = domain.Clamp(domain.Round(final), decimal.Zero, amount)
		remainder := amount.Sub(final)

		q.Subtotal = q.Subtotal.Add(amount)
		q.ToPay = q.ToPay.Add(final)
		q.Carried = q.Carried.Add(remainder)
		q.Lines = append(q.Lines, Allocation{Charge: l.Charge, Discount: decimal.Zero, Paid: final, Remainder: remainder})
	}

	if !q.Actionable() {
		return Settlement{}, ErrNoAdjustment
	}
	return e.commit(student, q, method, ""), nil
}

func (e *Engine) commit(student domain.Student, q Quote, method domain.PaymentMethod, note string) Settlement {
	charges := make([]domain.Transaction, 0, len(q.Lines))
	for _, a := range q.Lines {
		charges = append(charges, a.Charge)
	}

	receipt := e.receiptFor(student, charges, e.now())
	receipt.DiscountAmount = q.Discount
	receipt.CarriedAmount = q.Carried
	receipt.Note = note
	if receipt.PaidAmount().IsPositive() {
		if !method.Valid() {
			method = domain.MethodCash
		}
		receipt.PaymentMethod = method
	}

	s := Settlement{Student: student, Receipt: receipt}
	for _, a := range q.Lines {
		kind := domain.SettledFull
		switch {
		case a.Remainder.IsPositive():
			kind = domain.SettledPartial
		case a.Discount.IsPositive() && a.Paid.IsZero():
			kind = domain.SettledDiscount
		}
		s.Closed = append(s.Closed, closeCharge(a.Charge, receipt.ID, kind))

		if a.Remainder.IsPositive() {
			s.Remainders = append(s.Remainders, e.remainderOf(a.Charge, a.Remainder))
		}
	}

	if entry := e.discountEntry(receipt); entry != nil {
		s.Student.AppendEntry(*entry)
		s.Entry = entry
	}
	s.Payment = e.paymentFor(receipt, method, s.Closed)

	return s
}

func checkPending(student domain.Student, charges []domain.Transaction) error {
	seen := make(map[string]bool, len(charges))
	for _, c := range charges {
		if c.StudentID != student.ID || !c.IsPendingCharge() {
			return fmt.Errorf("%w: %s", ErrNotPending, c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSelection, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func sortChronological(txns []domain.Transaction) {
	slices.SortStableFunc(txns, func(a, b domain.Transaction) int {
		return a.Date.Compare(b.Date)
	})
}

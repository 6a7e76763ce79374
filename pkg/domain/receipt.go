package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine is a charge included in a receipt, at its original amount.
type ReceiptLine struct {
	TransactionID string          `json:"id"`
	ClassName     string          `json:"className"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
}

// Receipt is the snapshot emitted by a reconciliation. TotalAmount,
// DiscountAmount and CarriedAmount are stored; the paid amount is always
// derived from them.
type Receipt struct {
	ID             string          `json:"id"`
	StudentID      string          `json:"studentId"`
	StudentName    string          `json:"studentName"`
	Date           time.Time       `json:"date"`
	Transactions   []ReceiptLine   `json:"transactions"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	CarriedAmount  decimal.Decimal `json:"carriedAmount"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// PaidAmount is the money collected: total minus discount minus the
// balance carried into remainder charges.
func (r Receipt) PaidAmount() decimal.Decimal {
	return r.TotalAmount.Sub(r.DiscountAmount).Sub(r.CarriedAmount)
}

type receiptFields Receipt

// MarshalJSON writes the derived paidAmount next to the stored fields.
func (r Receipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		receiptFields
		PaidAmount decimal.Decimal `json:"paidAmount"`
	}{receiptFields(r), r.PaidAmount()})
}

// UnmarshalJSON reads a receipt. Records that only carry paidAmount get
// their carried amount derived from it.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var raw struct {
		receiptFields
		PaidAmount    *decimal.Decimal `json:"paidAmount"`
		CarriedAmount *decimal.Decimal `json:"carriedAmount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Receipt(raw.receiptFields)
	switch {
	case raw.CarriedAmount != nil:
		r.CarriedAmount = *raw.CarriedAmount
	case raw.PaidAmount != nil:
		carried := r.TotalAmount.Sub(r.DiscountAmount).Sub(*raw.PaidAmount)
		r.CarriedAmount = Clamp(carried, decimal.Zero, r.TotalAmount)
	default:
		r.CarriedAmount = decimal.Zero
	}
	return nil
}

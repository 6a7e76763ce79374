// Package billing settles a student's pending charges: discounts, partial
// payments and remainder charges, producing a receipt for each settlement.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// Mode selects how a discount value is interpreted.
type Mode string

const (
	ModeAmount  Mode = "amount"
	ModePercent Mode = "percent"
)

var hundred = decimal.NewFromInt(100)

// Discount is a flat amount or a percentage of the amount it applies to.
type Discount struct {
	Mode  Mode            `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// Amount returns a flat discount.
func Amount(d decimal.Decimal) *Discount {
	return &Discount{Mode: ModeAmount, Value: d}
}

// Percent returns a percentage discount.
func Percent(p decimal.Decimal) *Discount {
	return &Discount{Mode: ModePercent, Value: p}
}

// Validate checks the mode.
func (d Discount) Validate() error {
	switch d.Mode {
	case ModeAmount, ModePercent:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMode, d.Mode)
}

// Resolve converts the discount into an amount of base, clamped to
// [0, base] and rounded to cents.
func (d Discount) Resolve(base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}

	value := d.Value
	if d.Mode == ModePercent {
		value = base.Mul(d.Value).Div(hundred)
	}
	return domain.Clamp(domain.Round(value), decimal.Zero, base)
}

func resolve(d *Discount, base decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return d.Resolve(base)
}

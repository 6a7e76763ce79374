// Package domain defines the entities of the club: students, classes,
// transactions, receipts and the per-student ledger.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are written as JSON numbers so backups stay compatible with
	// files produced by the web application.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round rounds an amount to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Sum adds up amounts. An empty list sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatMoney formats an amount the way Argentine pesos are printed,
// e.g. "$ 1.234,50".
func FormatMoney(d decimal.Decimal) string {
	rounded := Round(d)
	s := rounded.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s$ %s,%s", sign, b.String(), frac)
}

// NewID returns a new random entity identifier.
func NewID() string {
	return uuid.NewString()
}

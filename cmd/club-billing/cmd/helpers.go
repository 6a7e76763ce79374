package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// ErrNotConfirmed is returned when the operator declines, or when no
// terminal is available to ask and --yes was not given.
var ErrNotConfirmed = errors.New("operation not confirmed")

// confirm asks a yes/no question on the terminal.
func confirm(prompt string) error {
	if assumeYes {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%w: stdin is not a terminal, pass --yes", ErrNotConfirmed)
	}
	return ask(os.Stdin, os.Stdout, prompt)
}

func ask(in io.Reader, out io.Writer, prompt string) error {
	fmt.Fprintf(out, "%s [s/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "si", "sí", "y", "yes":
		return nil
	}
	return ErrNotConfirmed
}

// parseDiscount reads "10%" as a percentage and "450" as a fixed amount.
func parseDiscount(s string) (*billing.Discount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid discount %q: %w", s, err)
		}
		return billing.Percent(v), nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid discount %q: %w", s, err)
	}
	return billing.Amount(v), nil
}

// parseAmount returns nil for an empty string.
func parseAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return &v, nil
}

// parseLine reads a settle line: "ID", "ID=AMOUNT" or "ID=AMOUNT-DISCOUNT".
func parseLine(s string) (app.LineInput, error) {
	id, rest, found := strings.Cut(s, "=")
	line := app.LineInput{TransactionID: strings.TrimSpace(id)}
	if line.TransactionID == "" {
		return app.LineInput{}, fmt.Errorf("invalid line %q: missing transaction id", s)
	}
	if !found {
		return line, nil
	}

	amount, discount, hasDiscount := strings.Cut(rest, "-")
	custom, err := parseAmount(amount)
	if err != nil {
		return app.LineInput{}, err
	}
	line.CustomAmount = custom
	if hasDiscount {
		d, err := parseAmount(discount)
		if err != nil {
			return app.LineInput{}, err
		}
		line.Discount = d
	}
	return line, nil
}

// parseClassDate accepts "2006-01-02 15:04" or "2006-01-02T15:04" in loc.
func parseClassDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid class date %q (expected YYYY-MM-DD HH:MM)", s)
}

// parseYearMonth reads "2006-01".
func parseYearMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}

func parseMethod(s string) domain.PaymentMethod {
	return domain.PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
}

func money(d decimal.Decimal) string {
	return domain.FormatMoney(d)
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

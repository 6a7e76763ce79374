package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/billing"
)

func TestParseDiscount(t *testing.T) {
	tests := []struct {
		input    string
		mode     billing.Mode
		value    string
		wantNil  bool
		hasError bool
	}{
		{"10%", billing.ModePercent, "10", false, false},
		{" 12.5 % ", billing.ModePercent, "12.5", false, false},
		{"450", billing.ModeAmount, "450", false, false},
		{"", "", "", true, false},
		{"diez", "", "", false, true},
		{"x%", "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := parseDiscount(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("parseDiscount(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDiscount(%q) error = %v", tt.input, err)
			}
			if tt.wantNil {
				if d != nil {
					t.Errorf("parseDiscount(%q) = %+v, expected nil", tt.input, d)
				}
				return
			}
			if d.Mode != tt.mode || !d.Value.Equal(decimal.RequireFromString(tt.value)) {
				t.Errorf("parseDiscount(%q) = %+v, expected %s %s", tt.input, d, tt.mode, tt.value)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		input    string
		id       string
		custom   string
		discount string
		hasError bool
	}{
		{"t1", "t1", "", "", false},
		{"t1=800", "t1", "800", "", false},
		{"t1=800-100", "t1", "800", "100", false},
		{"t1=-100", "t1", "", "100", false},
		{"=800", "", "", "", true},
		{"t1=abc", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			line, err := parseLine(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("parseLine(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLine(%q) error = %v", tt.input, err)
			}
			if line.TransactionID != tt.id {
				t.Errorf("parseLine(%q).TransactionID = %q, expected %q", tt.input, line.TransactionID, tt.id)
			}
			checkOptional(t, "custom", line.CustomAmount, tt.custom)
			checkOptional(t, "discount", line.Discount, tt.discount)
		})
	}
}

func checkOptional(t *testing.T, name string, got *decimal.Decimal, expected string) {
	t.Helper()
	if expected == "" {
		if got != nil {
			t.Errorf("%s = %s, expected nil", name, got)
		}
		return
	}
	if got == nil || !got.Equal(decimal.RequireFromString(expected)) {
		t.Errorf("%s = %v, expected %s", name, got, expected)
	}
}

func TestParseClassDate(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	tests := []struct {
		input    string
		expected time.Time
		hasError bool
	}{
		{"2024-05-14 18:30", time.Date(2024, 5, 14, 18, 30, 0, 0, loc), false},
		{"2024-05-14T09:00", time.Date(2024, 5, 14, 9, 0, 0, 0, loc), false},
		{"2024-05-14", time.Date(2024, 5, 14, 0, 0, 0, 0, loc), false},
		{"14/05/2024", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseClassDate(tt.input, loc)
			if (err != nil) != tt.hasError {
				t.Fatalf("parseClassDate(%q) error = %v, hasError %v", tt.input, err, tt.hasError)
			}
			if !tt.hasError && !got.Equal(tt.expected) {
				t.Errorf("parseClassDate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	year, month, err := parseYearMonth("2024-06")
	if err != nil || year != 2024 || month != time.June {
		t.Errorf("parseYearMonth(2024-06) = %d, %v, %v", year, month, err)
	}
	if _, _, err := parseYearMonth("2024-13"); err == nil {
		t.Error("parseYearMonth(2024-13) expected error")
	}
}

func TestAsk(t *testing.T) {
	tests := []struct {
		input    string
		accepted bool
	}{
		{"s\n", true},
		{"Sí\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			err := ask(strings.NewReader(tt.input), &out, "¿Borrar?")
			if tt.accepted && err != nil {
				t.Errorf("ask(%q) = %v, expected nil", tt.input, err)
			}
			if !tt.accepted && !errors.Is(err, ErrNotConfirmed) {
				t.Errorf("ask(%q) = %v, expected ErrNotConfirmed", tt.input, err)
			}
			if !strings.Contains(out.String(), "¿Borrar? [s/N]") {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Ana", 10); got != "Ana" {
		t.Errorf("truncate(Ana) = %q", got)
	}
	if got := truncate("Clase grupal", 6); got != "Clase…" {
		t.Errorf("truncate(Clase grupal, 6) = %q, expected %q", got, "Clase…")
	}
}

// Package core provides money parsing and handling utilities.
//
// This file contains functions for formatting integer cents as localized
// currency text and for reading amounts typed by users back into cents.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxSafeCents is the largest amount that survives a round trip through a
// 53-bit float, the limit for amounts read from user text.
const MaxSafeCents int64 = 1<<53 - 1

var (
	currencyJunk   = regexp.MustCompile(`[^\d,.\-]`)
	numericPrefix  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	hundred        = decimal.NewFromInt(100)
	maxParsedCents = decimal.NewFromInt(MaxSafeCents)
	defaultDisplay = NewCurrencyFormatter(language.BrazilianPortuguese, "R$")
)

// CurrencyFormatter renders cents as currency text for one locale.
//
// Only the integer part goes through the locale printer so that grouping
// follows the locale while the two fractional digits always come straight
// from the cents remainder.
type CurrencyFormatter struct {
	printer    *message.Printer
	symbol     string
	decimalSep string
}

// NewCurrencyFormatter creates a formatter for the given locale and symbol.
func NewCurrencyFormatter(tag language.Tag, symbol string) *CurrencyFormatter {
	p := message.NewPrinter(tag)
	sep := strings.TrimSuffix(strings.TrimPrefix(p.Sprintf("%.1f", 1.5), "1"), "5")
	if sep == "" {
		sep = ","
	}
	return &CurrencyFormatter{printer: p, symbol: symbol, decimalSep: sep}
}

// Format renders the amount, e.g. 123456 -> "R$ 1.234,56".
func (f *CurrencyFormatter) Format(m Money) string {
	cents := m.Cents
	neg := cents < 0
	abs := uint64(cents)
	if neg {
		abs = uint64(-(cents + 1)) + 1
	}
	whole := f.printer.Sprintf("%d", abs/100)
	s := fmt.Sprintf("%s %s%s%02d", f.symbol, whole, f.decimalSep, abs%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatCurrency formats minor units as Brazilian Real text.
func FormatCurrency(minorUnits int64) string {
	return defaultDisplay.Format(Money{Cents: minorUnits})
}

// String implements fmt.Stringer using the default currency format.
func (m Money) String() string {
	return defaultDisplay.Format(m)
}

// ParseCurrencyText reads an amount typed by a user into cents.
//
// Everything but digits, commas, dots and minus signs is dropped. A lone comma
// is the decimal separator; when both a comma and a dot are present the first
// comma is treated as a thousands separator. The longest numeric prefix is
// used and rounded half-up to cents. Empty, unparseable or negative input
// yields 0, and so does anything above MaxSafeCents.
//
// Examples:
//
//	ParseCurrencyText("R$ 12,34")  -> 1234
//	ParseCurrencyText("1,234.56")  -> 123456
//	ParseCurrencyText("abc")       -> 0
//	ParseCurrencyText("-5")        -> 0
func ParseCurrencyText(text string) int64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	clean := currencyJunk.ReplaceAllString(text, "")
	if !strings.ContainsAny(clean, "0123456789") {
		return 0
	}

	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")
	switch {
	case hasComma && !hasDot:
		clean = strings.Replace(clean, ",", ".", 1)
	case hasComma && hasDot:
		clean = strings.Replace(clean, ",", "", 1)
	}

	prefix := numericPrefix.FindString(clean)
	if prefix == "" {
		return 0
	}
	value, err := decimal.NewFromString(prefix)
	if err != nil || value.IsNegative() {
		return 0
	}
	cents := value.Mul(hundred).Round(0)
	if cents.Cmp(maxParsedCents) > 0 {
		return 0
	}
	return cents.IntPart()
}

// Reais returns the amount in reais as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// DivRound divides m by n rounding half away from zero to the cent.
// Dividing by zero yields zero.
func (m Money) DivRound(n int64) Money {
	if n == 0 {
		return Money{}
	}
	q := decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(n)).Round(0)
	return Money{Cents: q.IntPart()}
}

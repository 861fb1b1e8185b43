package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "R$ 0,00"},
		{1, "R$ 0,01"},
		{99, "R$ 0,99"},
		{100, "R$ 1,00"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-250, "-R$ 2,50"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.out, FormatCurrency(tc.in), "cents=%d", tc.in)
	}
}

func TestCurrencyFormatterEnglish(t *testing.T) {
	f := NewCurrencyFormatter(language.AmericanEnglish, "$")
	assert.Equal(t, "$ 1,234.56", f.Format(Money{Cents: 123456}))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "R$ 10,05", Money{Cents: 1005}.String())
}

func TestParseCurrencyText(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"R$", 0},
		{"12", 1200},
		{"12,34", 1234},
		{"R$ 12,34", 1234},
		{"12.34", 1234},
		{"1,234.56", 123456},
		{"1.234,56", 123}, // first comma dropped, leaving 1.23456
		{"0,005", 1},
		{"0,004", 0},
		{"-5", 0},
		{"-5,00", 0},
		{"1.2.3", 120},
		{" 2,50 ", 250},
		{"1 000", 100000},
		{"90071992547409,91", MaxSafeCents},
		{"90071992547409,92", 0},
		{"92233720368547758,08", 0},
		{"184467440737095516,15", 0},
		{"99999999999999999999", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.out, ParseCurrencyText(tc.in), "input %q", tc.in)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1000}
	b := Money{Cents: 250}
	assert.Equal(t, Money{Cents: 1250}, a.Add(b))
	assert.Equal(t, Money{Cents: 750}, a.Sub(b))
	assert.InDelta(t, 10.0, a.Reais(), 1e-9)
}

func TestMoneyDivRound(t *testing.T) {
	cases := []struct {
		cents int64
		n     int64
		out   int64
	}{
		{1200, 12, 100},
		{1000, 12, 83},
		{1006, 12, 84},
		{6, 12, 1}, // 0.5 rounds up
		{5, 12, 0},
		{1000, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.out, Money{Cents: tc.cents}.DivRound(tc.n).Cents, "%d/%d", tc.cents, tc.n)
	}
}

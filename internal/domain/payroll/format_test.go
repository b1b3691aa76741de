package payroll

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIntegerToWords(t *testing.T) {
	tests := map[int]string{
		0:    "ZERO",
		7:    "SEVEN",
		19:   "NINETEEN",
		20:   "TWENTY",
		21:   "TWENTY ONE",
		99:   "NINETY NINE",
		100:  "ONE HUNDRED",
		101:  "ONE HUNDRED AND ONE",
		340:  "THREE HUNDRED AND FORTY",
		1407: "ONE THOUSAND FOUR HUNDRED AND SEVEN",
		2000: "TWO THOUSAND",
		3015: "THREE THOUSAND FIFTEEN",
		9999: "NINE THOUSAND NINE HUNDRED AND NINETY NINE",
	}
	for n, want := range tests {
		got, err := IntegerToWords(n)
		if err != nil {
			t.Fatalf("%d: unexpected error: %v", n, err)
		}
		if got != want {
			t.Fatalf("%d: expected %q, got %q", n, want, got)
		}
	}
}

func TestIntegerToWordsOutOfRange(t *testing.T) {
	for _, n := range []int{-1, 10000, 123456} {
		if _, err := IntegerToWords(n); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%d: expected out of range, got %v", n, err)
		}
	}
}

func TestDecimalPart(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromFloat(1234.5), "50"},
		{decimal.NewFromInt(10), "00"},
		{dec("1352.87"), "87"},
		{dec("1234.567"), "56"},
		{dec("0.05"), "05"},
	}
	for _, tc := range tests {
		if got := DecimalPart(tc.in); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{dec("1234.5"), "1,234.50"},
		{dec("0"), "0.00"},
		{dec("593"), "593.00"},
		{dec("1234567.89"), "1,234,567.89"},
	}
	for _, tc := range tests {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

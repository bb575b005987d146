package domain_test

import (
	"strings"
	"testing"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"1000":            "1000",
		" 250.5 ":         "250.5",
		"0.01":            "0.01",
		"999999999999.99": "999999999999.99",
	}
	for raw, want := range valid {
		got, err := domain.ParseAmount("amount", raw)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", raw, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "abc", "0", "-5", "10.001", "1000000000000"} {
		_, err := domain.ParseAmount("amount", raw)
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("ParseAmount(%q): expected validation error, got %v", raw, err)
		}
		if !strings.HasPrefix(err.Error(), "amount ") {
			t.Fatalf("ParseAmount(%q): error %q does not name the field", raw, err)
		}
	}
}

func TestRoundMoneyRoundsHalfToEven(t *testing.T) {
	cases := map[string]string{
		"10.005":  "10",
		"10.015":  "10.02",
		"10.0051": "10.01",
		"-2.345":  "-2.34",
	}
	for raw, want := range cases {
		got := domain.RoundMoney(decimal.RequireFromString(raw))
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("RoundMoney(%s) = %s, want %s", raw, got, want)
		}
	}
}

func TestFormatAmountGroupsDigits(t *testing.T) {
	got := domain.FormatAmount(decimal.RequireFromString("1234.5"))
	if !strings.Contains(got, "1,234.50") {
		t.Fatalf("unexpected formatted amount %q", got)
	}
}

func TestHasCurrencyScale(t *testing.T) {
	if !domain.HasCurrencyScale(decimal.RequireFromString("12.30")) {
		t.Fatal("12.30 should fit the currency scale")
	}
	if domain.HasCurrencyScale(decimal.RequireFromString("12.305")) {
		t.Fatal("12.305 should not fit the currency scale")
	}
}

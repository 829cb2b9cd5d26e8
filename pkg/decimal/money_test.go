package decimal

import (
	"testing"
)

func TestNewMoneyFromString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10 000 000", "10000000"},
		{"10\u00a0000\u00a0000", "10000000"},
		{"-250000", "-250000"},
		{"3,75", "4"},
		{"1234.4", "1234"},
		{"0", "0"},
	}
	for _, c := range cases {
		m, err := NewMoneyFromString(c.in)
		if err != nil {
			t.Fatalf("NewMoneyFromString(%q): unexpected error: %v", c.in, err)
		}
		if got := m.String(); got != c.want {
			t.Fatalf("NewMoneyFromString(%q) got %s want %s", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "ti tusen", "1,000,000"} {
		if _, err := NewMoneyFromString(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestGrouped(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{10_000_000, "10 000 000"},
		{-1_250_000, "-1 250 000"},
		{123456.5, "123 457"},
	}
	for _, c := range cases {
		if got := NewMoney(c.in).Grouped(); got != c.want {
			t.Fatalf("Grouped(%v) got %q want %q", c.in, got, c.want)
		}
	}
	if got := NewMoneyFromInt(2500).Format(); got != "2 500 kr" {
		t.Fatalf("Format got %q", got)
	}
}

func TestGroupDigits(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1234567.89", "1 234 567.89"},
		{"-1000", "-1 000"},
		{"-0.5", "-0.5"},
		{"100", "100"},
		{"12a", "12a"},
	}
	for _, c := range cases {
		if got := GroupDigits(c.in); got != c.want {
			t.Fatalf("GroupDigits(%q) got %q want %q", c.in, got, c.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := NewMoneyFromInt(1500)
	b := NewMoneyFromInt(2000)
	if got := a.Add(b).String(); got != "3500" {
		t.Fatalf("Add got %s", got)
	}
	diff := a.Sub(b)
	if !diff.IsNegative() || diff.String() != "-500" {
		t.Fatalf("Sub got %s", diff.String())
	}
	if !Zero().IsZero() {
		t.Fatalf("Zero is not zero")
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(8, 1); got != "8.0" {
		t.Fatalf("FormatRate got %q", got)
	}
	if got := FormatRate(37.84, 2); got != "37.84" {
		t.Fatalf("FormatRate got %q", got)
	}
}

package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"12.50", 1250, true},
		{"1", 100, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{".5", 50, true},
		{" 2.50 ", 250, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"0.004", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "₱0.00"},
		{5, "₱0.05"},
		{1250, "₱12.50"},
		{123450, "₱1,234.50"},
		{100000000, "₱1,000,000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format("₱"); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1250})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "12.5" {
		t.Fatalf("marshal = %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("25.99"), &m); err != nil || m.Cents != 2599 {
		t.Fatalf("unmarshal number: %d %v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"3.10"`), &m); err != nil || m.Cents != 310 {
		t.Fatalf("unmarshal string: %d %v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

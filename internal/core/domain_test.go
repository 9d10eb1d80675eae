package core

import (
	"errors"
	"testing"
	"time"
)

func TestCodePolicyStrict(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"12345", true},
		{"1234567", true},
		{"1234", false},
		{"123456", false},
		{"12345678", false},
		{"12a45", false},
		{"", false},
	}
	for i, tc := range cases {
		if got := CodeStrict.Allows(tc.code); got != tc.ok {
			t.Fatalf("case %d: strict %q = %v, want %v", i, tc.code, got, tc.ok)
		}
	}
}

func TestCodePolicyRelaxed(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"123", true},
		{"1234", true},
		{"123456", true},
		{"1234567", true},
		{"12", false},
		{"12345678", false},
		{"abc", false},
	}
	for i, tc := range cases {
		if got := CodeRelaxed.Allows(tc.code); got != tc.ok {
			t.Fatalf("case %d: relaxed %q = %v, want %v", i, tc.code, got, tc.ok)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.ISO() != "2024-03-05" {
		t.Fatalf("round trip: got %q", d.ISO())
	}
	if d.Period() != "2024-03" {
		t.Fatalf("period: got %q", d.Period())
	}

	for _, bad := range []string{"", "2024-13-01", "05/03/2024", "2024-03-5"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestDateBefore(t *testing.T) {
	a := NewDate(2024, 2, 1)
	b := NewDate(2024, 3, 1)
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("expected %s < %s", a.ISO(), b.ISO())
	}
}

func TestInstallationValidate(t *testing.T) {
	good := Installation{Code: "12345", Date: NewDate(2024, 3, 5)}
	if err := good.Validate(CodeStrict, false); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := Installation{Code: "1234", Date: NewDate(2024, 3, 5)}
	if err := bad.Validate(CodeStrict, false); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	noDate := Installation{Code: "12345", Date: Date{Time: time.Time{}}}
	if err := noDate.Validate(CodeStrict, false); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	noClient := Installation{Code: "12345", Date: NewDate(2024, 3, 5)}
	if err := noClient.Validate(CodeStrict, true); !errors.Is(err, ErrMissingClientName) {
		t.Fatalf("expected ErrMissingClientName, got %v", err)
	}
	noClient.ClientName = "Maria"
	if err := noClient.Validate(CodeStrict, true); err != nil {
		t.Fatalf("expected ok with client name, got %v", err)
	}
}

func TestFuelExpenseValidate(t *testing.T) {
	good := FuelExpense{Date: NewDate(2024, 3, 5), Amount: Money{Cents: 5000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []FuelExpense{
		{Date: Date{Time: time.Time{}}, Amount: Money{Cents: 5000}},
		{Date: NewDate(2024, 3, 5), Amount: Money{Cents: 0}},
		{Date: NewDate(2024, 3, 5), Amount: Money{Cents: -100}},
	}
	for i, f := range bads {
		if err := f.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

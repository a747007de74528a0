package domain

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		raw       string
		currency  string
		wantMinor int64
		wantErr   bool
	}{
		{name: "whole and fraction", raw: "100.50", currency: "INR", wantMinor: 10050},
		{name: "whole only", raw: "7", currency: "usd", wantMinor: 700},
		{name: "single decimal place", raw: "1.5", currency: "EUR", wantMinor: 150},
		{name: "leading dot", raw: ".99", currency: "INR", wantMinor: 99},
		{name: "three decimal places", raw: "1.234", currency: "INR", wantErr: true},
		{name: "zero", raw: "0", currency: "INR", wantErr: true},
		{name: "negative", raw: "-5", currency: "INR", wantErr: true},
		{name: "empty", raw: "", currency: "INR", wantErr: true},
		{name: "not a number", raw: "abc", currency: "INR", wantErr: true},
		{name: "bad currency", raw: "10", currency: "RUPEES", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAmount(tc.raw, tc.currency)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tc.raw, err)
			}
			if got.MinorUnits != tc.wantMinor {
				t.Fatalf("minor units = %d, want %d", got.MinorUnits, tc.wantMinor)
			}
			if got.Currency != "INR" && got.Currency != "USD" && got.Currency != "EUR" {
				t.Fatalf("currency not normalized: %q", got.Currency)
			}
		})
	}
}

func TestMajorString(t *testing.T) {
	t.Parallel()

	if got := (Amount{MinorUnits: 10000, Currency: "USD"}).MajorString(); got != "100.00" {
		t.Fatalf("MajorString = %q, want 100.00", got)
	}
	if got := (Amount{MinorUnits: 5, Currency: "USD"}).MajorString(); got != "0.05" {
		t.Fatalf("MajorString = %q, want 0.05", got)
	}
	if got := (Amount{MinorUnits: -150, Currency: "USD"}).MajorString(); got != "-1.50" {
		t.Fatalf("MajorString = %q, want -1.50", got)
	}
}

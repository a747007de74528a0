package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value held in minor units (paise, cents) so adapters
// never round. Providers that want decimal major units format on the way out.
type Amount struct {
	MinorUnits int64
	Currency   string
}

// ParseAmount accepts a decimal string like "100.00" with at most two decimal
// places and a 3-letter ISO currency code.
func ParseAmount(raw, currency string) (Amount, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Amount{}, fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrInvalidInput, currency)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Amount{}, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}

	whole, frac := raw, ""
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		whole, frac = raw[:idx], raw[idx+1:]
	}
	if len(frac) > 2 {
		return Amount{}, fmt.Errorf("%w: amount cannot have more than 2 decimal places", ErrInvalidInput)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return Amount{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidInput, raw)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidInput, raw)
	}
	minor := units*100 + cents
	if minor <= 0 {
		return Amount{}, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	}
	return Amount{MinorUnits: minor, Currency: currency}, nil
}

// AmountFromMinor builds an Amount from provider minor units.
func AmountFromMinor(minor int64, currency string) Amount {
	return Amount{MinorUnits: minor, Currency: strings.ToUpper(currency)}
}

// MajorString renders the amount as a 2-decimal major-unit string ("100.00").
func (a Amount) MajorString() string {
	sign := ""
	v := a.MinorUnits
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (a Amount) IsZero() bool { return a.MinorUnits == 0 }

package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a currency value in cents. Pledge amounts arrive as decimal
// strings with two fractional digits and must round-trip exactly, so they
// are never held as floats.
type Amount int64

// ParseAmount parses a decimal string like "123.45" (or "123") into cents.
// Rejects negative, zero, malformed and over-precise input.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if units > (math.MaxInt64-99)/100 {
		return 0, ErrInvalidAmount
	}

	a := Amount(units*100 + cents)
	if a <= 0 {
		return 0, ErrInvalidAmount
	}
	return a, nil
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", int64(a)/100, int64(a)%100)
}

// Cents returns the raw value for storage.
func (a Amount) Cents() int64 { return int64(a) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

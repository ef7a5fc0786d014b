package domain

import "strings"

// NormalizePhone strips the display mask "(00) 00000-0000" down to digits.
// Returns "" when the result is not a plausible phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 13 {
		return ""
	}
	return digits
}

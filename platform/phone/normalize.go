// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// SentinelInvalid is stored when an imported row carries a phone number that
// cannot be completed to a valid local number.
const SentinelInvalid = "1234567890"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeLocal strips everything except digits and drops a leading country
// prefix, yielding the bare national number used for duplicate detection.
func NormalizeLocal(input string) string {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(input) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	out := digits.String()
	if len(out) > 10 && strings.HasPrefix(out, "91") {
		out = out[len(out)-10:]
	}
	if len(out) > 10 && strings.HasPrefix(out, "0") {
		out = strings.TrimLeft(out, "0")
	}
	return out
}

// IsValidLocal reports whether the input normalizes to a 10-digit national number.
func IsValidLocal(input string) bool {
	return len(NormalizeLocal(input)) == 10
}

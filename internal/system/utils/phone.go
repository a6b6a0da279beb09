package utils

import "strings"

// phoneSuffixLength is the number of trailing digits compared when matching
// phone numbers across country-code prefix variants.
const phoneSuffixLength = 10

// NormalizeDigits strips every non-digit character from a phone number.
func NormalizeDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneSuffix returns the last ten digits of a phone number, or the empty
// string when the number has fewer than ten digits.
func PhoneSuffix(phone string) string {
	digits := NormalizeDigits(phone)
	if len(digits) < phoneSuffixLength {
		return ""
	}
	return digits[len(digits)-phoneSuffixLength:]
}

// SamePhone reports whether two phone numbers refer to the same line.
// Numbers with at least ten digits are compared by their ten-digit suffix so
// that +15551234567, 15551234567, and 5551234567 all match. Shorter numbers
// never fuzzy-match: they are equal only when their full digit strings are
// identical and non-empty.
func SamePhone(a, b string) bool {
	sa, sb := PhoneSuffix(a), PhoneSuffix(b)
	if sa != "" && sb != "" {
		return sa == sb
	}
	da, db := NormalizeDigits(a), NormalizeDigits(b)
	return da != "" && da == db
}

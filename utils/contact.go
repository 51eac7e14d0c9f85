package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeContactNumber strips formatting characters for storage,
// preserving a leading + for international numbers.
func NormalizeContactNumber(contactNumber string) string {
	trimmed := strings.TrimSpace(contactNumber)
	plus := strings.HasPrefix(trimmed, "+")
	digits := nonDigit.ReplaceAllString(trimmed, "")
	if plus {
		return "+" + digits
	}
	return digits
}

// ValidateContactNumber accepts 7 to 15 digits, optionally prefixed with +.
func ValidateContactNumber(contactNumber string) bool {
	digits := nonDigit.ReplaceAllString(contactNumber, "")
	return len(digits) >= 7 && len(digits) <= 15
}

// internal/app/system/inputval/inputval.go
package inputval

import (
	"regexp"
	"strings"
)

// Field validation shared by the API handlers. Values arrive as strings
// from JSON; monetary amounts stay strings all the way to storage to avoid
// float rounding.

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9_%+\-]+(\.[a-zA-Z0-9_%+\-]+)*@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*$`)
	digitsRe  = regexp.MustCompile(`^[0-9]+$`)
	acctRe    = regexp.MustCompile(`^[0-9][0-9\-]*$`)
	decimalRe = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)
)

// IsValidEmail reports whether s looks like a deliverable address. Leading
// or trailing dots and consecutive dots are rejected in both parts.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.Count(s, "@") != 1 {
		return false
	}
	return emailRe.MatchString(s)
}

// IsDigits reports whether s is one or more ASCII digits.
func IsDigits(s string) bool {
	return digitsRe.MatchString(s)
}

// IsBankCode reports whether s is a COMPE bank code: one to three digits.
func IsBankCode(s string) bool {
	return len(s) >= 1 && len(s) <= 3 && digitsRe.MatchString(s)
}

// IsAccountNumber reports whether s is a bank agency or account number:
// digits with optional hyphen separators, starting with a digit.
func IsAccountNumber(s string) bool {
	return len(s) <= 20 && acctRe.MatchString(s)
}

// NormalizeDecimal canonicalizes a monetary amount: trims space, accepts a
// comma as the decimal separator, and validates up to two decimal places.
// Returns the dot-separated form and whether the input was valid.
func NormalizeDecimal(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if !decimalRe.MatchString(s) {
		return "", false
	}
	return s, true
}

// IsDueDay reports whether d is a valid day-of-month for a card due date.
func IsDueDay(d int) bool {
	return d >= 1 && d <= 31
}

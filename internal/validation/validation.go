// Package validation contains input validation helpers.
package validation

import "strings"

// ValidPassword applies the registration password policy.
func ValidPassword(password string) bool {
	return len(password) >= 8
}

// ValidCardNumber checks that a card number is 12-19 digits (spaces
// allowed) with a valid Luhn checksum.
func ValidCardNumber(number string) bool {
	number = strings.ReplaceAll(number, " ", "")
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	return Luhn(number)
}

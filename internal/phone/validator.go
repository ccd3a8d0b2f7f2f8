// Package phone holds the digit-count gate applied to every input line.
package phone

import "strings"

// MinDigits is the smallest digit count accepted as a dialable number.
const MinDigits = 10

// Digits strips every non-digit character from raw.
func Digits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// Valid reports whether raw contains at least MinDigits digits. The number is
// not normalized; callers submit raw as typed.
func Valid(raw string) bool {
	return len(Digits(raw)) >= MinDigits
}

package utils

import (
	"strconv"
	"strings"
)

const devanagariZero = '०'

// normalizeDigits rewrites Devanagari digits (०-९) to ASCII. Other
// characters pass through untouched.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= devanagariZero && r <= devanagariZero+9 {
			return '0' + (r - devanagariZero)
		}
		return r
	}, s)
}

// AtoiDevanagari parses a run of ASCII or Devanagari decimal digits.
func AtoiDevanagari(s string) (int, error) {
	return strconv.Atoi(normalizeDigits(strings.TrimSpace(s)))
}

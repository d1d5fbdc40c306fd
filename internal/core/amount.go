// Package core holds the expense domain model shared by the store, the
// asset manager and the report generator.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts user-entered amount text to a float. Thousands
// separators (commas) are tolerated and stripped before parsing.
//
// Examples:
//
//	ParseAmount("12.50")     -> 12.5, nil
//	ParseAmount("1,250.00")  -> 1250, nil
//	ParseAmount("-3")        -> 0, ErrNegativeAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v < 0 {
		return 0, ErrNegativeAmount
	}
	return v, nil
}

// FormatAmount renders an amount the way listings and reports print it,
// with exactly two decimal places.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

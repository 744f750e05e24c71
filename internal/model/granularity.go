package model

import (
	"strings"
)

// Granularity is the display unit of a calendar view.
type Granularity string

const (
	Month Granularity = "month"
	Week  Granularity = "week"
	Day   Granularity = "day"
)

// Valid reports whether g is one of Month, Week or Day.
func (g Granularity) Valid() bool {
	switch g {
	case Month, Week, Day:
		return true
	}
	return false
}

// ParseGranularity parses "month", "week" or "day" in any case.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", &ValidationError{Field: "granularity", Reason: "unknown granularity " + s}
	}
	return g, nil
}

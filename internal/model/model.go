package model

import (
	"strings"
)

// Event is a date-only calendar entry covering the closed interval
// [Start, End].
type Event struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Start Date   `yaml:"start" json:"start"`
	End   Date   `yaml:"end" json:"end"`
	Color Color  `yaml:"color" json:"color"`
}

// Covers reports whether day falls within [Start, End].
func (e Event) Covers(day Date) bool {
	return !day.Before(e.Start) && !day.After(e.End)
}

// Days returns the number of calendar days the event spans (at least 1
// for a valid event).
func (e Event) Days() int {
	return e.Start.DaysUntil(e.End) + 1
}

// Validate checks the invariants every stored event must hold.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title must not be empty"}
	}
	if e.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "start date is required"}
	}
	if e.End.IsZero() {
		return &ValidationError{Field: "end", Reason: "end date is required"}
	}
	if e.End.Before(e.Start) {
		return &ValidationError{Field: "end", Reason: "end date " + e.End.String() + " is before start date " + e.Start.String()}
	}
	if !e.Color.Valid() {
		return &ValidationError{Field: "color", Reason: "unknown color " + string(e.Color)}
	}
	return nil
}

// Patch carries the subset of fields an update supplies. Nil means
// "leave unchanged".
type Patch struct {
	Title *string `json:"title,omitempty"`
	Start *Date   `json:"start,omitempty"`
	End   *Date   `json:"end,omitempty"`
	Color *Color  `json:"color,omitempty"`
}

// Empty reports whether the patch supplies no fields.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Start == nil && p.End == nil && p.Color == nil
}

// Apply returns e with the supplied fields merged in. e is not modified.
func (p Patch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	return e
}

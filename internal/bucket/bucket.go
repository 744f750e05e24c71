// Package bucket decides which days a calendar view shows and which
// events land on each of those days.
package bucket

import (
	"errors"

	"github.com/teambition/rrule-go"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Bucket is one rendered calendar cell: a day and the events covering it.
type Bucket struct {
	Day    model.Date    `json:"day"`
	Events []model.Event `json:"events"`
}

// Window returns the first and last day (inclusive) displayed for the
// given granularity around reference. Month windows cover exactly the
// reference month; week windows run Sunday through Saturday.
func Window(g model.Granularity, reference model.Date) (first, last model.Date) {
	switch g {
	case model.Month:
		return reference.FirstOfMonth(), reference.LastOfMonth()
	case model.Week:
		first = reference.StartOfWeek()
		return first, first.AddDays(6)
	default:
		return reference, reference
	}
}

// DaysToDisplay returns every day of the window in ascending order. The
// result is never empty.
func DaysToDisplay(g model.Granularity, reference model.Date) []model.Date {
	first, last := Window(g, reference)
	if first.Equal(last) {
		return []model.Date{first}
	}
	return eachDay(first, last)
}

// eachDay enumerates [first, last] with a DAILY rule.
func eachDay(first, last model.Date) []model.Date {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first.Time(),
		Until:   last.Time(),
	})
	if err != nil {
		appLog.Error("bucket: failed to build day rule", err, "first", first, "last", last)
		return []model.Date{first}
	}

	times := rule.All()
	days := make([]model.Date, 0, len(times))
	for _, t := range times {
		days = append(days, model.DateOf(t))
	}
	if len(days) == 0 {
		appLog.Error("bucket: day rule produced no days", errors.New("empty window"), "first", first, "last", last)
		return []model.Date{first}
	}
	return days
}

// EventsForDay returns the events whose [Start, End] contains day, in
// collection order. A multi-day event is returned for each day it spans.
func EventsForDay(day model.Date, events []model.Event) []model.Event {
	out := make([]model.Event, 0)
	for _, e := range events {
		if e.Covers(day) {
			out = append(out, e)
		}
	}
	return out
}

// Buckets pairs every displayed day with its events.
func Buckets(days []model.Date, events []model.Event) []Bucket {
	out := make([]Bucket, 0, len(days))
	for _, day := range days {
		out = append(out, Bucket{Day: day, Events: EventsForDay(day, events)})
	}
	return out
}

// DropOffset is the signed number of days between the day an event was
// dragged from and the day it was dropped on.
func DropOffset(originalDay, targetDay model.Date) int {
	return originalDay.DaysUntil(targetDay)
}

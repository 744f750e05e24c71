// Package nav implements paging between calendar periods. Everything here
// is pure date arithmetic.
package nav

import (
	"evcal/internal/model"
)

// View is the complete navigational state of a calendar.
type View struct {
	Granularity model.Granularity `json:"granularity"`
	Reference   model.Date        `json:"reference"`
}

// Previous moves reference back by one unit of g. Month steps clamp the
// day to the target month's length (Mar 31 -> Feb 29).
func Previous(g model.Granularity, reference model.Date) model.Date {
	return step(g, reference, -1)
}

// Next moves reference forward by one unit of g. Month steps clamp the
// day to the target month's length (Jan 31 -> Feb 29).
func Next(g model.Granularity, reference model.Date) model.Date {
	return step(g, reference, 1)
}

func step(g model.Granularity, reference model.Date, n int) model.Date {
	switch g {
	case model.Month:
		return reference.AddMonths(n)
	case model.Week:
		return reference.AddDays(7 * n)
	default:
		return reference.AddDays(n)
	}
}

// Title is the heading shown above a view: "November 2024" for month and
// week views, "November 5, 2024" for a single day.
func Title(g model.Granularity, reference model.Date) string {
	if g == model.Day {
		return reference.Format("January 2, 2006")
	}
	return reference.Format("January 2006")
}

func (v View) Previous() View {
	return View{Granularity: v.Granularity, Reference: Previous(v.Granularity, v.Reference)}
}

func (v View) Next() View {
	return View{Granularity: v.Granularity, Reference: Next(v.Granularity, v.Reference)}
}

// WithGranularity switches the display unit; the reference date is kept.
func (v View) WithGranularity(g model.Granularity) View {
	return View{Granularity: g, Reference: v.Reference}
}

func (v View) Title() string {
	return Title(v.Granularity, v.Reference)
}

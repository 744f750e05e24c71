package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"evcal/internal/model"
)

const productID = "-//evcal//calendar export//EN"

// Export renders events as an iCalendar document of all-day VEVENTs.
// DTEND is written exclusive, one day after the inclusive end date.
func Export(events []model.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Title)
		ve.SetAllDayStartAt(e.Start.Time())
		ve.SetAllDayEndAt(e.End.AddDays(1).Time())
		if sw, ok := e.Color.Swatch(); ok {
			ve.SetProperty(ical.ComponentProperty("COLOR"), sw.Name)
		}
	}
	return cal.Serialize()
}

package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// ParseICS converts the VEVENTs of an ICS payload into date-only events.
//
//   - UID becomes the event id, prefixed with the source ID when one is
//     set so that two feeds cannot collide.
//   - DTSTART/DTEND are clipped to calendar days. All-day DTEND is
//     exclusive in iCalendar, so the inclusive end is the day before.
//   - RRULE is ignored: only the first instance is imported.
//   - COLOR (RFC 7986) is matched against the palette; otherwise the
//     default color is used.
//
// Events that cannot be mapped are logged and skipped.
func ParseICS(src Source, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return out, errors.New("missing UID")
	}
	out.ID = uid
	if src.ID != "" {
		out.ID = src.ID + ":" + uid
	}

	out.Title = strings.TrimSpace(propValue(ve, ical.ComponentPropertySummary))
	if out.Title == "" {
		return out, fmt.Errorf("event %s has no SUMMARY", uid)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %s has no DTSTART", uid)
	}
	allDay := isDateValue(dtStart)

	start, err := eventTime(ve, ical.ComponentPropertyDtStart, allDay)
	if err != nil {
		return out, fmt.Errorf("event %s DTSTART: %w", uid, err)
	}
	out.Start = model.DateOf(start)
	out.End = out.Start

	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := eventTime(ve, ical.ComponentPropertyDtEnd, allDay)
		if err != nil {
			return out, fmt.Errorf("event %s DTEND: %w", uid, err)
		}
		out.End = inclusiveEnd(start, end, allDay)
	}
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	out.Color = model.DefaultColor
	if c := propValue(ve, ical.ComponentProperty("COLOR")); c != "" {
		if parsed, err := model.ParseColor(c); err == nil {
			out.Color = parsed
		}
	}

	if rrule := propValue(ve, ical.ComponentPropertyRrule); rrule != "" {
		appLog.Debug("ics recurrence ignored", "uid", uid, "rrule", rrule)
	}
	return out, nil
}

// inclusiveEnd maps an exclusive iCalendar end onto the last covered day.
// A timed event ending exactly at midnight does not cover that day.
func inclusiveEnd(start, end time.Time, allDay bool) model.Date {
	day := model.DateOf(end)
	if !end.After(start) {
		return model.DateOf(start)
	}
	if allDay {
		return day.AddDays(-1)
	}
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		return day.AddDays(-1)
	}
	return day
}

// eventTime reads DTSTART/DTEND through the library, falling back to the
// raw value for forms it rejects (e.g. date-only values on timed getters).
func eventTime(ve *ical.VEvent, prop ical.ComponentProperty, allDay bool) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	switch {
	case prop == ical.ComponentPropertyDtStart && allDay:
		t, err = ve.GetAllDayStartAt()
	case prop == ical.ComponentPropertyDtStart:
		t, err = ve.GetStartAt()
	case allDay:
		t, err = ve.GetAllDayEndAt()
	default:
		t, err = ve.GetEndAt()
	}
	if err == nil {
		return t, nil
	}
	return parseICSTime(propValue(ve, prop))
}

// parseICSTime parses a basic ICS date/date-time string.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

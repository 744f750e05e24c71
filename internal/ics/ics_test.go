package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"evcal/internal/model"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:vacation\r\n" +
	"DTSTAMP:20241101T000000Z\r\n" +
	"SUMMARY:Vacation\r\n" +
	"DTSTART;VALUE=DATE:20241105\r\n" +
	"DTEND;VALUE=DATE:20241111\r\n" +
	"COLOR:peacock\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20241101T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20241115T090000Z\r\n" +
	"DTEND:20241115T093000Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:untitled\r\n" +
	"DTSTAMP:20241101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20241120\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "team"}, []byte(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, "team:vacation", events[0].ID)
	require.Equal(t, "Vacation", events[0].Title)
	require.Equal(t, "2024-11-05", events[0].Start.String())
	require.Equal(t, "2024-11-10", events[0].End.String())
	require.Equal(t, model.ColorPeacock, events[0].Color)

	require.Equal(t, "Standup", events[1].Title)
	require.Equal(t, "2024-11-15", events[1].Start.String())
	require.Equal(t, "2024-11-15", events[1].End.String())
	require.Equal(t, model.DefaultColor, events[1].Color)

	_, err = ParseICS(Source{}, nil)
	require.Error(t, err)
}

func TestInclusiveEnd(t *testing.T) {
	start := time.Date(2024, time.November, 5, 22, 0, 0, 0, time.UTC)
	require.Equal(t, "2024-11-05", inclusiveEnd(start, time.Date(2024, time.November, 6, 0, 0, 0, 0, time.UTC), false).String())
	require.Equal(t, "2024-11-06", inclusiveEnd(start, time.Date(2024, time.November, 6, 1, 0, 0, 0, time.UTC), false).String())
	require.Equal(t, "2024-11-05", inclusiveEnd(start, start, false).String())

	day := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2024-11-05", inclusiveEnd(day, day.AddDate(0, 0, 1), true).String())
}

func TestExportRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Vacation", Start: model.MustParseDate("2024-11-05"), End: model.MustParseDate("2024-11-10"), Color: model.ColorPeacock},
		{ID: "3", Title: "Team Building", Start: model.MustParseDate("2024-11-20"), End: model.MustParseDate("2024-11-20"), Color: model.ColorLavender},
	}
	out := Export(events, time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC))
	require.Contains(t, out, "DTSTART;VALUE=DATE:20241105")
	require.Contains(t, out, "DTEND;VALUE=DATE:20241111")

	back, err := ParseICS(Source{}, []byte(out))
	require.NoError(t, err)
	require.Equal(t, events, back)
}

func TestFetcherCachesAndRevalidates(t *testing.T) {
	var hits, conditional atomic.Int32
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "team", URL: srv.URL + "/private/token.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Equal(t, sampleICS, string(first.Body))

	second, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, int32(1), conditional.Load())

	fail.Store(true)
	third, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.True(t, third.FromCache)
	require.Equal(t, int32(3), hits.Load())

	results, errs := f.FetchAll(ctx, []Source{src, {ID: "empty"}})
	require.Len(t, results, 1)
	require.Len(t, errs, 1)
}

func TestImportReusesParsedEvents(t *testing.T) {
	var parses atomic.Int32
	orig := parseICS
	parseICS = func(src Source, body []byte) ([]model.Event, error) {
		parses.Add(1)
		return ParseICS(src, body)
	}
	t.Cleanup(func() { parseICS = orig })

	var body atomic.Value
	body.Store(sampleICS)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty.ics" {
			return
		}
		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "team", URL: srv.URL + "/team.ics"}
	ctx := context.Background()

	first, errs := f.Import(ctx, []Source{src})
	require.Empty(t, errs)
	require.NotEmpty(t, first)
	require.Equal(t, "team:vacation", first[0].ID)
	require.Equal(t, int32(1), parses.Load())

	first[0].Title = "mutated"
	second, errs := f.Import(ctx, []Source{src})
	require.Empty(t, errs)
	require.Equal(t, int32(1), parses.Load())
	require.Equal(t, "Vacation", second[0].Title)

	body.Store(strings.Replace(sampleICS, "SUMMARY:Vacation", "SUMMARY:Holiday", 1))
	third, errs := f.Import(ctx, []Source{src})
	require.Empty(t, errs)
	require.Equal(t, int32(2), parses.Load())
	require.Equal(t, "Holiday", third[0].Title)

	events, errs := f.Import(ctx, []Source{src, {ID: "empty", URL: srv.URL + "/empty.ics"}})
	require.Len(t, errs, 1)
	require.Len(t, events, len(third))
}

func TestRedactURL(t *testing.T) {
	require.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/abc.ics?token=1"))
	require.True(t, strings.HasPrefix(redactURL("not a url"), "ics://"))
}

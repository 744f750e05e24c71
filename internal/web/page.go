package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"evcal/internal/bucket"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/nav"
)

//go:embed templates/calendar.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/calendar.html"))

var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type pageEvent struct {
	ID    string
	Title string
	Color string
}

// pageCell is one grid cell. Padding cells (month view only) have no Day.
type pageCell struct {
	Day     string
	Label   string
	Weekday string
	Events  []pageEvent
}

type pageData struct {
	Title       string
	Granularity model.Granularity
	Reference   string
	Weekdays    []string
	Cells       []pageCell
	PrevURL     string
	NextURL     string
	Views       []model.Granularity
}

// handleCalendarPage renders a view as HTML. ?view= and ?date= select a
// view without changing the shared navigation state, which lets the
// capture pipeline screenshot arbitrary periods.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewFromQuery(r.URL.Query())
	if err != nil {
		writeMutationError(w, err)
		return
	}

	days := bucket.DaysToDisplay(v.Granularity, v.Reference)
	data := buildPage(v, bucket.Buckets(days, s.cal.Events()))

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		appLog.Error("calendar page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) viewFromQuery(q url.Values) (nav.View, error) {
	v := s.cal.View()
	if raw := q.Get("view"); raw != "" {
		g, err := model.ParseGranularity(raw)
		if err != nil {
			return v, err
		}
		v = v.WithGranularity(g)
	}
	if raw := q.Get("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return v, err
		}
		v.Reference = d
	}
	return v, nil
}

func buildPage(v nav.View, buckets []bucket.Bucket) pageData {
	data := pageData{
		Title:       v.Title(),
		Granularity: v.Granularity,
		Reference:   v.Reference.String(),
		PrevURL:     pageURL(v.Previous()),
		NextURL:     pageURL(v.Next()),
		Views:       []model.Granularity{model.Month, model.Week, model.Day},
	}

	if v.Granularity == model.Month {
		data.Weekdays = weekdayLabels
		// Blank cells align day 1 under its weekday; they are layout only.
		if len(buckets) > 0 {
			for i := 0; i < int(buckets[0].Day.Weekday()); i++ {
				data.Cells = append(data.Cells, pageCell{})
			}
		}
	}

	for _, b := range buckets {
		cell := pageCell{
			Day:     b.Day.String(),
			Label:   b.Day.Format("2"),
			Weekday: b.Day.Weekday().String()[:3],
		}
		for _, e := range b.Events {
			pe := pageEvent{ID: e.ID, Title: e.Title}
			if sw, ok := e.Color.Swatch(); ok {
				pe.Color = sw.Value
			}
			cell.Events = append(cell.Events, pe)
		}
		data.Cells = append(data.Cells, cell)
	}
	return data
}

func pageURL(v nav.View) string {
	q := url.Values{}
	q.Set("view", string(v.Granularity))
	q.Set("date", v.Reference.String())
	return "/calendar?" + q.Encode()
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.cal.Events(), time.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="evcal.ics"`)
	_, _ = w.Write([]byte(body))
}

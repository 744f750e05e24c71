package calendar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evcal/internal/model"
	"evcal/internal/nav"
	"evcal/internal/store"
)

var d = model.MustParseDate

func newCalendar(t *testing.T) *Calendar {
	t.Helper()
	c := New(store.New(), nav.View{Granularity: model.Month, Reference: d("2024-11-15")})
	c.Initialize([]model.Event{
		{ID: "1", Title: "Vacation", Start: d("2024-11-05"), End: d("2024-11-10"), Color: model.ColorPeacock},
		{ID: "2", Title: "Conference", Start: d("2024-11-15"), End: d("2024-11-17"), Color: model.ColorSage},
		{ID: "3", Title: "Team Building", Start: d("2024-11-20"), End: d("2024-11-20"), Color: model.ColorLavender},
	})
	return c
}

func TestScenarioVacationBoundaries(t *testing.T) {
	c := newCalendar(t)
	has := func(day string) bool {
		for _, e := range c.EventsForDay(d(day)) {
			if e.ID == "1" {
				return true
			}
		}
		return false
	}
	require.True(t, has("2024-11-05"))
	require.True(t, has("2024-11-10"))
	require.False(t, has("2024-11-04"))
	require.False(t, has("2024-11-11"))
}

func TestDropMovesByDayDifference(t *testing.T) {
	c := newCalendar(t)

	// Dragged from the middle of the span; offset is relative to that cell.
	c.Drop("1", d("2024-11-07"), d("2024-11-12"))
	e, ok := c.Event("1")
	require.True(t, ok)
	require.Equal(t, "2024-11-10", e.Start.String())
	require.Equal(t, "2024-11-15", e.End.String())

	c.Drop("1", d("2024-11-15"), d("2024-10-31"))
	e, _ = c.Event("1")
	require.Equal(t, "2024-10-26", e.Start.String())
	require.Equal(t, "2024-10-31", e.End.String())

	c.Drop("missing", d("2024-11-01"), d("2024-11-02"))
	require.Len(t, c.Events(), 3)
}

func TestNavigationKeepsReferenceAcrossGranularity(t *testing.T) {
	c := newCalendar(t)
	require.Len(t, c.DaysToDisplay(), 30)
	require.Equal(t, "November 2024", c.Title())

	v, err := c.SetGranularity(model.Week)
	require.NoError(t, err)
	require.Equal(t, "2024-11-15", v.Reference.String())
	days := c.DaysToDisplay()
	require.Len(t, days, 7)
	require.Equal(t, "2024-11-10", days[0].String())

	_, err = c.SetGranularity("year")
	require.ErrorIs(t, err, model.ErrValidation)
	require.Equal(t, model.Week, c.View().Granularity)

	require.Equal(t, "2024-11-22", c.Next().Reference.String())
	require.Equal(t, "2024-11-15", c.Previous().Reference.String())

	_, err = c.SetGranularity(model.Day)
	require.NoError(t, err)
	require.Equal(t, []model.Date{d("2024-11-15")}, c.DaysToDisplay())
	require.Equal(t, "November 15, 2024", c.Title())

	c.SetReference(d("2024-01-31"))
	_, _ = c.SetGranularity(model.Month)
	require.Equal(t, "2024-02-29", c.Next().Reference.String())
}

func TestBucketsFollowMutations(t *testing.T) {
	c := newCalendar(t)
	_, err := c.SetGranularity(model.Day)
	require.NoError(t, err)
	c.SetReference(d("2024-11-20"))

	buckets := c.Buckets()
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Events, 1)

	added, err := c.Add("Review", d("2024-11-19"), d("2024-11-21"), model.ColorBasil)
	require.NoError(t, err)
	require.Equal(t, "4", added.ID)
	require.Len(t, c.Buckets()[0].Events, 2)
	require.Equal(t, "3", c.Buckets()[0].Events[0].ID)

	c.Delete("3")
	title := "Design review"
	require.NoError(t, c.Update(added.ID, model.Patch{Title: &title}))
	events := c.Buckets()[0].Events
	require.Len(t, events, 1)
	require.Equal(t, "Design review", events[0].Title)

	c.MoveByOffset(added.ID, 5)
	require.Empty(t, c.Buckets()[0].Events)
}

func TestNewDefaultsGranularity(t *testing.T) {
	c := New(store.New(), nav.View{Reference: d("2024-11-15")})
	require.Equal(t, model.Month, c.View().Granularity)
	require.Same(t, c.Store(), c.store)
}

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2024-11-05", NewDate(2024, time.November, 5)},
		{" 2024-02-29 ", NewDate(2024, time.February, 29)},
		{"2024-11-05T23:59:59Z", NewDate(2024, time.November, 5)},
		{"2024-11-05T01:00:00+09:00", NewDate(2024, time.November, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}

	for _, bad := range []string{"", "11/05/2024", "2024-13-01"} {
		_, err := ParseDate(bad)
		require.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	d := DateOf(time.Date(2024, time.November, 5, 23, 30, 0, 0, loc))
	require.Equal(t, "2024-11-05", d.String())
	require.Equal(t, 0, d.Time().Hour())
}

func TestAddMonthsClamps(t *testing.T) {
	cases := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2025-01-31", -2, "2024-11-30"},
		{"2024-05-31", 0, "2024-05-31"},
	}
	for _, tc := range cases {
		got := MustParseDate(tc.from).AddMonths(tc.n)
		require.Equal(t, tc.want, got.String(), "%s %+d months", tc.from, tc.n)
	}
}

func TestDayNumberAndWeekStart(t *testing.T) {
	require.Equal(t, 0, NewDate(1970, time.January, 1).DayNumber())
	require.Equal(t, -1, NewDate(1969, time.December, 31).DayNumber())
	require.Equal(t, 5, MustParseDate("2024-11-05").DaysUntil(MustParseDate("2024-11-10")))

	// 2024-11-06 is a Wednesday.
	require.Equal(t, "2024-11-03", MustParseDate("2024-11-06").StartOfWeek().String())
	require.Equal(t, "2024-11-03", MustParseDate("2024-11-03").StartOfWeek().String())
	require.Equal(t, "2024-02-29", MustParseDate("2024-02-10").LastOfMonth().String())
}

func TestDateCodecs(t *testing.T) {
	e := Event{ID: "1", Title: "Vacation", Start: MustParseDate("2024-11-05"), End: MustParseDate("2024-11-10"), Color: ColorPeacock}

	b, err := json.Marshal(e)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1","title":"Vacation","start":"2024-11-05","end":"2024-11-10","color":"peacock"}`, string(b))

	y, err := yaml.Marshal(e)
	require.NoError(t, err)
	require.Contains(t, string(y), "2024-11-05")
	var again Event
	require.NoError(t, yaml.Unmarshal(y, &again))
	require.Equal(t, e, again)

	var back Event
	require.NoError(t, yaml.Unmarshal([]byte("id: \"1\"\ntitle: Vacation\nstart: 2024-11-05\nend: 2024-11-10\ncolor: bg-[#039BE5]\n"), &back))
	require.Equal(t, e, back)
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"peacock", "Peacock", "#039be5", "bg-[#039BE5]"} {
		c, err := ParseColor(in)
		require.NoError(t, err, in)
		require.Equal(t, ColorPeacock, c)
	}
	_, err := ParseColor("chartreuse")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "color", verr.Field)
	require.Len(t, Palette(), 9)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Week")
	require.NoError(t, err)
	require.Equal(t, Week, g)

	_, err = ParseGranularity("year")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEventValidate(t *testing.T) {
	base := Event{ID: "1", Title: "x", Start: MustParseDate("2024-11-05"), End: MustParseDate("2024-11-05"), Color: ColorSage}
	require.NoError(t, base.Validate())
	require.Equal(t, 1, base.Days())
	require.True(t, base.Covers(MustParseDate("2024-11-05")))

	blank := base
	blank.Title = "  "
	require.ErrorIs(t, blank.Validate(), ErrValidation)

	reversed := base
	reversed.End = MustParseDate("2024-11-04")
	require.ErrorIs(t, reversed.Validate(), ErrValidation)

	badColor := base
	badColor.Color = "mauve"
	require.ErrorIs(t, badColor.Validate(), ErrValidation)
}

func TestPatchApply(t *testing.T) {
	e := Event{ID: "1", Title: "old", Start: MustParseDate("2024-11-05"), End: MustParseDate("2024-11-06"), Color: ColorSage}
	title := "new"
	end := MustParseDate("2024-11-09")
	got := Patch{Title: &title, End: &end}.Apply(e)

	require.Equal(t, "new", got.Title)
	require.Equal(t, "2024-11-09", got.End.String())
	require.Equal(t, "old", e.Title)
	require.True(t, Patch{}.Empty())
}

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestKeyIgnoresTimeOfDay(t *testing.T) {
	seoul := mustLoad(t, "Asia/Seoul")
	late := time.Date(2025, 10, 3, 23, 59, 0, 0, seoul)
	early := time.Date(2025, 10, 3, 0, 1, 0, 0, seoul)

	assert.Equal(t, "2025-10-03", Key(late))
	assert.Equal(t, "2025-10-03", Key(early))
	// UTC conversion of the late value would roll the date back by a day; Key must not.
	assert.Equal(t, "2025-10-03", Key(Normalize(late)))
}

func TestParseRoundTrip(t *testing.T) {
	d, err := Parse(" 2026-02-17 ")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-17", Key(d))
	assert.Equal(t, time.UTC, d.Location())

	_, err = Parse("17/02/2026")
	assert.Error(t, err)
}

// In Sao Paulo 2018-11-04 began at 01:00; local midnight did not exist.
func TestDatesSurviveMidnightDSTSwitch(t *testing.T) {
	saoPaulo := mustLoad(t, "America/Sao_Paulo")

	d, err := Parse("2018-11-04")
	require.NoError(t, err)
	assert.Equal(t, "2018-11-04", Key(d))
	assert.True(t, IsHoliday(d, NewHolidaySet("2018-11-04")))

	local := time.Date(2018, 11, 4, 1, 30, 0, 0, saoPaulo)
	assert.Equal(t, "2018-11-04", Key(Normalize(local)))
	assert.Equal(t, time.Sunday, Normalize(local).Weekday())
	assert.Equal(t, Key(time.Now().In(saoPaulo)), Key(Today(saoPaulo)))

	var seen []string
	EachDay(time.Date(2018, 11, 1, 0, 0, 0, 0, saoPaulo), time.Date(2018, 11, 9, 0, 0, 0, 0, saoPaulo), func(d time.Time) bool {
		seen = append(seen, Key(d))
		return true
	})
	assert.Equal(t, []string{
		"2018-11-01", "2018-11-02", "2018-11-03", "2018-11-04", "2018-11-05",
		"2018-11-06", "2018-11-07", "2018-11-08", "2018-11-09",
	}, seen)
	assert.Equal(t, 9, DaysInclusive(time.Date(2018, 11, 1, 0, 0, 0, 0, saoPaulo), time.Date(2018, 11, 9, 0, 0, 0, 0, saoPaulo)))
}

func TestEnumerateWeekdaysAgreesWithEachDayAcrossDSTYears(t *testing.T) {
	saoPaulo := mustLoad(t, "America/Sao_Paulo")
	start := time.Date(2017, 1, 1, 0, 0, 0, 0, saoPaulo)
	end := time.Date(2019, 12, 31, 0, 0, 0, 0, saoPaulo)

	var want []string
	EachDay(start, end, func(d time.Time) bool {
		if IsWeekday(d) {
			want = append(want, Key(d))
		}
		return true
	})
	got, err := EnumerateWeekdays(start, end, nil)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	assert.Equal(t, 782, len(got))
	for i := range got {
		assert.Equal(t, want[i], Key(got[i]))
	}
}

func TestIsHolidayAnyTimeOfDay(t *testing.T) {
	holidays := NewHolidaySet("2025-10-03", "2025-10-09", " ")
	newYork := mustLoad(t, "America/New_York")

	for _, hour := range []int{0, 6, 12, 18, 23} {
		assert.True(t, IsHoliday(time.Date(2025, 10, 3, hour, 30, 0, 0, newYork), holidays), "hour %d", hour)
		assert.False(t, IsHoliday(time.Date(2025, 10, 4, hour, 30, 0, 0, newYork), holidays), "hour %d", hour)
	}
	assert.Len(t, holidays, 2)
	assert.False(t, IsHoliday(time.Now(), nil))
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, IsWeekday(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))  // Monday
	assert.True(t, IsWeekday(time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)))  // Friday
	assert.False(t, IsWeekday(time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC))) // Saturday
	assert.False(t, IsWeekday(time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC))) // Sunday
}

func TestEnumerateWeekdaysMatchesDirectCount(t *testing.T) {
	seoul := mustLoad(t, "Asia/Seoul")
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, seoul)
	holidays := NewHolidaySet("2025-08-15", "2025-10-03", "2025-10-06", "2025-12-25", "2026-01-01", "2025-10-04")

	for _, span := range []int{0, 1, 6, 30, 200, 400} {
		end := start.AddDate(0, 0, span)
		got, err := EnumerateWeekdays(start, end, holidays)
		require.NoError(t, err)

		var want []string
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday || holidays.Contains(d) {
				continue
			}
			want = append(want, Key(d))
		}

		require.Len(t, got, len(want), "span %d", span)
		for i, d := range got {
			assert.Equal(t, want[i], Key(d))
			assert.True(t, IsWeekday(d))
			assert.False(t, holidays.Contains(d))
			if i > 0 {
				assert.True(t, d.After(got[i-1]))
			}
		}
	}
}

func TestEnumerateWeekdaysEmptyWhenReversed(t *testing.T) {
	start := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	got, err := EnumerateWeekdays(start, start.AddDate(0, 0, -1), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDaysInclusive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysInclusive(start, start))
	assert.Equal(t, 365, DaysInclusive(start, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysInclusive(start, start.AddDate(0, 0, -1)))
}

func TestDayNames(t *testing.T) {
	assert.Equal(t, "monday", DayName(time.Monday))
	wd, ok := ParseDayName(" Friday ")
	require.True(t, ok)
	assert.Equal(t, time.Friday, wd)
	_, ok = ParseDayName("funday")
	assert.False(t, ok)
}

func TestEachDayStops(t *testing.T) {
	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	var seen []string
	EachDay(start, start.AddDate(0, 0, 10), func(d time.Time) bool {
		seen = append(seen, Key(d))
		return len(seen) < 3
	})
	assert.Equal(t, []string{"2025-09-01", "2025-09-02", "2025-09-03"}, seen)
}

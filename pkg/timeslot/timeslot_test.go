package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2030-01-07 is a Monday.
var monday = time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2030, time.January, 7, hour, minute, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func mustDay(t *testing.T, open, close string, interval int, breakStart, breakEnd *string) Day {
	t.Helper()
	day, err := NewDay(open, close, interval, breakStart, breakEnd)
	require.NoError(t, err)
	return day
}

func starts(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{at(10, 0), at(10, 30)}, Interval{at(10, 0), at(10, 30)}, true},
		{"partial", Interval{at(10, 0), at(10, 30)}, Interval{at(10, 15), at(10, 45)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(10, 30)}, true},
		{"touching end", Interval{at(10, 0), at(10, 30)}, Interval{at(10, 30), at(11, 0)}, false},
		{"touching start", Interval{at(10, 30), at(11, 0)}, Interval{at(10, 0), at(10, 30)}, false},
		{"disjoint", Interval{at(9, 0), at(9, 30)}, Interval{at(11, 0), at(11, 30)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(570), c)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("9.30")
	assert.ErrorIs(t, err, ErrInvalidClock)

	_, err = ParseClock("25:00")
	assert.ErrorIs(t, err, ErrInvalidClock)

	c, err = ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", c.String())

	c, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, Midnight, c)
	assert.Equal(t, "24:00", c.String())
	assert.Equal(t, time.Date(2030, time.January, 8, 0, 0, 0, 0, time.UTC), c.On(monday))

	_, err = ParseClock("24:30")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestGenerate_OpenUntilMidnight(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "22:00", "24:00", 60, nil, nil),
		Duration: 60 * time.Minute,
		Now:      at(8, 0),
	})

	assert.Equal(t, []string{"22:00", "23:00"}, starts(res.Available))
	assert.Equal(t, time.Date(2030, time.January, 8, 0, 0, 0, 0, time.UTC), res.Available[1].End)
}

func TestDayFits(t *testing.T) {
	day := mustDay(t, "09:00", "17:00", 30, strPtr("12:00"), strPtr("13:00"))

	tests := []struct {
		name     string
		window   Interval
		duration time.Duration
		wantErr  error
	}{
		{"first slot", Interval{at(9, 0), at(9, 30)}, 30 * time.Minute, nil},
		{"last slot", Interval{at(16, 30), at(17, 0)}, 30 * time.Minute, nil},
		{"long slot after break", Interval{at(13, 0), at(14, 0)}, time.Hour, nil},
		{"wrong length", Interval{at(9, 0), at(10, 0)}, 30 * time.Minute, ErrLength},
		{"before opening", Interval{at(8, 30), at(9, 0)}, 30 * time.Minute, ErrOutsideDay},
		{"ends after closing", Interval{at(16, 30), at(17, 30)}, time.Hour, ErrOutsideDay},
		{"off grid", Interval{at(9, 10), at(9, 40)}, 30 * time.Minute, ErrOffGrid},
		{"inside break", Interval{at(12, 0), at(12, 30)}, 30 * time.Minute, ErrInBreak},
		{"crossing break", Interval{at(11, 30), at(12, 30)}, time.Hour, ErrInBreak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := day.Fits(monday, tt.window, tt.duration)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDayFits_AgreesWithGenerate(t *testing.T) {
	day := mustDay(t, "09:00", "17:00", 30, strPtr("12:00"), strPtr("13:00"))
	res := Generate(Request{Date: monday, Day: day, Duration: time.Hour, Now: at(8, 0)})

	require.NotEmpty(t, res.Available)
	for _, s := range res.Available {
		assert.NoError(t, day.Fits(monday, s.Interval(), time.Hour), s.Start.Format("15:04"))
	}
}

func TestNewDay_Validation(t *testing.T) {
	tests := []struct {
		name       string
		open       string
		close      string
		interval   int
		breakStart *string
		breakEnd   *string
		wantErr    error
	}{
		{"open after close", "17:00", "09:00", 30, nil, nil, ErrOpenAfterClose},
		{"open equals close", "09:00", "09:00", 30, nil, nil, ErrOpenAfterClose},
		{"zero interval", "09:00", "17:00", 0, nil, nil, ErrInvalidInterval},
		{"half break", "09:00", "17:00", 30, strPtr("12:00"), nil, ErrBreakIncomplete},
		{"reversed break", "09:00", "17:00", 30, strPtr("13:00"), strPtr("12:00"), ErrBreakOrder},
		{"break outside", "09:00", "17:00", 30, strPtr("16:30"), strPtr("17:30"), ErrBreakOutside},
		{"bad clock", "9am", "17:00", 30, nil, nil, ErrInvalidClock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDay(tt.open, tt.close, tt.interval, tt.breakStart, tt.breakEnd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEffectiveDuration(t *testing.T) {
	assert.Equal(t, 60*time.Minute, EffectiveDuration(30*time.Minute, 60))
	assert.Equal(t, 30*time.Minute, EffectiveDuration(30*time.Minute, 45), "non-multiple falls back to interval")
	assert.Equal(t, 30*time.Minute, EffectiveDuration(30*time.Minute, 0))
	assert.Equal(t, 30*time.Minute, EffectiveDuration(30*time.Minute, -30))
}

func TestGenerate_FullDayWithOneBooking(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "17:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Occupied: []Interval{{at(10, 0), at(10, 30)}},
		Now:      at(8, 0),
	})

	assert.Len(t, res.Available, 15)
	assert.Equal(t, []string{"10:00"}, starts(res.Booked))
	assert.Equal(t, "09:00", res.Available[0].Start.Format("15:04"))
	assert.Equal(t, "16:30", res.Available[len(res.Available)-1].Start.Format("15:04"))

	for _, s := range res.Available {
		assert.True(t, s.Available)
	}
	for _, s := range res.Booked {
		assert.False(t, s.Available)
	}
}

func TestGenerate_BreakExcludesSlots(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "17:00", 30, strPtr("12:00"), strPtr("13:00")),
		Duration: 30 * time.Minute,
		Now:      at(8, 0),
	})

	got := starts(res.Available)
	assert.Len(t, got, 14)
	assert.Contains(t, got, "11:30")
	assert.Contains(t, got, "13:00")
	assert.NotContains(t, got, "12:00")
	assert.NotContains(t, got, "12:30")
	assert.Empty(t, res.Booked)
}

func TestGenerate_LongServiceCrossingBreakIsSkipped(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "14:00", 30, strPtr("12:00"), strPtr("13:00")),
		Duration: 60 * time.Minute,
		Now:      at(8, 0),
	})

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "13:00"}, starts(res.Available))
}

func TestGenerate_BoundsAndGrid(t *testing.T) {
	day := mustDay(t, "09:00", "17:00", 30, nil, nil)
	res := Generate(Request{
		Date:     monday,
		Day:      day,
		Duration: 60 * time.Minute,
		Occupied: []Interval{{at(10, 0), at(10, 30)}},
		Now:      at(8, 0),
	})

	all := append(append([]Slot{}, res.Available...), res.Booked...)
	assert.Len(t, all, 15)
	assert.Equal(t, []string{"09:30", "10:00"}, starts(res.Booked))

	for _, s := range all {
		assert.False(t, s.Start.Before(at(9, 0)))
		assert.False(t, s.End.After(at(17, 0)))
		assert.Equal(t, 60*time.Minute, s.End.Sub(s.Start))
		assert.Zero(t, s.Start.Sub(at(9, 0))%day.Interval, "slot must start on the clinic grid")
	}
}

func TestGenerate_TouchingBookingsDoNotBlock(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "11:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Occupied: []Interval{{at(9, 30), at(10, 0)}},
		Now:      at(8, 0),
	})

	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, starts(res.Available))
	assert.Equal(t, []string{"09:30"}, starts(res.Booked))
}

func TestGenerate_PastSlotsAreDropped(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "12:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Occupied: []Interval{{at(9, 0), at(9, 30)}},
		Now:      at(10, 0),
	})

	// 10:00 is not strictly after now
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, starts(res.Available))
	assert.Empty(t, res.Booked)
}

func TestGenerate_MinLead(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "12:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Now:      at(9, 10),
		MinLead:  time.Hour,
	})

	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, starts(res.Available))
}

func TestGenerate_Idempotent(t *testing.T) {
	req := Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "17:00", 20, strPtr("12:00"), strPtr("12:40")),
		Duration: 40 * time.Minute,
		Occupied: []Interval{{at(9, 20), at(10, 0)}, {at(15, 0), at(15, 40)}},
		Now:      at(8, 0),
	}

	assert.Equal(t, Generate(req), Generate(req))
}

func TestGenerate_ListsAreNeverNil(t *testing.T) {
	res := Generate(Request{
		Date:     monday,
		Day:      mustDay(t, "09:00", "10:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Now:      at(18, 0),
	})

	assert.NotNil(t, res.Available)
	assert.NotNil(t, res.Booked)
	assert.Empty(t, res.Available)
}

func TestGenerate_ClinicLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	date := time.Date(2030, time.January, 7, 0, 0, 0, 0, loc)
	res := Generate(Request{
		Date:     date,
		Day:      mustDay(t, "09:00", "10:00", 30, nil, nil),
		Duration: 30 * time.Minute,
		Now:      date.Add(-time.Hour),
	})

	require.Len(t, res.Available, 2)
	assert.Equal(t, time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC), res.Available[0].Start.UTC())
}

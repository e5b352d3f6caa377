// Package timeslot holds the interval arithmetic behind clinic availability:
// a single overlap predicate and the day slot generator built on it.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidClock    = errors.New("неверный формат времени, ожидается HH:MM")
	ErrOpenAfterClose  = errors.New("время открытия должно быть раньше времени закрытия")
	ErrInvalidInterval = errors.New("длительность слота должна быть положительной")
	ErrBreakIncomplete = errors.New("перерыв должен иметь и начало, и окончание")
	ErrBreakOrder      = errors.New("начало перерыва должно быть раньше его окончания")
	ErrBreakOutside    = errors.New("перерыв должен находиться внутри рабочего времени")

	ErrOutsideDay = errors.New("интервал выходит за рабочее время")
	ErrInBreak    = errors.New("интервал пересекается с перерывом")
	ErrOffGrid    = errors.New("начало интервала не совпадает с сеткой слотов")
	ErrLength     = errors.New("длина интервала не совпадает с длительностью слота")
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Overlaps reports whether a and b share any instant.
// Intervals that only touch at a boundary do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// OverlapsAny reports whether iv overlaps at least one of others.
func OverlapsAny(iv Interval, others []Interval) bool {
	for _, other := range others {
		if Overlaps(iv, other) {
			return true
		}
	}
	return false
}

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// Midnight is the end of the day. It is only meaningful as a closing time.
const Midnight Clock = 24 * 60

// ParseClock accepts HH:MM from 00:00 to 23:59, plus "24:00" for Midnight.
// A single-digit hour is accepted; String always pads it.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return Midnight, nil
	}

	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On anchors the clock on the calendar day of date, in date's location.
// Midnight lands on 00:00 of the following day.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, date.Location())
}

// Window is a clock range inside one day, e.g. a lunch break.
type Window struct {
	Start Clock
	End   Clock
}

func (w Window) On(date time.Time) Interval {
	return Interval{Start: w.Start.On(date), End: w.End.On(date)}
}

// Day is the working-hours configuration of one weekday.
type Day struct {
	Open     Clock
	Close    Clock
	Interval time.Duration
	Break    *Window
}

// NewDay parses the textual working-hours representation.
// breakStart and breakEnd must be both set or both nil.
func NewDay(open, close string, intervalMinutes int, breakStart, breakEnd *string) (Day, error) {
	openClock, err := ParseClock(open)
	if err != nil {
		return Day{}, err
	}
	closeClock, err := ParseClock(close)
	if err != nil {
		return Day{}, err
	}

	day := Day{
		Open:     openClock,
		Close:    closeClock,
		Interval: time.Duration(intervalMinutes) * time.Minute,
	}

	if (breakStart == nil) != (breakEnd == nil) {
		return Day{}, ErrBreakIncomplete
	}
	if breakStart != nil {
		start, err := ParseClock(*breakStart)
		if err != nil {
			return Day{}, err
		}
		end, err := ParseClock(*breakEnd)
		if err != nil {
			return Day{}, err
		}
		day.Break = &Window{Start: start, End: end}
	}

	return day, day.Validate()
}

func (d Day) Validate() error {
	if d.Open >= d.Close {
		return ErrOpenAfterClose
	}
	if d.Interval <= 0 {
		return ErrInvalidInterval
	}
	if d.Break != nil {
		if d.Break.Start >= d.Break.End {
			return ErrBreakOrder
		}
		if d.Break.Start < d.Open || d.Break.End > d.Close {
			return ErrBreakOutside
		}
	}
	return nil
}

// Fits reports whether iv is a window Generate could offer on the day of date
// for the given duration: inside working hours, clear of the break, starting
// on the interval grid and exactly duration long. Occupancy and now are not
// considered.
func (d Day) Fits(date time.Time, iv Interval, duration time.Duration) error {
	if d.Interval <= 0 || iv.End.Sub(iv.Start) != duration {
		return ErrLength
	}

	open := d.Open.On(date)
	if iv.Start.Before(open) || iv.End.After(d.Close.On(date)) {
		return ErrOutsideDay
	}
	if iv.Start.Sub(open)%d.Interval != 0 {
		return ErrOffGrid
	}
	if d.Break != nil && Overlaps(iv, d.Break.On(date)) {
		return ErrInBreak
	}
	return nil
}

// EffectiveDuration returns the slot length for a service.
// The service duration wins only when it is a positive multiple of the clinic interval.
func EffectiveDuration(interval time.Duration, serviceMinutes int) time.Duration {
	if serviceMinutes <= 0 || interval <= 0 {
		return interval
	}
	d := time.Duration(serviceMinutes) * time.Minute
	if d%interval != 0 {
		return interval
	}
	return d
}

type Slot struct {
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

type Request struct {
	// Date is any instant on the target day, expressed in the clinic's location.
	Date     time.Time
	Day      Day
	Duration time.Duration
	Occupied []Interval
	Now      time.Time
	// MinLead pushes the earliest bookable start past Now.
	MinLead time.Duration
}

type Result struct {
	Available []Slot
	Booked    []Slot
}

// Generate walks the clinic grid from opening time in steps of the clinic
// interval. Each candidate lasts req.Duration; iteration stops at the first
// candidate ending after closing time. Candidates crossing the break are
// skipped, candidates not starting strictly after now are dropped, the rest
// are split into available and booked by overlap with occupied intervals.
func Generate(req Request) Result {
	res := Result{
		Available: make([]Slot, 0),
		Booked:    make([]Slot, 0),
	}

	if req.Day.Interval <= 0 || req.Duration <= 0 {
		return res
	}

	open := req.Day.Open.On(req.Date)
	closing := req.Day.Close.On(req.Date)
	earliest := req.Now.Add(req.MinLead)

	var breakWindow *Interval
	if req.Day.Break != nil {
		w := req.Day.Break.On(req.Date)
		breakWindow = &w
	}

	for start := open; ; start = start.Add(req.Day.Interval) {
		end := start.Add(req.Duration)
		if end.After(closing) {
			break
		}

		candidate := Interval{Start: start, End: end}
		if breakWindow != nil && Overlaps(candidate, *breakWindow) {
			continue
		}
		if !start.After(earliest) {
			continue
		}

		slot := Slot{Start: start, End: end}
		if OverlapsAny(candidate, req.Occupied) {
			res.Booked = append(res.Booked, slot)
			continue
		}
		slot.Available = true
		res.Available = append(res.Available, slot)
	}

	return res
}

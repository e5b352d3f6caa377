package domain

import (
	"time"

	"dentalhub/pkg/timeslot"
)

const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 240
)

type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

func (d Weekday) Valid() bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// WorkingHours is the schedule of one clinic for one weekday.
// A weekday without a row means the clinic is closed.
type WorkingHours struct {
	ID                  int64     `json:"id"`
	ClinicID            int64     `json:"clinic_id"`
	DayOfWeek           Weekday   `json:"day_of_week"`
	OpenTime            string    `json:"open_time" example:"09:00"`
	CloseTime           string    `json:"close_time" example:"17:00"`
	SlotDurationMinutes int       `json:"slot_duration_minutes" example:"30"`
	BreakStartTime      *string   `json:"break_start_time,omitempty" example:"12:00"`
	BreakEndTime        *string   `json:"break_end_time,omitempty" example:"13:00"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (w WorkingHours) Day() (timeslot.Day, error) {
	return timeslot.NewDay(w.OpenTime, w.CloseTime, w.SlotDurationMinutes, w.BreakStartTime, w.BreakEndTime)
}

func (w WorkingHours) Validate() error {
	if !w.DayOfWeek.Valid() {
		return NewValidationError("неверный день недели: " + string(w.DayOfWeek))
	}
	if w.SlotDurationMinutes < MinSlotDurationMinutes || w.SlotDurationMinutes > MaxSlotDurationMinutes {
		return ErrInvalidSlotLength
	}
	if _, err := w.Day(); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}

// Canonical rewrites every clock of w as zero-padded HH:MM, so "9:00" is stored as "09:00".
func (w WorkingHours) Canonical() (WorkingHours, error) {
	day, err := w.Day()
	if err != nil {
		return w, NewValidationError(err.Error())
	}

	w.OpenTime = day.Open.String()
	w.CloseTime = day.Close.String()
	if day.Break != nil {
		start, end := day.Break.Start.String(), day.Break.End.String()
		w.BreakStartTime, w.BreakEndTime = &start, &end
	}
	return w, nil
}

type WorkingHoursDayDTO struct {
	DayOfWeek           Weekday `json:"day_of_week" binding:"required"`
	OpenTime            string  `json:"open_time" binding:"required"`
	CloseTime           string  `json:"close_time" binding:"required"`
	SlotDurationMinutes int     `json:"slot_duration_minutes" binding:"required"`
	BreakStartTime      *string `json:"break_start_time"`
	BreakEndTime        *string `json:"break_end_time"`
}

type ReplaceWorkingHoursDTO struct {
	Days []WorkingHoursDayDTO `json:"days" binding:"dive"`
}

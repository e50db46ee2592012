package schedule

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWorkingHours = errors.New("working hours must satisfy 0 <= start < end <= 24")
	ErrNoWorkingDays       = errors.New("at least one working day is required")
	ErrNegativeDailyLimit  = errors.New("max daily appointments cannot be negative")
	ErrNonPositiveDuration = errors.New("default duration must be positive")
	ErrNonPositiveAdvance  = errors.New("advance booking window must be at least one day")
	ErrNegativeBuffer      = errors.New("buffer time cannot be negative")
)

// Settings is a fully-resolved scheduling policy. TechnicianRef is nil for
// the global row and set for a per-technician override.
type Settings struct {
	TechnicianRef        *uuid.UUID
	WorkingHoursStart    float64 // fractional hours, e.g. 8.5 == 08:30
	WorkingHoursEnd      float64
	WorkingDays          []time.Weekday
	MaxDailyAppointments int // 0 means no cap
	DefaultDuration      time.Duration
	AdvanceBookingDays   int
	BufferTime           time.Duration
}

// DefaultSettings is the built-in policy used when no row exists at all:
// weekdays nine-to-five, one-hour visits, thirty days ahead, no buffer.
func DefaultSettings() Settings {
	return Settings{
		WorkingHoursStart:    9,
		WorkingHoursEnd:      17,
		WorkingDays:          []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		MaxDailyAppointments: 0,
		DefaultDuration:      time.Hour,
		AdvanceBookingDays:   30,
		BufferTime:           0,
	}
}

func (s Settings) Validate() error {
	if s.WorkingHoursStart < 0 || s.WorkingHoursEnd > 24 || s.WorkingHoursStart >= s.WorkingHoursEnd {
		return ErrInvalidWorkingHours
	}
	if len(s.WorkingDays) == 0 {
		return ErrNoWorkingDays
	}
	if s.MaxDailyAppointments < 0 {
		return ErrNegativeDailyLimit
	}
	if s.DefaultDuration <= 0 {
		return ErrNonPositiveDuration
	}
	if s.AdvanceBookingDays < 1 {
		return ErrNonPositiveAdvance
	}
	if s.BufferTime < 0 {
		return ErrNegativeBuffer
	}
	return nil
}

// Resolve picks the effective policy for a technician: their own override
// wins, then the global row, then the built-in default. Resolution never
// merges field-by-field; a row is taken whole.
func Resolve(technician, global *Settings) Settings {
	if technician != nil {
		return *technician
	}
	if global != nil {
		return *global
	}
	return DefaultSettings()
}

func (s Settings) IsWorkingDay(day time.Weekday) bool {
	for _, d := range s.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// WithinWorkingHours reports whether [start, end) fits inside the working
// window of start's day. End is compared as a same-day offset, so a slot
// crossing midnight always fails.
func (s Settings) WithinWorkingHours(start, end time.Time) bool {
	startHour := fractionalHour(start)
	endHour := fractionalHour(end)
	if !sameDay(start, end) {
		if !end.Equal(startOfDay(end)) {
			return false
		}
		endHour = 24
	}
	return startHour >= s.WorkingHoursStart && endHour <= s.WorkingHoursEnd
}

// DayStart returns the clock time the working window opens on the given day.
func (s Settings) DayStart(day time.Time) time.Time {
	return startOfDay(day).Add(hoursToDuration(s.WorkingHoursStart))
}

// DayEnd returns the clock time the working window closes on the given day.
func (s Settings) DayEnd(day time.Time) time.Time {
	return startOfDay(day).Add(hoursToDuration(s.WorkingHoursEnd))
}

func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package appointment

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNonPositiveDuration = errors.New("duration must be positive")
)

// TimeSlot is the half-open interval [start, start+duration) an appointment
// occupies.
type TimeSlot struct {
	start    time.Time
	duration time.Duration
}

func NewTimeSlot(start time.Time, duration time.Duration) (TimeSlot, error) {
	if duration <= 0 {
		return TimeSlot{}, ErrNonPositiveDuration
	}

	return TimeSlot{
		start:    start,
		duration: duration,
	}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.start.Add(ts.duration)
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.duration
}

func (ts TimeSlot) Hours() float64 {
	return ts.duration.Hours()
}

// Overlaps uses half-open semantics: [a,b) and [c,d) overlap iff a < d && c < b.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.End()) && other.start.Before(ts.End())
}

// Expand grows the slot by margin on both sides. Used to enforce the
// symmetric buffer gap around booked appointments.
func (ts TimeSlot) Expand(margin time.Duration) TimeSlot {
	if margin <= 0 {
		return ts
	}
	return TimeSlot{
		start:    ts.start.Add(-margin),
		duration: ts.duration + 2*margin,
	}
}

// SameDay reports whether the slot starts on the given calendar day,
// evaluated in the day's location.
func (ts TimeSlot) SameDay(day time.Time) bool {
	y1, m1, d1 := ts.start.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (ts TimeSlot) String() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.End().Format(time.RFC3339))
}

// Note is free-form appointment text (service details, location notes).
type Note struct {
	value string
}

func NewNote(value string) Note {
	return Note{value: value}
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}

package schedule

import (
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
)

// suggestStep is the granularity of the candidate scan.
const suggestStep = 30 * time.Minute

// SuggestSlots walks a day's working window in half-hour steps and returns
// every candidate slot of the given duration that passes the full
// availability check. An empty result means the day is fully booked (or not
// a working day at all).
func SuggestSlots(
	s Settings,
	now time.Time,
	day time.Time,
	duration time.Duration,
	existing []BookedSlot,
	limit int,
) []appointment.TimeSlot {
	if duration <= 0 {
		duration = s.DefaultDuration
	}

	var out []appointment.TimeSlot
	end := s.DayEnd(day)
	for start := s.DayStart(day); !start.Add(duration).After(end); start = start.Add(suggestStep) {
		slot, err := appointment.NewTimeSlot(start, duration)
		if err != nil {
			return out
		}
		if CheckAvailability(s, now, slot, existing, uuid.Nil) != nil {
			continue
		}
		out = append(out, slot)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

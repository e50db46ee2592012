package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
)

var (
	ErrPastDate            = errors.New("appointment cannot start in the past")
	ErrTooFarAhead         = errors.New("appointment exceeds the advance booking window")
	ErrOutsideWorkingHours = errors.New("appointment falls outside working hours")
	ErrDailyLimitExceeded  = errors.New("technician daily appointment limit reached")
)

// ConflictError reports the first blocking appointment whose buffered slot
// overlaps the requested one.
type ConflictError struct {
	AppointmentID uuid.UUID
	Reference     string
	Slot          appointment.TimeSlot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot overlaps appointment %s %s", e.Reference, e.Slot)
}

// BookedSlot is the projection of an existing appointment the checker needs:
// identity for reporting, the slot, and whether its status blocks the diary.
type BookedSlot struct {
	ID        uuid.UUID
	Reference string
	Slot      appointment.TimeSlot
	Status    appointment.Status
}

// CheckAvailability runs the booking checks in order and returns the first
// failure: past start, advance window, working calendar, daily cap, then
// overlap against blocking entries. excludeID skips the appointment being
// rescheduled so it never conflicts with itself.
func CheckAvailability(
	s Settings,
	now time.Time,
	slot appointment.TimeSlot,
	existing []BookedSlot,
	excludeID uuid.UUID,
) error {
	// A start equal to now is already unbookable.
	if !slot.Start().After(now) {
		return ErrPastDate
	}

	horizon := now.AddDate(0, 0, s.AdvanceBookingDays)
	if slot.Start().After(horizon) {
		return ErrTooFarAhead
	}

	if !s.IsWorkingDay(slot.Start().Weekday()) || !s.WithinWorkingHours(slot.Start(), slot.End()) {
		return ErrOutsideWorkingHours
	}

	blocking := make([]BookedSlot, 0, len(existing))
	for _, b := range existing {
		if b.ID == excludeID || !b.Status.Blocks() {
			continue
		}
		blocking = append(blocking, b)
	}

	if s.MaxDailyAppointments > 0 {
		sameDay := 0
		for _, b := range blocking {
			if b.Slot.SameDay(slot.Start()) {
				sameDay++
			}
		}
		if sameDay >= s.MaxDailyAppointments {
			return ErrDailyLimitExceeded
		}
	}

	// Buffer applies symmetrically around existing bookings; the requested
	// slot itself is compared as-is.
	for _, b := range blocking {
		if b.Slot.Expand(s.BufferTime).Overlaps(slot) {
			return &ConflictError{AppointmentID: b.ID, Reference: b.Reference, Slot: b.Slot}
		}
	}

	return nil
}

package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/schedule"
	"support-center/internal/pkg/clock"
)

// SlotSuggestion is one free candidate returned by the availability scan.
type SlotSuggestion struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type AvailabilityQueries interface {
	// Suggest lists free slots of the requested duration on the given day
	// for the technician, honoring their effective scheduling policy.
	Suggest(ctx context.Context, technicianRef uuid.UUID, day time.Time, durationMin, limit int) ([]SlotSuggestion, error)
}

type BookedSlotReader interface {
	ActiveSlots(ctx context.Context, technicianRef uuid.UUID, from, to time.Time) ([]schedule.BookedSlot, error)
}

type availabilityQueriesImpl struct {
	settings SettingsReader
	slots    BookedSlotReader
	clock    clock.Clock
}

func NewAvailabilityQueries(settings SettingsReader, slots BookedSlotReader, clock clock.Clock) AvailabilityQueries {
	return &availabilityQueriesImpl{settings: settings, slots: slots, clock: clock}
}

func (q *availabilityQueriesImpl) Suggest(ctx context.Context, technicianRef uuid.UUID, day time.Time, durationMin, limit int) ([]SlotSuggestion, error) {
	tech, err := q.settings.ForTechnician(ctx, technicianRef)
	if err != nil {
		return nil, err
	}
	global, err := q.settings.Global(ctx)
	if err != nil {
		return nil, err
	}
	policy := schedule.Resolve(tech, global)

	// A day's worth of bookings either side so buffered neighbors are seen.
	existing, err := q.slots.ActiveSlots(ctx, technicianRef, day.AddDate(0, 0, -1), day.AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}

	duration := policy.DefaultDuration
	if durationMin > 0 {
		duration = time.Duration(durationMin) * time.Minute
	}

	free := schedule.SuggestSlots(policy, q.clock.Now(), day, duration, existing, limit)
	out := make([]SlotSuggestion, 0, len(free))
	for _, s := range free {
		out = append(out, SlotSuggestion{StartTime: s.Start(), EndTime: s.End()})
	}
	return out, nil
}

//go:build unit

package appointment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-center/internal/domain/appointment"
)

func mustSlot(t *testing.T, start string, d time.Duration) appointment.TimeSlot {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	slot, err := appointment.NewTimeSlot(ts, d)
	require.NoError(t, err)
	return slot
}

func TestNewTimeSlot(t *testing.T) {
	t.Run("rejects zero duration", func(t *testing.T) {
		_, err := appointment.NewTimeSlot(time.Now(), 0)
		assert.ErrorIs(t, err, appointment.ErrNonPositiveDuration)
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		_, err := appointment.NewTimeSlot(time.Now(), -time.Hour)
		assert.ErrorIs(t, err, appointment.ErrNonPositiveDuration)
	})

	t.Run("computes end from duration", func(t *testing.T) {
		slot := mustSlot(t, "2026-09-07T10:00:00Z", 90*time.Minute)
		assert.Equal(t, "2026-09-07T11:30:00Z", slot.End().Format(time.RFC3339))
		assert.InDelta(t, 1.5, slot.Hours(), 1e-9)
	})
}

func TestTimeSlotOverlaps(t *testing.T) {
	base := mustSlot(t, "2026-09-07T10:00:00Z", time.Hour)

	cases := []struct {
		name  string
		other appointment.TimeSlot
		want  bool
	}{
		{"identical", mustSlot(t, "2026-09-07T10:00:00Z", time.Hour), true},
		{"contained", mustSlot(t, "2026-09-07T10:15:00Z", 30*time.Minute), true},
		{"straddles start", mustSlot(t, "2026-09-07T09:30:00Z", time.Hour), true},
		{"straddles end", mustSlot(t, "2026-09-07T10:30:00Z", time.Hour), true},
		{"back to back before", mustSlot(t, "2026-09-07T09:00:00Z", time.Hour), false},
		{"back to back after", mustSlot(t, "2026-09-07T11:00:00Z", time.Hour), false},
		{"disjoint", mustSlot(t, "2026-09-07T14:00:00Z", time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestTimeSlotExpand(t *testing.T) {
	slot := mustSlot(t, "2026-09-07T10:00:00Z", time.Hour)

	t.Run("grows both sides", func(t *testing.T) {
		grown := slot.Expand(30 * time.Minute)
		assert.Equal(t, "2026-09-07T09:30:00Z", grown.Start().Format(time.RFC3339))
		assert.Equal(t, "2026-09-07T11:30:00Z", grown.End().Format(time.RFC3339))
	})

	t.Run("zero margin is identity", func(t *testing.T) {
		assert.Equal(t, slot, slot.Expand(0))
	})

	t.Run("buffer turns a touching slot into a conflict", func(t *testing.T) {
		next := mustSlot(t, "2026-09-07T11:00:00Z", time.Hour)
		assert.False(t, slot.Overlaps(next))
		assert.True(t, slot.Expand(15*time.Minute).Overlaps(next))
	})
}

func TestTimeSlotSameDay(t *testing.T) {
	slot := mustSlot(t, "2026-09-07T23:30:00Z", time.Hour)

	sameDay := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	assert.True(t, slot.SameDay(sameDay))
	// Crossing midnight does not move the slot's day; it starts on the 7th.
	assert.False(t, slot.SameDay(nextDay))
}

func TestNote(t *testing.T) {
	assert.True(t, appointment.NewNote("").IsEmpty())

	n := appointment.NewNote("gate code 4411")
	assert.False(t, n.IsEmpty())
	assert.Equal(t, "gate code 4411", n.String())
}

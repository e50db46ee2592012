package shared

import (
	"context"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
)

// UnitOfWork wraps a function in a transaction. WithinTechnician
// additionally serializes on the technician's diary, so the
// check-then-insert booking sequence cannot race a concurrent booking for
// the same technician.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	WithinTechnician(ctx context.Context, technicianRef uuid.UUID, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Appointments() AppointmentRepository
	Settings() SettingsRepository
	Events() EventRepository
}

type AppointmentRepository interface {
	// Create persists a new appointment and returns the assigned id and
	// sequential reference.
	Create(ctx context.Context, a *appointment.Appointment) (uuid.UUID, string, error)
	Update(ctx context.Context, a *appointment.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	// ActiveSlots returns every appointment of the technician whose slot
	// intersects [from, to), regardless of status; the checker filters by
	// blocking status itself.
	ActiveSlots(ctx context.Context, technicianRef uuid.UUID, from, to time.Time) ([]schedule.BookedSlot, error)
	// DueForReminder selects confirmed, reminder-enabled, not-yet-reminded
	// appointments starting in (now, until].
	DueForReminder(ctx context.Context, now, until time.Time) ([]*appointment.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
	MarkConfirmationSent(ctx context.Context, id uuid.UUID) error
}

type SettingsRepository interface {
	// ForTechnician returns nil without error when no override row exists.
	ForTechnician(ctx context.Context, technicianRef uuid.UUID) (*schedule.Settings, error)
	// Global returns nil without error when no global row exists.
	Global(ctx context.Context) (*schedule.Settings, error)
	Upsert(ctx context.Context, s schedule.Settings) error
}

// Event is one audit-trail row for an appointment.
type Event struct {
	ID            int64
	AppointmentID uuid.UUID
	Kind          string
	ActorID       uuid.UUID
	Detail        string
	OccurredAt    time.Time
}

const (
	EventCreated     = "created"
	EventConfirmed   = "confirmed"
	EventStarted     = "started"
	EventCompleted   = "completed"
	EventCancelled   = "cancelled"
	EventRescheduled = "rescheduled"
	EventReminded    = "reminded"
)

type EventRepository interface {
	Append(ctx context.Context, e Event) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Event, error)
}

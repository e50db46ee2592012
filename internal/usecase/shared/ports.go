package shared

import (
	"context"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
)

// TicketGateway mirrors appointment lifecycle changes onto the linked
// helpdesk ticket. Both calls are fire-and-forget: a broker outage must not
// fail the appointment operation, so implementations log and swallow
// publish errors.
type TicketGateway interface {
	// EmitCreated announces a freshly minted ticket for an appointment
	// booked without one.
	EmitCreated(ctx context.Context, ticketRef uuid.UUID, a *appointment.Appointment)
	// SyncStatus maps the appointment status onto the ticket stage.
	SyncStatus(ctx context.Context, a *appointment.Appointment)
}

// Mailer delivers customer-facing notifications. Errors are returned so the
// caller can decide whether a failed send still counts as attempted.
type Mailer interface {
	SendConfirmation(ctx context.Context, a *appointment.Appointment) error
	SendReminder(ctx context.Context, a *appointment.Appointment) error
	SendCompletion(ctx context.Context, a *appointment.Appointment) error
}

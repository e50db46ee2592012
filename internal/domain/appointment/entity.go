package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingTicketReference = errors.New("appointment is missing its linked ticket reference")
	ErrInvalidInitialStatus   = errors.New("appointments start as draft or confirmed only")
	ErrInvalidPriority        = errors.New("invalid priority")
	ErrInvalidCreatedVia      = errors.New("invalid creation channel")
	ErrInvalidCancelReason    = errors.New("invalid cancellation reason")
	ErrNotReschedulable       = errors.New("only draft and confirmed appointments can be rescheduled")
)

// InvalidTransitionError names both ends of a rejected lifecycle move so the
// caller can report exactly what was attempted.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ForbiddenTransitionError is the in-domain authorization backstop: a
// technician actor may only move their own appointments, independent of
// whatever the security layer already enforced.
type ForbiddenTransitionError struct {
	ActorID uuid.UUID
	To      Status
}

func (e *ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("actor %s may not transition this appointment to %s", e.ActorID, e.To)
}

// Actor is the capability flag supplied by the authorization collaborator.
type Actor struct {
	ID        uuid.UUID
	IsManager bool
}

func (a Actor) CanManage(technicianRef uuid.UUID) bool {
	return a.IsManager || a.ID == technicianRef
}

type Appointment struct {
	id            uuid.UUID
	reference     string // "APPT-0001", assigned once by the store
	customerRef   uuid.UUID
	customerEmail string
	technicianRef uuid.UUID
	ticketRef     uuid.UUID
	slot          TimeSlot
	status        Status
	priority      Priority
	createdVia    CreatedVia
	location      string
	description   Note

	sendConfirmationEmail bool
	sendReminderEmail     bool
	confirmationSent      bool
	reminderSent          bool

	cancelledAt   *time.Time
	cancelReason  *CancelReason
	cancelDetails string

	createdAt time.Time
	updatedAt time.Time
}

type NewAppointmentParams struct {
	CustomerRef           uuid.UUID
	CustomerEmail         string
	TechnicianRef         uuid.UUID
	TicketRef             uuid.UUID
	Slot                  TimeSlot
	InitialStatus         Status
	Priority              Priority
	CreatedVia            CreatedVia
	Location              string
	Description           Note
	SendConfirmationEmail bool
	SendReminderEmail     bool
}

func NewAppointment(p NewAppointmentParams) (*Appointment, error) {
	if p.TicketRef == uuid.Nil {
		return nil, ErrMissingTicketReference
	}
	if p.InitialStatus != StatusDraft && p.InitialStatus != StatusConfirmed {
		return nil, ErrInvalidInitialStatus
	}
	if !p.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if !p.CreatedVia.IsValid() {
		return nil, ErrInvalidCreatedVia
	}

	return &Appointment{
		id:                    uuid.New(),
		customerRef:           p.CustomerRef,
		customerEmail:         p.CustomerEmail,
		technicianRef:         p.TechnicianRef,
		ticketRef:             p.TicketRef,
		slot:                  p.Slot,
		status:                p.InitialStatus,
		priority:              p.Priority,
		createdVia:            p.CreatedVia,
		location:              p.Location,
		description:           p.Description,
		sendConfirmationEmail: p.SendConfirmationEmail,
		sendReminderEmail:     p.SendReminderEmail,
	}, nil
}

type ReconstructParams struct {
	ID            uuid.UUID
	Reference     string
	CustomerRef   uuid.UUID
	CustomerEmail string
	TechnicianRef uuid.UUID
	TicketRef     uuid.UUID
	Slot          TimeSlot
	Status        Status
	Priority      Priority
	CreatedVia    CreatedVia
	Location      string
	Description   Note

	SendConfirmationEmail bool
	SendReminderEmail     bool
	ConfirmationSent      bool
	ReminderSent          bool

	CancelledAt   *time.Time
	CancelReason  *CancelReason
	CancelDetails string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func Reconstruct(p ReconstructParams) *Appointment {
	return &Appointment{
		id:                    p.ID,
		reference:             p.Reference,
		customerRef:           p.CustomerRef,
		customerEmail:         p.CustomerEmail,
		technicianRef:         p.TechnicianRef,
		ticketRef:             p.TicketRef,
		slot:                  p.Slot,
		status:                p.Status,
		priority:              p.Priority,
		createdVia:            p.CreatedVia,
		location:              p.Location,
		description:           p.Description,
		sendConfirmationEmail: p.SendConfirmationEmail,
		sendReminderEmail:     p.SendReminderEmail,
		confirmationSent:      p.ConfirmationSent,
		reminderSent:          p.ReminderSent,
		cancelledAt:           p.CancelledAt,
		cancelReason:          p.CancelReason,
		cancelDetails:         p.CancelDetails,
		createdAt:             p.CreatedAt,
		updatedAt:             p.UpdatedAt,
	}
}

// TransitionTo applies the lifecycle table. The actor check runs first so a
// forbidden caller learns nothing about the current state.
func (a *Appointment) TransitionTo(next Status, actor Actor, now time.Time) error {
	if !actor.CanManage(a.technicianRef) {
		return &ForbiddenTransitionError{ActorID: actor.ID, To: next}
	}
	if !a.status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: a.status, To: next}
	}

	a.status = next
	if next == StatusCancelled {
		t := now
		a.cancelledAt = &t
	}
	return nil
}

// Cancel records the reason taxonomy along with the terminal transition.
func (a *Appointment) Cancel(actor Actor, now time.Time, reason CancelReason, details string) error {
	if !reason.IsValid() {
		return ErrInvalidCancelReason
	}
	if err := a.TransitionTo(StatusCancelled, actor, now); err != nil {
		return err
	}
	r := reason
	a.cancelReason = &r
	a.cancelDetails = details
	return nil
}

// Reschedule moves the appointment to a new slot and optionally a new
// technician. In-progress and terminal appointments keep their history.
func (a *Appointment) Reschedule(slot TimeSlot, technicianRef uuid.UUID, actor Actor) error {
	if !actor.CanManage(a.technicianRef) {
		return &ForbiddenTransitionError{ActorID: actor.ID, To: a.status}
	}
	if a.status != StatusDraft && a.status != StatusConfirmed {
		return ErrNotReschedulable
	}
	a.slot = slot
	if technicianRef != uuid.Nil {
		a.technicianRef = technicianRef
	}
	return nil
}

// NeedsConfirmationEmail gates the →confirmed side effect: the opt-in flag
// must be set and no confirmation may have gone out before. Replaying the
// transition after the flag is set must not re-send.
func (a *Appointment) NeedsConfirmationEmail() bool {
	return a.sendConfirmationEmail && !a.confirmationSent
}

// MarkConfirmationSent is monotonic; it reports whether this call flipped
// the flag.
func (a *Appointment) MarkConfirmationSent() bool {
	if a.confirmationSent {
		return false
	}
	a.confirmationSent = true
	return true
}

func (a *Appointment) MarkReminderSent() bool {
	if a.reminderSent {
		return false
	}
	a.reminderSent = true
	return true
}

func (a *Appointment) ID() uuid.UUID               { return a.id }
func (a *Appointment) Reference() string           { return a.reference }
func (a *Appointment) CustomerRef() uuid.UUID      { return a.customerRef }
func (a *Appointment) CustomerEmail() string       { return a.customerEmail }
func (a *Appointment) TechnicianRef() uuid.UUID    { return a.technicianRef }
func (a *Appointment) TicketRef() uuid.UUID        { return a.ticketRef }
func (a *Appointment) Slot() TimeSlot              { return a.slot }
func (a *Appointment) Status() Status              { return a.status }
func (a *Appointment) Priority() Priority          { return a.priority }
func (a *Appointment) CreatedVia() CreatedVia      { return a.createdVia }
func (a *Appointment) Location() string            { return a.location }
func (a *Appointment) Description() Note           { return a.description }
func (a *Appointment) SendConfirmation() bool      { return a.sendConfirmationEmail }
func (a *Appointment) SendReminder() bool          { return a.sendReminderEmail }
func (a *Appointment) ConfirmationSent() bool      { return a.confirmationSent }
func (a *Appointment) ReminderSent() bool          { return a.reminderSent }
func (a *Appointment) CancelledAt() *time.Time     { return a.cancelledAt }
func (a *Appointment) CancelReason() *CancelReason { return a.cancelReason }
func (a *Appointment) CancelDetails() string       { return a.cancelDetails }
func (a *Appointment) CreatedAt() time.Time        { return a.createdAt }
func (a *Appointment) UpdatedAt() time.Time        { return a.updatedAt }

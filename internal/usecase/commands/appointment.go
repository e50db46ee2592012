package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/infra"
	"support-center/internal/pkg/clock"
	"support-center/internal/pkg/errs"
	"support-center/internal/usecase/queries"
	"support-center/internal/usecase/shared"
)

var (
	ErrAppointmentNotFound     = errs.New("appointment not found")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrSlotUnavailable         = errs.New("slot unavailable")
	ErrSchedulingConflict      = errs.New("scheduling conflict")
	ErrInvalidTransition       = errs.New("invalid status transition")
	ErrForbidden               = errs.New("actor may not manage this appointment")
	ErrMissingTicket           = errs.New("appointment missing ticket reference")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// CommandResult carries the written view plus warnings for side effects
// (mail, ticket sync) that failed without failing the command.
type CommandResult struct {
	Appointment *queries.AppointmentView
	Warnings    []string
}

type AppointmentCommands interface {
	Create(ctx context.Context, req reqdto.CreateAppointmentRequest, actor appointment.Actor) (*CommandResult, error)
	Reschedule(ctx context.Context, id uuid.UUID, req reqdto.RescheduleAppointmentRequest, actor appointment.Actor) (*CommandResult, error)
	Confirm(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error)
	Start(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error)
	Complete(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error)
	Cancel(ctx context.Context, id uuid.UUID, req reqdto.CancelAppointmentRequest, actor appointment.Actor) (*CommandResult, error)
}

type appointmentUseCaseImpl struct {
	uow     shared.UnitOfWork
	tickets shared.TicketGateway
	mailer  shared.Mailer
	views   queries.AppointmentQueries
	clock   clock.Clock
}

func NewAppointmentUseCase(
	uow shared.UnitOfWork,
	tickets shared.TicketGateway,
	mailer shared.Mailer,
	views queries.AppointmentQueries,
	clock clock.Clock,
) AppointmentCommands {
	return &appointmentUseCaseImpl{
		uow:     uow,
		tickets: tickets,
		mailer:  mailer,
		views:   views,
		clock:   clock,
	}
}

func (u *appointmentUseCaseImpl) Create(
	ctx context.Context,
	req reqdto.CreateAppointmentRequest,
	actor appointment.Actor,
) (*CommandResult, error) {
	now := u.clock.Now()

	ticketRef := uuid.Nil
	mintedTicket := false
	if req.TicketRef != nil {
		ticketRef = *req.TicketRef
	} else {
		ticketRef = uuid.New()
		mintedTicket = true
	}

	var created *appointment.Appointment
	err := u.uow.WithinTechnician(ctx, req.TechnicianRef, func(ctx context.Context, tx shared.Tx) error {
		policy, err := resolvePolicy(ctx, tx, req.TechnicianRef)
		if err != nil {
			return err
		}

		appt, err := req.ToDomain(ticketRef, policy.DefaultDuration)
		if err != nil {
			return markDomainErr(err)
		}

		if err := u.checkSlot(ctx, tx, policy, now, appt.Slot(), appt.TechnicianRef(), uuid.Nil); err != nil {
			return err
		}

		id, reference, err := tx.Appointments().Create(ctx, appt)
		if err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSchedulingConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		created = appointment.Reconstruct(appointment.ReconstructParams{
			ID:                    id,
			Reference:             reference,
			CustomerRef:           appt.CustomerRef(),
			CustomerEmail:         appt.CustomerEmail(),
			TechnicianRef:         appt.TechnicianRef(),
			TicketRef:             appt.TicketRef(),
			Slot:                  appt.Slot(),
			Status:                appt.Status(),
			Priority:              appt.Priority(),
			CreatedVia:            appt.CreatedVia(),
			Location:              appt.Location(),
			Description:           appt.Description(),
			SendConfirmationEmail: appt.SendConfirmation(),
			SendReminderEmail:     appt.SendReminder(),
			CreatedAt:             now,
			UpdatedAt:             now,
		})

		return appendEvent(ctx, tx, id, shared.EventCreated, actor.ID, string(created.Status()), now)
	})
	if err != nil {
		return nil, err
	}

	warnings := u.runCreateEffects(ctx, created, mintedTicket)
	return u.result(ctx, created.ID(), warnings)
}

func (u *appointmentUseCaseImpl) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	req reqdto.RescheduleAppointmentRequest,
	actor appointment.Actor,
) (*CommandResult, error) {
	now := u.clock.Now()
	targetTech := req.Technician()

	move := func(ctx context.Context, tx shared.Tx, appt *appointment.Appointment) error {
		tech := targetTech
		if tech == uuid.Nil {
			tech = appt.TechnicianRef()
		}

		policy, err := resolvePolicy(ctx, tx, tech)
		if err != nil {
			return err
		}

		slot, err := req.Slot(policy.DefaultDuration)
		if err != nil {
			return markDomainErr(err)
		}

		if err := appt.Reschedule(slot, targetTech, actor); err != nil {
			return markDomainErr(err)
		}

		if err := u.checkSlot(ctx, tx, policy, now, slot, tech, appt.ID()); err != nil {
			return err
		}

		if err := tx.Appointments().Update(ctx, appt); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSchedulingConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		return appendEvent(ctx, tx, appt.ID(), shared.EventRescheduled, actor.ID, slot.String(), now)
	}

	// The lock goes on the diary the new slot lands in. When the request
	// keeps the technician we only learn whose diary that is from the row
	// itself, which has to be re-read under the lock.
	var err error
	if targetTech != uuid.Nil {
		err = u.uow.WithinTechnician(ctx, targetTech, func(ctx context.Context, tx shared.Tx) error {
			appt, findErr := findAppointment(ctx, tx, id)
			if findErr != nil {
				return findErr
			}
			return move(ctx, tx, appt)
		})
	} else {
		err = u.withOwningDiary(ctx, id, move)
	}
	if err != nil {
		return nil, err
	}

	return u.result(ctx, id, nil)
}

// withOwningDiary runs fn under the advisory lock of the technician that
// owns the appointment. The owner is pre-read outside the lock, then the
// row is read again inside it; if a concurrent reschedule moved the
// appointment to another diary in between, the lock is retaken there.
func (u *appointmentUseCaseImpl) withOwningDiary(
	ctx context.Context,
	id uuid.UUID,
	fn func(ctx context.Context, tx shared.Tx, appt *appointment.Appointment) error,
) error {
	var lockTech uuid.UUID
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := findAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		lockTech = appt.TechnicianRef()
		return nil
	})
	if err != nil {
		return err
	}

	for {
		moved := false
		err := u.uow.WithinTechnician(ctx, lockTech, func(ctx context.Context, tx shared.Tx) error {
			appt, err := findAppointment(ctx, tx, id)
			if err != nil {
				return err
			}
			if appt.TechnicianRef() != lockTech {
				moved = true
				lockTech = appt.TechnicianRef()
				return nil
			}
			return fn(ctx, tx, appt)
		})
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
	}
}

// checkSlot loads the surrounding bookings and runs the availability checks,
// translating domain failures onto usecase sentinels.
func (u *appointmentUseCaseImpl) checkSlot(
	ctx context.Context,
	tx shared.Tx,
	policy schedule.Settings,
	now time.Time,
	slot appointment.TimeSlot,
	technicianRef uuid.UUID,
	excludeID uuid.UUID,
) error {
	// A day either side covers both the daily-cap count and buffered
	// neighbors around midnight.
	existing, err := tx.Appointments().ActiveSlots(ctx, technicianRef, slot.Start().Add(-24*time.Hour), slot.End().Add(24*time.Hour))
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := schedule.CheckAvailability(policy, now, slot, existing, excludeID); err != nil {
		var conflict *schedule.ConflictError
		if errors.As(err, &conflict) {
			return errs.Mark(err, ErrSchedulingConflict)
		}
		return errs.Mark(err, ErrSlotUnavailable)
	}
	return nil
}

func (u *appointmentUseCaseImpl) runCreateEffects(ctx context.Context, appt *appointment.Appointment, mintedTicket bool) []string {
	var warnings []string

	if mintedTicket {
		u.tickets.EmitCreated(ctx, appt.TicketRef(), appt)
	}

	if appt.Status() == appointment.StatusConfirmed {
		u.tickets.SyncStatus(ctx, appt)
		warnings = append(warnings, u.sendConfirmation(ctx, appt)...)
	}
	return warnings
}

// sendConfirmation dispatches the confirmation mail and records the sent
// flag in its own transaction so a later replay does not re-send.
func (u *appointmentUseCaseImpl) sendConfirmation(ctx context.Context, appt *appointment.Appointment) []string {
	if !appt.NeedsConfirmationEmail() {
		return nil
	}
	if appt.CustomerEmail() == "" {
		slog.Warn("skipping confirmation email, no customer address",
			"appointment", appt.Reference())
		return []string{"confirmation email skipped: no customer address"}
	}
	if err := u.mailer.SendConfirmation(ctx, appt); err != nil {
		slog.Warn("confirmation email failed",
			"appointment", appt.Reference(), "error", err)
		return []string{fmt.Sprintf("confirmation email failed: %v", err)}
	}

	appt.MarkConfirmationSent()
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Appointments().MarkConfirmationSent(ctx, appt.ID())
	})
	if err != nil {
		slog.Warn("failed to record confirmation-sent flag",
			"appointment", appt.Reference(), "error", err)
		return []string{"confirmation email sent but flag not recorded"}
	}
	return nil
}

func (u *appointmentUseCaseImpl) result(ctx context.Context, id uuid.UUID, warnings []string) (*CommandResult, error) {
	view, err := u.views.GetByIDSystem(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CommandResult{Appointment: view, Warnings: warnings}, nil
}

func resolvePolicy(ctx context.Context, tx shared.Tx, technicianRef uuid.UUID) (schedule.Settings, error) {
	tech, err := tx.Settings().ForTechnician(ctx, technicianRef)
	if err != nil {
		return schedule.Settings{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	global, err := tx.Settings().Global(ctx)
	if err != nil {
		return schedule.Settings{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return schedule.Resolve(tech, global), nil
}

func findAppointment(ctx context.Context, tx shared.Tx, id uuid.UUID) (*appointment.Appointment, error) {
	appt, err := tx.Appointments().FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return appt, nil
}

func appendEvent(ctx context.Context, tx shared.Tx, id uuid.UUID, kind string, actorID uuid.UUID, detail string, now time.Time) error {
	err := tx.Events().Append(ctx, shared.Event{
		AppointmentID: id,
		Kind:          kind,
		ActorID:       actorID,
		Detail:        detail,
		OccurredAt:    now,
	})
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// markDomainErr maps entity and value-object failures onto the right
// usecase sentinel.
func markDomainErr(err error) error {
	var forbidden *appointment.ForbiddenTransitionError
	if errors.As(err, &forbidden) {
		return errs.Mark(err, ErrForbidden)
	}
	var invalid *appointment.InvalidTransitionError
	if errors.As(err, &invalid) {
		return errs.Mark(err, ErrInvalidTransition)
	}
	switch {
	case errors.Is(err, appointment.ErrMissingTicketReference):
		return errs.Mark(err, ErrMissingTicket)
	case errors.Is(err, appointment.ErrNotReschedulable):
		return errs.Mark(err, ErrInvalidTransition)
	default:
		return errs.Mark(err, ErrDomainValidation)
	}
}

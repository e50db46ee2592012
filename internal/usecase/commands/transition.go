package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/infra"
	"support-center/internal/pkg/errs"
	"support-center/internal/usecase/shared"
)

// Confirm is the transition that makes the slot start blocking the diary,
// so unlike the later lifecycle moves it re-runs the availability checks
// under the technician's lock: drafts never blocked anything, and other
// bookings may have taken (or buffered up against) the slot since the
// draft was written.
func (u *appointmentUseCaseImpl) Confirm(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error) {
	now := u.clock.Now()

	var appt *appointment.Appointment
	err := u.withOwningDiary(ctx, id, func(ctx context.Context, tx shared.Tx, found *appointment.Appointment) error {
		if err := found.TransitionTo(appointment.StatusConfirmed, actor, now); err != nil {
			return markDomainErr(err)
		}

		policy, err := resolvePolicy(ctx, tx, found.TechnicianRef())
		if err != nil {
			return err
		}
		if err := u.checkSlot(ctx, tx, policy, now, found.Slot(), found.TechnicianRef(), found.ID()); err != nil {
			return err
		}

		if err := tx.Appointments().Update(ctx, found); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSchedulingConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		appt = found
		return appendEvent(ctx, tx, id, shared.EventConfirmed, actor.ID, string(appointment.StatusConfirmed), now)
	})
	if err != nil {
		return nil, err
	}

	warnings := u.runTransitionEffects(ctx, appt, appointment.StatusConfirmed)
	return u.result(ctx, id, warnings)
}

func (u *appointmentUseCaseImpl) Start(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error) {
	return u.transition(ctx, id, appointment.StatusInProgress, shared.EventStarted, actor)
}

func (u *appointmentUseCaseImpl) Complete(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*CommandResult, error) {
	return u.transition(ctx, id, appointment.StatusCompleted, shared.EventCompleted, actor)
}

func (u *appointmentUseCaseImpl) Cancel(
	ctx context.Context,
	id uuid.UUID,
	req reqdto.CancelAppointmentRequest,
	actor appointment.Actor,
) (*CommandResult, error) {
	now := u.clock.Now()
	reason, details := req.ToDomain()

	var appt *appointment.Appointment
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := findAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := found.Cancel(actor, now, reason, details); err != nil {
			return markDomainErr(err)
		}
		if err := tx.Appointments().Update(ctx, found); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		appt = found
		return appendEvent(ctx, tx, id, shared.EventCancelled, actor.ID, string(reason), now)
	})
	if err != nil {
		return nil, err
	}

	u.tickets.SyncStatus(ctx, appt)
	return u.result(ctx, id, nil)
}

// transition applies one lifecycle move inside a transaction and runs the
// side effects of the new status after commit.
func (u *appointmentUseCaseImpl) transition(
	ctx context.Context,
	id uuid.UUID,
	next appointment.Status,
	eventKind string,
	actor appointment.Actor,
) (*CommandResult, error) {
	now := u.clock.Now()

	var appt *appointment.Appointment
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := findAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := found.TransitionTo(next, actor, now); err != nil {
			return markDomainErr(err)
		}
		if err := tx.Appointments().Update(ctx, found); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSchedulingConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		appt = found
		return appendEvent(ctx, tx, id, eventKind, actor.ID, string(next), now)
	})
	if err != nil {
		return nil, err
	}

	warnings := u.runTransitionEffects(ctx, appt, next)
	return u.result(ctx, id, warnings)
}

func (u *appointmentUseCaseImpl) runTransitionEffects(ctx context.Context, appt *appointment.Appointment, next appointment.Status) []string {
	u.tickets.SyncStatus(ctx, appt)

	switch next {
	case appointment.StatusConfirmed:
		return u.sendConfirmation(ctx, appt)
	case appointment.StatusCompleted:
		if appt.CustomerEmail() == "" {
			return nil
		}
		if err := u.mailer.SendCompletion(ctx, appt); err != nil {
			slog.Warn("completion email failed",
				"appointment", appt.Reference(), "error", err)
			return []string{fmt.Sprintf("completion email failed: %v", err)}
		}
	}
	return nil
}

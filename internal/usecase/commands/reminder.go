package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/pkg/clock"
	"support-center/internal/pkg/errs"
	"support-center/internal/usecase/shared"
)

// reminderWindow is how far ahead the sweep looks for upcoming visits.
const reminderWindow = 24 * time.Hour

type SweepFailure struct {
	AppointmentID uuid.UUID
	Reference     string
	Reason        string
}

type SweepReport struct {
	Selected int
	Notified []uuid.UUID
	Failures []SweepFailure
}

type ReminderCommands interface {
	// RunSweep selects confirmed appointments starting within the next 24
	// hours that have reminders enabled and not yet sent, dispatches the
	// reminder for each, and marks every selected appointment as reminded
	// whether or not its dispatch succeeded. A record is attempted once;
	// persistent mail failures surface in the report, not in retries.
	RunSweep(ctx context.Context, now time.Time) (*SweepReport, error)
}

type reminderUseCaseImpl struct {
	uow    shared.UnitOfWork
	mailer shared.Mailer
	clock  clock.Clock
}

func NewReminderUseCase(uow shared.UnitOfWork, mailer shared.Mailer, clock clock.Clock) ReminderCommands {
	return &reminderUseCaseImpl{uow: uow, mailer: mailer, clock: clock}
}

func (u *reminderUseCaseImpl) RunSweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	if now.IsZero() {
		now = u.clock.Now()
	}

	var due []*appointment.Appointment
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		due, err = tx.Appointments().DueForReminder(ctx, now, now.Add(reminderWindow))
		return err
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	report := &SweepReport{Selected: len(due)}
	for _, appt := range due {
		if failure := u.remind(ctx, appt, now); failure != nil {
			report.Failures = append(report.Failures, *failure)
		} else {
			report.Notified = append(report.Notified, appt.ID())
		}

		// Mark regardless of outcome; each item commits on its own so one
		// bad row cannot wedge the batch.
		markErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Appointments().MarkReminderSent(ctx, appt.ID()); err != nil {
				return err
			}
			return tx.Events().Append(ctx, shared.Event{
				AppointmentID: appt.ID(),
				Kind:          shared.EventReminded,
				Detail:        string(appt.Status()),
				OccurredAt:    now,
			})
		})
		if markErr != nil {
			slog.Error("failed to mark reminder sent",
				"appointment", appt.Reference(), "error", markErr)
		}
	}

	slog.Info("reminder sweep finished",
		"selected", report.Selected,
		"notified", len(report.Notified),
		"failures", len(report.Failures))
	return report, nil
}

func (u *reminderUseCaseImpl) remind(ctx context.Context, appt *appointment.Appointment, now time.Time) *SweepFailure {
	if appt.CustomerEmail() == "" {
		return &SweepFailure{
			AppointmentID: appt.ID(),
			Reference:     appt.Reference(),
			Reason:        "no customer address",
		}
	}
	if err := u.mailer.SendReminder(ctx, appt); err != nil {
		slog.Warn("reminder email failed",
			"appointment", appt.Reference(), "error", err)
		return &SweepFailure{
			AppointmentID: appt.ID(),
			Reference:     appt.Reference(),
			Reason:        err.Error(),
		}
	}
	return nil
}

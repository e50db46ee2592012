//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/pkg/clock"
	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/shared"
	"support-center/tests/common/builder"
)

var cmdNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

type commandEnv struct {
	repo    *fakeAppointmentRepo
	events  *fakeEventRepo
	mailer  *fakeMailer
	tickets *fakeTickets
	uow     *fakeUoW
	uc      commands.AppointmentCommands
}

func newCommandEnv() *commandEnv {
	repo := newFakeAppointmentRepo()
	events := &fakeEventRepo{}
	env := &commandEnv{
		repo:    repo,
		events:  events,
		mailer:  &fakeMailer{},
		tickets: &fakeTickets{},
		uow:     &fakeUoW{tx: fakeTx{appointments: repo, settings: &fakeSettingsRepo{}, events: events}},
	}
	env.uc = commands.NewAppointmentUseCase(
		env.uow, env.tickets, env.mailer, &fakeViews{repo: repo}, clock.NewMockClock(cmdNow))
	return env
}

// seed puts an appointment straight into the store, bypassing the checks.
func (e *commandEnv) seed(t *testing.T, b *builder.AppointmentBuilder) *appointment.Appointment {
	t.Helper()
	appt, err := b.BuildDomain()
	require.NoError(t, err)
	id, _, err := e.repo.Create(context.Background(), appt)
	require.NoError(t, err)
	stored, err := e.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return stored
}

func manager() appointment.Actor {
	return appointment.Actor{ID: uuid.New(), IsManager: true}
}

// ================================================================================
// Create
// ================================================================================

func TestCreateAppointment(t *testing.T) {
	t.Run("books a draft appointment", func(t *testing.T) {
		env := newCommandEnv()
		req := builder.NewAppointmentBuilder().BuildCreateRequestDTO()

		result, err := env.uc.Create(context.Background(), req, manager())
		require.NoError(t, err)

		assert.Equal(t, "APPT-0001", result.Appointment.Reference)
		assert.Equal(t, string(appointment.StatusDraft), result.Appointment.Status)
		assert.Empty(t, result.Warnings)

		// Booking serializes on the technician's diary.
		assert.Equal(t, []uuid.UUID{req.TechnicianRef}, env.uow.lockedTechs)

		require.Len(t, env.events.appended, 1)
		assert.Equal(t, shared.EventCreated, env.events.appended[0].Kind)

		// Draft bookings trigger no customer-facing side effects.
		assert.Empty(t, env.tickets.synced)
		assert.Empty(t, env.mailer.confirmations)
	})

	t.Run("confirmed booking syncs the ticket and mails the customer", func(t *testing.T) {
		env := newCommandEnv()
		req := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed }).
			BuildCreateRequestDTO()

		result, err := env.uc.Create(context.Background(), req, manager())
		require.NoError(t, err)

		assert.Equal(t, string(appointment.StatusConfirmed), result.Appointment.Status)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, []appointment.Status{appointment.StatusConfirmed}, env.tickets.synced)
		assert.Len(t, env.mailer.confirmations, 1)
		assert.Len(t, env.repo.confirmationMarked, 1)
		// The ticket already existed, so nothing is emitted for it.
		assert.Empty(t, env.tickets.emitted)
	})

	t.Run("mints a ticket when none is linked", func(t *testing.T) {
		env := newCommandEnv()
		req := builder.NewAppointmentBuilder().BuildCreateRequestDTO()
		req.TicketRef = nil

		result, err := env.uc.Create(context.Background(), req, manager())
		require.NoError(t, err)

		require.Len(t, env.tickets.emitted, 1)
		assert.Equal(t, env.tickets.emitted[0], result.Appointment.TicketRef)
		assert.NotEqual(t, uuid.Nil, result.Appointment.TicketRef)
	})

	t.Run("rejects an overlapping slot", func(t *testing.T) {
		env := newCommandEnv()
		seedBuilder := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed })
		env.seed(t, seedBuilder)

		req := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) {
				b.TechnicianRef = seedBuilder.TechnicianRef
				b.StartTime = seedBuilder.StartTime.Add(30 * time.Minute)
			}).
			BuildCreateRequestDTO()

		_, err := env.uc.Create(context.Background(), req, manager())
		assert.ErrorIs(t, err, commands.ErrSchedulingConflict)
	})

	t.Run("rejects a slot outside working hours", func(t *testing.T) {
		env := newCommandEnv()
		req := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) {
				b.StartTime = time.Date(2026, 9, 7, 22, 0, 0, 0, time.UTC)
			}).
			BuildCreateRequestDTO()

		_, err := env.uc.Create(context.Background(), req, manager())
		assert.ErrorIs(t, err, commands.ErrSlotUnavailable)
	})

	t.Run("confirmation mail failure downgrades to a warning", func(t *testing.T) {
		env := newCommandEnv()
		env.mailer.failAll = errors.New("smtp timeout")
		req := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed }).
			BuildCreateRequestDTO()

		result, err := env.uc.Create(context.Background(), req, manager())
		require.NoError(t, err)

		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "confirmation email failed")
		// The flag stays clear so a later confirm can retry.
		assert.Empty(t, env.repo.confirmationMarked)
	})
}

// ================================================================================
// Reschedule
// ================================================================================

func TestRescheduleAppointment(t *testing.T) {
	t.Run("moves the slot on the same diary", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())

		req := reqdto.RescheduleAppointmentRequest{
			StartTime:   time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC),
			DurationMin: 90,
		}
		result, err := env.uc.Reschedule(context.Background(), appt.ID(), req, manager())
		require.NoError(t, err)

		assert.Equal(t, req.StartTime, result.Appointment.StartTime)
		assert.Equal(t, 90, result.Appointment.DurationMin)
		assert.Equal(t, appt.TechnicianRef(), result.Appointment.TechnicianRef)

		// Without a target technician the lock lands on the current owner.
		assert.Equal(t, []uuid.UUID{appt.TechnicianRef()}, env.uow.lockedTechs)

		require.Len(t, env.events.appended, 1)
		assert.Equal(t, shared.EventRescheduled, env.events.appended[0].Kind)
	})

	t.Run("hands the visit to another technician", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())
		newTech := uuid.New()

		req := reqdto.RescheduleAppointmentRequest{
			StartTime:     time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC),
			DurationMin:   60,
			TechnicianRef: &newTech,
		}
		result, err := env.uc.Reschedule(context.Background(), appt.ID(), req, manager())
		require.NoError(t, err)

		assert.Equal(t, newTech, result.Appointment.TechnicianRef)
		assert.Equal(t, []uuid.UUID{newTech}, env.uow.lockedTechs)
	})

	t.Run("rejects a move onto a taken slot", func(t *testing.T) {
		env := newCommandEnv()
		occupied := builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed })
		env.seed(t, occupied)

		moving := env.seed(t, builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) {
				b.TechnicianRef = occupied.TechnicianRef
				b.StartTime = occupied.StartTime.Add(3 * time.Hour)
			}))

		req := reqdto.RescheduleAppointmentRequest{
			StartTime:   occupied.StartTime.Add(30 * time.Minute),
			DurationMin: 60,
		}
		_, err := env.uc.Reschedule(context.Background(), moving.ID(), req, manager())
		assert.ErrorIs(t, err, commands.ErrSchedulingConflict)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		env := newCommandEnv()
		req := reqdto.RescheduleAppointmentRequest{
			StartTime:   time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC),
			DurationMin: 60,
		}
		_, err := env.uc.Reschedule(context.Background(), uuid.New(), req, manager())
		assert.ErrorIs(t, err, commands.ErrAppointmentNotFound)
	})

	t.Run("in-progress visits cannot move", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed }))

		owner := appointment.Actor{ID: appt.TechnicianRef()}
		_, err := env.uc.Start(context.Background(), appt.ID(), owner)
		require.NoError(t, err)

		req := reqdto.RescheduleAppointmentRequest{
			StartTime:   time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC),
			DurationMin: 60,
		}
		_, err = env.uc.Reschedule(context.Background(), appt.ID(), req, manager())
		assert.ErrorIs(t, err, commands.ErrInvalidTransition)
	})
}

// ================================================================================
// Transitions
// ================================================================================

func TestTransitionCommands(t *testing.T) {
	t.Run("confirm sends the confirmation and syncs the ticket", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())

		result, err := env.uc.Confirm(context.Background(), appt.ID(), manager())
		require.NoError(t, err)

		assert.Equal(t, string(appointment.StatusConfirmed), result.Appointment.Status)
		assert.Equal(t, []appointment.Status{appointment.StatusConfirmed}, env.tickets.synced)
		assert.Equal(t, []uuid.UUID{appt.ID()}, env.mailer.confirmations)
		assert.Equal(t, []uuid.UUID{appt.ID()}, env.repo.confirmationMarked)
	})

	t.Run("confirming a buffer-overlapping draft fails", func(t *testing.T) {
		env := newCommandEnv()
		policy := schedule.DefaultSettings()
		policy.BufferTime = 30 * time.Minute
		env.uow.tx.settings.global = &policy

		tech := uuid.New()
		env.seed(t, builder.NewAppointmentBuilder().With(func(b *builder.AppointmentBuilder) {
			b.TechnicianRef = tech
			b.InitialStatus = appointment.StatusConfirmed
		}))
		// 11:10 clears the confirmed 10:00-11:00 visit itself but not its
		// 30-minute buffer; drafts never blocked the slot, so only the
		// re-check at confirmation can catch this.
		draft := env.seed(t, builder.NewAppointmentBuilder().With(func(b *builder.AppointmentBuilder) {
			b.TechnicianRef = tech
			b.StartTime = time.Date(2026, 9, 7, 11, 10, 0, 0, time.UTC)
		}))

		_, err := env.uc.Confirm(context.Background(), draft.ID(), manager())
		assert.ErrorIs(t, err, commands.ErrSchedulingConflict)

		// The re-check ran under the diary lock and nothing was committed.
		assert.Equal(t, []uuid.UUID{tech}, env.uow.lockedTechs)
		assert.Empty(t, env.events.appended)
		assert.Empty(t, env.tickets.synced)
		assert.Empty(t, env.mailer.confirmations)
	})

	t.Run("confirming past the daily cap fails", func(t *testing.T) {
		env := newCommandEnv()
		policy := schedule.DefaultSettings()
		policy.MaxDailyAppointments = 1
		env.uow.tx.settings.global = &policy

		tech := uuid.New()
		env.seed(t, builder.NewAppointmentBuilder().With(func(b *builder.AppointmentBuilder) {
			b.TechnicianRef = tech
			b.InitialStatus = appointment.StatusConfirmed
		}))
		draft := env.seed(t, builder.NewAppointmentBuilder().With(func(b *builder.AppointmentBuilder) {
			b.TechnicianRef = tech
			b.StartTime = time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
		}))

		_, err := env.uc.Confirm(context.Background(), draft.ID(), manager())
		assert.ErrorIs(t, err, commands.ErrSlotUnavailable)
		assert.Empty(t, env.events.appended)
	})

	t.Run("complete mails the completion notice", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed }))
		owner := appointment.Actor{ID: appt.TechnicianRef()}

		_, err := env.uc.Start(context.Background(), appt.ID(), owner)
		require.NoError(t, err)
		result, err := env.uc.Complete(context.Background(), appt.ID(), owner)
		require.NoError(t, err)

		assert.Equal(t, string(appointment.StatusCompleted), result.Appointment.Status)
		assert.Equal(t, []uuid.UUID{appt.ID()}, env.mailer.completions)
		assert.Equal(t,
			[]appointment.Status{appointment.StatusInProgress, appointment.StatusCompleted},
			env.tickets.synced)
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())

		_, err := env.uc.Start(context.Background(), appt.ID(), manager())
		assert.ErrorIs(t, err, commands.ErrInvalidTransition)
		assert.Empty(t, env.events.appended)
	})

	t.Run("a stranger may not touch the appointment", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())

		stranger := appointment.Actor{ID: uuid.New()}
		_, err := env.uc.Confirm(context.Background(), appt.ID(), stranger)
		assert.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("cancel records the reason and syncs the ticket", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder().
			With(func(b *builder.AppointmentBuilder) { b.InitialStatus = appointment.StatusConfirmed }))

		details := "customer travelling"
		req := reqdto.CancelAppointmentRequest{Reason: "customer_request", Details: &details}
		result, err := env.uc.Cancel(context.Background(), appt.ID(), req, manager())
		require.NoError(t, err)

		assert.Equal(t, string(appointment.StatusCancelled), result.Appointment.Status)
		assert.Equal(t, []appointment.Status{appointment.StatusCancelled}, env.tickets.synced)

		require.Len(t, env.events.appended, 1)
		assert.Equal(t, shared.EventCancelled, env.events.appended[0].Kind)
		assert.Equal(t, "customer_request", env.events.appended[0].Detail)
	})

	t.Run("cancel with an unknown reason", func(t *testing.T) {
		env := newCommandEnv()
		appt := env.seed(t, builder.NewAppointmentBuilder())

		req := reqdto.CancelAppointmentRequest{Reason: "bored"}
		_, err := env.uc.Cancel(context.Background(), appt.ID(), req, manager())
		assert.ErrorIs(t, err, commands.ErrDomainValidation)
	})
}

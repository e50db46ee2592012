//go:build unit

package commands_test

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
	"support-center/internal/infra"
	"support-center/internal/usecase/queries"
	"support-center/internal/usecase/shared"
)

// In-memory doubles for the persistence and collaborator ports. They behave
// enough like the real thing for command flows: stored appointments feed
// ActiveSlots and FindByID, and every write is observable.

type fakeUoW struct {
	tx          fakeTx
	lockedTechs []uuid.UUID
}

func (u *fakeUoW) Within(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
	return fn(ctx, &u.tx)
}

func (u *fakeUoW) WithinTechnician(ctx context.Context, technicianRef uuid.UUID, fn func(context.Context, shared.Tx) error) error {
	u.lockedTechs = append(u.lockedTechs, technicianRef)
	return fn(ctx, &u.tx)
}

type fakeTx struct {
	appointments *fakeAppointmentRepo
	settings     *fakeSettingsRepo
	events       *fakeEventRepo
}

func (t *fakeTx) Appointments() shared.AppointmentRepository { return t.appointments }
func (t *fakeTx) Settings() shared.SettingsRepository        { return t.settings }
func (t *fakeTx) Events() shared.EventRepository             { return t.events }

type fakeAppointmentRepo struct {
	stored map[uuid.UUID]*appointment.Appointment
	nextRef int

	createErr error
	updateErr error

	due     []*appointment.Appointment
	dueErr  error
	marked  []uuid.UUID
	markErr error

	confirmationMarked []uuid.UUID
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{stored: map[uuid.UUID]*appointment.Appointment{}}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) (uuid.UUID, string, error) {
	if r.createErr != nil {
		return uuid.Nil, "", r.createErr
	}
	r.nextRef++
	id := uuid.New()
	reference := fmt.Sprintf("APPT-%04d", r.nextRef)
	r.stored[id] = appointment.Reconstruct(appointment.ReconstructParams{
		ID:                    id,
		Reference:             reference,
		CustomerRef:           a.CustomerRef(),
		CustomerEmail:         a.CustomerEmail(),
		TechnicianRef:         a.TechnicianRef(),
		TicketRef:             a.TicketRef(),
		Slot:                  a.Slot(),
		Status:                a.Status(),
		Priority:              a.Priority(),
		CreatedVia:            a.CreatedVia(),
		Location:              a.Location(),
		Description:           a.Description(),
		SendConfirmationEmail: a.SendConfirmation(),
		SendReminderEmail:     a.SendReminder(),
		CreatedAt:             a.CreatedAt(),
		UpdatedAt:             a.UpdatedAt(),
	})
	return id, reference, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *appointment.Appointment) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.stored[a.ID()] = a
	return nil
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := r.stored[id]
	if !ok {
		return nil, infra.WrapRepoErr("appointment not found", errors.New("no rows"), infra.KindNotFound)
	}
	return a, nil
}

func (r *fakeAppointmentRepo) ActiveSlots(_ context.Context, technicianRef uuid.UUID, from, to time.Time) ([]schedule.BookedSlot, error) {
	var out []schedule.BookedSlot
	for _, a := range r.stored {
		if a.TechnicianRef() != technicianRef {
			continue
		}
		if !a.Slot().Start().Before(to) || !from.Before(a.Slot().End()) {
			continue
		}
		out = append(out, schedule.BookedSlot{
			ID:        a.ID(),
			Reference: a.Reference(),
			Slot:      a.Slot(),
			Status:    a.Status(),
		})
	}
	return out, nil
}

// DueForReminder mirrors the SQL predicate: confirmed, reminders enabled
// and unsent, start in the half-open window (now, until].
func (r *fakeAppointmentRepo) DueForReminder(_ context.Context, now, until time.Time) ([]*appointment.Appointment, error) {
	if r.dueErr != nil {
		return nil, r.dueErr
	}
	var out []*appointment.Appointment
	for _, a := range r.due {
		if a.Status() != appointment.StatusConfirmed || !a.SendReminder() || a.ReminderSent() {
			continue
		}
		start := a.Slot().Start()
		if !start.After(now) || start.After(until) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.marked = append(r.marked, id)
	return nil
}

func (r *fakeAppointmentRepo) MarkConfirmationSent(_ context.Context, id uuid.UUID) error {
	r.confirmationMarked = append(r.confirmationMarked, id)
	return nil
}

type fakeSettingsRepo struct {
	tech   map[uuid.UUID]*schedule.Settings
	global *schedule.Settings

	upserted []schedule.Settings
}

func (r *fakeSettingsRepo) ForTechnician(_ context.Context, technicianRef uuid.UUID) (*schedule.Settings, error) {
	return r.tech[technicianRef], nil
}

func (r *fakeSettingsRepo) Global(context.Context) (*schedule.Settings, error) {
	return r.global, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s schedule.Settings) error {
	r.upserted = append(r.upserted, s)
	return nil
}

type fakeEventRepo struct {
	appended []shared.Event
}

func (r *fakeEventRepo) Append(_ context.Context, e shared.Event) error {
	r.appended = append(r.appended, e)
	return nil
}

func (r *fakeEventRepo) ListByAppointment(context.Context, uuid.UUID) ([]shared.Event, error) {
	return nil, nil
}

type fakeMailer struct {
	confirmations []uuid.UUID
	reminded      []uuid.UUID
	completions   []uuid.UUID
	fail          map[uuid.UUID]error
	failAll       error
}

func (m *fakeMailer) sendErr(id uuid.UUID) error {
	if m.failAll != nil {
		return m.failAll
	}
	return m.fail[id]
}

func (m *fakeMailer) SendConfirmation(_ context.Context, a *appointment.Appointment) error {
	if err := m.sendErr(a.ID()); err != nil {
		return err
	}
	m.confirmations = append(m.confirmations, a.ID())
	return nil
}

func (m *fakeMailer) SendReminder(_ context.Context, a *appointment.Appointment) error {
	if err := m.sendErr(a.ID()); err != nil {
		return err
	}
	m.reminded = append(m.reminded, a.ID())
	return nil
}

func (m *fakeMailer) SendCompletion(_ context.Context, a *appointment.Appointment) error {
	if err := m.sendErr(a.ID()); err != nil {
		return err
	}
	m.completions = append(m.completions, a.ID())
	return nil
}

type fakeTickets struct {
	emitted []uuid.UUID
	synced  []appointment.Status
}

func (g *fakeTickets) EmitCreated(_ context.Context, ticketRef uuid.UUID, _ *appointment.Appointment) {
	g.emitted = append(g.emitted, ticketRef)
}

func (g *fakeTickets) SyncStatus(_ context.Context, a *appointment.Appointment) {
	g.synced = append(g.synced, a.Status())
}

// fakeViews serves the read-after-write lookup from the write-side store.
type fakeViews struct {
	repo *fakeAppointmentRepo
}

func (v *fakeViews) GetByID(ctx context.Context, _ appointment.Actor, id uuid.UUID) (*queries.AppointmentView, error) {
	return v.GetByIDSystem(ctx, id)
}

func (v *fakeViews) GetByIDSystem(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	a, err := v.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &queries.AppointmentView{
		ID:            a.ID(),
		Reference:     a.Reference(),
		CustomerRef:   a.CustomerRef(),
		TechnicianRef: a.TechnicianRef(),
		TicketRef:     a.TicketRef(),
		StartTime:     a.Slot().Start(),
		EndTime:       a.Slot().End(),
		DurationMin:   int(a.Slot().Duration().Minutes()),
		Status:        string(a.Status()),
		Priority:      string(a.Priority()),
		CreatedVia:    string(a.CreatedVia()),
		CreatedAt:     a.CreatedAt(),
		UpdatedAt:     a.UpdatedAt(),
	}
	if a.CustomerEmail() != "" {
		email := a.CustomerEmail()
		view.CustomerEmail = &email
	}
	return view, nil
}

func (v *fakeViews) List(context.Context, appointment.Actor, queries.ListFilter) ([]*queries.AppointmentListItem, error) {
	return nil, nil
}

func (v *fakeViews) History(context.Context, appointment.Actor, uuid.UUID) ([]*queries.AppointmentEventView, error) {
	return nil, nil
}

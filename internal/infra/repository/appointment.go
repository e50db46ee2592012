package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
	"support-center/internal/infra"
	"support-center/internal/infra/db"
)

type AppointmentRepository struct {
	dbtx db.DBTX
}

func NewAppointmentRepository(dbtx db.DBTX) *AppointmentRepository {
	return &AppointmentRepository{dbtx: dbtx}
}

const appointmentColumns = `
	id, reference, customer_ref, customer_email, technician_ref, ticket_ref,
	start_time, end_time, status, priority, created_via, location, description,
	send_confirmation_email, send_reminder_email, confirmation_sent, reminder_sent,
	cancelled_at, cancel_reason, cancel_details, created_at, updated_at`

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) (uuid.UUID, string, error) {
	const query = `
		INSERT INTO appointments (
			id, reference, customer_ref, customer_email, technician_ref, ticket_ref,
			start_time, end_time, status, priority, created_via, location, description,
			send_confirmation_email, send_reminder_email
		) VALUES (
			$1, 'APPT-' || lpad(nextval('appt_reference_seq')::text, 4, '0'),
			$2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''),
			$13, $14
		)
		RETURNING id, reference`

	var id uuid.UUID
	var reference string
	err := r.dbtx.QueryRow(ctx, query,
		a.ID(),
		a.CustomerRef(),
		a.CustomerEmail(),
		a.TechnicianRef(),
		a.TicketRef(),
		a.Slot().Start(),
		a.Slot().End(),
		string(a.Status()),
		string(a.Priority()),
		string(a.CreatedVia()),
		a.Location(),
		a.Description().String(),
		a.SendConfirmation(),
		a.SendReminder(),
	).Scan(&id, &reference)
	if err != nil {
		return uuid.Nil, "", infra.WrapRepoErr("failed to create appointment", err)
	}
	return id, reference, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	const query = `
		UPDATE appointments SET
			technician_ref = $2,
			start_time = $3,
			end_time = $4,
			status = $5,
			cancelled_at = $6,
			cancel_reason = $7,
			cancel_details = NULLIF($8, ''),
			updated_at = now()
		WHERE id = $1`

	var reason *string
	if a.CancelReason() != nil {
		s := string(*a.CancelReason())
		reason = &s
	}

	tag, err := r.dbtx.Exec(ctx, query,
		a.ID(),
		a.TechnicianRef(),
		a.Slot().Start(),
		a.Slot().End(),
		string(a.Status()),
		a.CancelledAt(),
		reason,
		a.CancelDetails(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("appointment not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(r.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find appointment", err)
	}
	return appt, nil
}

func (r *AppointmentRepository) ActiveSlots(ctx context.Context, technicianRef uuid.UUID, from, to time.Time) ([]schedule.BookedSlot, error) {
	const query = `
		SELECT id, reference, start_time, end_time, status
		FROM appointments
		WHERE technician_ref = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time`

	rows, err := r.dbtx.Query(ctx, query, technicianRef, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list booked slots", err)
	}
	defer rows.Close()

	var out []schedule.BookedSlot
	for rows.Next() {
		var (
			id         uuid.UUID
			reference  string
			start, end time.Time
			status     string
		)
		if err := rows.Scan(&id, &reference, &start, &end, &status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booked slot", err)
		}
		slot, err := appointment.NewTimeSlot(start, end.Sub(start))
		if err != nil {
			return nil, infra.WrapRepoErr("invalid stored slot", err)
		}
		out = append(out, schedule.BookedSlot{
			ID:        id,
			Reference: reference,
			Slot:      slot,
			Status:    appointment.Status(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booked slots", err)
	}
	return out, nil
}

func (r *AppointmentRepository) DueForReminder(ctx context.Context, now, until time.Time) ([]*appointment.Appointment, error) {
	query := `
		SELECT` + appointmentColumns + `
		FROM appointments
		WHERE status = 'confirmed'
		  AND send_reminder_email
		  AND NOT reminder_sent
		  AND start_time > $1
		  AND start_time <= $2
		ORDER BY start_time`

	rows, err := r.dbtx.Query(ctx, query, now, until)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to select reminder candidates", err)
	}
	defer rows.Close()

	var out []*appointment.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reminder candidate", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reminder candidates", err)
	}
	return out, nil
}

func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "reminder_sent")
}

func (r *AppointmentRepository) MarkConfirmationSent(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "confirmation_sent")
}

func (r *AppointmentRepository) setFlag(ctx context.Context, id uuid.UUID, column string) error {
	// column is one of two fixed identifiers, never user input
	query := `UPDATE appointments SET ` + column + ` = TRUE, updated_at = now() WHERE id = $1`
	tag, err := r.dbtx.Exec(ctx, query, id)
	if err != nil {
		return infra.WrapRepoErr("failed to set "+column, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("appointment not found", nil, infra.KindNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*appointment.Appointment, error) {
	var (
		p          appointment.ReconstructParams
		email      *string
		location   *string
		desc       *string
		reason     *string
		details    *string
		start, end time.Time
		status     string
		priority   string
		via        string
	)

	err := row.Scan(
		&p.ID, &p.Reference, &p.CustomerRef, &email, &p.TechnicianRef, &p.TicketRef,
		&start, &end, &status, &priority, &via, &location, &desc,
		&p.SendConfirmationEmail, &p.SendReminderEmail, &p.ConfirmationSent, &p.ReminderSent,
		&p.CancelledAt, &reason, &details, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot, err := appointment.NewTimeSlot(start, end.Sub(start))
	if err != nil {
		return nil, err
	}
	p.Slot = slot
	p.Status = appointment.Status(status)
	p.Priority = appointment.Priority(priority)
	p.CreatedVia = appointment.CreatedVia(via)
	p.CustomerEmail = deref(email)
	p.Location = deref(location)
	p.Description = appointment.NewNote(deref(desc))
	p.CancelDetails = deref(details)
	if reason != nil {
		cr := appointment.CancelReason(*reason)
		p.CancelReason = &cr
	}

	return appointment.Reconstruct(p), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

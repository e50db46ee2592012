package readstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"support-center/internal/infra"
	"support-center/internal/infra/db"
	"support-center/internal/usecase/queries"
)

// AppointmentReadStore serves the API read models straight off the pool;
// reads never join the command-side transactions.
type AppointmentReadStore struct {
	dbtx db.DBTX
}

func NewAppointmentReadStore(dbtx db.DBTX) *AppointmentReadStore {
	return &AppointmentReadStore{dbtx: dbtx}
}

func (s *AppointmentReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	const query = `
		SELECT id, reference, customer_ref, customer_email, technician_ref, ticket_ref,
		       start_time, end_time, status, priority, created_via, location, description,
		       cancelled_at, cancel_reason, cancel_details, created_at, updated_at
		FROM appointments
		WHERE id = $1`

	var v queries.AppointmentView
	var start, end time.Time
	err := s.dbtx.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.Reference, &v.CustomerRef, &v.CustomerEmail, &v.TechnicianRef, &v.TicketRef,
		&start, &end, &v.Status, &v.Priority, &v.CreatedVia, &v.Location, &v.Description,
		&v.CancelledAt, &v.CancelReason, &v.CancelDetails, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read appointment", err)
	}
	v.StartTime = start
	v.EndTime = end
	v.DurationMin = int(end.Sub(start).Minutes())
	return &v, nil
}

func (s *AppointmentReadStore) FindAll(ctx context.Context, filter queries.ListFilter) ([]*queries.AppointmentListItem, error) {
	query := `
		SELECT id, reference, customer_ref, technician_ref, start_time, end_time,
		       status, priority, created_at
		FROM appointments
		WHERE 1=1`

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.TechnicianRef != nil {
		query += ` AND technician_ref = ` + arg(*filter.TechnicianRef)
	}
	if filter.CustomerRef != nil {
		query += ` AND customer_ref = ` + arg(*filter.CustomerRef)
	}
	if filter.Status != nil {
		query += ` AND status = ` + arg(*filter.Status)
	}
	if filter.From != nil {
		query += ` AND start_time >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		query += ` AND start_time < ` + arg(*filter.To)
	}
	query += ` ORDER BY start_time DESC LIMIT ` + arg(filter.Limit)

	rows, err := s.dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list appointments", err)
	}
	defer rows.Close()

	var out []*queries.AppointmentListItem
	for rows.Next() {
		var item queries.AppointmentListItem
		if err := rows.Scan(
			&item.ID, &item.Reference, &item.CustomerRef, &item.TechnicianRef,
			&item.StartTime, &item.EndTime, &item.Status, &item.Priority, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan appointment row", err)
		}
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate appointments", err)
	}
	return out, nil
}

func (s *AppointmentReadStore) FindEvents(ctx context.Context, id uuid.UUID) ([]*queries.AppointmentEventView, error) {
	const query = `
		SELECT kind, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'), detail, occurred_at
		FROM appointment_events
		WHERE appointment_id = $1
		ORDER BY occurred_at, id`

	rows, err := s.dbtx.Query(ctx, query, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read appointment history", err)
	}
	defer rows.Close()

	var out []*queries.AppointmentEventView
	for rows.Next() {
		var v queries.AppointmentEventView
		if err := rows.Scan(&v.Kind, &v.ActorID, &v.Detail, &v.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan appointment event", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate appointment history", err)
	}
	return out, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"support-center/internal/infra"
	"support-center/internal/infra/db"
	"support-center/internal/usecase/shared"
)

type EventRepository struct {
	dbtx db.DBTX
}

func NewEventRepository(dbtx db.DBTX) *EventRepository {
	return &EventRepository{dbtx: dbtx}
}

func (r *EventRepository) Append(ctx context.Context, e shared.Event) error {
	const query = `
		INSERT INTO appointment_events (appointment_id, kind, actor_id, detail, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`

	var actor *uuid.UUID
	if e.ActorID != uuid.Nil {
		actor = &e.ActorID
	}

	_, err := r.dbtx.Exec(ctx, query, e.AppointmentID, e.Kind, actor, e.Detail, e.OccurredAt)
	if err != nil {
		return infra.WrapRepoErr("failed to append appointment event", err)
	}
	return nil
}

func (r *EventRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]shared.Event, error) {
	const query = `
		SELECT id, appointment_id, kind, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'),
		       COALESCE(detail, ''), occurred_at
		FROM appointment_events
		WHERE appointment_id = $1
		ORDER BY occurred_at, id`

	rows, err := r.dbtx.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list appointment events", err)
	}
	defer rows.Close()

	var out []shared.Event
	for rows.Next() {
		var e shared.Event
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.Kind, &e.ActorID, &e.Detail, &e.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan appointment event", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate appointment events", err)
	}
	return out, nil
}

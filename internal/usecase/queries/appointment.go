package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/pkg/errs"
)

var ErrAppointmentNotVisible = errs.New("appointment not visible to actor")

// AppointmentView is the read model returned to API clients.
type AppointmentView struct {
	ID            uuid.UUID  `json:"id"`
	Reference     string     `json:"reference"`
	CustomerRef   uuid.UUID  `json:"customer_ref"`
	CustomerEmail *string    `json:"customer_email,omitempty"`
	TechnicianRef uuid.UUID  `json:"technician_ref"`
	TicketRef     uuid.UUID  `json:"ticket_ref"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	DurationMin   int        `json:"duration_min"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	CreatedVia    string     `json:"created_via"`
	Location      *string    `json:"location,omitempty"`
	Description   *string    `json:"description,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CancelDetails *string    `json:"cancel_details,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type AppointmentListItem struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	CustomerRef   uuid.UUID `json:"customer_ref"`
	TechnicianRef uuid.UUID `json:"technician_ref"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
}

type AppointmentEventView struct {
	Kind       string    `json:"kind"`
	ActorID    uuid.UUID `json:"actor_id"`
	Detail     *string   `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListFilter narrows the appointment listing. Zero values mean "no filter".
type ListFilter struct {
	TechnicianRef *uuid.UUID
	CustomerRef   *uuid.UUID
	Status        *string
	From          *time.Time
	To            *time.Time
	Limit         int
}

type AppointmentQueries interface {
	GetByID(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*AppointmentView, error)
	// GetByIDSystem skips actor scoping; used for read-after-write inside
	// commands.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	List(ctx context.Context, actor appointment.Actor, filter ListFilter) ([]*AppointmentListItem, error)
	History(ctx context.Context, actor appointment.Actor, id uuid.UUID) ([]*AppointmentEventView, error)
}

type AppointmentViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*AppointmentListItem, error)
	FindEvents(ctx context.Context, id uuid.UUID) ([]*AppointmentEventView, error)
}

type appointmentQueriesImpl struct {
	repo AppointmentViewRepo
}

func NewAppointmentQueries(repo AppointmentViewRepo) AppointmentQueries {
	return &appointmentQueriesImpl{repo: repo}
}

func (q *appointmentQueriesImpl) GetByID(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*AppointmentView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(view.TechnicianRef) {
		return nil, ErrAppointmentNotVisible
	}
	return view, nil
}

func (q *appointmentQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*AppointmentView, error) {
	return q.repo.FindByID(ctx, id)
}

func (q *appointmentQueriesImpl) List(ctx context.Context, actor appointment.Actor, filter ListFilter) ([]*AppointmentListItem, error) {
	// Technicians only ever see their own diary, whatever the filter says.
	if !actor.IsManager {
		tech := actor.ID
		filter.TechnicianRef = &tech
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return q.repo.FindAll(ctx, filter)
}

func (q *appointmentQueriesImpl) History(ctx context.Context, actor appointment.Actor, id uuid.UUID) ([]*AppointmentEventView, error) {
	if _, err := q.GetByID(ctx, actor, id); err != nil {
		return nil, err
	}
	return q.repo.FindEvents(ctx, id)
}

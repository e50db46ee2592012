package response

import (
	"time"

	"github.com/google/uuid"

	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/queries"
)

type AppointmentResponse struct {
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
	Warnings      []string   `json:"warnings,omitempty"`
}

func FromAppointmentView(v *queries.AppointmentView) AppointmentResponse {
	return AppointmentResponse{
		ID:            v.ID,
		Reference:     v.Reference,
		CustomerRef:   v.CustomerRef,
		CustomerEmail: v.CustomerEmail,
		TechnicianRef: v.TechnicianRef,
		TicketRef:     v.TicketRef,
		StartTime:     v.StartTime,
		EndTime:       v.EndTime,
		DurationMin:   v.DurationMin,
		Status:        v.Status,
		Priority:      v.Priority,
		CreatedVia:    v.CreatedVia,
		Location:      v.Location,
		Description:   v.Description,
		CancelledAt:   v.CancelledAt,
		CancelReason:  v.CancelReason,
		CancelDetails: v.CancelDetails,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func FromCommandResult(res *commands.CommandResult) AppointmentResponse {
	out := FromAppointmentView(res.Appointment)
	out.Warnings = res.Warnings
	return out
}

type AppointmentListResponse struct {
	Appointments []*queries.AppointmentListItem `json:"appointments"`
	Count        int                            `json:"count"`
}

func FromAppointmentList(items []*queries.AppointmentListItem) AppointmentListResponse {
	if items == nil {
		items = []*queries.AppointmentListItem{}
	}
	return AppointmentListResponse{Appointments: items, Count: len(items)}
}

type HistoryResponse struct {
	Events []*queries.AppointmentEventView `json:"events"`
}

type SuggestionsResponse struct {
	TechnicianRef uuid.UUID                `json:"technician_ref"`
	Day           string                   `json:"day"`
	Slots         []queries.SlotSuggestion `json:"slots"`
}

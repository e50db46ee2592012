//go:build unit || e2e

package builder

import (
	"time"

	"github.com/google/uuid"

	domappt "support-center/internal/domain/appointment"
	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/usecase/queries"
)

type AppointmentBuilder struct {
	CustomerRef           uuid.UUID
	CustomerEmail         string
	TechnicianRef         uuid.UUID
	TicketRef             uuid.UUID
	StartTime             time.Time
	Duration              time.Duration
	InitialStatus         domappt.Status
	Priority              domappt.Priority
	CreatedVia            domappt.CreatedVia
	Location              string
	Description           string
	SendConfirmationEmail bool
	SendReminderEmail     bool
}

func NewAppointmentBuilder() *AppointmentBuilder {
	return &AppointmentBuilder{
		CustomerRef:           uuid.New(),
		CustomerEmail:         "customer@example.com",
		TechnicianRef:         uuid.New(),
		TicketRef:             uuid.New(),
		StartTime:             time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		Duration:              time.Hour,
		InitialStatus:         domappt.StatusDraft,
		Priority:              domappt.PriorityNormal,
		CreatedVia:            domappt.CreatedViaInternal,
		Location:              "12 Harbor St",
		Description:           "Boiler inspection",
		SendConfirmationEmail: true,
		SendReminderEmail:     true,
	}
}

func (b *AppointmentBuilder) With(mutate func(*AppointmentBuilder)) *AppointmentBuilder {
	mutate(b)
	return b
}

func (b *AppointmentBuilder) BuildDomain() (*domappt.Appointment, error) {
	slot, err := domappt.NewTimeSlot(b.StartTime, b.Duration)
	if err != nil {
		return nil, err
	}
	return domappt.NewAppointment(domappt.NewAppointmentParams{
		CustomerRef:           b.CustomerRef,
		CustomerEmail:         b.CustomerEmail,
		TechnicianRef:         b.TechnicianRef,
		TicketRef:             b.TicketRef,
		Slot:                  slot,
		InitialStatus:         b.InitialStatus,
		Priority:              b.Priority,
		CreatedVia:            b.CreatedVia,
		Location:              b.Location,
		Description:           domappt.NewNote(b.Description),
		SendConfirmationEmail: b.SendConfirmationEmail,
		SendReminderEmail:     b.SendReminderEmail,
	})
}

func (b *AppointmentBuilder) BuildCreateRequestDTO() reqdto.CreateAppointmentRequest {
	ticketRef := b.TicketRef
	email := b.CustomerEmail
	location := b.Location
	description := b.Description
	return reqdto.CreateAppointmentRequest{
		CustomerRef:   b.CustomerRef,
		CustomerEmail: &email,
		TechnicianRef: b.TechnicianRef,
		TicketRef:     &ticketRef,
		StartTime:     b.StartTime,
		DurationMin:   int(b.Duration.Minutes()),
		Confirm:       b.InitialStatus == domappt.StatusConfirmed,
		Priority:      string(b.Priority),
		CreatedVia:    string(b.CreatedVia),
		Location:      &location,
		Description:   &description,
	}
}

func (b *AppointmentBuilder) BuildView() *queries.AppointmentView {
	email := b.CustomerEmail
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return &queries.AppointmentView{
		ID:            uuid.New(),
		Reference:     "APPT-0001",
		CustomerRef:   b.CustomerRef,
		CustomerEmail: &email,
		TechnicianRef: b.TechnicianRef,
		TicketRef:     b.TicketRef,
		StartTime:     b.StartTime,
		EndTime:       b.StartTime.Add(b.Duration),
		DurationMin:   int(b.Duration.Minutes()),
		Status:        string(b.InitialStatus),
		Priority:      string(b.Priority),
		CreatedVia:    string(b.CreatedVia),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

package request

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	"support-center/internal/domain/schedule"
)

type CreateAppointmentRequest struct {
	CustomerRef   uuid.UUID  `json:"customer_ref" binding:"required"`
	CustomerEmail *string    `json:"customer_email,omitempty" binding:"omitempty,email"`
	TechnicianRef uuid.UUID  `json:"technician_ref" binding:"required"`
	TicketRef     *uuid.UUID `json:"ticket_ref,omitempty"`
	StartTime     time.Time  `json:"start_time" binding:"required"`
	DurationMin   int        `json:"duration_min,omitempty"`
	Confirm       bool       `json:"confirm,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	CreatedVia    string     `json:"created_via,omitempty"`
	Location      *string    `json:"location,omitempty"`
	Description   *string    `json:"description,omitempty"`

	SendConfirmationEmail *bool `json:"send_confirmation_email,omitempty"`
	SendReminderEmail     *bool `json:"send_reminder_email,omitempty"`
}

// Duration resolves the requested duration, falling back to the supplied
// policy default when the field is absent.
func (r CreateAppointmentRequest) Duration(fallback time.Duration) time.Duration {
	if r.DurationMin <= 0 {
		return fallback
	}
	return time.Duration(r.DurationMin) * time.Minute
}

func (r CreateAppointmentRequest) ToDomain(ticketRef uuid.UUID, defaultDuration time.Duration) (*appointment.Appointment, error) {
	slot, err := appointment.NewTimeSlot(r.StartTime, r.Duration(defaultDuration))
	if err != nil {
		return nil, err
	}

	status := appointment.StatusDraft
	if r.Confirm {
		status = appointment.StatusConfirmed
	}

	priority := appointment.PriorityNormal
	if r.Priority != "" {
		priority = appointment.Priority(r.Priority)
	}

	via := appointment.CreatedViaInternal
	if r.CreatedVia != "" {
		via = appointment.CreatedVia(r.CreatedVia)
	}

	return appointment.NewAppointment(appointment.NewAppointmentParams{
		CustomerRef:           r.CustomerRef,
		CustomerEmail:         trimmed(r.CustomerEmail),
		TechnicianRef:         r.TechnicianRef,
		TicketRef:             ticketRef,
		Slot:                  slot,
		InitialStatus:         status,
		Priority:              priority,
		CreatedVia:            via,
		Location:              trimmed(r.Location),
		Description:           appointment.NewNote(trimmed(r.Description)),
		SendConfirmationEmail: boolOr(r.SendConfirmationEmail, true),
		SendReminderEmail:     boolOr(r.SendReminderEmail, true),
	})
}

type RescheduleAppointmentRequest struct {
	StartTime     time.Time  `json:"start_time" binding:"required"`
	DurationMin   int        `json:"duration_min,omitempty"`
	TechnicianRef *uuid.UUID `json:"technician_ref,omitempty"`
}

func (r RescheduleAppointmentRequest) Slot(fallback time.Duration) (appointment.TimeSlot, error) {
	d := fallback
	if r.DurationMin > 0 {
		d = time.Duration(r.DurationMin) * time.Minute
	}
	return appointment.NewTimeSlot(r.StartTime, d)
}

func (r RescheduleAppointmentRequest) Technician() uuid.UUID {
	if r.TechnicianRef == nil {
		return uuid.Nil
	}
	return *r.TechnicianRef
}

type CancelAppointmentRequest struct {
	Reason  string  `json:"reason" binding:"required"`
	Details *string `json:"details,omitempty"`
}

func (r CancelAppointmentRequest) ToDomain() (appointment.CancelReason, string) {
	return appointment.CancelReason(r.Reason), trimmed(r.Details)
}

type UpdateSettingsRequest struct {
	TechnicianRef        *uuid.UUID `json:"technician_ref,omitempty"`
	WorkingHoursStart    float64    `json:"working_hours_start"`
	WorkingHoursEnd      float64    `json:"working_hours_end"`
	WorkingDays          []int      `json:"working_days" binding:"required,min=1,dive,min=0,max=6"`
	MaxDailyAppointments int        `json:"max_daily_appointments"`
	DefaultDurationMin   int        `json:"default_duration_min" binding:"required,min=1"`
	AdvanceBookingDays   int        `json:"advance_booking_days" binding:"required,min=1"`
	BufferTimeMin        int        `json:"buffer_time_min" binding:"min=0"`
}

func (r UpdateSettingsRequest) ToDomain() schedule.Settings {
	days := make([]time.Weekday, 0, len(r.WorkingDays))
	for _, d := range r.WorkingDays {
		days = append(days, time.Weekday(d))
	}
	return schedule.Settings{
		TechnicianRef:        r.TechnicianRef,
		WorkingHoursStart:    r.WorkingHoursStart,
		WorkingHoursEnd:      r.WorkingHoursEnd,
		WorkingDays:          days,
		MaxDailyAppointments: r.MaxDailyAppointments,
		DefaultDuration:      time.Duration(r.DefaultDurationMin) * time.Minute,
		AdvanceBookingDays:   r.AdvanceBookingDays,
		BufferTime:           time.Duration(r.BufferTimeMin) * time.Minute,
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

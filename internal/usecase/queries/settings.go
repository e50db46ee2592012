package queries

import (
	"context"

	"github.com/google/uuid"

	"support-center/internal/domain/schedule"
)

// SettingsView flattens a resolved policy for API clients.
type SettingsView struct {
	TechnicianRef        *uuid.UUID `json:"technician_ref,omitempty"`
	WorkingHoursStart    float64    `json:"working_hours_start"`
	WorkingHoursEnd      float64    `json:"working_hours_end"`
	WorkingDays          []int      `json:"working_days"`
	MaxDailyAppointments int        `json:"max_daily_appointments"`
	DefaultDurationMin   int        `json:"default_duration_min"`
	AdvanceBookingDays   int        `json:"advance_booking_days"`
	BufferTimeMin        int        `json:"buffer_time_min"`
}

func NewSettingsView(s schedule.Settings) *SettingsView {
	days := make([]int, 0, len(s.WorkingDays))
	for _, d := range s.WorkingDays {
		days = append(days, int(d))
	}
	return &SettingsView{
		TechnicianRef:        s.TechnicianRef,
		WorkingHoursStart:    s.WorkingHoursStart,
		WorkingHoursEnd:      s.WorkingHoursEnd,
		WorkingDays:          days,
		MaxDailyAppointments: s.MaxDailyAppointments,
		DefaultDurationMin:   int(s.DefaultDuration.Minutes()),
		AdvanceBookingDays:   s.AdvanceBookingDays,
		BufferTimeMin:        int(s.BufferTime.Minutes()),
	}
}

// SettingsQueries resolves the effective policy for a technician, or the
// global policy when technicianRef is nil.
type SettingsQueries interface {
	Effective(ctx context.Context, technicianRef *uuid.UUID) (*SettingsView, error)
}

type SettingsReader interface {
	ForTechnician(ctx context.Context, technicianRef uuid.UUID) (*schedule.Settings, error)
	Global(ctx context.Context) (*schedule.Settings, error)
}

type settingsQueriesImpl struct {
	reader SettingsReader
}

func NewSettingsQueries(reader SettingsReader) SettingsQueries {
	return &settingsQueriesImpl{reader: reader}
}

func (q *settingsQueriesImpl) Effective(ctx context.Context, technicianRef *uuid.UUID) (*SettingsView, error) {
	global, err := q.reader.Global(ctx)
	if err != nil {
		return nil, err
	}
	if technicianRef == nil {
		return NewSettingsView(schedule.Resolve(nil, global)), nil
	}
	tech, err := q.reader.ForTechnician(ctx, *technicianRef)
	if err != nil {
		return nil, err
	}
	return NewSettingsView(schedule.Resolve(tech, global)), nil
}

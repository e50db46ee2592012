package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"support-center/internal/domain/schedule"
	"support-center/internal/infra"
	"support-center/internal/infra/db"
)

type SettingsRepository struct {
	dbtx db.DBTX
}

func NewSettingsRepository(dbtx db.DBTX) *SettingsRepository {
	return &SettingsRepository{dbtx: dbtx}
}

const settingsColumns = `
	technician_ref, working_hours_start, working_hours_end, working_days,
	max_daily_appointments, default_duration_min, advance_booking_days, buffer_time_min`

func (r *SettingsRepository) ForTechnician(ctx context.Context, technicianRef uuid.UUID) (*schedule.Settings, error) {
	query := `SELECT` + settingsColumns + ` FROM scheduling_settings WHERE technician_ref = $1`
	return r.findOne(ctx, query, technicianRef)
}

func (r *SettingsRepository) Global(ctx context.Context) (*schedule.Settings, error) {
	query := `SELECT` + settingsColumns + ` FROM scheduling_settings WHERE technician_ref IS NULL`
	return r.findOne(ctx, query)
}

// findOne maps a missing row to (nil, nil); absence of a policy row is a
// normal resolution outcome, not an error.
func (r *SettingsRepository) findOne(ctx context.Context, query string, args ...any) (*schedule.Settings, error) {
	var (
		s           schedule.Settings
		days        []int32
		durationMin int
		bufferMin   int
	)
	err := r.dbtx.QueryRow(ctx, query, args...).Scan(
		&s.TechnicianRef,
		&s.WorkingHoursStart,
		&s.WorkingHoursEnd,
		&days,
		&s.MaxDailyAppointments,
		&durationMin,
		&s.AdvanceBookingDays,
		&bufferMin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to load scheduling settings", err)
	}

	s.WorkingDays = make([]time.Weekday, 0, len(days))
	for _, d := range days {
		s.WorkingDays = append(s.WorkingDays, time.Weekday(d))
	}
	s.DefaultDuration = time.Duration(durationMin) * time.Minute
	s.BufferTime = time.Duration(bufferMin) * time.Minute
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s schedule.Settings) error {
	days := make([]int32, 0, len(s.WorkingDays))
	for _, d := range s.WorkingDays {
		days = append(days, int32(d))
	}

	// A partial unique index keeps at most one global row; per-technician
	// rows conflict on technician_ref.
	const query = `
		INSERT INTO scheduling_settings (
			technician_ref, working_hours_start, working_hours_end, working_days,
			max_daily_appointments, default_duration_min, advance_booking_days, buffer_time_min
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (COALESCE(technician_ref, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET
			working_hours_start = EXCLUDED.working_hours_start,
			working_hours_end = EXCLUDED.working_hours_end,
			working_days = EXCLUDED.working_days,
			max_daily_appointments = EXCLUDED.max_daily_appointments,
			default_duration_min = EXCLUDED.default_duration_min,
			advance_booking_days = EXCLUDED.advance_booking_days,
			buffer_time_min = EXCLUDED.buffer_time_min,
			updated_at = now()`

	_, err := r.dbtx.Exec(ctx, query,
		s.TechnicianRef,
		s.WorkingHoursStart,
		s.WorkingHoursEnd,
		days,
		s.MaxDailyAppointments,
		int(s.DefaultDuration.Minutes()),
		s.AdvanceBookingDays,
		int(s.BufferTime.Minutes()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert scheduling settings", err)
	}
	return nil
}

//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// SeedOpenPolicy writes a wide-open global scheduling policy so booking
// tests are not sensitive to the wall-clock day or hour they run at.
func SeedOpenPolicy(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO scheduling_settings
		    (technician_ref, working_hours_start, working_hours_end, working_days,
		     max_daily_appointments, default_duration_min, advance_booking_days, buffer_time_min)
		VALUES (NULL, 0, 24, '{0,1,2,3,4,5,6}', 0, 60, 365, 0)
		ON CONFLICT (COALESCE(technician_ref, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET working_hours_start = 0, working_hours_end = 24,
		    working_days = '{0,1,2,3,4,5,6}', max_daily_appointments = 0,
		    default_duration_min = 60, advance_booking_days = 365, buffer_time_min = 0;
	`)
	return err
}

// SeedTechnicianPolicy writes an override row for one technician.
func SeedTechnicianPolicy(t *testing.T, db DBLike, technicianRef uuid.UUID, startHour, endHour float64, bufferMin int) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Exec(ctx, `
		INSERT INTO scheduling_settings
		    (technician_ref, working_hours_start, working_hours_end, working_days,
		     max_daily_appointments, default_duration_min, advance_booking_days, buffer_time_min)
		VALUES ($1, $2, $3, '{0,1,2,3,4,5,6}', 0, 60, 365, $4)
		ON CONFLICT (COALESCE(technician_ref, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET working_hours_start = $2, working_hours_end = $3, buffer_time_min = $4`,
		technicianRef, startHour, endHour, bufferMin)
	require.NoError(t, err)
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables, resets the reference sequence and reseeds the policy
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	// The reference sequence is standalone, TRUNCATE does not touch it.
	if _, err := pool.Exec(ctx, "ALTER SEQUENCE appt_reference_seq RESTART"); err != nil {
		return err
	}

	return SeedOpenPolicy(pool)
}

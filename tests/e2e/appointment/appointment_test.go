//go:build e2e

package appointment_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"support-center/internal/handler/dto/request"
	"support-center/internal/handler/dto/response"
	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/queries"
	"support-center/tests/common/builder"
	"support-center/tests/common/httptest"
	"support-center/tests/e2e"
	"support-center/tests/e2e/common/helper"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	appointmentsURL = "/api/appointments"
	settingsURL     = "/api/settings"
	sweepURL        = "/api/reminders/sweep"
)

type AppointmentSuite struct {
	e2e.SharedSuite
	jwt *helper.JWTTestHelper
}

func (s *AppointmentSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = helper.NewJWTTestHelper(s.Config.JWT)
}

func TestAppointmentSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(AppointmentSuite))
}

// futureSlot picks a start time far enough ahead that the booking checks
// never race the wall clock, truncated so it round-trips through postgres.
func futureSlot() time.Time {
	return time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
}

func (s *AppointmentSuite) TestBooking() {
	s.Run("Normal case: booking round-trips through create and detail", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		reqBody := b.BuildCreateRequestDTO()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, reqBody, token)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "APPT-0001", created.Reference)
		require.Equal(t, "draft", created.Status)

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			appointmentsURL+"/"+created.ID.String(), nil, token)
		var actual response.AppointmentResponse
		httptest.AssertSuccessResponse(t, dw, http.StatusOK, &actual)

		email := b.CustomerEmail
		location := b.Location
		description := b.Description
		expected := response.AppointmentResponse{
			ID:            created.ID,
			Reference:     "APPT-0001",
			CustomerRef:   b.CustomerRef,
			CustomerEmail: &email,
			TechnicianRef: b.TechnicianRef,
			TicketRef:     b.TicketRef,
			StartTime:     b.StartTime,
			EndTime:       b.StartTime.Add(b.Duration),
			DurationMin:   60,
			Status:        "draft",
			Priority:      "normal",
			CreatedVia:    "internal",
			Location:      &location,
			Description:   &description,
		}

		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.AppointmentResponse{}, "CreatedAt", "UpdatedAt", "Warnings"),
		}
		if diff := cmp.Diff(expected, actual, opts...); diff != "" {
			t.Errorf("appointment response mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("Normal case: missing ticket reference mints one", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		reqBody := b.BuildCreateRequestDTO()
		reqBody.TicketRef = nil

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, reqBody, token)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.NotEqual(t, uuid.Nil, created.TicketRef)
	})

	s.Run("Error case: overlapping slot on the same diary conflicts", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		b.InitialStatus = "confirmed"
		first := b.BuildCreateRequestDTO()

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, first, token)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())

		second := first
		second.StartTime = first.StartTime.Add(30 * time.Minute)
		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, second, token)
		httptest.AssertErrorResponse(t, w2, http.StatusConflict, "conflicts")
	})

	s.Run("Error case: past slot is not bookable", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Hour)
		reqBody := b.BuildCreateRequestDTO()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, reqBody, token)
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "not bookable")
	})

	s.Run("Auth test: unauthorized without token", func() {
		t := s.T()

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *AppointmentSuite) TestLifecycle() {
	s.Run("Normal case: confirm, start and complete in order", func() {
		t := s.T()
		_, managerToken := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		ownerToken := s.jwt.TechnicianToken(t, b.TechnicianRef)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), managerToken)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		base := appointmentsURL + "/" + created.ID.String()

		for _, step := range []struct {
			action string
			token  string
			status string
		}{
			{"confirm", managerToken, "confirmed"},
			{"start", ownerToken, "in_progress"},
			{"complete", ownerToken, "completed"},
		} {
			tw := httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/"+step.action, nil, step.token)
			var view response.AppointmentResponse
			httptest.AssertSuccessResponse(t, tw, http.StatusOK, &view)
			require.Equal(t, step.status, view.Status, "after %s", step.action)
		}

		hw := httptest.PerformRequest(t, s.Router, http.MethodGet, base+"/history", nil, managerToken)
		var history struct {
			Events []*queries.AppointmentEventView `json:"events"`
		}
		httptest.AssertSuccessResponse(t, hw, http.StatusOK, &history)
		kinds := make([]string, 0, len(history.Events))
		for _, ev := range history.Events {
			kinds = append(kinds, ev.Kind)
		}
		require.Equal(t, []string{"created", "confirmed", "started", "completed"}, kinds)
	})

	s.Run("Error case: starting a draft is an invalid transition", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), token)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		tw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			appointmentsURL+"/"+created.ID.String()+"/start", nil, token)
		httptest.AssertErrorResponse(t, tw, http.StatusConflict, "Status transition not allowed")
	})

	s.Run("Normal case: cancel records the reason", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		b.InitialStatus = "confirmed"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), token)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			appointmentsURL+"/"+created.ID.String()+"/cancel",
			request.CancelAppointmentRequest{Reason: "customer_request"}, token)
		var cancelled response.AppointmentResponse
		httptest.AssertSuccessResponse(t, cw, http.StatusOK, &cancelled)
		require.Equal(t, "cancelled", cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		require.NotNil(t, cancelled.CancelReason)
		require.Equal(t, "customer_request", *cancelled.CancelReason)
	})

	s.Run("Normal case: reschedule moves the slot", func() {
		t := s.T()
		_, token := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), token)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		newStart := b.StartTime.Add(24 * time.Hour)
		rw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			appointmentsURL+"/"+created.ID.String()+"/reschedule",
			request.RescheduleAppointmentRequest{StartTime: newStart, DurationMin: 90}, token)
		var moved response.AppointmentResponse
		httptest.AssertSuccessResponse(t, rw, http.StatusOK, &moved)
		require.True(t, newStart.Equal(moved.StartTime))
		require.Equal(t, 90, moved.DurationMin)
	})
}

func (s *AppointmentSuite) TestVisibility() {
	s.Run("Error case: technicians cannot view another diary's appointment", func() {
		t := s.T()
		_, managerToken := s.jwt.ManagerToken(t)

		b := builder.NewAppointmentBuilder()
		b.StartTime = futureSlot()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), managerToken)
		var created response.AppointmentResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		strangerToken := s.jwt.TechnicianToken(t, uuid.New())
		gw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			appointmentsURL+"/"+created.ID.String(), nil, strangerToken)
		httptest.AssertErrorResponse(t, gw, http.StatusForbidden, "Not allowed to view")
	})

	s.Run("Normal case: listing is scoped to the technician's own diary", func() {
		t := s.T()
		_, managerToken := s.jwt.ManagerToken(t)

		mine := builder.NewAppointmentBuilder()
		mine.StartTime = futureSlot()
		other := builder.NewAppointmentBuilder()
		other.StartTime = futureSlot().Add(3 * time.Hour)

		for _, b := range []*builder.AppointmentBuilder{mine, other} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), managerToken)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		ownerToken := s.jwt.TechnicianToken(t, mine.TechnicianRef)
		lw := httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL, nil, ownerToken)
		var list response.AppointmentListResponse
		httptest.AssertSuccessResponse(t, lw, http.StatusOK, &list)
		require.Equal(t, 1, list.Count)
		require.Equal(t, mine.TechnicianRef, list.Appointments[0].TechnicianRef)
	})
}

func (s *AppointmentSuite) TestSettings() {
	s.Run("Normal case: manager writes a technician override", func() {
		t := s.T()
		_, managerToken := s.jwt.ManagerToken(t)
		technicianRef := uuid.New()

		reqBody := request.UpdateSettingsRequest{
			TechnicianRef:        &technicianRef,
			WorkingHoursStart:    8,
			WorkingHoursEnd:      16,
			WorkingDays:          []int{1, 2, 3, 4, 5},
			MaxDailyAppointments: 4,
			DefaultDurationMin:   45,
			AdvanceBookingDays:   21,
			BufferTimeMin:        15,
		}
		uw := httptest.PerformRequest(t, s.Router, http.MethodPut, settingsURL, reqBody, managerToken)
		var written queries.SettingsView
		httptest.AssertSuccessResponse(t, uw, http.StatusOK, &written)
		require.Equal(t, 45, written.DefaultDurationMin)

		gw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			fmt.Sprintf("%s?technician_ref=%s", settingsURL, technicianRef), nil, managerToken)
		var effective queries.SettingsView
		httptest.AssertSuccessResponse(t, gw, http.StatusOK, &effective)
		require.Equal(t, 15, effective.BufferTimeMin)
		require.Equal(t, float64(16), effective.WorkingHoursEnd)
	})

	s.Run("Auth test: technicians cannot write settings", func() {
		t := s.T()
		token := s.jwt.TechnicianToken(t, uuid.New())

		reqBody := request.UpdateSettingsRequest{
			WorkingHoursStart:  9,
			WorkingHoursEnd:    17,
			WorkingDays:        []int{1, 2, 3, 4, 5},
			DefaultDurationMin: 60,
			AdvanceBookingDays: 30,
		}
		w := httptest.PerformRequest(t, s.Router, http.MethodPut, settingsURL, reqBody, token)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func (s *AppointmentSuite) TestReminderSweep() {
	s.Run("Normal case: a failed dispatch still counts as attempted", func() {
		t := s.T()
		_, managerToken := s.jwt.ManagerToken(t)

		// Confirmed, starting within the reminder window. No SMTP server is
		// running, so the dispatch fails but the row must still be marked.
		b := builder.NewAppointmentBuilder()
		b.StartTime = time.Now().UTC().Add(3 * time.Hour).Truncate(time.Minute)
		b.InitialStatus = "confirmed"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, b.BuildCreateRequestDTO(), managerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		sw := httptest.PerformRequest(t, s.Router, http.MethodPost, sweepURL, nil, managerToken)
		var report commands.SweepReport
		httptest.AssertSuccessResponse(t, sw, http.StatusOK, &report)
		require.Equal(t, 1, report.Selected)
		require.Empty(t, report.Notified)
		require.Len(t, report.Failures, 1)
		require.Equal(t, "APPT-0001", report.Failures[0].Reference)

		sw2 := httptest.PerformRequest(t, s.Router, http.MethodPost, sweepURL, nil, managerToken)
		var second commands.SweepReport
		httptest.AssertSuccessResponse(t, sw2, http.StatusOK, &second)
		require.Zero(t, second.Selected)
	})
}

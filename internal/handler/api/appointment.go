package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"support-center/internal/domain/appointment"
	reqdto "support-center/internal/handler/dto/request"
	resdto "support-center/internal/handler/dto/response"
	"support-center/internal/handler/httperr"
	"support-center/internal/handler/middleware"
	"support-center/internal/infra"
	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/queries"
)

type AppointmentHandler struct {
	commands commands.AppointmentCommands
	queries  queries.AppointmentQueries
}

func NewAppointmentHandler(cmd commands.AppointmentCommands, q queries.AppointmentQueries) *AppointmentHandler {
	return &AppointmentHandler{commands: cmd, queries: q}
}

// @Summary Book appointment
// @Description Book a technician appointment, optionally confirming it immediately
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateAppointmentRequest true "Appointment request"
// @Success 201 {object} resdto.AppointmentResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error", nil)
		return
	}

	var req reqdto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.commands.Create(c.Request.Context(), req, actor)
	if err != nil {
		h.abortCommandError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromCommandResult(result))
}

// @Summary Get appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 404 {object} httperr.Response
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.abortQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAppointmentView(view))
}

// @Summary List appointments
// @Description Technicians see their own diary; managers can filter freely
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param technician_ref query string false "Filter by technician"
// @Param customer_ref query string false "Filter by customer"
// @Param status query string false "Filter by status"
// @Param from query string false "RFC3339 lower bound on start time"
// @Param to query string false "RFC3339 upper bound on start time"
// @Success 200 {object} resdto.AppointmentListResponse
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error", nil)
		return
	}

	filter, err := listFilterFromQuery(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid filter", nil)
		return
	}

	items, err := h.queries.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.abortQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAppointmentList(items))
}

// @Summary Appointment history
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.HistoryResponse
// @Failure 404 {object} httperr.Response
// @Router /appointments/{id}/history [get]
func (h *AppointmentHandler) History(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	events, err := h.queries.History(c.Request.Context(), actor, id)
	if err != nil {
		h.abortQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.HistoryResponse{Events: events})
}

// @Summary Reschedule appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param request body reqdto.RescheduleAppointmentRequest true "New slot"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req reqdto.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.commands.Reschedule(c.Request.Context(), id, req, actor)
	if err != nil {
		h.abortCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCommandResult(result))
}

// @Summary Confirm appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.runTransition(c, h.commands.Confirm)
}

// @Summary Start appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/start [post]
func (h *AppointmentHandler) Start(c *gin.Context) {
	h.runTransition(c, h.commands.Start)
}

// @Summary Complete appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.runTransition(c, h.commands.Complete)
}

// @Summary Cancel appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param request body reqdto.CancelAppointmentRequest true "Cancellation reason"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req reqdto.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.commands.Cancel(c.Request.Context(), id, req, actor)
	if err != nil {
		h.abortCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCommandResult(result))
}

var errMissingActor = errors.New("actor missing from request context")

func (h *AppointmentHandler) runTransition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID, actor appointment.Actor) (*commands.CommandResult, error),
) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.abortCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCommandResult(result))
}

func (h *AppointmentHandler) actorAndID(c *gin.Context) (appointment.Actor, uuid.UUID, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error", nil)
		return appointment.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid appointment ID", nil)
		return appointment.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func (h *AppointmentHandler) abortCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrAppointmentNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Appointment not found", nil)
	case errors.Is(err, commands.ErrSchedulingConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Requested slot conflicts with an existing appointment", nil)
	case errors.Is(err, commands.ErrSlotUnavailable):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Requested slot is not bookable", nil)
	case errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	case errors.Is(err, commands.ErrInvalidTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Status transition not allowed", nil)
	case errors.Is(err, commands.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Not allowed to manage this appointment", nil)
	case errors.Is(err, commands.ErrMissingTicket):
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Appointment is missing its ticket link", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func (h *AppointmentHandler) abortQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queries.ErrAppointmentNotVisible):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Not allowed to view this appointment", nil)
	case infra.IsKind(err, infra.KindNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Appointment not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func listFilterFromQuery(c *gin.Context) (queries.ListFilter, error) {
	var filter queries.ListFilter

	if v := c.Query("technician_ref"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.TechnicianRef = &id
	}
	if v := c.Query("customer_ref"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.CustomerRef = &id
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}

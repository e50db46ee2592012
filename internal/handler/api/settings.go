package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/handler/httperr"
	"support-center/internal/handler/middleware"
	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/queries"
)

type SettingsHandler struct {
	commands commands.SettingsCommands
	queries  queries.SettingsQueries
}

func NewSettingsHandler(cmd commands.SettingsCommands, q queries.SettingsQueries) *SettingsHandler {
	return &SettingsHandler{commands: cmd, queries: q}
}

// @Summary Effective scheduling settings
// @Description Resolve the policy for a technician, or the global policy when no technician is given
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param technician_ref query string false "Technician to resolve for"
// @Success 200 {object} queries.SettingsView
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	var technicianRef *uuid.UUID
	if v := c.Query("technician_ref"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid technician reference", nil)
			return
		}
		technicianRef = &id
	}

	view, err := h.queries.Effective(c.Request.Context(), technicianRef)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Update scheduling settings
// @Description Write the global policy or a per-technician override; managers only
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.UpdateSettingsRequest true "Settings"
// @Success 200 {object} queries.SettingsView
// @Failure 403 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error", nil)
		return
	}

	var req reqdto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	view, err := h.commands.Upsert(c.Request.Context(), req, actor)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrForbidden):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Managers only", nil)
		case errors.Is(err, commands.ErrSettingsValidation):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Invalid settings", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"support-center/internal/handler/httperr"
	"support-center/internal/usecase/commands"
)

type ReminderHandler struct {
	commands commands.ReminderCommands
}

func NewReminderHandler(cmd commands.ReminderCommands) *ReminderHandler {
	return &ReminderHandler{commands: cmd}
}

// @Summary Run reminder sweep
// @Description Trigger the reminder sweep immediately instead of waiting for the scheduler; managers only
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} commands.SweepReport
// @Router /reminders/sweep [post]
func (h *ReminderHandler) Sweep(c *gin.Context) {
	report, err := h.commands.RunSweep(c.Request.Context(), time.Time{})
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Sweep failed", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	resdto "support-center/internal/handler/dto/response"
	"support-center/internal/handler/httperr"
	"support-center/internal/usecase/queries"
)

type AvailabilityHandler struct {
	queries queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{queries: q}
}

// @Summary Suggest free slots
// @Description Scan a technician's day for bookable slots of the given duration
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param technician_ref query string true "Technician"
// @Param day query string true "Day, YYYY-MM-DD"
// @Param duration_min query int false "Slot duration in minutes"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} resdto.SuggestionsResponse
// @Failure 400 {object} httperr.Response
// @Router /availability [get]
func (h *AvailabilityHandler) Suggest(c *gin.Context) {
	technicianRef, err := uuid.Parse(c.Query("technician_ref"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid technician reference", nil)
		return
	}

	day, err := time.Parse("2006-01-02", c.Query("day"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid day, expected YYYY-MM-DD", nil)
		return
	}

	durationMin, _ := strconv.Atoi(c.DefaultQuery("duration_min", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	slots, err := h.queries.Suggest(c.Request.Context(), technicianRef, day, durationMin, limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.SuggestionsResponse{
		TechnicianRef: technicianRef,
		Day:           day.Format("2006-01-02"),
		Slots:         slots,
	})
}

package timesheet

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-timesheet/internal/shared/apperror"
	"go-timesheet/internal/shared/response"
	timesheeterrors "go-timesheet/internal/timesheet/errors"
)

type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, loc: loc}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func actorUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		writeServiceError(c, timesheeterrors.ErrInvalidUserID)
		return uuid.Nil, false
	}
	return id, true
}

// GetWeek serves the consolidated weekly view. `week_of` may be any date in
// the week; it defaults to today.
func (h *Handler) GetWeek(c *gin.Context) {
	userID, ok := actorUUID(c)
	if !ok {
		return
	}

	target := time.Now().In(h.loc)
	if raw := c.Query("week_of"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			writeServiceError(c, timesheeterrors.ErrInvalidDateFormat)
			return
		}
		target = parsed
	}

	view, err := h.service.GetView(c.Request.Context(), userID, target)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view, nil)
}

func (h *Handler) AddHours(c *gin.Context) {
	userID, ok := actorUUID(c)
	if !ok {
		return
	}

	var req AddHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.MapValidationError(err)
		writeServiceError(c, mapped)
		return
	}

	view, err := h.service.AddManualHours(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view, nil)
}

func (h *Handler) UpdateEntry(c *gin.Context) {
	userID, ok := actorUUID(c)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.MapValidationError(err)
		writeServiceError(c, mapped)
		return
	}

	resp, err := h.service.UpdateManualEntry(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

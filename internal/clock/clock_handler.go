package clock

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	clockerrors "go-timesheet/internal/clock/errors"
	"go-timesheet/internal/shared/apperror"
	"go-timesheet/internal/shared/response"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) actorUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		writeServiceError(c, clockerrors.ErrInvalidUserID)
		return uuid.Nil, false
	}
	return id, true
}

// releaseIdempotencyLock clears the in-flight lock set by the idempotency
// middleware and caches the successful response under the idempotency key.
func (h *Handler) releaseIdempotencyLock(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	if lk, ok := c.Get("idempotency_lock_key"); ok {
		if key, ok := lk.(string); ok && key != "" {
			defer h.rdb.Del(c.Request.Context(), key)
		}
	}
	if ck, ok := c.Get("idempotency_cache_key"); ok {
		if key, ok := ck.(string); ok && key != "" && resp != nil {
			if payload, err := json.Marshal(resp); err == nil {
				_ = h.rdb.Set(c.Request.Context(), key, payload, 24*time.Hour).Err()
			}
		}
	}
}

func (h *Handler) ClockIn(c *gin.Context) {
	userID, ok := h.actorUUID(c)
	if !ok {
		return
	}

	var req ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ClockIn(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.releaseIdempotencyLock(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ClockOut(c *gin.Context) {
	userID, ok := h.actorUUID(c)
	if !ok {
		return
	}

	resp, err := h.service.ClockOut(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.releaseIdempotencyLock(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Pause(c *gin.Context) {
	userID, ok := h.actorUUID(c)
	if !ok {
		return
	}

	resp, err := h.service.Pause(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Resume(c *gin.Context) {
	userID, ok := h.actorUUID(c)
	if !ok {
		return
	}

	resp, err := h.service.Resume(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	userID, ok := h.actorUUID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetAll(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

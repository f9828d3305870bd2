package clock

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-timesheet/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb ...*redis.Client) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	sessions := r.Group("/clock")
	sessions.Use(
		middleware.AuthMiddleware(),
		middleware.ContextLogger(zap.L()),
		middleware.RateLimitByUser(rate.Limit(20), 40),
	)
	{
		sessions.GET("/sessions", h.GetAll)
		if redisClient != nil {
			sessions.POST("/in", middleware.Idempotency(redisClient), h.ClockIn)
			sessions.POST("/out", middleware.Idempotency(redisClient), h.ClockOut)
		} else {
			sessions.POST("/in", h.ClockIn)
			sessions.POST("/out", h.ClockOut)
		}
		sessions.POST("/pause", h.Pause)
		sessions.POST("/resume", h.Resume)
	}
}

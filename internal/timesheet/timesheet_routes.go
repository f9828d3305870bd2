package timesheet

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-timesheet/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	timesheets := r.Group("/timesheets")
	timesheets.Use(
		middleware.AuthMiddleware(),
		middleware.ContextLogger(zap.L()),
		middleware.RateLimitByUser(rate.Limit(20), 40),
	)
	{
		timesheets.GET("/me", h.GetWeek)
		timesheets.POST("/me/hours", h.AddHours)
		timesheets.PUT("/me/entries/:id", h.UpdateEntry)
	}
}

package leave

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-timesheet/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	leaves := r.Group("/leaves")
	leaves.Use(
		middleware.AuthMiddleware(),
		middleware.ContextLogger(zap.L()),
		middleware.RateLimitByUser(rate.Limit(20), 40),
	)
	{
		leaves.GET("", h.GetAll)
		leaves.POST("", h.Create)
		leaves.POST("/:id/cancel", h.Cancel)
	}

	admin := leaves.Group("")
	admin.Use(middleware.RoleMiddleware("ADMIN", "HR", "MANAGER"))
	{
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/reject", h.Reject)
	}
}

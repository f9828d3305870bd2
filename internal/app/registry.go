package app

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go-timesheet/internal/clock"
	"go-timesheet/internal/leave"
	"go-timesheet/internal/messaging/kafka"
	"go-timesheet/internal/middleware"
	"go-timesheet/internal/timesheet"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	loc *time.Location,
) error {
	// --- Repositories ---
	timesheetRepo := timesheet.NewRepository(gormDB)
	clockRepo := clock.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	leaveSource := leave.NewTimesheetSource(leaveRepo, loc)
	timesheetService := timesheet.NewServiceWithInfra(db, timesheetRepo, leaveSource, loc, outboxRepo, rdb)
	clockService := clock.NewServiceWithOutbox(db, clockRepo, timesheetService, loc, outboxRepo)
	leaveService := leave.NewServiceWithViews(db, leaveRepo, timesheetService)

	// --- Handlers ---
	timesheetHandler := timesheet.NewHandler(timesheetService, loc)
	clockHandler := clock.NewHandlerWithRedis(clockService, rdb)
	leaveHandler := leave.NewHandler(leaveService)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	{
		timesheet.RegisterRoutes(api, timesheetHandler)
		clock.RegisterRoutes(api, clockHandler, rdb)
		leave.RegisterRoutes(api, leaveHandler)
	}

	return nil
}

package app

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-timesheet/internal/shared/connection"
)

// CompanyLocation loads the timezone all week boundaries are resolved in.
// Week math must never depend on the process default zone, so the location
// is explicit configuration (COMPANY_TIMEZONE, defaulting to UTC).
func CompanyLocation() (*time.Location, error) {
	tz := os.Getenv("COMPANY_TIMEZONE")
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	loc, err := CompanyLocation()
	if err != nil {
		return err
	}
	zap.L().Info("company timezone loaded", zap.String("timezone", loc.String()))

	return registerModules(router, sqlDB, gormDB, redisClient, loc)
}

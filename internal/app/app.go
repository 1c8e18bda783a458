package app

import (
	"fmt"

	"leavedesk/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildAPI wires the admin console: database, redis, module registry.
func BuildAPI(router *gin.Engine, cfg Config) error {
	if cfg.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode, 5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	if err := Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	registerModules(router, cfg, sqlDB, gormDB, rdb)
	return nil
}

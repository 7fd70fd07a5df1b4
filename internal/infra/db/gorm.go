package db

import (
	"fmt"
	"time"

	"storefront/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	zap.L().Info("database connected",
		zap.String("host", cfg.PostgresHost),
		zap.Bool("database_url", cfg.DatabaseURL != ""),
	)
	return gdb, nil
}

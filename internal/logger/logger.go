package logger

import (
	"os"

	"storefront/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Newはzapロガーを作ってグローバルに差し替える。
// LOG_FILEがあればlumberjackでローテーションしつつJSONで書く。
func New(cfg config.Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	var encCfg zapcore.EncoderConfig
	if cfg.IsProduction() {
		encCfg = zap.NewProductionEncoderConfig()
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level),
	}

	if cfg.LogFile != "" {
		rotate := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    64, // MB
			MaxBackups: 7,
			MaxAge:     30,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotate),
			level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(l)
	return l, nil
}

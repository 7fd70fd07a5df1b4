package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// echoを作って共通ミドルウェアを付ける
func New(cfg config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		},
	}))
	// 画像アップロードがあるので上限+1MB
	e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes/1024/1024+1, 10) + "M"))

	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.FEURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token", "X-Idempotency-Key"},
			AllowCredentials: true,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// SIGINT/SIGTERMで止める
func Start(e *echo.Echo, addr string, logger *zap.Logger) error {
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

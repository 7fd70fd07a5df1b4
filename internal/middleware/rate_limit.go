package middleware

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/infra/ratelimit"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

// ログイン試行をIPごとに制限する。
// Redisのエラー時は通す
func LoginRateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := limiter.Allow(c.Request().Context(), "login:"+c.RealIP())
			if err != nil {
				zap.L().Warn("rate limiter unavailable", zap.String("ip", c.RealIP()), zap.Error(err))
				return next(c)
			}
			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many login attempts"))
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			return next(c)
		}
	}
}

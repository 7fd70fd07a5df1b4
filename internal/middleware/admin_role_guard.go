package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろで使う。ADMINだけ通す
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !id.IsAdmin() {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
			return next(c)
		}
	}
}

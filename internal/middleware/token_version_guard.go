package middleware

import (
	"net/http"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
// 無効化されたユーザーもここで止める。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), id.UserID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//token_version が一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != id.TokenVersion {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			//roleが変わったトークンも使わせない
			if user.Role != id.Role {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, errorJSON("account is disabled"))
			}

			return next(c)
		}
	}
}

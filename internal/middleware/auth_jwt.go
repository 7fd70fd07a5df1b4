package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/infra/security"

	"github.com/labstack/echo/v4"
)

// cookie名（ブラウザはcookie、APIクライアントはBearer）
const AccessTokenCookie = "access_token"

// JWT検証ミドルウェア。IdentityをリクエストのContextに入れる。
func AuthJWT(issuer *security.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if rawToken == "" {
				if ck, err := c.Cookie(AccessTokenCookie); err == nil {
					rawToken = strings.TrimSpace(ck.Value)
				}
			}
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := issuer.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			id := Identity{
				UserID:       claims.UserID,
				Role:         claims.Role,
				TokenVersion: claims.TokenVersion,
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))

			return next(c)
		}
	}
}

// "Bearer xxx" からtokenを抜く
func bearerToken(authz string) string {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

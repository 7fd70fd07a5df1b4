package server

import (
	"storefront/internal/handler"
	"storefront/internal/infra/security"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	OAuth        *handler.OAuthHandler // Google未設定ならnil
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
	Dashboard    *handler.DashboardHandler
}

// 公開 / ログイン必須 / ADMIN のルートを登録
func RegisterRoutes(e *echo.Echo, h Handlers, issuer *security.TokenIssuer, users repository.UserRepository) {
	authed := []echo.MiddlewareFunc{
		middleware.AuthJWT(issuer),
		middleware.TokenVersionGuard(users),
	}

	h.Auth.RegisterRoutes(e, authed...)
	if h.OAuth != nil {
		h.OAuth.RegisterRoutes(e)
	}
	h.Product.RegisterRoutes(e)
	h.Payment.RegisterRoutes(e)

	user := e.Group("", authed...)
	h.Cart.RegisterRoutes(user)
	h.Order.RegisterRoutes(user)

	admin := e.Group("/admin", append(authed, middleware.AdminRoleGuard())...)
	h.Dashboard.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
}

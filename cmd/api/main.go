package main

import (
	"context"
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/ratelimit"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/security"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// アクセストークン
const accessTokenTTL = 15 * time.Minute

func main() {
	// .envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	if err := db.SeedAdmin(context.Background(), gormDB, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		zl.Fatal("admin seed failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	productOrderRepo := infraRepo.NewProductOrderGormRepository(gormDB)
	notificationRepo := infraRepo.NewPaymentNotificationGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	issuer := security.NewTokenIssuer(cfg.JWTSecret, accessTokenTTL)
	gateway := payment.NewMidtrans(cfg)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, issuer, authValidator)
	profileUC := usecase.NewProfileUsecase(userRepo, authValidator, cfg.MaxUploadBytes)
	productUC := usecase.NewProductUsecase(productRepo, txm, cfg.MaxUploadBytes)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, productOrderRepo, cartItemRepo, productRepo, gateway)
	paymentUC := usecase.NewPaymentUsecase(txm, gateway)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, productOrderRepo, notificationRepo)
	adminUserUC := usecase.NewAdminUserUsecase(txm, userRepo)
	dashboardUC := usecase.NewDashboardUsecase(userRepo, productRepo, orderRepo, auditRepo)

	// ログイン試行制限（REDIS_ADDRが無ければ無制限）
	var limiter middleware.Limiter = ratelimit.Noop{}
	if cfg.RedisAddr != "" {
		rdb, err := ratelimit.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			zl.Warn("redis unavailable, login rate limit disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewRedisLimiter(rdb, "storefront:rl:", cfg.LoginRateLimit, cfg.LoginRateWindow)
		}
	}

	//Handler生成
	authH := handler.NewAuthHandler(
		authUC,
		profileUC,
		accessTokenTTL,
		handler.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.APIDomain},
		cfg.MaxUploadBytes,
		middleware.LoginRateLimit(limiter),
	)

	handlers := server.Handlers{
		Auth:         authH,
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, cfg.MaxUploadBytes),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC, authUC),
		Dashboard:    handler.NewDashboardHandler(dashboardUC),
	}
	if cfg.GoogleOAuthEnabled() {
		handlers.OAuth = handler.NewOAuthHandler(authH, handler.OAuthConfig{
			ClientID:      cfg.GoogleClientID,
			ClientSecret:  cfg.GoogleClientSecret,
			RedirectURL:   cfg.GoogleRedirectURL,
			SessionSecret: cfg.SessionSecret,
			FrontendURL:   cfg.FEURL,
		}, cfg.CookieSecure)
	}

	e := server.New(cfg, zl)
	server.RegisterRoutes(e, handlers, issuer, userRepo)

	//Server起動
	if err := server.Start(e, ":"+cfg.Port, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

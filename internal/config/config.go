package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret    string // JWT署名シークレット
	CookieSecure bool

	GoEnv     string // development/production
	APIDomain string // cookieのドメイン
	FEURL     string // フロントURL（CORS, OAuth後のリダイレクト先）

	LogLevel string
	LogFile  string // 空ならstdoutのみ

	MidtransServerKey  string
	MidtransClientKey  string
	MidtransProduction bool
	MidtransBaseURL    string // 空ならsandbox/productionから決める

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	SessionSecret      string

	RedisAddr       string // 空ならログイン制限なし
	RedisPassword   string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	AdminEmail    string
	AdminPassword string

	MaxUploadBytes int64
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     cast.ToInt(getenv("POSTGRES_PORT", "5432")),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		CookieSecure: cast.ToBool(os.Getenv("COOKIE_SECURE")),

		GoEnv:     getenv("GO_ENV", "development"),
		APIDomain: os.Getenv("API_DOMAIN"),
		FEURL:     getenv("FE_URL", "http://localhost:3000"),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		MidtransServerKey:  os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:  os.Getenv("MIDTRANS_CLIENT_KEY"),
		MidtransProduction: cast.ToBool(os.Getenv("MIDTRANS_PRODUCTION")),
		MidtransBaseURL:    os.Getenv("MIDTRANS_BASE_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		LoginRateLimit:  cast.ToInt(getenv("LOGIN_RATE_LIMIT", "10")),
		LoginRateWindow: cast.ToDuration(getenv("LOGIN_RATE_WINDOW", "1m")),

		AdminEmail:    getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getenv("ADMIN_PASSWORD", "admin123"),

		MaxUploadBytes: cast.ToInt64(getenv("MAX_UPLOAD_BYTES", "5242880")),
	}

	//必須チェック
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresPort <= 0 {
			return Config{}, fmt.Errorf("POSTGRES_PORT must be number")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LoginRateLimit < 0 {
		return Config{}, fmt.Errorf("LOGIN_RATE_LIMIT must be >= 0")
	}
	if cfg.LoginRateWindow <= 0 {
		return Config{}, fmt.Errorf("LOGIN_RATE_WINDOW must be a positive duration")
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTSecret
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.GoEnv, "production") || strings.EqualFold(c.GoEnv, "prod")
}

// DSNはpostgres接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// GoogleOAuthEnabled はクレデンシャルが揃っているか
func (c Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getenv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

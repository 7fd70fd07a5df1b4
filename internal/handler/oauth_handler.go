package handler

import (
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/usecase"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
)

type OAuthConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	SessionSecret string
	// ログイン後に戻すフロントのURL
	FrontendURL string
}

// Googleログイン（goth/gothic）
type OAuthHandler struct {
	auth  *AuthHandler
	feURL string
}

// gothicのセッションストアとプロバイダを登録する
func NewOAuthHandler(auth *AuthHandler, cfg OAuthConfig, secure bool) *OAuthHandler {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	goth.UseProviders(google.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, "email", "profile"))

	return &OAuthHandler{auth: auth, feURL: strings.TrimRight(cfg.FrontendURL, "/")}
}

func (h *OAuthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/auth/google", h.begin)
	e.GET("/auth/google/callback", h.callback)
}

// gothicはクエリのproviderを見る
func withProvider(r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "google")
	r.URL.RawQuery = q.Encode()
}

func (h *OAuthHandler) begin(c echo.Context) error {
	withProvider(c.Request())
	gothic.BeginAuthHandler(c.Response(), c.Request())
	return nil
}

func (h *OAuthHandler) callback(c echo.Context) error {
	withProvider(c.Request())
	gu, err := gothic.CompleteUserAuth(c.Response(), c.Request())
	if err != nil {
		zap.L().Warn("oauth callback failed", zap.Error(err))
		return c.Redirect(http.StatusTemporaryRedirect, h.redirect("oauth_failed"))
	}

	res, err := h.auth.uc.LoginOAuth(c.Request().Context(), usecase.OAuthProfile{
		Provider:  gu.Provider,
		Subject:   gu.UserID,
		Email:     gu.Email,
		FirstName: gu.FirstName,
		LastName:  gu.LastName,
	}, c.Request().UserAgent())
	if err != nil {
		if he, isHTTP := usecase.AsHTTPError(err); isHTTP && he.Status == http.StatusForbidden {
			return c.Redirect(http.StatusTemporaryRedirect, h.redirect("account_disabled"))
		}
		zap.L().Error("oauth login failed", zap.String("email", gu.Email), zap.Error(err))
		return c.Redirect(http.StatusTemporaryRedirect, h.redirect("oauth_failed"))
	}

	h.auth.setSessionCookies(c, res.Body.Token.AccessToken, res.RefreshTokenPlain, res.CsrfTokenPlain)
	_ = gothic.Logout(c.Response(), c.Request())
	return c.Redirect(http.StatusTemporaryRedirect, h.redirect(""))
}

func (h *OAuthHandler) redirect(errCode string) string {
	base := h.feURL + "/"
	if errCode == "" {
		return base + "?login=success"
	}
	return base + "?error=" + url.QueryEscape(errCode)
}

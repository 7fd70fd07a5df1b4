package handler

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookie = "refresh_token"
	csrfCookie    = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

type CookieOptions struct {
	Secure bool
	Domain string
}

type AuthHandler struct {
	uc         *usecase.AuthUsecase
	profile    *usecase.ProfileUsecase
	accessTTL  time.Duration
	cookie     CookieOptions
	maxUpload  int64
	loginGuard echo.MiddlewareFunc
}

// DI
func NewAuthHandler(
	uc *usecase.AuthUsecase,
	profile *usecase.ProfileUsecase,
	accessTTL time.Duration,
	cookie CookieOptions,
	maxUpload int64,
	loginGuard echo.MiddlewareFunc,
) *AuthHandler {
	return &AuthHandler{
		uc:         uc,
		profile:    profile,
		accessTTL:  accessTTL,
		cookie:     cookie,
		maxUpload:  maxUpload,
		loginGuard: loginGuard,
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, authed ...echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	if h.loginGuard != nil {
		g.POST("/login", h.login, h.loginGuard)
	} else {
		g.POST("/login", h.login)
	}
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)

	me := e.Group("/me", authed...)
	me.GET("", h.me)
	me.PUT("", h.updateMe)
	me.PUT("/image", h.uploadImage)
}

type registerRequest struct {
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	PhoneNumber     string `json:"phone_number" form:"phone_number"`
	Address         string `json:"address" form:"address"`
	Gender          string `json:"gender" form:"gender"`
	BirthDate       string `json:"birth_date" form:"birth_date"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type profileRequest struct {
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	Email       string `json:"email" form:"email"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Address     string `json:"address" form:"address"`
	Gender      string `json:"gender" form:"gender"`
	BirthDate   string `json:"birth_date" form:"birth_date"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		Gender:          req.Gender,
		BirthDate:       req.BirthDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusCreated, "registered", user)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	res, err := h.uc.Login(c.Request().Context(), req.Email, req.Password, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	h.setSessionCookies(c, res.Body.Token.AccessToken, res.RefreshTokenPlain, res.CsrfTokenPlain)
	return success(c, http.StatusOK, "logged in", res.Body)
}

// refresh cookie + csrf（double submit）
func (h *AuthHandler) refresh(c echo.Context) error {
	rc, err := c.Cookie(refreshCookie)
	if err != nil || rc.Value == "" {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	cc, err := c.Cookie(csrfCookie)
	if err != nil || cc.Value == "" || cc.Value != c.Request().Header.Get(csrfHeader) {
		return fail(c, http.StatusForbidden, "csrf token mismatch")
	}

	res, err := h.uc.Refresh(c.Request().Context(), rc.Value, c.Request().UserAgent())
	if err != nil {
		h.clearSessionCookies(c)
		return writeError(c, err)
	}

	h.setSessionCookies(c, res.Body.AccessToken, res.RefreshTokenPlain, res.CsrfTokenPlain)
	return success(c, http.StatusOK, "refreshed", res.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	var plain string
	if rc, err := c.Cookie(refreshCookie); err == nil {
		plain = rc.Value
	}
	if err := h.uc.Logout(c.Request().Context(), plain); err != nil {
		return writeError(c, err)
	}
	h.clearSessionCookies(c)
	return success(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) updateMe(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.profile.Update(c.Request().Context(), userID, usecase.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Gender:      req.Gender,
		BirthDate:   req.BirthDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "profile updated", user)
}

// multipartの"image"
func (h *AuthHandler) uploadImage(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "image required")
	}
	f, err := readFile(fh, h.maxUpload)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid file")
	}

	user, err := h.profile.UploadImage(c.Request().Context(), userID, f)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "image updated", user)
}

func (h *AuthHandler) setSessionCookies(c echo.Context, access string, refresh string, csrf string) {
	now := time.Now()
	c.SetCookie(h.newCookie(middleware.AccessTokenCookie, access, now.Add(h.accessTTL), true))
	c.SetCookie(h.newCookie(refreshCookie, refresh, now.Add(usecase.RefreshTokenTTL), true))
	// JSから読むのでHttpOnlyにしない
	c.SetCookie(h.newCookie(csrfCookie, csrf, now.Add(usecase.RefreshTokenTTL), false))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshCookie, csrfCookie} {
		ck := h.newCookie(name, "", time.Unix(0, 0), name != csrfCookie)
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) newCookie(name string, value string, exp time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: httpOnly,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	}
}

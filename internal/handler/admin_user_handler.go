package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc   *usecase.AdminUserUsecase
	auth *usecase.AuthUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase, auth *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc, auth: auth}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.list)
	admin.GET("/users/:id", h.detail)
	admin.PUT("/users/:id", h.update)
	admin.POST("/users/:id/toggle", h.toggle)
	admin.POST("/users/:id/force-logout", h.forceLogout)
}

type adminUserUpdateRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Gender      string `json:"gender"`
	Role        string `json:"role"`
}

func (h *AdminUserHandler) list(c echo.Context) error {
	active, valid := queryBool(c, "is_active")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid is_active")
	}
	limit, valid := queryInt(c, "limit", 0)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	offset, valid := queryInt(c, "offset", 0)
	if !valid || offset < 0 {
		return fail(c, http.StatusBadRequest, "invalid offset")
	}

	users, err := h.uc.List(c.Request().Context(), usecase.AdminUserFilterInput{
		Q:        c.QueryParam("q"),
		Role:     c.QueryParam("role"),
		IsActive: active,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TableResponse{Data: users})
}

func (h *AdminUserHandler) detail(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	user, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminUserHandler) update(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req adminUserUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.uc.Update(c.Request().Context(), adminID, id, usecase.AdminUserUpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Gender:      req.Gender,
		Role:        req.Role,
	})
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "user updated", user)
}

// 有効/無効の切り替え
func (h *AdminUserHandler) toggle(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.ToggleActive(c.Request().Context(), adminID, id)
	if err != nil {
		return writeError(c, err)
	}
	msg := "user disabled"
	if out.IsActive {
		msg = "user enabled"
	}
	return success(c, http.StatusOK, msg, out)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	out, err := h.auth.ForceLogout(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "sessions revoked", out)
}

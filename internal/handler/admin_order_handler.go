package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// ?customer=&status=&payment_method=&date=YYYY-MM-DD&max_amount=
func (h *AdminOrderHandler) list(c echo.Context) error {
	maxAmount, valid := queryInt64(c, "max_amount")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid max_amount")
	}
	limit, valid := queryInt(c, "limit", 0)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	offset, valid := queryInt(c, "offset", 0)
	if !valid || offset < 0 {
		return fail(c, http.StatusBadRequest, "invalid offset")
	}

	rows, err := h.uc.List(c.Request().Context(), usecase.AdminOrderFilterInput{
		Customer:      c.QueryParam("customer"),
		Status:        c.QueryParam("status"),
		PaymentMethod: c.QueryParam("payment_method"),
		Date:          c.QueryParam("date"),
		MaxAmount:     maxAmount,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TableResponse{Data: rows})
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	out, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), adminID, id, req.Status); err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "status updated", nil)
}

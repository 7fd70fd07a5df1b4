package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/checkout/preview", h.preview)
	g.POST("/orders", h.place)
	g.GET("/orders", h.list)
	g.GET("/orders/:id", h.detail)
}

// cart_item_ids か product_id+quantity のどちらか
type checkoutRequest struct {
	CartItemIDs   []int64 `json:"cart_item_ids"`
	ProductID     int64   `json:"product_id"`
	Quantity      int64   `json:"quantity"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

func (r checkoutRequest) intent() usecase.CheckoutIntent {
	return usecase.CheckoutIntent{
		CartItemIDs: r.CartItemIDs,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
	}
}

func (h *OrderHandler) preview(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.PreviewCheckout(c.Request().Context(), userID, req.intent())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) place(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		Intent:         req.intent(),
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusCreated, "order created", out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	outs, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TableResponse{Data: outs})
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

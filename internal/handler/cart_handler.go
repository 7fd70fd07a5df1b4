package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/cart", h.get)
	g.POST("/cart", h.add)
	g.PATCH("/cart/:id", h.updateQuantity)
	g.DELETE("/cart/:id", h.remove)
}

type addCartRequest struct {
	ProductID int64 `json:"product_id" form:"product_id"`
	Quantity  int64 `json:"quantity" form:"quantity"`
}

// +1 / -1
type updateCartRequest struct {
	Delta int64 `json:"delta" form:"delta"`
}

func (h *CartHandler) get(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	cart, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) add(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req addCartRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	cart, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "added to cart", cart)
}

func (h *CartHandler) updateQuantity(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req updateCartRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	cart, err := h.uc.UpdateQuantity(c.Request().Context(), userID, id, req.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "cart updated", cart)
}

func (h *CartHandler) remove(c echo.Context) error {
	userID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	cart, err := h.uc.DeleteCartItem(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "removed from cart", cart)
}

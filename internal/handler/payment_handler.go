package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済ゲートウェイからの通知。認証は署名のみ
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payments/notifications", h.notify)
}

func (h *PaymentHandler) notify(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var in usecase.PaymentNotificationInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	in.Raw = raw

	res, err := h.uc.HandleNotification(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, res.Message, res)
}

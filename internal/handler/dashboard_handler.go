package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	uc *usecase.DashboardUsecase
}

func NewDashboardHandler(uc *usecase.DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

func (h *DashboardHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/dashboard", h.summary)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *DashboardHandler) summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) auditLogs(c echo.Context) error {
	resourceID, valid := queryInt64(c, "resource_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid resource_id")
	}
	limit, valid := queryInt(c, "limit", 0)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	offset, valid := queryInt(c, "offset", 0)
	if !valid || offset < 0 {
		return fail(c, http.StatusBadRequest, "invalid offset")
	}

	logs, err := h.uc.AuditLogs(c.Request().Context(), usecase.AuditLogFilterInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TableResponse{Data: logs})
}

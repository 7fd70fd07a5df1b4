package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/products/:id/images/:image_id", h.image)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page, valid := queryInt(c, "page", 1)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid page")
	}
	// limit（default 20）
	limit, valid := queryInt(c, "limit", 20)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	minPrice, valid := queryInt64(c, "min_price")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid min_price")
	}
	maxPrice, valid := queryInt64(c, "max_price")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid max_price")
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// <img src>用にバイナリを返す
func (h *ProductHandler) image(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	imageID, valid := paramID(c, "image_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid image id")
	}

	img, err := h.uc.GetImage(c.Request().Context(), id, imageID)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(img.Data)))
	return c.Blob(http.StatusOK, img.MIMEType, img.Data)
}

package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type productRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Price       int64  `json:"price" form:"price"`
	Stock       int64  `json:"stock" form:"stock"`
	IsActive    bool   `json:"is_active" form:"is_active"`
}

func (r productRequest) input() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}

type inventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc        *usecase.ProductUsecase
	maxUpload int64
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase, maxUpload int64) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, maxUpload: maxUpload}
}

// groupは認証とADMINチェック済みのもの
func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/products", h.list)
	admin.GET("/products/:id", h.detail)
	admin.POST("/products", h.create)
	admin.PUT("/products/:id", h.update)
	admin.DELETE("/products/:id", h.delete)
	admin.POST("/products/:id/images", h.addImage)
	admin.DELETE("/products/:id/images/:image_id", h.deleteImage)
	admin.PUT("/inventory/:product_id", h.updateInventory)
}

func (h *AdminProductHandler) list(c echo.Context) error {
	maxPrice, valid := queryInt64(c, "max_price")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid max_price")
	}
	limit, valid := queryInt(c, "limit", 0)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	offset, valid := queryInt(c, "offset", 0)
	if !valid || offset < 0 {
		return fail(c, http.StatusBadRequest, "invalid offset")
	}

	rows, err := h.uc.AdminListProducts(c.Request().Context(), usecase.AdminProductFilterInput{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		MaxPrice: maxPrice,
		Status:   c.QueryParam("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TableResponse{Data: rows})
}

func (h *AdminProductHandler) detail(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	p, err := h.uc.AdminGetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// multipart（画像は"images"に複数可）かJSON
func (h *AdminProductHandler) create(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var files []usecase.UploadedFile
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["images"] {
			f, err := readFile(fh, h.maxUpload)
			if err != nil {
				return fail(c, http.StatusBadRequest, "invalid file")
			}
			files = append(files, f)
		}
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.input(), files)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusCreated, "created", p)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.input()); err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "updated", nil)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "deleted", nil)
}

func (h *AdminProductHandler) addImage(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "image required")
	}
	f, err := readFile(fh, h.maxUpload)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid file")
	}

	img, err := h.uc.AdminAddImage(c.Request().Context(), adminID, id, f)
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusCreated, "image added", img)
}

func (h *AdminProductHandler) deleteImage(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	imageID, valid := paramID(c, "image_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid image id")
	}

	if err := h.uc.AdminDeleteImage(c.Request().Context(), adminID, id, imageID); err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "image deleted", nil)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, found := currentUserID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	productID, valid := paramID(c, "product_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product_id")
	}

	var req inventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "stock updated", nil)
}

package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo    repo.ProductRepository
	tx             repo.TransactionManager
	maxUploadBytes int64
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager, maxUploadBytes int64) *ProductUsecase {
	return &ProductUsecase{
		productRepo:    productRepo,
		tx:             tx,
		maxUploadBytes: maxUploadBytes,
	}
}

type ProductImageDTO struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url"`
}

type ProductDTO struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Price         int64             `json:"price"`
	Stock         int64             `json:"stock"`
	IsActive      bool              `json:"is_active"`
	DisplayStatus string            `json:"display_status"`
	CreatedAt     time.Time         `json:"created_at"`
	Images        []ProductImageDTO `json:"images,omitempty"`
}

func toProductDTO(p model.Product, images []model.ProductImage) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		Stock:         p.Stock,
		IsActive:      p.IsActive,
		DisplayStatus: p.DisplayStatus(),
		CreatedAt:     p.CreatedAt,
	}
	for _, img := range images {
		dto.Images = append(dto.Images, ProductImageDTO{
			ID:       img.ID,
			FileName: img.FileName,
			MIMEType: img.MIMEType,
			FileSize: img.FileSize,
			URL:      fmt.Sprintf("/products/%d/images/%d", p.ID, img.ID),
		})
	}
	return dto
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []ProductDTO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, internalError(err)
	}

	out := ProductListOutput{Items: make([]ProductDTO, 0, len(items)), Total: total, Page: in.Page, Limit: in.Limit}
	for _, p := range items {
		out.Items = append(out.Items, toProductDTO(p, nil))
	}
	return out, nil
}

// 非公開は存在しない扱い
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductDTO, error) {
	if productID <= 0 {
		return ProductDTO{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductDTO{}, notFoundOr500(err)
	}
	if !p.IsActive {
		return ProductDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	images, err := u.productRepo.ListImages(ctx, productID)
	if err != nil {
		return ProductDTO{}, internalError(err)
	}
	return toProductDTO(p, images), nil
}

// 画像のバイナリ（<img src>用）
func (u *ProductUsecase) GetImage(ctx context.Context, productID int64, imageID int64) (model.ProductImage, error) {
	if productID <= 0 || imageID <= 0 {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	img, err := u.productRepo.FindImage(ctx, productID, imageID)
	if err != nil {
		return model.ProductImage{}, notFoundOr500(err)
	}
	return img, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	Category    string
	Price       int64
	Stock       int64
	IsActive    bool
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

// 画像はmultipartで0枚以上。1枚でも不正なら商品も作らない
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput, files []UploadedFile) (ProductDTO, error) {
	if adminUserID <= 0 {
		return ProductDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in); err != nil {
		return ProductDTO{}, err
	}

	images := make([]model.ProductImage, 0, len(files))
	for _, f := range files {
		img, err := checkImage(f, u.maxUploadBytes)
		if err != nil {
			return ProductDTO{}, err
		}
		images = append(images, img)
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		Images:      images,
	})
	if err != nil {
		return ProductDTO{}, internalError(err)
	}
	return toProductDTO(p, p.Images), nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return err
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return notFoundOr500(err)
		}

		after := model.Product{
			ID:          productID,
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Category:    strings.TrimSpace(in.Category),
			Price:       in.Price,
			Stock:       in.Stock,
			IsActive:    in.IsActive,
		}
		if err := r.Products().Update(ctx, after); err != nil {
			return notFoundOr500(err)
		}

		return writeAudit(ctx, r.AuditLogs(), adminUserID,
			model.AuditActionUpdateProduct, model.AuditResourceProduct, productID,
			productSnapshot(before), productSnapshot(after))
	})
	return passOr500(err)
}

// 論理削除。画像は物理削除
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return notFoundOr500(err)
		}
		if err := r.Products().DeleteImagesByProductID(ctx, productID); err != nil {
			return err
		}
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			return notFoundOr500(err)
		}
		return writeAudit(ctx, r.AuditLogs(), adminUserID,
			model.AuditActionDeleteProduct, model.AuditResourceProduct, productID,
			productSnapshot(before), nil)
	})
	return passOr500(err)
}

func (u *ProductUsecase) AdminAddImage(ctx context.Context, adminUserID int64, productID int64, f UploadedFile) (ProductImageDTO, error) {
	if adminUserID <= 0 {
		return ProductImageDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	img, err := checkImage(f, u.maxUploadBytes)
	if err != nil {
		return ProductImageDTO{}, err
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		return ProductImageDTO{}, notFoundOr500(err)
	}

	img.ProductID = productID
	saved, err := u.productRepo.AddImage(ctx, img)
	if err != nil {
		return ProductImageDTO{}, internalError(err)
	}
	return toProductDTO(model.Product{ID: productID}, []model.ProductImage{saved}).Images[0], nil
}

func (u *ProductUsecase) AdminDeleteImage(ctx context.Context, adminUserID int64, productID int64, imageID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.productRepo.DeleteImage(ctx, productID, imageID); err != nil {
		return notFoundOr500(err)
	}
	return nil
}

// 在庫の現在値を更新し、調整履歴と監査ログを同じTxで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return notFoundOr500(err)
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return notFoundOr500(err)
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			StockBefore: p.Stock,
			StockAfter:  newStock,
			Delta:       newStock - p.Stock,
			Reason:      strings.TrimSpace(reason),
		}); err != nil {
			return err
		}

		return writeAudit(ctx, r.AuditLogs(), adminUserID,
			model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
			map[string]int64{"stock": p.Stock}, map[string]int64{"stock": newStock})
	})
	return passOr500(err)
}

// 管理画面の商品テーブル1行
type AdminProductRow struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Price         int64     `json:"price"`
	Stock         int64     `json:"stock"`
	IsActive      bool      `json:"is_active"`
	DisplayStatus string    `json:"display_status"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedDate   string    `json:"created_date"`
	Thumbnail     string    `json:"thumbnail,omitempty"` // data URI（先頭の画像）
	ImageCount    int       `json:"image_count"`
}

type AdminProductFilterInput struct {
	Name     string
	Category string
	MaxPrice *int64
	Status   string
	Limit    int
	Offset   int
}

// ステータスは表示名（"Out Of Stock"等）でも受け付ける
func normalizeProductStatus(s string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	switch k {
	case "", "all":
		return "", true
	case "available", "unavailable", "out_of_stock":
		return k, true
	}
	return "", false
}

func (u *ProductUsecase) AdminListProducts(ctx context.Context, in AdminProductFilterInput) ([]AdminProductRow, error) {
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	status, ok := normalizeProductStatus(in.Status)
	if !ok {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	products, err := u.productRepo.ListAdmin(ctx, repo.AdminProductFilter{
		Name:     in.Name,
		Category: in.Category,
		MaxPrice: in.MaxPrice,
		Status:   status,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, internalError(err)
	}

	rows := make([]AdminProductRow, 0, len(products))
	for _, p := range products {
		row := AdminProductRow{
			ID:            p.ID,
			Name:          p.Name,
			Category:      p.Category,
			Price:         p.Price,
			Stock:         p.Stock,
			IsActive:      p.IsActive,
			DisplayStatus: p.DisplayStatus(),
			CreatedAt:     p.CreatedAt,
			CreatedDate:   p.CreatedAt.Format("2006-01-02"),
			ImageCount:    len(p.Images),
		}
		if len(p.Images) > 0 {
			row.Thumbnail = model.DataURI(p.Images[0].MIMEType, p.Images[0].Data)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (u *ProductUsecase) AdminGetProduct(ctx context.Context, productID int64) (ProductDTO, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductDTO{}, notFoundOr500(err)
	}
	images, err := u.productRepo.ListImages(ctx, productID)
	if err != nil {
		return ProductDTO{}, internalError(err)
	}
	return toProductDTO(p, images), nil
}

func productSnapshot(p model.Product) map[string]interface{} {
	return map[string]interface{}{
		"name":      p.Name,
		"category":  p.Category,
		"price":     p.Price,
		"stock":     p.Stock,
		"is_active": p.IsActive,
	}
}

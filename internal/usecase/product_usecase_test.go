package usecase_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// =====================
// 管理画面の商品テーブル
// =====================

func TestProductUsecase_AdminListProducts_FilterAndDisplayStatus(t *testing.T) {
	f := newFixture(t)
	keyboard := f.createProduct(t, "Keyboard", "Electronics", 50000, 5, true)
	headset := f.createProduct(t, "Headset", "Electronics", 90000, 0, true)
	cable := f.createProduct(t, "Cable", "Electronics", 20000, 3, false)
	f.createProduct(t, "Laptop", "Electronics", 15000000, 2, true)
	f.createProduct(t, "Sofa", "Furniture", 80000, 1, true)

	uc := f.productUC()
	maxPrice := int64(100000)

	rows, err := uc.AdminListProducts(f.ctx, usecase.AdminProductFilterInput{Category: "electronics", MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	got := map[int64]string{}
	for _, r := range rows {
		got[r.ID] = r.DisplayStatus
		assert.Len(t, r.CreatedDate, len("2006-01-02"))
	}
	assert.Equal(t, model.DisplayStatusAvailable, got[keyboard.ID])
	assert.Equal(t, model.DisplayStatusOutOfStock, got[headset.ID])
	assert.Equal(t, model.DisplayStatusUnavailable, got[cable.ID])

	oos, err := uc.AdminListProducts(f.ctx, usecase.AdminProductFilterInput{Status: "Out Of Stock"})
	require.NoError(t, err)
	require.Len(t, oos, 1)
	assert.Equal(t, headset.ID, oos[0].ID)

	byName, err := uc.AdminListProducts(f.ctx, usecase.AdminProductFilterInput{Name: "KEY"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, keyboard.ID, byName[0].ID)

	_, err = uc.AdminListProducts(f.ctx, usecase.AdminProductFilterInput{Status: "sold"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid status")
}

func TestProductUsecase_AdminCreateProduct_WithImage(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	uc := f.productUC()

	dto, err := uc.AdminCreateProduct(f.ctx, admin.ID, usecase.AdminProductInput{
		Name:     " Camera ",
		Category: "Electronics",
		Price:    2500000,
		Stock:    4,
		IsActive: true,
	}, []usecase.UploadedFile{{FileName: "front.PNG", Data: pngBytes}})
	require.NoError(t, err)

	assert.Equal(t, "Camera", dto.Name)
	require.Len(t, dto.Images, 1)
	assert.Equal(t, model.MIMEPNG, dto.Images[0].MIMEType)
	assert.Equal(t, fmt.Sprintf("/products/%d/images/%d", dto.ID, dto.Images[0].ID), dto.Images[0].URL)

	rows, err := uc.AdminListProducts(f.ctx, usecase.AdminProductFilterInput{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ImageCount)
	assert.True(t, strings.HasPrefix(rows[0].Thumbnail, "data:image/png;base64,"))

	img, err := uc.GetImage(f.ctx, dto.ID, dto.Images[0].ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)
}

// 1枚でも不正なら商品も作らない
func TestProductUsecase_AdminCreateProduct_BadImage(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	uc := f.productUC()

	_, err := uc.AdminCreateProduct(f.ctx, admin.ID, usecase.AdminProductInput{Name: "Camera", Price: 1}, []usecase.UploadedFile{
		{FileName: "ok.png", Data: pngBytes},
		{FileName: "script.exe", Data: []byte("MZ")},
	})
	requireHTTPError(t, err, http.StatusBadRequest, "file type not allowed")

	big := make([]byte, (2<<20)+1)
	_, err = uc.AdminCreateProduct(f.ctx, admin.ID, usecase.AdminProductInput{Name: "Camera", Price: 1}, []usecase.UploadedFile{
		{FileName: "big.jpg", Data: big},
	})
	requireHTTPError(t, err, http.StatusBadRequest, "file too large")

	_, err = uc.AdminCreateProduct(f.ctx, admin.ID, usecase.AdminProductInput{Name: " ", Price: 1}, nil)
	requireHTTPError(t, err, http.StatusBadRequest, "name required")

	assert.Equal(t, int64(0), f.count(t, &model.Product{}))
}

// =====================
// 在庫・更新・削除
// =====================

func TestProductUsecase_AdminUpdateInventory_RecordsAdjustment(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	p := f.createProduct(t, "Keyboard", "Electronics", 50000, 5, true)
	uc := f.productUC()

	require.NoError(t, uc.AdminUpdateInventory(f.ctx, admin.ID, p.ID, 12, "restock"))
	assert.Equal(t, int64(12), f.stockOf(t, p.ID))

	adjs, err := infraRepo.NewInventoryGormRepository(f.db).ListAdjustments(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, int64(5), adjs[0].StockBefore)
	assert.Equal(t, int64(12), adjs[0].StockAfter)
	assert.Equal(t, int64(7), adjs[0].Delta)
	assert.Equal(t, admin.ID, adjs[0].AdminUserID)

	var logs []model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionUpdateStock).Find(&logs).Error)
	assert.Len(t, logs, 1)

	requireHTTPError(t, uc.AdminUpdateInventory(f.ctx, admin.ID, p.ID, 3, " "), http.StatusBadRequest, "reason required")
	requireHTTPError(t, uc.AdminUpdateInventory(f.ctx, admin.ID, p.ID, -1, "x"), http.StatusBadRequest, "stock must be >= 0")
	requireHTTPError(t, uc.AdminUpdateInventory(f.ctx, admin.ID, 9999, 1, "x"), http.StatusNotFound, "")
	assert.Equal(t, int64(12), f.stockOf(t, p.ID))
}

func TestProductUsecase_AdminUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	uc := f.productUC()

	dto, err := uc.AdminCreateProduct(f.ctx, admin.ID, usecase.AdminProductInput{
		Name: "Camera", Category: "Electronics", Price: 100, Stock: 1, IsActive: true,
	}, []usecase.UploadedFile{{FileName: "a.png", Data: pngBytes}})
	require.NoError(t, err)

	require.NoError(t, uc.AdminUpdateProduct(f.ctx, admin.ID, dto.ID, usecase.AdminProductInput{
		Name: "Camera II", Category: "Electronics", Price: 200, Stock: 2, IsActive: false,
	}))
	got, err := uc.AdminGetProduct(f.ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "Camera II", got.Name)
	assert.False(t, got.IsActive)

	// 非公開は公開側から見えない
	_, err = uc.GetProductDetail(f.ctx, dto.ID)
	requireHTTPError(t, err, http.StatusNotFound, "")

	require.NoError(t, uc.AdminDeleteProduct(f.ctx, admin.ID, dto.ID))
	_, err = uc.AdminGetProduct(f.ctx, dto.ID)
	requireHTTPError(t, err, http.StatusNotFound, "")
	assert.Equal(t, int64(0), f.count(t, &model.ProductImage{}))

	var actions []string
	require.NoError(t, f.db.Model(&model.AuditLog{}).Order("id asc").Pluck("action", &actions).Error)
	assert.Equal(t, []string{string(model.AuditActionUpdateProduct), string(model.AuditActionDeleteProduct)}, actions)
}

// =====================
// 公開一覧
// =====================

func TestProductUsecase_ListPublicProducts(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "Red Shirt", "Fashion", 30000, 5, true)
	f.createProduct(t, "Blue Shirt", "Fashion", 10000, 5, true)
	f.createProduct(t, "Hidden Shirt", "Fashion", 5000, 5, false)
	f.createProduct(t, "Phone", "Electronics", 900000, 5, true)
	uc := f.productUC()

	out, err := uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 10, Q: "shirt", Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Blue Shirt", out.Items[0].Name)
	assert.Equal(t, "Red Shirt", out.Items[1].Name)

	minPrice := int64(20000)
	out, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 1, MinPrice: &minPrice, Sort: "price_desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Phone", out.Items[0].Name)

	out, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 10, Category: "electronics"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	_, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 0, Limit: 10})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid page")
	_, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 101})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid limit")
	_, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 10, Sort: "rating"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid sort")

	maxPrice := int64(100)
	_, err = uc.ListPublicProducts(f.ctx, usecase.ListProductsInput{Page: 1, Limit: 10, MinPrice: &minPrice, MaxPrice: &maxPrice})
	requireHTTPError(t, err, http.StatusBadRequest, "min_price must be <= max_price")
}

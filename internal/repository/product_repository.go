package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 管理画面の商品テーブルの絞り込み
type AdminProductFilter struct {
	Name     string
	Category string
	MaxPrice *int64
	// available / unavailable / out_of_stock
	Status string
	Limit  int
	Offset int
}

type ProductStats struct {
	Active     int64
	OutOfStock int64
}

// 商品と画像の永続化
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	// 画像も読み込む（サムネイル用）
	ListAdmin(ctx context.Context, f AdminProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 注文確定用。行ロックを取る
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)

	// Imagesがあれば一緒に作る
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	AddImage(ctx context.Context, img model.ProductImage) (model.ProductImage, error)
	ListImages(ctx context.Context, productID int64) ([]model.ProductImage, error)
	FindImage(ctx context.Context, productID int64, imageID int64) (model.ProductImage, error)
	DeleteImage(ctx context.Context, productID int64, imageID int64) error
	DeleteImagesByProductID(ctx context.Context, productID int64) error

	Stats(ctx context.Context) (ProductStats, error)
}

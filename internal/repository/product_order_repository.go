package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ProductOrderRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.ProductOrder) error
	// 削除済み商品も含めてProductを読み込む
	ListByOrderID(ctx context.Context, orderID int64) ([]model.ProductOrder, error)
	CountByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64]int64, error)
}

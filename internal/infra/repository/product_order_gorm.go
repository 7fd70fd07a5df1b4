package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductOrderGormRepository struct {
	db *gorm.DB
}

func NewProductOrderGormRepository(db *gorm.DB) *ProductOrderGormRepository {
	return &ProductOrderGormRepository{db: db}
}

func (r *ProductOrderGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.ProductOrder) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *ProductOrderGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.ProductOrder, error) {
	var items []model.ProductOrder
	err := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// 注文ごとの明細数（一覧表示用）
func (r *ProductOrderGormRepository) CountByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	type row struct {
		OrderID int64
		N       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ProductOrder{}).
		Select("order_id, SUM(quantity) AS n").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.OrderID] = rw.N
	}
	return out, nil
}

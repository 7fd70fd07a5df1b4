package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を設定（マイナスは弾く）
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	if newStock < 0 {
		return gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ減らす。同時注文でもマイナスにならない。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 在庫戻し（キャンセル）。論理削除済みの商品にも戻す
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	var out []model.InventoryAdjustment
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

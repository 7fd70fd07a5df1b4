package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// 商品が削除済みでも行は出す（名前表示のため）
func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartItemGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var it model.CartItem
	if err := r.db.WithContext(ctx).First(&it, cartItemID).Error; err != nil {
		return model.CartItem{}, translate(err)
	}
	return it, nil
}

func (r *CartItemGormRepository) FindByIDs(ctx context.Context, cartItemIDs []int64) ([]model.CartItem, error) {
	var items []model.CartItem
	if len(cartItemIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", cartItemIDs).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartItemGormRepository) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error) {
	var it model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&it).Error
	if err != nil {
		return model.CartItem{}, translate(err)
	}
	return it, nil
}

func (r *CartItemGormRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&item).Error; err != nil {
		return model.CartItem{}, translate(err)
	}
	return item, nil
}

func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文確定で使った行を消す（他人の行は消さない）
func (r *CartItemGormRepository) DeleteByIDs(ctx context.Context, userID int64, cartItemIDs []int64) error {
	if len(cartItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, cartItemIDs).
		Delete(&model.CartItem{}).Error
}

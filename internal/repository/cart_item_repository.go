package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	// Productも読み込む
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	FindByIDs(ctx context.Context, cartItemIDs []int64) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error)
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByIDs(ctx context.Context, userID int64, cartItemIDs []int64) error
}

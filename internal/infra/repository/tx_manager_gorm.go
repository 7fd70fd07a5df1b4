package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	tx *gorm.DB
}

// repoはtxを持ったDBで作る
func (r *txReposGorm) Orders() repo.OrderRepository { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) ProductOrders() repo.ProductOrderRepository {
	return NewProductOrderGormRepository(r.tx)
}
func (r *txReposGorm) CartItems() repo.CartItemRepository  { return NewCartItemGormRepository(r.tx) }
func (r *txReposGorm) Inventory() repo.InventoryRepository { return NewInventoryGormRepository(r.tx) }
func (r *txReposGorm) Products() repo.ProductRepository    { return NewProductGormRepository(r.tx) }
func (r *txReposGorm) Users() repo.UserRepository          { return NewUserGormRepository(r.tx) }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return NewAuditLogGormRepository(r.tx) }
func (r *txReposGorm) PaymentNotifications() repo.PaymentNotificationRepository {
	return NewPaymentNotificationGormRepository(r.tx)
}
func (r *txReposGorm) RefreshTokens() repo.RefreshTokenRepository {
	return NewRefreshTokenRepository(r.tx)
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返せばrollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txReposGorm{tx: tx})
	})
}

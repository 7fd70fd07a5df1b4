package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Customer      string // 顧客名 or emailの部分一致
	Status        string
	PaymentMethod string
	Date          *time.Time // その日（00:00〜24:00）
	MaxAmount     *int64
	Limit         int
	Offset        int
}

type OrderStats struct {
	Total           int64
	Pending         int64
	Approved        int64
	ApprovedRevenue int64
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 通知処理用。行ロックを取る
	FindByExternalRefForUpdate(ctx context.Context, ref string) (model.Order, error)
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)

	// 現在のステータスがfromのときだけ更新する
	UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)
	SetPayment(ctx context.Context, orderID int64, externalRef string, token string, redirectURL string) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	// Userも読み込む
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, error)
	Stats(ctx context.Context) (OrderStats, error)
}

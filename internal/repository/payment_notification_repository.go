package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type PaymentNotificationRepository interface {
	// 同じ(transaction_id, transaction_status)が既にあればfalse
	CreateIfAbsent(ctx context.Context, n *model.PaymentNotification) (bool, error)
	SetAppliedStatus(ctx context.Context, id int64, status model.OrderStatus) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentNotification, error)
}

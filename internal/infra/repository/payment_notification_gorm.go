package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentNotificationGormRepository struct {
	db *gorm.DB
}

func NewPaymentNotificationGormRepository(db *gorm.DB) *PaymentNotificationGormRepository {
	return &PaymentNotificationGormRepository{db: db}
}

// 再送された通知はON CONFLICT DO NOTHINGで0件になる
func (r *PaymentNotificationGormRepository) CreateIfAbsent(ctx context.Context, n *model.PaymentNotification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "transaction_status"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentNotificationGormRepository) SetAppliedStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.PaymentNotification{}).
		Where("id = ?", id).
		Update("applied_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentNotificationGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentNotification, error) {
	var out []model.PaymentNotification
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return order, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByExternalRefForUpdate(ctx context.Context, ref string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_ref = ?", ref).
		First(&o).Error
	if err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) SetPayment(ctx context.Context, orderID int64, externalRef string, token string, redirectURL string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"external_ref":         externalRef,
			"payment_token":        token,
			"payment_redirect_url": redirectURL,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Preload("User").
		Joins("JOIN users ON users.id = orders.user_id")

	if strings.TrimSpace(f.Customer) != "" {
		like := likePattern(f.Customer)
		q = q.Where(
			`(LOWER(users.first_name) LIKE ? ESCAPE '\' OR LOWER(users.last_name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", strings.ToUpper(f.Status))
	}
	if f.PaymentMethod != "" {
		q = q.Where("orders.payment_method = ?", strings.ToUpper(f.PaymentMethod))
	}
	if f.Date != nil {
		y, m, d := f.Date.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, f.Date.Location())
		q = q.Where("orders.created_at >= ? AND orders.created_at < ?", start, start.AddDate(0, 0, 1))
	}
	if f.MaxAmount != nil {
		q = q.Where("orders.amount <= ?", *f.MaxAmount)
	}

	var orders []model.Order
	err := q.Order("orders.id desc").
		Limit(clampLimit(f.Limit, 100, 500)).
		Offset(f.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderGormRepository) Stats(ctx context.Context) (repo.OrderStats, error) {
	var s repo.OrderStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Count(&s.Total).Error; err != nil {
		return repo.OrderStats{}, err
	}
	if err := db.Model(&model.Order{}).Where("status = ?", model.OrderStatusPending).Count(&s.Pending).Error; err != nil {
		return repo.OrderStats{}, err
	}
	if err := db.Model(&model.Order{}).Where("status = ?", model.OrderStatusApprove).Count(&s.Approved).Error; err != nil {
		return repo.OrderStats{}, err
	}

	row := db.Model(&model.Order{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", model.OrderStatusApprove).
		Row()
	if err := row.Scan(&s.ApprovedRevenue); err != nil {
		return repo.OrderStats{}, err
	}
	return s, nil
}

package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

// 新しい順
func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	if f.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *f.ActorUserID)
	}
	if f.Action != nil {
		q = q.Where("action = ?", *f.Action)
	}
	if f.ResourceType != nil {
		q = q.Where("resource_type = ?", *f.ResourceType)
	}
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var logs []model.AuditLog
	err := q.Order("id DESC").
		Limit(clampLimit(f.Limit, 50, 200)).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// hashで検索（平文はDBに置かない）
func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// 未使用・未失効のときだけused_atを入れる。0件なら再利用の可能性
func (r *refreshTokenGormRepository) MarkUsed(ctx context.Context, tokenID string) error {
	return r.stamp(ctx, tokenID, "used_at", "used_at IS NULL AND revoked_at IS NULL")
}

func (r *refreshTokenGormRepository) Revoke(ctx context.Context, tokenID string) error {
	return r.stamp(ctx, tokenID, "revoked_at", "revoked_at IS NULL")
}

func (r *refreshTokenGormRepository) stamp(ctx context.Context, tokenID string, column string, cond string) error {
	res := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ?", tokenID).
		Where(cond).
		Update(column, time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *refreshTokenGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

func (r *refreshTokenGormRepository) DeleteByID(ctx context.Context, tokenID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", tokenID).Delete(&model.RefreshToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

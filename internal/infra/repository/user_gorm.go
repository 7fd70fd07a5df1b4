package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error)
}

// emailでユーザーを1件取得（小文字で比較）
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("ProfileImage").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userGormRepository) FindByOAuth(ctx context.Context, provider string, subject string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("oauth_provider = ? AND oauth_subject = ?", provider, subject).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ユーザーを更新。画像は別（SaveProfileImage）
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

func (r *userGormRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))

	if res.Error != nil {
		return res.Error
	}
	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *userGormRepository) ListAdmin(ctx context.Context, f domainrepo.AdminUserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Preload("ProfileImage")

	if strings.TrimSpace(f.Q) != "" {
		like := likePattern(f.Q)
		q = q.Where(
			`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	if f.Role != "" {
		q = q.Where("role = ?", strings.ToUpper(f.Role))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var users []model.User
	err := q.Order("id asc").
		Limit(clampLimit(f.Limit, 100, 500)).
		Offset(f.Offset).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

// user_idでupsert
func (r *userGormRepository) SaveProfileImage(ctx context.Context, img model.ProfileImage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "file_name", "file_size", "mime_type", "updated_at"}),
		}).
		Create(&img).Error
}

func (r *userGormRepository) FindProfileImage(ctx context.Context, userID int64) (model.ProfileImage, error) {
	var img model.ProfileImage
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&img).Error
	if err != nil {
		return model.ProfileImage{}, translate(err)
	}
	return img, nil
}

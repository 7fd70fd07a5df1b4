package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 管理画面のユーザー一覧の絞り込み
type AdminUserFilter struct {
	Q        string // 名前 or emailの部分一致
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByOAuth(ctx context.Context, provider string, subject string) (*model.User, error)
	// プロフィール・ロール・最後のログインなど
	Update(ctx context.Context, user *model.User) error
	SetActive(ctx context.Context, userID int64, active bool) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error

	ListAdmin(ctx context.Context, f AdminUserFilter) ([]model.User, error)
	Count(ctx context.Context) (int64, error)

	// 1ユーザー1枚。既にあれば置き換える
	SaveProfileImage(ctx context.Context, img model.ProfileImage) error
	FindProfileImage(ctx context.Context, userID int64) (model.ProfileImage, error)
}

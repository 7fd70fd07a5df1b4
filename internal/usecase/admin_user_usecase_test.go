package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) adminUserUC() *usecase.AdminUserUsecase {
	return usecase.NewAdminUserUsecase(f.tx, f.users)
}

// 2回トグルすると元に戻る。token_versionは毎回上がる
func TestAdminUserUsecase_ToggleActive_Twice(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	target := f.createUser(t, "target@test.com", model.RoleUser)

	require.NoError(t, f.db.Create(&model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    target.ID,
		TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	uc := f.adminUserUC()

	first, err := uc.ToggleActive(f.ctx, admin.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, first.IsActive)
	assert.Equal(t, 1, first.NewTokenVersion)

	// 無効化でrefresh tokenも消える
	assert.Equal(t, int64(0), f.count(t, &model.RefreshToken{}))

	second, err := uc.ToggleActive(f.ctx, admin.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, second.IsActive)
	assert.Equal(t, 2, second.NewTokenVersion)

	u, err := f.users.FindByID(f.ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Equal(t, 2, u.TokenVersion)

	var logs []model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionToggleUserActive).Find(&logs).Error)
	assert.Len(t, logs, 2)
}

// refresh tokenの削除だけ失敗させる
type failingRefreshTokens struct {
	repo.RefreshTokenRepository
}

func (failingRefreshTokens) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return errors.New("delete failed")
}

type failingRefreshTx struct {
	repo.TxRepos
}

func (failingRefreshTx) RefreshTokens() repo.RefreshTokenRepository { return failingRefreshTokens{} }

type failingRefreshTxManager struct {
	inner repo.TransactionManager
}

func (m failingRefreshTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return m.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(failingRefreshTx{TxRepos: r})
	})
}

// refresh tokenが消せなければ無効化ごと戻る
func TestAdminUserUsecase_ToggleActive_RollsBackWhenPurgeFails(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	target := f.createUser(t, "target@test.com", model.RoleUser)
	uc := usecase.NewAdminUserUsecase(failingRefreshTxManager{inner: f.tx}, f.users)

	_, err := uc.ToggleActive(f.ctx, admin.ID, target.ID)
	requireHTTPError(t, err, http.StatusInternalServerError, "internal error")

	u, err := f.users.FindByID(f.ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Equal(t, 0, u.TokenVersion)
	assert.Equal(t, int64(0), f.count(t, &model.AuditLog{}))
}

func TestAdminUserUsecase_ToggleActive_Rejects(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	uc := f.adminUserUC()

	_, err := uc.ToggleActive(f.ctx, admin.ID, admin.ID)
	requireHTTPError(t, err, http.StatusBadRequest, "cannot disable yourself")

	_, err = uc.ToggleActive(f.ctx, admin.ID, 9999)
	requireHTTPError(t, err, http.StatusNotFound, "")

	u, err := f.users.FindByID(f.ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Equal(t, int64(0), f.count(t, &model.AuditLog{}))
}

func TestAdminUserUsecase_Update(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	target := f.createUser(t, "target@test.com", model.RoleUser)
	uc := f.adminUserUC()

	out, err := uc.Update(f.ctx, admin.ID, target.ID, usecase.AdminUserUpdateInput{
		FirstName: " Sari ",
		LastName:  "Dewi",
		Gender:    "perempuan",
		Role:      "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sari", out.FirstName)
	assert.Equal(t, string(model.GenderFemale), out.Gender)
	assert.Equal(t, string(model.RoleAdmin), out.Role)
	assert.Equal(t, int64(1), f.count(t, &model.AuditLog{}))

	_, err = uc.Update(f.ctx, admin.ID, admin.ID, usecase.AdminUserUpdateInput{FirstName: "Me", Role: "USER"})
	requireHTTPError(t, err, http.StatusBadRequest, "cannot remove your own admin role")

	_, err = uc.Update(f.ctx, admin.ID, target.ID, usecase.AdminUserUpdateInput{FirstName: "X", Gender: "other"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid gender")

	_, err = uc.Update(f.ctx, admin.ID, target.ID, usecase.AdminUserUpdateInput{})
	requireHTTPError(t, err, http.StatusBadRequest, "first_name required")
}

// roleを変えたら既存セッションは切れる。名前だけの編集では切れない
func TestAdminUserUsecase_Update_RoleChangeEndsSessions(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	target := f.createUser(t, "staff@test.com", model.RoleAdmin)
	require.NoError(t, f.db.Create(&model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    target.ID,
		TokenHash: "hash-staff",
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)
	uc := f.adminUserUC()

	out, err := uc.Update(f.ctx, admin.ID, target.ID, usecase.AdminUserUpdateInput{FirstName: "Staff", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.TokenVersion)
	assert.Equal(t, int64(1), f.count(t, &model.RefreshToken{}))

	out, err = uc.Update(f.ctx, admin.ID, target.ID, usecase.AdminUserUpdateInput{FirstName: "Staff", Role: "USER"})
	require.NoError(t, err)
	assert.Equal(t, string(model.RoleUser), out.Role)
	assert.Equal(t, 1, out.TokenVersion)
	assert.Equal(t, int64(0), f.count(t, &model.RefreshToken{}))

	u, err := f.users.FindByID(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, 1, u.TokenVersion)
}

func TestAdminUserUsecase_ListFilters(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	f.createUser(t, "sari@test.com", model.RoleUser)
	off := f.createUser(t, "off@test.com", model.RoleUser)
	// default:trueなので作成後に落とす
	require.NoError(t, f.users.SetActive(f.ctx, off.ID, false))

	uc := f.adminUserUC()

	all, err := uc.List(f.ctx, usecase.AdminUserFilterInput{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	admins, err := uc.List(f.ctx, usecase.AdminUserFilterInput{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, admin.ID, admins[0].ID)

	inactive := false
	offs, err := uc.List(f.ctx, usecase.AdminUserFilterInput{IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, offs, 1)
	assert.Equal(t, off.ID, offs[0].ID)

	bySari, err := uc.List(f.ctx, usecase.AdminUserFilterInput{Q: "sari"})
	require.NoError(t, err)
	assert.Len(t, bySari, 1)

	_, err = uc.List(f.ctx, usecase.AdminUserFilterInput{Role: "root"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid role")

	d, err := uc.Detail(f.ctx, off.ID)
	require.NoError(t, err)
	assert.False(t, d.IsActive)
}

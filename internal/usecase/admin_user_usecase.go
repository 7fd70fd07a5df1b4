package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminUserUsecase struct {
	tx    repo.TransactionManager
	users repo.UserRepository
}

func NewAdminUserUsecase(tx repo.TransactionManager, users repo.UserRepository) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, users: users}
}

type AdminUserFilterInput struct {
	Q        string
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}

type ToggleActiveResponse struct {
	UserID          int64 `json:"user_id"`
	IsActive        bool  `json:"is_active"`
	NewTokenVersion int   `json:"new_token_version"`
}

// 管理者が編集できる項目（パスワードとemailは対象外）
type AdminUserUpdateInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
	Gender      string
	Role        string
}

func (u *AdminUserUsecase) List(ctx context.Context, in AdminUserFilterInput) ([]UserDTO, error) {
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	switch model.Role(role) {
	case "", model.RoleAdmin, model.RoleUser:
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	users, err := u.users.ListAdmin(ctx, repo.AdminUserFilter{
		Q:        strings.TrimSpace(in.Q),
		Role:     role,
		IsActive: in.IsActive,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out, nil
}

func (u *AdminUserUsecase) Detail(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, notFoundOr500(err)
	}
	return toUserDTO(user), nil
}

// is_activeを反転し、token_versionを上げて既存セッションを切る。
// 自分自身は無効化できない。
func (u *AdminUserUsecase) ToggleActive(ctx context.Context, adminUserID int64, targetUserID int64) (ToggleActiveResponse, error) {
	if adminUserID <= 0 {
		return ToggleActiveResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return ToggleActiveResponse{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	if adminUserID == targetUserID {
		return ToggleActiveResponse{}, NewHTTPError(http.StatusBadRequest, "cannot disable yourself")
	}

	var out ToggleActiveResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Users().FindByID(ctx, targetUserID)
		if err != nil {
			return notFoundOr500(err)
		}
		next := !before.IsActive

		if err := r.Users().SetActive(ctx, targetUserID, next); err != nil {
			return notFoundOr500(err)
		}
		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return notFoundOr500(err)
		}
		// 無効化したらrefresh tokenも消す
		if !next {
			if err := r.RefreshTokens().DeleteAllByUserID(ctx, targetUserID); err != nil {
				return err
			}
		}

		out = ToggleActiveResponse{
			UserID:          targetUserID,
			IsActive:        next,
			NewTokenVersion: before.TokenVersion + 1,
		}

		return writeAudit(ctx, r.AuditLogs(), adminUserID,
			model.AuditActionToggleUserActive, model.AuditResourceUser, targetUserID,
			map[string]bool{"is_active": before.IsActive},
			map[string]bool{"is_active": next})
	})
	if err != nil {
		return ToggleActiveResponse{}, passOr500(err)
	}
	return out, nil
}

func (u *AdminUserUsecase) Update(ctx context.Context, adminUserID int64, targetUserID int64, in AdminUserUpdateInput) (UserDTO, error) {
	if adminUserID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "first_name required")
	}
	gender, ok := model.ParseGender(in.Gender)
	if !ok {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid gender")
	}
	role := model.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	switch role {
	case model.RoleAdmin, model.RoleUser, "":
	default:
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	if adminUserID == targetUserID && role == model.RoleUser {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot remove your own admin role")
	}

	var out UserDTO

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, targetUserID)
		if err != nil {
			return notFoundOr500(err)
		}
		before := userSnapshot(user)
		prevRole := user.Role

		user.FirstName = strings.TrimSpace(in.FirstName)
		user.LastName = strings.TrimSpace(in.LastName)
		user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		user.Address = strings.TrimSpace(in.Address)
		user.Gender = gender
		if role != "" {
			user.Role = role
		}

		if err := r.Users().Update(ctx, user); err != nil {
			return err
		}
		// roleが変わったら古いトークンの権限で動けないようにセッションを切る
		if user.Role != prevRole {
			if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
				return notFoundOr500(err)
			}
			if err := r.RefreshTokens().DeleteAllByUserID(ctx, targetUserID); err != nil {
				return err
			}
			user.TokenVersion++
		}
		out = toUserDTO(user)

		return writeAudit(ctx, r.AuditLogs(), adminUserID,
			model.AuditActionUpdateUser, model.AuditResourceUser, targetUserID,
			before, userSnapshot(user))
	})
	if err != nil {
		return UserDTO{}, passOr500(err)
	}
	return out, nil
}

func userSnapshot(u *model.User) map[string]interface{} {
	return map[string]interface{}{
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"phone_number": u.PhoneNumber,
		"address":      u.Address,
		"gender":       u.Gender,
		"role":         u.Role,
	}
}

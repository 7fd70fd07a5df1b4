package middleware

import (
	"context"

	"storefront/internal/domain/model"
)

// リクエスト単位の認証済みユーザー
type Identity struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// ロール判定はここだけ
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID <= 0 {
		return Identity{}, false
	}
	return id, true
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg}
}

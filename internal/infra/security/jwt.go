package security

import (
	"errors"
	"time"

	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cast"
)

var ErrInvalidToken = errors.New("invalid token")

// アクセストークンの中身
type Claims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// jwt発行（HS256, sub/role/tv）
func (i *TokenIssuer) Issue(user *model.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *TokenIssuer) Parse(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	userID, err := cast.ToInt64E(mc["sub"])
	if err != nil || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	role, err := cast.ToStringE(mc["role"])
	if err != nil || (role != string(model.RoleAdmin) && role != string(model.RoleUser)) {
		return Claims{}, ErrInvalidToken
	}
	tv, err := cast.ToIntE(mc["tv"])
	if err != nil || tv < 0 {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Role: model.Role(role), TokenVersion: tv}, nil
}

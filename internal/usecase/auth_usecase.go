package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/security"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// refreshtokenの有効期限
const RefreshTokenTTL = 14 * 24 * time.Hour

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, in RegisterInput) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateProfile(ctx context.Context, in ProfileInput) error
}

type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	Address         string
	Gender          string
	BirthDate       string // YYYY-MM-DD
}

// OAuthプロバイダから受け取るプロフィール
type OAuthProfile struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type AuthUsecase struct {
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	issuer    *security.TokenIssuer
	validator AuthValidator
	now       func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	issuer *security.TokenIssuer,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		rtRepo:    rtRepo,
		issuer:    issuer,
		validator: validator,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, in); err != nil {
		return UserDTO{}, err
	}

	gender, _ := model.ParseGender(in.Gender)
	birth, _ := parseBirthDate(in.BirthDate)

	pwHash, err := security.HashPassword(in.Password)
	if err != nil {
		return UserDTO{}, internalError(err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: pwHash,
		Role:         model.RoleUser,
		IsActive:     true,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Address:      strings.TrimSpace(in.Address),
		Gender:       gender,
		BirthDate:    birth,
	}

	//validatorの後に同時登録された場合もここで弾く
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		return UserDTO{}, internalError(err)
	}

	return toUserDTO(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, email string, password string, userAgent string) (*LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, internalError(err)
	}

	//パスワード照合（bcrypt）
	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	return u.startSession(ctx, user, userAgent)
}

// Googleなど。初回はUSERとして作る。同じemailが既にあれば紐付ける
func (u *AuthUsecase) LoginOAuth(ctx context.Context, p OAuthProfile, userAgent string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if p.Provider == "" || p.Subject == "" || email == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "incomplete oauth profile")
	}

	user, err := u.users.FindByOAuth(ctx, p.Provider, p.Subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(err)
	}

	if user == nil {
		user, err = u.users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			user.OAuthProvider = p.Provider
			user.OAuthSubject = p.Subject
			if err := u.users.Update(ctx, user); err != nil {
				return nil, internalError(err)
			}
		case errors.Is(err, repository.ErrNotFound):
			user = &model.User{
				Email:         email,
				Role:          model.RoleUser,
				IsActive:      true,
				FirstName:     strings.TrimSpace(p.FirstName),
				LastName:      strings.TrimSpace(p.LastName),
				OAuthProvider: p.Provider,
				OAuthSubject:  p.Subject,
			}
			if err := u.users.Create(ctx, user); err != nil {
				return nil, internalError(err)
			}
			zap.L().Info("user created via oauth", zap.Int64("user_id", user.ID), zap.String("provider", p.Provider))
		default:
			return nil, internalError(err)
		}
	}

	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	return u.startSession(ctx, user, userAgent)
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return UserDTO{}, internalError(err)
	}
	if !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	return toUserDTO(user), nil
}

func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return nil, internalError(err)
	}

	//期限切れ
	if rt.ExpiresAt.Before(u.now()) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if rt.RevokedAt != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		zap.L().Warn("refresh token replay detected", zap.Int64("user_id", rt.UserID))
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}

	//user_agent違いも再認証扱い
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return nil, internalError(err)
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	//旧tokenをusedにする（同時に2回来たら片方は失敗する）
	if err := u.rtRepo.MarkUsed(ctx, rt.ID); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}

	res, err := u.startSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		Body:              res.Body.Token,
		RefreshTokenPlain: res.RefreshTokenPlain,
		CsrfTokenPlain:    res.CsrfTokenPlain,
	}, nil
}

// refreshを削除（失効）。cookieが無くても成功扱い
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if refreshTokenPlain == "" {
		return nil
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalError(err)
	}
	return nil
}

// token_versionを上げて、発行済みのaccess tokenを全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (ForceLogoutResponse, error) {
	if targetUserID <= 0 {
		return ForceLogoutResponse{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return ForceLogoutResponse{}, notFoundOr500(err)
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return ForceLogoutResponse{}, internalError(err)
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return ForceLogoutResponse{}, notFoundOr500(err)
	}

	return ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// access + refresh + csrf を発行
func (u *AuthUsecase) startSession(ctx context.Context, user *model.User, userAgent string) (*LoginResult, error) {
	now := u.now()

	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		zap.L().Warn("failed to update last_login_at", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	accessToken, err := u.issuer.Issue(user, now)
	if err != nil {
		return nil, internalError(err)
	}

	//refresh token発行（DBにはhash保存）
	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, internalError(err)
	}
	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(RefreshTokenTTL),
	}); err != nil {
		return nil, internalError(err)
	}

	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return nil, internalError(err)
	}

	return &LoginResult{
		Body: AuthLoginResponse{
			User: toUserDTO(user),
			Token: JwtAccessTokenDTO{
				AccessToken:  accessToken,
				ExpiresIn:    int(u.issuer.TTL().Seconds()),
				TokenVersion: user.TokenVersion,
			},
		},
		RefreshTokenPlain: refreshPlain,
		CsrfTokenPlain:    csrfPlain,
	}, nil
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

const birthDateLayout = "2006-01-02"

type UserDTO struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhoneNumber  string     `json:"phone_number"`
	Address      string     `json:"address"`
	Gender       string     `json:"gender"`
	BirthDate    string     `json:"birth_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	TokenVersion int        `json:"token_version"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProfileImage string     `json:"profile_image,omitempty"` // data URI
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	dto := UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		Address:      u.Address,
		Gender:       string(u.Gender),
		IsActive:     u.IsActive,
		TokenVersion: u.TokenVersion,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
	if u.BirthDate != nil {
		dto.BirthDate = u.BirthDate.Format(birthDateLayout)
	}
	if u.ProfileImage != nil {
		dto.ProfileImage = model.DataURI(u.ProfileImage.MIMEType, u.ProfileImage.Data)
	}
	return dto
}

// 空はnil
func parseBirthDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// 自分のプロフィール編集（PUT /me）
type ProfileInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	Gender      string
	BirthDate   string
}

// アップロードされたファイル（商品画像・プロフィール画像共通）
type UploadedFile struct {
	FileName string
	Data     []byte
}

type ProfileUsecase struct {
	users          repository.UserRepository
	validator      AuthValidator
	maxUploadBytes int64
}

func NewProfileUsecase(users repository.UserRepository, validator AuthValidator, maxUploadBytes int64) *ProfileUsecase {
	return &ProfileUsecase{users: users, validator: validator, maxUploadBytes: maxUploadBytes}
}

func (u *ProfileUsecase) Update(ctx context.Context, userID int64, in ProfileInput) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validator.ValidateProfile(ctx, in); err != nil {
		return UserDTO{}, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, notFoundOr500(err)
	}

	//email変更は他ユーザーと重複しないこと
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" && email != user.Email {
		other, err := u.users.FindByEmail(ctx, email)
		if err == nil && other.ID != user.ID {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return UserDTO{}, internalError(err)
		}
		user.Email = email
	}

	gender, _ := model.ParseGender(in.Gender)
	birth, _ := parseBirthDate(in.BirthDate)

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	user.Address = strings.TrimSpace(in.Address)
	user.Gender = gender
	user.BirthDate = birth

	if err := u.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		return UserDTO{}, internalError(err)
	}
	return toUserDTO(user), nil
}

// プロフィール画像の差し替え（1枚のみ）
func (u *ProfileUsecase) UploadImage(ctx context.Context, userID int64, f UploadedFile) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	img, err := checkImage(f, u.maxUploadBytes)
	if err != nil {
		return UserDTO{}, err
	}

	if err := u.users.SaveProfileImage(ctx, model.ProfileImage{
		UserID:   userID,
		Data:     img.Data,
		FileName: img.FileName,
		FileSize: img.FileSize,
		MIMEType: img.MIMEType,
	}); err != nil {
		return UserDTO{}, internalError(err)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, notFoundOr500(err)
	}
	return toUserDTO(user), nil
}

// 拡張子の許可リストとサイズ上限。MIMEは中身から判定
func checkImage(f UploadedFile, maxBytes int64) (model.ProductImage, error) {
	name := strings.TrimSpace(f.FileName)
	if name == "" || len(f.Data) == 0 {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "empty file")
	}
	if !model.IsAllowedImageFile(name) {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "file type not allowed")
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "file too large")
	}
	return model.ProductImage{
		Data:     f.Data,
		FileName: name,
		FileSize: int64(len(f.Data)),
		MIMEType: model.DetectImageMIME(f.Data),
	}, nil
}

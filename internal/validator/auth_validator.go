package validator

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

const minPasswordLen = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

func (v *authValidator) ValidateRegister(ctx context.Context, in usecase.RegisterInput) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return bad("first_name required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !emailRe.MatchString(email) {
		return bad("invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return bad("password must be at least 8 characters")
	}
	if in.Password != in.ConfirmPassword {
		return bad("passwords do not match")
	}
	if err := checkGenderAndBirth(in.Gender, in.BirthDate); err != nil {
		return err
	}

	// email重複チェック（DBが必要）
	_, err := v.users.FindByEmail(ctx, email)
	if err == nil {
		return bad("email already registered")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return &usecase.HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Err: err}
	}
	return nil
}

func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return bad("email and password required")
	}
	return nil
}

func (v *authValidator) ValidateProfile(ctx context.Context, in usecase.ProfileInput) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return bad("first_name required")
	}
	if e := strings.TrimSpace(in.Email); e != "" && !emailRe.MatchString(e) {
		return bad("invalid email")
	}
	return checkGenderAndBirth(in.Gender, in.BirthDate)
}

func checkGenderAndBirth(gender string, birth string) error {
	if _, ok := model.ParseGender(gender); !ok {
		return bad("invalid gender")
	}
	if b := strings.TrimSpace(birth); b != "" {
		t, err := time.Parse("2006-01-02", b)
		if err != nil {
			return bad("birth_date must be YYYY-MM-DD")
		}
		if t.After(time.Now()) {
			return bad("birth_date is in the future")
		}
	}
	return nil
}

func bad(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

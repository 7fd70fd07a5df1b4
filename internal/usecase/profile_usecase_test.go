package usecase_test

import (
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUsecase_Update(t *testing.T) {
	f := newFixture(t)
	me := f.createUser(t, "me@test.com", model.RoleUser)
	f.createUser(t, "taken@test.com", model.RoleUser)
	uc := usecase.NewProfileUsecase(f.users, validator.NewAuthValidator(f.users), 2<<20)

	out, err := uc.Update(f.ctx, me.ID, usecase.ProfileInput{
		FirstName: "Sari",
		LastName:  "Dewi",
		Email:     "Sari@Test.com",
		Gender:    "F",
		BirthDate: "1990-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "sari@test.com", out.Email)
	assert.Equal(t, string(model.GenderFemale), out.Gender)
	assert.Equal(t, "1990-01-31", out.BirthDate)

	_, err = uc.Update(f.ctx, me.ID, usecase.ProfileInput{FirstName: "Sari", Email: "taken@test.com"})
	requireHTTPError(t, err, http.StatusBadRequest, "email already registered")

	_, err = uc.Update(f.ctx, me.ID, usecase.ProfileInput{FirstName: "Sari", BirthDate: "31-01-1990"})
	requireHTTPError(t, err, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")

	_, err = uc.Update(f.ctx, me.ID, usecase.ProfileInput{})
	requireHTTPError(t, err, http.StatusBadRequest, "first_name required")
}

func TestProfileUsecase_UploadImage_Replaces(t *testing.T) {
	f := newFixture(t)
	me := f.createUser(t, "me@test.com", model.RoleUser)
	uc := usecase.NewProfileUsecase(f.users, validator.NewAuthValidator(f.users), 1024)

	_, err := uc.UploadImage(f.ctx, me.ID, usecase.UploadedFile{FileName: "a.png", Data: pngBytes})
	require.NoError(t, err)
	out, err := uc.UploadImage(f.ctx, me.ID, usecase.UploadedFile{FileName: "b.gif", Data: []byte("GIF89a....")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.ProfileImage, "data:image/gif;base64,"))
	assert.Equal(t, int64(1), f.count(t, &model.ProfileImage{}))

	_, err = uc.UploadImage(f.ctx, me.ID, usecase.UploadedFile{FileName: "c.png", Data: make([]byte, 1025)})
	requireHTTPError(t, err, http.StatusBadRequest, "file too large")

	_, err = uc.UploadImage(f.ctx, me.ID, usecase.UploadedFile{FileName: "c.svg", Data: []byte("<svg/>")})
	requireHTTPError(t, err, http.StatusBadRequest, "file type not allowed")
}

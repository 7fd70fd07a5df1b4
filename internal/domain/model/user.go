package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// ParseGenderは入力（male/Laki-laki等も許容）をGenderにする。空はOK。
func ParseGender(s string) (Gender, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "MALE", "M", "LAKI-LAKI":
		return GenderMale, true
	case "FEMALE", "F", "PEREMPUAN":
		return GenderFemale, true
	}
	return "", false
}

// 削除はしない。is_activeで無効化する。
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null;default:''" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	FirstName    string     `gorm:"type:varchar(100);not null;default:''" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100);not null;default:''" json:"last_name"`
	PhoneNumber  string     `gorm:"type:varchar(30);not null;default:''" json:"phone_number"`
	Address      string     `gorm:"type:text" json:"address"`
	Gender       Gender     `gorm:"type:varchar(10);not null;default:''" json:"gender"`
	BirthDate    *time.Time `json:"birth_date"`

	//OAuthで作られたユーザーはpassword_hashが空
	OAuthProvider string `gorm:"column:oauth_provider;type:varchar(30);not null;default:''" json:"-"`
	OAuthSubject  string `gorm:"column:oauth_subject;type:varchar(255);not null;default:''" json:"-"`

	TokenVersion int        `gorm:"not null;default:0" json:"token_version"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`

	ProfileImage *ProfileImage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileImageは1ユーザー1枚
type ProfileImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Data      []byte    `gorm:"not null" json:"-"`
	FileName  string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize  int64     `gorm:"not null" json:"file_size"`
	MIMEType  string    `gorm:"column:mime_type;type:varchar(50);not null" json:"mime_type"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 依存順（FKの親が先）
var models = []interface{}{
	&model.User{},
	&model.ProfileImage{},
	&model.RefreshToken{},
	&model.Product{},
	&model.ProductImage{},
	&model.CartItem{},
	&model.Order{},
	&model.ProductOrder{},
	&model.PaymentNotification{},
	&model.InventoryAdjustment{},
	&model.AuditLog{},
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// 管理者が1人もいなければ作る
func SeedAdmin(ctx context.Context, gdb *gorm.DB, email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing model.User
	err := gdb.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
		FirstName:    "Admin",
	}
	if err := gdb.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	zap.L().Info("default admin created", zap.String("email", email))
	return nil
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// 管理画面で出す表示ステータス
const (
	DisplayStatusAvailable   = "Available"
	DisplayStatusUnavailable = "Unavailable"
	DisplayStatusOutOfStock  = "Out Of Stock"
)

type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:varchar(100);not null;default:'';index" json:"category"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int64          `gorm:"not null" json:"stock"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Images []ProductImage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// 在庫0はフラグより優先して「Out Of Stock」
func (p Product) DisplayStatus() string {
	return DisplayStatus(p.Stock, p.IsActive)
}

func DisplayStatus(stock int64, active bool) string {
	if stock <= 0 {
		return DisplayStatusOutOfStock
	}
	if active {
		return DisplayStatusAvailable
	}
	return DisplayStatusUnavailable
}

type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Data      []byte    `gorm:"not null" json:"-"`
	FileName  string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize  int64     `gorm:"not null" json:"file_size"`
	MIMEType  string    `gorm:"column:mime_type;type:varchar(50);not null" json:"mime_type"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

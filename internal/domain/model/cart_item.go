package model

import "time"

// カートの明細。同じ商品は1行にまとめる。
// 在庫の確保はしない（注文確定時にチェック）。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_cart_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:ux_cart_user_product;index" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

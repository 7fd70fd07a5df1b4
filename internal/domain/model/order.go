package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusApprove OrderStatus = "APPROVE"
	OrderStatusCancel  OrderStatus = "CANCEL"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApprove, OrderStatusCancel:
		return true
	}
	return false
}

// APPROVE/CANCELからは動かない
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApprove || s == OrderStatusCancel
}

type PaymentMethod string

const (
	PaymentMethodTransferBank PaymentMethod = "TRANSFER_BANK"
	PaymentMethodCOD          PaymentMethod = "COD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodTransferBank || m == PaymentMethodCOD
}

// Amountは作成時の合計（price×qty）。あとから再計算しない。
type Order struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index;uniqueIndex:ux_orders_user_idem,priority:1" json:"user_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes         string        `gorm:"type:text" json:"notes"`

	//ゲートウェイ側の注文ID（ORD-<id>-<suffix>）
	ExternalRef        *string `gorm:"type:varchar(100);uniqueIndex" json:"external_ref,omitempty"`
	PaymentToken       string  `gorm:"type:varchar(255);not null;default:''" json:"payment_token,omitempty"`
	PaymentRedirectURL string  `gorm:"type:text" json:"payment_redirect_url,omitempty"`

	//NULLは重複OK
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex:ux_orders_user_idem,priority:2" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	User  User           `gorm:"foreignKey:UserID" json:"-"`
	Items []ProductOrder `gorm:"foreignKey:OrderID" json:"-"`
}

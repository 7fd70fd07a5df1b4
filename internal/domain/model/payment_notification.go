package model

import (
	"time"

	"gorm.io/datatypes"
)

// 決済ゲートウェイからの通知。同じ(transaction_id, transaction_status)は1回だけ処理する。
type PaymentNotification struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID     string         `gorm:"type:varchar(100);not null;uniqueIndex:ux_payment_notif" json:"transaction_id"`
	TransactionStatus string         `gorm:"type:varchar(30);not null;uniqueIndex:ux_payment_notif" json:"transaction_status"`
	OrderRef          string         `gorm:"type:varchar(100);not null;index" json:"order_id"`
	OrderID           int64          `gorm:"not null;index" json:"-"`
	StatusCode        string         `gorm:"type:varchar(10);not null" json:"status_code"`
	FraudStatus       string         `gorm:"type:varchar(20);not null;default:''" json:"fraud_status"`
	GrossAmount       string         `gorm:"type:varchar(30);not null" json:"gross_amount"`
	AppliedStatus     OrderStatus    `gorm:"type:varchar(20);not null;default:''" json:"applied_status"`
	Payload           datatypes.JSON `json:"payload"`
	CreatedAt         time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionToggleUserActive  AuditAction = "TOGGLE_USER_ACTIVE"
	AuditActionUpdateUser        AuditAction = "UPDATE_USER"
	AuditActionUpdateProduct     AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct     AuditAction = "DELETE_PRODUCT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	Before datatypes.JSON `gorm:"column:before_json" json:"before"`
	After  datatypes.JSON `gorm:"column:after_json" json:"after"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime" json:"created_at"`
}

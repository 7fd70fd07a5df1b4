package usecase

import (
	"context"
	"encoding/json"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/datatypes"
)

// 監査ログ。「誰が」「何を」「どの対象に」「どう変えたか」を残す
func writeAudit(
	ctx context.Context,
	logs repo.AuditLogRepository,
	actorID int64,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID int64,
	before interface{},
	after interface{},
) error {
	b, err := json.Marshal(before)
	if err != nil {
		return err
	}
	a, err := json.Marshal(after)
	if err != nil {
		return err
	}
	return logs.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		Before:       datatypes.JSON(b),
		After:        datatypes.JSON(a),
	})
}

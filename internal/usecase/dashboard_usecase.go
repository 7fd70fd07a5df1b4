package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type DashboardUsecase struct {
	users    repo.UserRepository
	products repo.ProductRepository
	orders   repo.OrderRepository
	audits   repo.AuditLogRepository
}

func NewDashboardUsecase(
	users repo.UserRepository,
	products repo.ProductRepository,
	orders repo.OrderRepository,
	audits repo.AuditLogRepository,
) *DashboardUsecase {
	return &DashboardUsecase{users: users, products: products, orders: orders, audits: audits}
}

type DashboardOutput struct {
	Users              int64 `json:"users"`
	ActiveProducts     int64 `json:"active_products"`
	OutOfStockProducts int64 `json:"out_of_stock_products"`
	Orders             int64 `json:"orders"`
	PendingOrders      int64 `json:"pending_orders"`
	ApprovedOrders     int64 `json:"approved_orders"`
	ApprovedRevenue    int64 `json:"approved_revenue"`
}

func (u *DashboardUsecase) Summary(ctx context.Context) (DashboardOutput, error) {
	users, err := u.users.Count(ctx)
	if err != nil {
		return DashboardOutput{}, internalError(err)
	}
	ps, err := u.products.Stats(ctx)
	if err != nil {
		return DashboardOutput{}, internalError(err)
	}
	os, err := u.orders.Stats(ctx)
	if err != nil {
		return DashboardOutput{}, internalError(err)
	}

	return DashboardOutput{
		Users:              users,
		ActiveProducts:     ps.Active,
		OutOfStockProducts: ps.OutOfStock,
		Orders:             os.Total,
		PendingOrders:      os.Pending,
		ApprovedOrders:     os.Approved,
		ApprovedRevenue:    os.ApprovedRevenue,
	}, nil
}

type AuditLogFilterInput struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	Limit        int
	Offset       int
}

// 監査ログ一覧（新しい順）
func (u *DashboardUsecase) AuditLogs(ctx context.Context, in AuditLogFilterInput) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		ResourceID: in.ResourceID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if a := strings.ToUpper(strings.TrimSpace(in.Action)); a != "" {
		action := model.AuditAction(a)
		f.Action = &action
	}
	if rt := strings.ToLower(strings.TrimSpace(in.ResourceType)); rt != "" {
		switch model.AuditResourceType(rt) {
		case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourceUser:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		res := model.AuditResourceType(rt)
		f.ResourceType = &res
	}

	logs, err := u.audits.List(ctx, f)
	if err != nil {
		return nil, internalError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

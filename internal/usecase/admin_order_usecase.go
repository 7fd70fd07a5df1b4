package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx            repo.TransactionManager
	orders        repo.OrderRepository
	productOrders repo.ProductOrderRepository
	notifications repo.PaymentNotificationRepository
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	productOrders repo.ProductOrderRepository,
	notifications repo.PaymentNotificationRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:            tx,
		orders:        orders,
		productOrders: productOrders,
		notifications: notifications,
	}
}

// 管理画面の注文テーブル1行
type AdminOrderRow struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	ItemCount     int64     `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type AdminOrderFilterInput struct {
	Customer      string
	Status        string
	PaymentMethod string
	// YYYY-MM-DD
	Date      string
	MaxAmount *int64
	Limit     int
	Offset    int
}

type AdminOrderDetail struct {
	OrderOutput
	CustomerName  string                      `json:"customer_name"`
	CustomerEmail string                      `json:"customer_email"`
	CustomerPhone string                      `json:"customer_phone"`
	Notifications []model.PaymentNotification `json:"notifications"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderFilterInput) ([]AdminOrderRow, error) {
	f := repo.AdminOrderListFilter{
		Customer:  strings.TrimSpace(in.Customer),
		MaxAmount: in.MaxAmount,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}

	if s := strings.ToUpper(strings.TrimSpace(in.Status)); s != "" && s != "ALL" {
		if !model.OrderStatus(s).Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = s
	}
	if m := strings.ToUpper(strings.TrimSpace(in.PaymentMethod)); m != "" && m != "ALL" {
		if !model.PaymentMethod(m).Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
		}
		f.PaymentMethod = m
	}
	if d := strings.TrimSpace(in.Date); d != "" {
		t, err := time.ParseInLocation(birthDateLayout, d, time.Local)
		if err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Date = &t
	}
	if in.MaxAmount != nil && *in.MaxAmount < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "max_amount must be >= 0")
	}

	orders, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return nil, internalError(err)
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	counts, err := u.productOrders.CountByOrderIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}

	rows := make([]AdminOrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, AdminOrderRow{
			ID:            o.ID,
			CustomerName:  o.User.FullName(),
			CustomerEmail: o.User.Email,
			Amount:        o.Amount,
			Status:        string(o.Status),
			PaymentMethod: string(o.PaymentMethod),
			ItemCount:     counts[o.ID],
			CreatedAt:     o.CreatedAt,
		})
	}
	return rows, nil
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (AdminOrderDetail, error) {
	if orderID <= 0 {
		return AdminOrderDetail{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return AdminOrderDetail{}, notFoundOr500(err)
	}
	pos, err := u.productOrders.ListByOrderID(ctx, orderID)
	if err != nil {
		return AdminOrderDetail{}, internalError(err)
	}
	notifs, err := u.notifications.ListByOrderID(ctx, orderID)
	if err != nil {
		return AdminOrderDetail{}, internalError(err)
	}
	if notifs == nil {
		notifs = []model.PaymentNotification{}
	}

	return AdminOrderDetail{
		OrderOutput:   toOrderOutput(o, itemsFromProductOrders(pos)),
		CustomerName:  o.User.FullName(),
		CustomerEmail: o.User.Email,
		CustomerPhone: o.User.PhoneNumber,
		Notifications: notifs,
	}, nil
}

// PENDINGからAPPROVE/CANCELへ。CANCELなら在庫戻し。監査ログも同じTx
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, status string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	target := model.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !target.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr500(err)
		}

		changed, err := transitionOrder(ctx, r, o, target)
		if errors.Is(err, errOrderFinalized) {
			return NewHTTPError(http.StatusBadRequest, "order already finalized")
		}
		if err != nil {
			return err
		}
		// すでに同じなら何もしない
		if !changed {
			return nil
		}

		return writeAudit(ctx, r.AuditLogs(), actorAdminUserID,
			model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(o.Status)},
			map[string]string{"status": string(target)})
	})
	return passOr500(err)
}

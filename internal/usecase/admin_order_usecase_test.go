package usecase_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeCOD(t *testing.T, f *fixture, userID int64, productID int64, qty int64) usecase.OrderOutput {
	t.Helper()
	out, err := f.orderUC(nil).PlaceOrder(f.ctx, userID, usecase.PlaceOrderInput{
		Intent:        usecase.CheckoutIntent{ProductID: productID, Quantity: qty},
		PaymentMethod: "COD",
	})
	require.NoError(t, err)
	return out
}

// =====================
// UpdateStatus
// =====================

func TestAdminOrderUsecase_Cancel_RestoresStockAndAudits(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Speaker", "Electronics", 80000, 5, true)
	o := placeCOD(t, f, user.ID, p.ID, 4)
	require.Equal(t, int64(1), f.stockOf(t, p.ID))

	uc := f.adminOrderUC()
	require.NoError(t, uc.UpdateStatus(f.ctx, admin.ID, o.ID, "cancel"))

	assert.Equal(t, model.OrderStatusCancel, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))

	var logs []model.AuditLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.Equal(t, model.AuditResourceOrder, logs[0].ResourceType)
	assert.Equal(t, o.ID, logs[0].ResourceID)
	assert.Equal(t, admin.ID, logs[0].ActorUserID)

	var before, after map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Before, &before))
	require.NoError(t, json.Unmarshal(logs[0].After, &after))
	assert.Equal(t, "PENDING", before["status"])
	assert.Equal(t, "CANCEL", after["status"])

	// 確定後は動かない
	err := uc.UpdateStatus(f.ctx, admin.ID, o.ID, "APPROVE")
	requireHTTPError(t, err, http.StatusBadRequest, "order already finalized")
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))
}

func TestAdminOrderUsecase_Approve_KeepsStock(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Speaker", "Electronics", 80000, 5, true)
	o := placeCOD(t, f, user.ID, p.ID, 2)

	uc := f.adminOrderUC()
	require.NoError(t, uc.UpdateStatus(f.ctx, admin.ID, o.ID, "APPROVE"))
	assert.Equal(t, model.OrderStatusApprove, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(3), f.stockOf(t, p.ID))

	// 同じステータスは何もしない（監査ログも増えない）
	require.NoError(t, uc.UpdateStatus(f.ctx, admin.ID, o.ID, "APPROVE"))
	assert.Equal(t, int64(1), f.count(t, &model.AuditLog{}))
}

func TestAdminOrderUsecase_UpdateStatus_Invalid(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Speaker", "Electronics", 80000, 5, true)
	o := placeCOD(t, f, user.ID, p.ID, 1)
	uc := f.adminOrderUC()

	requireHTTPError(t, uc.UpdateStatus(f.ctx, admin.ID, o.ID, "SHIPPED"), http.StatusBadRequest, "invalid status")
	require.NoError(t, uc.UpdateStatus(f.ctx, admin.ID, o.ID, "PENDING"))
	requireHTTPError(t, uc.UpdateStatus(f.ctx, admin.ID, 9999, "APPROVE"), http.StatusNotFound, "")
	requireHTTPError(t, uc.UpdateStatus(f.ctx, 0, o.ID, "APPROVE"), http.StatusUnauthorized, "")

	assert.Equal(t, model.OrderStatusPending, f.orderStatus(t, o.ID))
}

// =====================
// 一覧・詳細
// =====================

func TestAdminOrderUsecase_ListAndDetail(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	sari := f.createUser(t, "sari@test.com", model.RoleUser)
	budi := f.createUser(t, "budi@test.com", model.RoleUser)
	p := f.createProduct(t, "Speaker", "Electronics", 80000, 20, true)

	o1 := placeCOD(t, f, sari.ID, p.ID, 1)
	o2 := placeCOD(t, f, budi.ID, p.ID, 3)
	require.NoError(t, f.adminOrderUC().UpdateStatus(f.ctx, admin.ID, o2.ID, "APPROVE"))

	uc := f.adminOrderUC()

	all, err := uc.List(f.ctx, usecase.AdminOrderFilterInput{Status: "all"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, o2.ID, all[0].ID)
	assert.Equal(t, int64(3), all[0].ItemCount)

	bySari, err := uc.List(f.ctx, usecase.AdminOrderFilterInput{Customer: "SARI@"})
	require.NoError(t, err)
	require.Len(t, bySari, 1)
	assert.Equal(t, o1.ID, bySari[0].ID)
	assert.Equal(t, "sari@test.com", bySari[0].CustomerEmail)

	approved, err := uc.List(f.ctx, usecase.AdminOrderFilterInput{Status: "approve", PaymentMethod: "cod"})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, o2.ID, approved[0].ID)

	maxAmount := int64(100000)
	cheap, err := uc.List(f.ctx, usecase.AdminOrderFilterInput{MaxAmount: &maxAmount})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, o1.ID, cheap[0].ID)

	_, err = uc.List(f.ctx, usecase.AdminOrderFilterInput{Date: "18/10/2026"})
	requireHTTPError(t, err, http.StatusBadRequest, "date must be YYYY-MM-DD")
	_, err = uc.List(f.ctx, usecase.AdminOrderFilterInput{Status: "shipped"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid status")

	d, err := uc.Detail(f.ctx, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, "budi@test.com", d.CustomerEmail)
	assert.Equal(t, "Test User", d.CustomerName)
	assert.Equal(t, int64(240000), d.Amount)
	require.Len(t, d.Items, 1)
	assert.NotNil(t, d.Notifications)
}

package usecase_test

import (
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/payment"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

// 決済待ちの注文（在庫は確保済み）
func (f *fixture) seedTransferOrder(t *testing.T, userID int64, p model.Product, qty int64) (model.Order, string) {
	t.Helper()
	o, err := f.orders.Create(f.ctx, model.Order{
		UserID:        userID,
		Amount:        p.Price * qty,
		PaymentMethod: model.PaymentMethodTransferBank,
		Status:        model.OrderStatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, f.productOrders.CreateBulk(f.ctx, o.ID, []model.ProductOrder{{ProductID: p.ID, Quantity: qty}}))
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("stock", p.Stock-qty).Error)

	ref := fmt.Sprintf("ORD-%d-abcd1234", o.ID)
	require.NoError(t, f.orders.SetPayment(f.ctx, o.ID, ref, "snap-token", ""))
	return o, ref
}

func notification(ref string, txID string, status string, gross string) usecase.PaymentNotificationInput {
	return usecase.PaymentNotificationInput{
		TransactionID:     txID,
		TransactionStatus: status,
		OrderID:           ref,
		StatusCode:        "200",
		GrossAmount:       gross,
		SignatureKey:      payment.Signature(ref, "200", gross, testServerKey),
		PaymentType:       "bank_transfer",
		Raw:               []byte(`{"order_id":"` + ref + `"}`),
	}
}

func (f *fixture) orderStatus(t *testing.T, orderID int64) model.OrderStatus {
	t.Helper()
	o, err := f.orders.FindByID(f.ctx, orderID)
	require.NoError(t, err)
	return o.Status
}

func newPaymentFixture(t *testing.T) (*fixture, *usecase.PaymentUsecase) {
	f := newFixture(t)
	gw := payment.NewMidtrans(config.Config{MidtransServerKey: testServerKey})
	return f, f.paymentUC(gw)
}

// =====================
// 正常系
// =====================

func TestPaymentUsecase_Settlement_ApprovesOrder(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Phone", "Electronics", 125000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 2)

	res, err := uc.HandleNotification(f.ctx, notification(ref, "tx-1", "settlement", "250000.00"))
	require.NoError(t, err)
	assert.Equal(t, "order updated", res.Message)
	assert.Equal(t, o.ID, res.OrderID)
	assert.Equal(t, string(model.OrderStatusApprove), res.Status)

	assert.Equal(t, model.OrderStatusApprove, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(3), f.stockOf(t, p.ID))

	notifs, err := f.notifications.ListByOrderID(f.ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, model.OrderStatusApprove, notifs[0].AppliedStatus)
	assert.Equal(t, "settlement", notifs[0].TransactionStatus)
}

func TestPaymentUsecase_Pending_NoStatusChange(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Phone", "Electronics", 125000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 1)

	res, err := uc.HandleNotification(f.ctx, notification(ref, "tx-1", "pending", "125000"))
	require.NoError(t, err)
	assert.Equal(t, "no status change", res.Message)
	assert.Equal(t, model.OrderStatusPending, f.orderStatus(t, o.ID))
}

// =====================
// 再送・キャンセル
// =====================

// 同じ通知が2回来ても在庫戻しは1回だけ
func TestPaymentUsecase_DuplicateExpire_RestoresStockOnce(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Tablet", "Electronics", 300000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 3)
	require.Equal(t, int64(2), f.stockOf(t, p.ID))

	in := notification(ref, "tx-9", "expire", "900000.00")

	res, err := uc.HandleNotification(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "order updated", res.Message)
	assert.Equal(t, model.OrderStatusCancel, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))

	res, err = uc.HandleNotification(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, res.AlreadyHandled)
	assert.Equal(t, "already processed", res.Message)
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))
	assert.Equal(t, int64(1), f.count(t, &model.PaymentNotification{}))
}

// 確定済みの注文は後から来た通知で変わらない
func TestPaymentUsecase_FinalizedOrder_Ignored(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Tablet", "Electronics", 300000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 1)

	_, err := uc.HandleNotification(f.ctx, notification(ref, "tx-1", "cancel", "300000"))
	require.NoError(t, err)

	res, err := uc.HandleNotification(f.ctx, notification(ref, "tx-1", "settlement", "300000"))
	require.NoError(t, err)
	assert.Equal(t, "order already finalized", res.Message)
	assert.Equal(t, model.OrderStatusCancel, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))
}

// =====================
// 拒否
// =====================

func TestPaymentUsecase_BadSignature_ChangesNothing(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Phone", "Electronics", 125000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 1)

	in := notification(ref, "tx-1", "settlement", "125000.00")
	in.SignatureKey = "deadbeef"

	_, err := uc.HandleNotification(f.ctx, in)
	requireHTTPError(t, err, http.StatusForbidden, "invalid signature")

	assert.Equal(t, model.OrderStatusPending, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(0), f.count(t, &model.PaymentNotification{}))
}

func TestPaymentUsecase_GrossMismatch_Rejected(t *testing.T) {
	f, uc := newPaymentFixture(t)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Phone", "Electronics", 125000, 5, true)
	o, ref := f.seedTransferOrder(t, user.ID, p, 1)

	_, err := uc.HandleNotification(f.ctx, notification(ref, "tx-1", "settlement", "1000.00"))
	requireHTTPError(t, err, http.StatusBadRequest, "gross_amount mismatch")

	assert.Equal(t, model.OrderStatusPending, f.orderStatus(t, o.ID))
	assert.Equal(t, int64(0), f.count(t, &model.PaymentNotification{}))
}

func TestPaymentUsecase_UnknownOrderAndMissingFields(t *testing.T) {
	f, uc := newPaymentFixture(t)

	_, err := uc.HandleNotification(f.ctx, notification("ORD-404-xxxx", "tx-1", "settlement", "1000"))
	requireHTTPError(t, err, http.StatusNotFound, "")

	_, err = uc.HandleNotification(f.ctx, usecase.PaymentNotificationInput{OrderID: "ORD-1"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid notification")

	_, err = uc.HandleNotification(f.ctx, notification("ORD-1-x", "tx-1", "settlement", "12.50"))
	requireHTTPError(t, err, http.StatusBadRequest, "invalid gross_amount")
}

// =====================
// ステータス変換
// =====================

func TestMapTransactionStatus(t *testing.T) {
	cases := []struct {
		status string
		fraud  string
		want   model.OrderStatus
	}{
		{"settlement", "", model.OrderStatusApprove},
		{"capture", "accept", model.OrderStatusApprove},
		{"capture", "", model.OrderStatusApprove},
		{"capture", "challenge", ""},
		{"pending", "", ""},
		{"deny", "", model.OrderStatusCancel},
		{"cancel", "", model.OrderStatusCancel},
		{"EXPIRE", "", model.OrderStatusCancel},
		{"failure", "", model.OrderStatusCancel},
		{"refund", "", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, usecase.MapTransactionStatus(tc.status, tc.fraud), tc.status+"/"+tc.fraud)
	}
}

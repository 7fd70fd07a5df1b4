package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db/testdb"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// Mock: PaymentGateway
// =====================

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateTransaction(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(usecase.PaymentSession)
	return s, args.Error(1)
}

func (m *MockPaymentGateway) VerifySignature(orderRef string, statusCode string, grossAmount string, signature string) bool {
	args := m.Called(orderRef, statusCode, grossAmount, signature)
	return args.Bool(0)
}

var _ usecase.PaymentGateway = (*MockPaymentGateway)(nil)

// =====================
// Fixture（SQLite）
// =====================

type fixture struct {
	db  *gorm.DB
	ctx context.Context

	users         repo.UserRepository
	products      *infraRepo.ProductGormRepository
	cartItems     *infraRepo.CartItemGormRepository
	orders        *infraRepo.OrderGormRepository
	productOrders *infraRepo.ProductOrderGormRepository
	notifications *infraRepo.PaymentNotificationGormRepository
	tx            *infraRepo.TxManagerGorm
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testdb.New(t)
	return &fixture{
		db:            gdb,
		ctx:           context.Background(),
		users:         infraRepo.NewUserGormRepository(gdb),
		products:      infraRepo.NewProductGormRepository(gdb),
		cartItems:     infraRepo.NewCartItemGormRepository(gdb),
		orders:        infraRepo.NewOrderGormRepository(gdb),
		productOrders: infraRepo.NewProductOrderGormRepository(gdb),
		notifications: infraRepo.NewPaymentNotificationGormRepository(gdb),
		tx:            infraRepo.NewTxManagerGorm(gdb),
	}
}

func (f *fixture) orderUC(gw usecase.PaymentGateway) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(f.tx, f.orders, f.productOrders, f.cartItems, f.products, gw)
}

func (f *fixture) cartUC() *usecase.CartUsecase {
	return usecase.NewCartUsecase(f.cartItems, f.products)
}

func (f *fixture) adminOrderUC() *usecase.AdminOrderUsecase {
	return usecase.NewAdminOrderUsecase(f.tx, f.orders, f.productOrders, f.notifications)
}

func (f *fixture) paymentUC(gw usecase.PaymentGateway) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(f.tx, gw)
}

func (f *fixture) productUC() *usecase.ProductUsecase {
	return usecase.NewProductUsecase(f.products, f.tx, 2<<20)
}

func (f *fixture) createUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		FirstName:    "Test",
		LastName:     "User",
	}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) createProduct(t *testing.T, name string, category string, price int64, stock int64, active bool) model.Product {
	t.Helper()
	p, err := f.products.Create(f.ctx, model.Product{
		Name:     name,
		Category: category,
		Price:    price,
		Stock:    stock,
		IsActive: active,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stockOf(t *testing.T, productID int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.Unscoped().First(&p, productID).Error)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func requireHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	he, found := usecase.AsHTTPError(err)
	require.True(t, found, "expected HTTPError, got %v", err)
	require.Equal(t, status, he.Status)
	if msg != "" {
		require.Equal(t, msg, he.Message)
	}
}

package usecase_test

import (
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardUsecase_SummaryAndAuditLogs(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin@test.com", model.RoleAdmin)
	user := f.createUser(t, "buyer@test.com", model.RoleUser)
	p := f.createProduct(t, "Lamp", "Furniture", 20000, 10, true)
	f.createProduct(t, "Empty", "Furniture", 20000, 0, true)

	o1 := placeCOD(t, f, user.ID, p.ID, 2)
	placeCOD(t, f, user.ID, p.ID, 1)
	require.NoError(t, f.adminOrderUC().UpdateStatus(f.ctx, admin.ID, o1.ID, "APPROVE"))

	uc := usecase.NewDashboardUsecase(f.users, f.products, f.orders, infraRepo.NewAuditLogGormRepository(f.db))

	s, err := uc.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Users)
	assert.Equal(t, int64(1), s.ActiveProducts)
	assert.Equal(t, int64(1), s.OutOfStockProducts)
	assert.Equal(t, int64(2), s.Orders)
	assert.Equal(t, int64(1), s.PendingOrders)
	assert.Equal(t, int64(1), s.ApprovedOrders)
	assert.Equal(t, int64(40000), s.ApprovedRevenue)

	logs, err := uc.AuditLogs(f.ctx, usecase.AuditLogFilterInput{ResourceType: "ORDER"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, o1.ID, logs[0].ResourceID)

	none, err := uc.AuditLogs(f.ctx, usecase.AuditLogFilterInput{Action: "delete_product"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = uc.AuditLogs(f.ctx, usecase.AuditLogFilterInput{ResourceType: "cart"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid resource_type")
}

package usecase

import (
	"context"
	"testing"

	"fulfillment/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 注文・ユーザー双方の監査行を作る
func seedAudits(t *testing.T, f *fixture) (admin model.User, buyer model.User, order OrderOutput) {
	t.Helper()
	ctx := context.Background()

	admin = f.user(t, "boss", model.RoleAdmin)
	buyer = f.user(t, "alice", model.RoleUser)
	p := f.product(t, "Pen", "1.00", 20)

	order = f.placeOrder(t, buyer, map[int64]int64{p.ID: 1})
	_, err := f.orders.TransitionOrder(ctx, admin, order.ID, "CONFIRMED")
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	_, err = f.admin.SetUserRoles(ctx, admin, buyer.ID, []string{"USER", "SHIPPER"})
	require.NoError(t, err)
	return admin, buyer, order
}

func TestAuditList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, buyer, order := seedAudits(t, f)

	all, err := f.audit.List(ctx, ListAuditLogsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	require.Len(t, all.Items, 3)
	assert.Equal(t, 50, all.Limit)
	// 新しい順
	assert.Equal(t, model.AuditActionUpdateUserRoles, all.Items[0].Action)

	cancels, err := f.audit.List(ctx, ListAuditLogsInput{Action: "cancel_order", ResourceType: "ORDER"})
	require.NoError(t, err)
	require.Len(t, cancels.Items, 1)
	assert.Equal(t, order.ID, cancels.Items[0].ResourceID)
	assert.Equal(t, buyer.ID, cancels.Items[0].ActorUserID)

	byActor, err := f.audit.List(ctx, ListAuditLogsInput{ActorUserID: &admin.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byActor.Total)

	page, err := f.audit.List(ctx, ListAuditLogsInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.AuditActionCancelOrder, page.Items[0].Action)
}

func TestAuditList_OrderHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, order := seedAudits(t, f)

	// 注文IDとユーザーIDが同じ値でも混ざらない
	history, err := f.audit.List(ctx, ListAuditLogsInput{ResourceType: "order", ResourceID: &order.ID})
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	for _, al := range history.Items {
		assert.Equal(t, model.AuditResourceOrder, al.ResourceType)
	}

	// 操作から対象の種類が決まる
	statusOnly, err := f.audit.List(ctx, ListAuditLogsInput{Action: "UPDATE_ORDER_STATUS, CANCEL_ORDER", ResourceID: &order.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), statusOnly.Total)

	userRows, err := f.audit.List(ctx, ListAuditLogsInput{ResourceType: "user", ResourceID: &buyer.ID})
	require.NoError(t, err)
	require.Len(t, userRows.Items, 1)
	assert.Equal(t, model.AuditActionUpdateUserRoles, userRows.Items[0].Action)
}

func TestAuditList_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := int64(1)

	cases := []struct {
		name string
		in   ListAuditLogsInput
	}{
		{"bad from", ListAuditLogsInput{From: "yesterday"}},
		{"limit too large", ListAuditLogsInput{Limit: 201}},
		{"negative offset", ListAuditLogsInput{Offset: -1}},
		{"unknown action", ListAuditLogsInput{Action: "DROP_TABLE"}},
		{"unknown resource", ListAuditLogsInput{ResourceType: "product"}},
		{"action for other resource", ListAuditLogsInput{Action: "CANCEL_ORDER", ResourceType: "user"}},
		{"id without resource", ListAuditLogsInput{ResourceID: &id}},
		{"id with mixed actions", ListAuditLogsInput{Action: "CANCEL_ORDER,UPDATE_USER_ROLES", ResourceID: &id}},
		{"reversed range", ListAuditLogsInput{From: "2025-02-01T00:00:00Z", To: "2025-01-01T00:00:00Z"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.audit.List(ctx, tc.in)
			requireKind(t, err, KindValidation, CodeInvalidInput)
		})
	}

	out, err := f.audit.List(ctx, ListAuditLogsInput{From: "2025-01-01T00:00:00Z", To: "2025-02-01T00:00:00+09:00"})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Zero(t, out.Total)
}

package repository

import (
	"context"
	"testing"
	"time"

	"funnel-engine/internal/model"
	"funnel-engine/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchase(id, member, flow string, node, session *string, at time.Time) *model.Purchase {
	return &model.Purchase{
		ID:           id,
		FlowID:       flow,
		CompanyID:    "co-1",
		MemberID:     member,
		NodeID:       node,
		PlanID:       "plan_x",
		PurchaseType: model.PurchaseUpsell,
		Amount:       decimal.RequireFromString("19.99"),
		Currency:     "USD",
		SessionID:    session,
		CreatedAt:    at,
	}
}

func strPtr(s string) *string { return &s }

func TestPurchaseRepository_FindBySession(t *testing.T) {
	repo := NewPurchaseRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	now := testutil.Epoch

	require.NoError(t, repo.Create(ctx, purchase("p1", "mem-1", "flow-1", nil, strPtr("s1"), now)))
	require.NoError(t, repo.Create(ctx, purchase("p2", "mem-1", "flow-1", strPtr("n1"), strPtr("s1"), now.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, purchase("p3", "mem-1", "flow-1", strPtr("n1"), strPtr("s2"), now)))
	require.NoError(t, repo.Create(ctx, purchase("p4", "mem-1", "flow-1", strPtr("n2"), nil, now)))

	got, err := repo.FindBySession(ctx, "mem-1", "flow-1", "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)
	assert.True(t, decimal.RequireFromString("19.99").Equal(got[0].Amount))
}

func TestPurchaseRepository_FindSince(t *testing.T) {
	repo := NewPurchaseRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	now := testutil.Epoch

	require.NoError(t, repo.Create(ctx, purchase("old", "mem-1", "flow-1", nil, nil, now.Add(-45*time.Minute))))
	require.NoError(t, repo.Create(ctx, purchase("new2", "mem-1", "flow-1", strPtr("n1"), nil, now.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, purchase("new1", "mem-1", "flow-1", nil, nil, now.Add(-10*time.Minute))))
	require.NoError(t, repo.Create(ctx, purchase("other", "mem-2", "flow-1", nil, nil, now)))

	got, err := repo.FindSince(ctx, "mem-1", "flow-1", now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new1", got[0].ID)
	assert.Equal(t, "new2", got[1].ID)
}

func TestPurchaseRepository_ExistsForNode(t *testing.T) {
	repo := NewPurchaseRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, purchase("p1", "mem-1", "flow-1", strPtr("n1"), strPtr("s1"), testutil.Epoch)))

	ok, err := repo.ExistsForNode(ctx, "mem-1", "n1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsForNode(ctx, "mem-1", "n1", "s2")
	require.NoError(t, err)
	assert.False(t, ok)
}

package service

import (
	"context"
	"testing"
	"time"

	"funnel-engine/internal/dto"
	"funnel-engine/internal/model"
	"funnel-engine/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseService_TrackThenListBySession(t *testing.T) {
	f := newFixture(t, CheckoutOptions{})
	ctx := context.Background()
	svc := NewPurchaseService(f.purchaseRepo, f.flowRepo, 30*time.Minute,
		func() time.Time { return testutil.Epoch }, discard)

	require.NoError(t, svc.TrackPurchase(ctx, &dto.TrackPurchaseRequest{
		FlowID:       "flow-1",
		MemberID:     "mem-1",
		PurchaseType: "initial",
		NodeID:       "ignored-for-initial",
		Amount:       decimal.RequireFromString("49.00"),
		SessionID:    "sess-1",
	}))
	require.NoError(t, svc.TrackPurchase(ctx, &dto.TrackPurchaseRequest{
		FlowID:       "flow-1",
		MemberID:     "mem-1",
		PurchaseType: "upsell",
		NodeID:       "up0",
		Amount:       decimal.RequireFromString("29.00"),
		SessionID:    "sess-2",
	}))

	views, err := svc.GetPurchases(ctx, "mem-1", "flow-1", "sess-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Starter Course", views[0].ProductName)
	assert.Empty(t, views[0].NodeID)
	assert.Equal(t, "USD", views[0].Currency)

	views, err = svc.GetPurchases(ctx, "mem-1", "flow-1", "sess-2")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Offer up0", views[0].ProductName)
	assert.Equal(t, "up0", views[0].NodeID)
}

func TestPurchaseService_WindowWithoutSession(t *testing.T) {
	f := newFixture(t, CheckoutOptions{})
	ctx := context.Background()
	now := testutil.Epoch
	svc := NewPurchaseService(f.purchaseRepo, f.flowRepo, 30*time.Minute,
		func() time.Time { return now }, discard)

	node := "down"
	for _, p := range []*model.Purchase{
		{ID: "stale", FlowID: "flow-1", MemberID: "mem-1", PurchaseType: model.PurchaseInitial, Amount: decimal.NewFromInt(49), Currency: "USD", CreatedAt: now.Add(-31 * time.Minute)},
		{ID: "fresh", FlowID: "flow-1", MemberID: "mem-1", NodeID: &node, PurchaseType: model.PurchaseDownsell, Amount: decimal.NewFromInt(9), Currency: "USD", CreatedAt: now.Add(-5 * time.Minute)},
		{ID: "other-flow", FlowID: "flow-9", MemberID: "mem-1", PurchaseType: model.PurchaseInitial, Amount: decimal.NewFromInt(1), Currency: "USD", CreatedAt: now},
	} {
		require.NoError(t, f.purchaseRepo.Create(ctx, p))
	}

	views, err := svc.GetPurchases(ctx, "mem-1", "flow-1", "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "fresh", views[0].ID)
	assert.Equal(t, "Offer down", views[0].ProductName)
}

func TestPurchaseService_PlaceholderNames(t *testing.T) {
	f := newFixture(t, CheckoutOptions{})
	ctx := context.Background()
	svc := NewPurchaseService(f.purchaseRepo, f.flowRepo, 30*time.Minute,
		func() time.Time { return testutil.Epoch }, discard)

	// flow-gone has purchases but no flow row to name them from
	require.NoError(t, svc.TrackPurchase(ctx, &dto.TrackPurchaseRequest{
		FlowID:       "flow-gone",
		MemberID:     "mem-1",
		PurchaseType: "upsell",
		NodeID:       "n1",
		Amount:       decimal.NewFromInt(5),
		SessionID:    "sess-1",
	}))

	views, err := svc.GetPurchases(ctx, "mem-1", "flow-gone", "sess-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, PlaceholderProductName, views[0].ProductName)
}

func TestPurchaseService_Validation(t *testing.T) {
	f := newFixture(t, CheckoutOptions{})
	ctx := context.Background()
	svc := NewPurchaseService(f.purchaseRepo, f.flowRepo, 30*time.Minute, nil, discard)

	_, err := svc.GetPurchases(ctx, "", "flow-1", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = svc.TrackPurchase(ctx, &dto.TrackPurchaseRequest{FlowID: "flow-1", MemberID: "mem-1", PurchaseType: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

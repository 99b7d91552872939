package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"funnel-engine/internal/client"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/model"
	"funnel-engine/internal/repository"
	"funnel-engine/internal/testutil"

	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProcessor struct {
	mu        sync.Mutex
	setups    []*client.SetupCheckoutRequest
	charges   []*client.ChargeRequest
	methods   []string
	chargeErr error
}

func (p *fakeProcessor) CreateSetupCheckout(_ context.Context, req *client.SetupCheckoutRequest) (*client.SetupCheckout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setups = append(p.setups, req)
	return &client.SetupCheckout{ID: "SETUP-" + req.FlowID, ApproveURL: "https://paypal.test/approve"}, nil
}

func (p *fakeProcessor) ListPaymentMethods(_ context.Context, _ string) ([]string, error) {
	return p.methods, nil
}

func (p *fakeProcessor) Charge(_ context.Context, req *client.ChargeRequest) (*client.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	p.charges = append(p.charges, req)
	return &client.ChargeResult{PaymentID: "CAP-1", Status: client.ChargeStatusPaid}, nil
}

func (p *fakeProcessor) chargeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charges)
}

type chanTracker struct {
	events chan OfferEvent
}

func (t *chanTracker) Track(_ context.Context, event OfferEvent) error {
	t.events <- event
	return nil
}

func (t *chanTracker) next(tb testing.TB) OfferEvent {
	tb.Helper()
	select {
	case ev := <-t.events:
		return ev
	case <-time.After(2 * time.Second):
		tb.Fatal("no offer event tracked")
		return OfferEvent{}
	}
}

// noWait skips the polling delays but still honors cancellation.
func noWait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type fixture struct {
	processor    *fakeProcessor
	tracker      *chanTracker
	flowRepo     repository.FlowRepository
	purchaseRepo repository.PurchaseRepository
	vaultRepo    repository.VaultRepository
	identityRepo repository.PendingIdentityRepository
	checkout     CheckoutService
}

// newFixture seeds flow-1: up0 (29.00) accept -> cross (free), up0 decline ->
// down (9.00). down has no edges and falls back to cross, then confirmation.
func newFixture(t *testing.T, opts CheckoutOptions) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	f := &fixture{
		processor:    &fakeProcessor{},
		tracker:      &chanTracker{events: make(chan OfferEvent, 16)},
		flowRepo:     repository.NewFlowRepository(db),
		purchaseRepo: repository.NewPurchaseRepository(db),
		vaultRepo:    repository.NewVaultRepository(db),
		identityRepo: repository.NewPendingIdentityRepository(db),
	}

	require.NoError(t, f.flowRepo.Create(ctx, testutil.Flow("flow-1",
		testutil.Node("flow-1", "up0", model.NodeKindUpsell, 0, "29.00"),
		testutil.Node("flow-1", "down", model.NodeKindDownsell, 0, "9.00"),
		testutil.Node("flow-1", "cross", model.NodeKindCrossSell, 0, "0"),
	)))
	require.NoError(t, f.flowRepo.CreateEdges(ctx, []*model.FlowEdge{
		testutil.NodeEdge("flow-1", "e1", "up0", model.ActionAccept, "cross"),
		testutil.NodeEdge("flow-1", "e2", "up0", model.ActionDecline, "down"),
	}))

	resolver := funnel.NewIdentityResolver(f.identityRepo, 3, time.Second, time.Second,
		funnel.WithSleep(noWait), funnel.WithLogger(discard))
	identitySvc := NewIdentityService(resolver, repository.NewMemoryIdentityCache(), discard)

	if opts.Now == nil {
		opts.Now = func() time.Time { return testutil.Epoch }
	}
	f.checkout = NewCheckoutService(f.processor, NewFlowService(f.flowRepo), identitySvc,
		f.purchaseRepo, f.vaultRepo, f.tracker, discard, opts)
	return f
}

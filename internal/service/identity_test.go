package service

import (
	"context"
	"testing"
	"time"

	"funnel-engine/internal/funnel"
	"funnel-engine/internal/model"
	"funnel-engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	rec   *model.PendingIdentity
	calls int
}

func (r *countingReader) FindByCheckoutConfig(_ context.Context, _ string) (*model.PendingIdentity, error) {
	r.calls++
	return r.rec, nil
}

func (r *countingReader) FindByEmail(_ context.Context, _, _ string) (*model.PendingIdentity, error) {
	return nil, nil
}

func newIdentityService(reader funnel.PendingIdentityReader) (IdentityService, repository.IdentityCache) {
	cache := repository.NewMemoryIdentityCache()
	resolver := funnel.NewIdentityResolver(reader, 2, time.Second, time.Second,
		funnel.WithSleep(noWait), funnel.WithLogger(discard))
	return NewIdentityService(resolver, cache, discard), cache
}

func TestIdentityService_ExplicitMemberSkipsLookup(t *testing.T) {
	reader := &countingReader{}
	svc, _ := newIdentityService(reader)

	id, err := svc.ResolveMember(context.Background(), IdentityRequest{MemberID: "mem-1", CheckoutConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Equal(t, "mem-1", id.MemberID)
	assert.Zero(t, reader.calls)
}

func TestIdentityService_CachesPerSession(t *testing.T) {
	reader := &countingReader{rec: &model.PendingIdentity{CheckoutConfigID: "cfg-1", MemberID: "mem-7"}}
	svc, cache := newIdentityService(reader)
	ctx := context.Background()

	req := IdentityRequest{CheckoutConfigID: "cfg-1", SessionID: "sess-1"}
	id, err := svc.ResolveMember(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "mem-7", id.MemberID)

	cached, err := cache.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "mem-7", cached.MemberID)

	_, err = svc.ResolveMember(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls, "second resolve served from cache")
}

func TestIdentityService_NotFound(t *testing.T) {
	reader := &countingReader{}
	svc, _ := newIdentityService(reader)

	_, err := svc.ResolveMember(context.Background(), IdentityRequest{CheckoutConfigID: "cfg-1"})
	assert.ErrorIs(t, err, funnel.ErrIdentityNotFound)
	assert.Equal(t, 2, reader.calls)
}

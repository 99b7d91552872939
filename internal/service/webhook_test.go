package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"funnel-engine/internal/client"
	"funnel-engine/internal/dto"
	"funnel-engine/internal/repository"
	"funnel-engine/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaypal struct {
	fakeProcessor
	verifyErr error
}

func (p *fakePaypal) VerifyWebhookSignature(_ context.Context, _ http.Header, _ []byte) error {
	return p.verifyErr
}

type fakeBraintree struct {
	fakeProcessor
}

func (b *fakeBraintree) VaultPaymentMethod(_ context.Context, nonce, _ string) (*client.VaultResult, error) {
	return &client.VaultResult{CustomerID: "bt-cust-1", PaymentToken: "bt-tok-" + nonce}, nil
}

const tokenCreated = `{
	"id": "WH-1",
	"event_type": "VAULT.PAYMENT-TOKEN.CREATED",
	"resource": {
		"id": "vault-77",
		"customer": {"id": "cust-77"},
		"metadata": {"setup_token": "SETUP-77"},
		"payment_source": {"paypal": {"email_address": "buyer@example.com"}}
	}
}`

func newWebhookFixture(t *testing.T, paypal *fakePaypal) (WebhookService, repository.PendingIdentityRepository, repository.VaultRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	identityRepo := repository.NewPendingIdentityRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	svc := NewWebhookService(paypal, &fakeBraintree{}, identityRepo, vaultRepo,
		repository.NewWebhookEventRepository(db), discard)
	return svc, identityRepo, vaultRepo
}

func TestWebhookService_PaymentTokenCreated(t *testing.T) {
	svc, identityRepo, vaultRepo := newWebhookFixture(t, &fakePaypal{})
	ctx := context.Background()

	require.NoError(t, svc.HandlePaypalWebhook(ctx, http.Header{}, []byte(tokenCreated)))

	rec, err := identityRepo.FindByCheckoutConfig(ctx, "SETUP-77")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "cust-77", rec.MemberID)
	assert.Equal(t, "buyer@example.com", rec.Email)
	assert.Equal(t, "SETUP-77", rec.SetupIntentID)

	vaultID, err := vaultRepo.GetVaultID(ctx, "cust-77")
	require.NoError(t, err)
	assert.Equal(t, "vault-77", vaultID)

	// redelivery is acknowledged without reprocessing
	require.NoError(t, svc.HandlePaypalWebhook(ctx, http.Header{}, []byte(tokenCreated)))
}

func TestWebhookService_RejectsBadSignature(t *testing.T) {
	svc, identityRepo, _ := newWebhookFixture(t, &fakePaypal{verifyErr: errors.New("forged")})
	ctx := context.Background()

	assert.Error(t, svc.HandlePaypalWebhook(ctx, http.Header{}, []byte(tokenCreated)))

	rec, err := identityRepo.FindByCheckoutConfig(ctx, "SETUP-77")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestWebhookService_VaultBraintree(t *testing.T) {
	svc, identityRepo, vaultRepo := newWebhookFixture(t, &fakePaypal{})
	ctx := context.Background()

	resp, err := svc.VaultBraintree(ctx, &dto.BraintreeVaultRequest{CheckoutConfigID: "cfg-bt", Nonce: "n1", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bt-cust-1", resp.MemberID)

	rec, err := identityRepo.FindByCheckoutConfig(ctx, "cfg-bt")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "bt-cust-1", rec.MemberID)

	vaultID, err := vaultRepo.GetVaultID(ctx, "bt-cust-1")
	require.NoError(t, err)
	assert.Equal(t, "bt-tok-n1", vaultID)

	_, err = svc.VaultBraintree(ctx, &dto.BraintreeVaultRequest{CheckoutConfigID: "cfg-bt"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

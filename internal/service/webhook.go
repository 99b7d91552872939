package service

import (
	"context"
	"encoding/json"
	"fmt"
	"funnel-engine/internal/client"
	"funnel-engine/internal/dto"
	"funnel-engine/internal/model"
	"funnel-engine/internal/repository"
	"log/slog"
	"net/http"
)

const eventPaymentTokenCreated = "VAULT.PAYMENT-TOKEN.CREATED"

// WebhookService turns processor notifications into pending identities, the
// rows the identity resolver polls for.
type WebhookService interface {
	HandlePaypalWebhook(ctx context.Context, headers http.Header, body []byte) error
	VaultBraintree(ctx context.Context, req *dto.BraintreeVaultRequest) (*dto.IdentityResponse, error)
}

type webhookServiceImpl struct {
	paypalClient     client.PaypalClient
	braintreeClient  client.BraintreeClient
	identityRepo     repository.PendingIdentityRepository
	vaultRepo        repository.VaultRepository
	webhookEventRepo repository.WebhookEventRepository
	logger           *slog.Logger
}

func NewWebhookService(
	paypalClient client.PaypalClient,
	braintreeClient client.BraintreeClient,
	identityRepo repository.PendingIdentityRepository,
	vaultRepo repository.VaultRepository,
	webhookEventRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		paypalClient:     paypalClient,
		braintreeClient:  braintreeClient,
		identityRepo:     identityRepo,
		vaultRepo:        vaultRepo,
		webhookEventRepo: webhookEventRepo,
		logger:           logger,
	}
}

func (s *webhookServiceImpl) HandlePaypalWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if s.paypalClient == nil {
		return fmt.Errorf("paypal is not configured: %w", ErrInvalidRequest)
	}
	if err := s.paypalClient.VerifyWebhookSignature(ctx, headers, body); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	var event model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.logger.InfoContext(ctx, "duplicate webhook ignored", "event_id", event.ID)
		return nil
	}

	switch event.EventType {
	case eventPaymentTokenCreated:
		if err := s.handlePaymentTokenCreated(ctx, &event); err != nil {
			return err
		}
	default:
		s.logger.DebugContext(ctx, "webhook event skipped", "event_id", event.ID, "event_type", event.EventType)
	}

	return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.EventType)
}

func (s *webhookServiceImpl) handlePaymentTokenCreated(ctx context.Context, event *model.PayPalWebhookEvent) error {
	resource := event.Resource
	if resource.ID == "" {
		return fmt.Errorf("missing vault_id in %s", eventPaymentTokenCreated)
	}

	memberID := resource.Customer.ID
	if memberID == "" {
		memberID = resource.PaymentResource.PayPal.PayerID
	}
	if memberID == "" {
		return fmt.Errorf("missing customer id in %s", eventPaymentTokenCreated)
	}

	if err := s.vaultRepo.Create(ctx, &model.MemberVault{
		MemberID: memberID,
		VaultID:  resource.ID,
		Provider: "paypal",
	}); err != nil {
		return fmt.Errorf("save member paypal vault: %w", err)
	}

	checkoutConfigID := resource.Metadata.SetupToken
	if checkoutConfigID == "" {
		// vaulted during a purchase rather than a setup checkout
		checkoutConfigID = resource.Metadata.OrderID
	}
	if checkoutConfigID == "" {
		s.logger.WarnContext(ctx, "payment token without checkout reference", "event_id", event.ID, "member_id", memberID)
		return nil
	}

	if err := s.identityRepo.Upsert(ctx, &model.PendingIdentity{
		CheckoutConfigID: checkoutConfigID,
		MemberID:         memberID,
		Email:            resource.PaymentResource.PayPal.Email,
		SetupIntentID:    resource.Metadata.SetupToken,
	}); err != nil {
		return fmt.Errorf("save pending identity: %w", err)
	}
	return nil
}

func (s *webhookServiceImpl) VaultBraintree(ctx context.Context, req *dto.BraintreeVaultRequest) (*dto.IdentityResponse, error) {
	if s.braintreeClient == nil {
		return nil, fmt.Errorf("braintree is not configured: %w", ErrInvalidRequest)
	}
	if req.CheckoutConfigID == "" || req.Nonce == "" {
		return nil, fmt.Errorf("checkout config and nonce are required: %w", ErrInvalidRequest)
	}

	vault, err := s.braintreeClient.VaultPaymentMethod(ctx, req.Nonce, req.Email)
	if err != nil {
		return nil, fmt.Errorf("braintree vault: %w", err)
	}

	if err := s.vaultRepo.Create(ctx, &model.MemberVault{
		MemberID: vault.CustomerID,
		VaultID:  vault.PaymentToken,
		Provider: "braintree",
	}); err != nil {
		return nil, fmt.Errorf("save member braintree vault: %w", err)
	}

	if err := s.identityRepo.Upsert(ctx, &model.PendingIdentity{
		CheckoutConfigID: req.CheckoutConfigID,
		MemberID:         vault.CustomerID,
		Email:            req.Email,
	}); err != nil {
		return nil, fmt.Errorf("save pending identity: %w", err)
	}

	return &dto.IdentityResponse{
		MemberID: vault.CustomerID,
		Email:    req.Email,
	}, nil
}

package client

import (
	"context"
	"fmt"
	"funnel-engine/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BraintreeClient interface {
	PaymentProcessor

	// VaultPaymentMethod takes a drop-in nonce and creates a customer, returning
	// the customer id and its permanent payment token.
	VaultPaymentMethod(ctx context.Context, nonce, email string) (*VaultResult, error)
}

type VaultResult struct {
	CustomerID   string
	PaymentToken string
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// CreateSetupCheckout hands out a client token for the drop-in. Braintree has
// no server-side setup object, so the checkout id is ours; the vault endpoint
// records the identity against it once the nonce comes back.
func (c *braintreeClientImpl) CreateSetupCheckout(ctx context.Context, req *SetupCheckoutRequest) (*SetupCheckout, error) {
	token, err := c.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate client token: %w", err)
	}

	return &SetupCheckout{
		ID:          uuid.NewString(),
		ClientToken: token,
	}, nil
}

func (c *braintreeClientImpl) VaultPaymentMethod(ctx context.Context, nonce, email string) (*VaultResult, error) {
	req := &braintree.CustomerRequest{
		PaymentMethodNonce: nonce,
		Email:              email,
	}

	customer, err := c.gateway.Customer().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to vault payment method: %w", err)
	}

	if customer.DefaultPaymentMethod() == nil {
		return nil, fmt.Errorf("no default payment method returned from vault")
	}

	return &VaultResult{
		CustomerID:   customer.Id,
		PaymentToken: customer.DefaultPaymentMethod().GetToken(),
	}, nil
}

func (c *braintreeClientImpl) ListPaymentMethods(ctx context.Context, memberID string) ([]string, error) {
	customer, err := c.gateway.Customer().Find(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	var tokens []string
	for _, pm := range customer.PaymentMethods() {
		tokens = append(tokens, pm.GetToken())
	}
	return tokens, nil
}

func (c *braintreeClientImpl) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	// Braintree expects NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
	cents := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	btAmount := braintree.NewDecimal(cents, 2)

	txReq := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		PaymentMethodToken: req.PaymentMethodID,
		CustomerID:         req.MemberID,
		OrderId:            req.PlanID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, txReq)
	if err != nil {
		return nil, &ProcessorError{Message: fmt.Sprintf("transaction creation failed: %v", err)}
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined ||
		tx.Status == braintree.TransactionStatusGatewayRejected {
		return nil, &ProcessorError{Message: fmt.Sprintf("transaction declined by processor: %s", tx.ProcessorResponseText)}
	}

	return &ChargeResult{
		PaymentID: tx.Id,
		Status:    ChargeStatusPaid,
	}, nil
}

package dto

import (
	"funnel-engine/internal/funnel"
	"time"

	"github.com/shopspring/decimal"
)

type SetupCheckoutRequest struct {
	CompanyID string `json:"company_id"`
	FlowID    string `json:"flow_id"`
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type SetupCheckoutResponse struct {
	CheckoutConfigID string `json:"checkout_config_id"`
	ApprovalURL      string `json:"approval_url,omitempty"`
	ClientToken      string `json:"client_token,omitempty"`
}

// DecideRequest is one buyer action on an offer step. An empty NodeID is the
// initial checkout step.
type DecideRequest struct {
	NodeID           string `json:"node_id"`
	Action           string `json:"action"`
	CompanyID        string `json:"company_id"`
	MemberID         string `json:"member_id"`
	Email            string `json:"email"`
	CheckoutConfigID string `json:"checkout_config_id"`
	PaymentMethodID  string `json:"payment_method_id"`
	SessionID        string `json:"session_id"`
	SetupIntentID    string `json:"setup_intent_id"`
	Embedded         bool   `json:"embedded"`
	Origin           string `json:"origin"`
}

type DecideResponse struct {
	Decision funnel.RoutingDecision `json:"decision"`
	Plan     funnel.RedirectPlan    `json:"plan"`
	MemberID string                 `json:"member_id,omitempty"`
	Charged  bool                   `json:"charged"`
	Message  string                 `json:"message,omitempty"`
}

type IdentityResponse struct {
	MemberID      string `json:"member_id"`
	Email         string `json:"email,omitempty"`
	SetupIntentID string `json:"setup_intent_id,omitempty"`
}

type TrackPurchaseRequest struct {
	FlowID       string          `json:"flow_id"`
	CompanyID    string          `json:"company_id"`
	MemberID     string          `json:"member_id"`
	PlanID       string          `json:"plan_id"`
	PurchaseType string          `json:"purchase_type"`
	NodeID       string          `json:"node_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	SessionID    string          `json:"session_id"`
}

type PurchaseView struct {
	ID           string          `json:"id"`
	NodeID       string          `json:"node_id,omitempty"`
	PurchaseType string          `json:"purchase_type"`
	ProductName  string          `json:"product_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	PurchasedAt  time.Time       `json:"purchased_at"`
}

type BraintreeVaultRequest struct {
	CheckoutConfigID string `json:"checkout_config_id"`
	Nonce            string `json:"nonce"`
	Email            string `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package client

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentProcessor is the part of a payment provider the funnel needs.
type PaymentProcessor interface {
	// CreateSetupCheckout saves a card without charging it.
	CreateSetupCheckout(ctx context.Context, req *SetupCheckoutRequest) (*SetupCheckout, error)
	// ListPaymentMethods returns the member's saved instruments, oldest first.
	ListPaymentMethods(ctx context.Context, memberID string) ([]string, error)
	// Charge bills a saved instrument for a plan.
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

type SetupCheckoutRequest struct {
	CompanyID string
	FlowID    string
	ReturnURL string
	CancelURL string
}

type SetupCheckout struct {
	ID          string
	ApproveURL  string
	ClientToken string
}

type ChargeRequest struct {
	MemberID        string
	PlanID          string
	PaymentMethodID string
	Amount          decimal.Decimal
	Currency        string
}

const (
	ChargeStatusPaid = "paid"
	ChargeStatusFree = "free"
)

type ChargeResult struct {
	PaymentID string
	Status    string
}

// ProcessorError is a non-2xx answer from the processor.
type ProcessorError struct {
	StatusCode int
	Message    string
}

func (e *ProcessorError) Error() string {
	return e.Message
}

package funnel

import (
	"errors"
	"fmt"
)

var (
	// ErrOfferUnavailable marks a configuration problem: missing plan, missing
	// redirect URL or a malformed edge target.
	ErrOfferUnavailable = errors.New("this offer isn't available")
	// ErrIdentityNotFound is returned once every identity lookup is exhausted.
	ErrIdentityNotFound = errors.New("we couldn't confirm your payment method")
	// ErrDeadEnd is returned when a decision leads nowhere.
	ErrDeadEnd = errors.New("no next step is configured for this offer")
)

// ChargeError wraps a processor rejection. The buyer stays on the offer.
type ChargeError struct {
	Message string
	Err     error
}

func (e *ChargeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("charge failed: %s", e.Message)
	}
	return fmt.Sprintf("charge failed: %v", e.Err)
}

func (e *ChargeError) Unwrap() error {
	return e.Err
}

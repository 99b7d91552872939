package funnel

import (
	"context"
	"log/slog"
	"time"

	"funnel-engine/internal/model"
)

// Identity is a buyer's resolved account with the processor.
type Identity struct {
	MemberID      string `json:"member_id"`
	Email         string `json:"email,omitempty"`
	SetupIntentID string `json:"setup_intent_id,omitempty"`
}

// PendingIdentityReader reads webhook-populated identity rows.
// A nil record with a nil error means the row is not there yet.
type PendingIdentityReader interface {
	FindByCheckoutConfig(ctx context.Context, checkoutConfigID string) (*model.PendingIdentity, error)
	FindByEmail(ctx context.Context, checkoutConfigID, email string) (*model.PendingIdentity, error)
}

type IdentityResolverOption func(*IdentityResolver)

// WithSleep replaces the timed wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) IdentityResolverOption {
	return func(r *IdentityResolver) {
		r.sleep = sleep
	}
}

func WithLogger(logger *slog.Logger) IdentityResolverOption {
	return func(r *IdentityResolver) {
		r.logger = logger
	}
}

// IdentityResolver bridges the race between the processor's webhook and the
// buyer's page: it polls the pending identity row with bounded retries.
type IdentityResolver struct {
	reader       PendingIdentityReader
	maxAttempts  int
	initialDelay time.Duration
	retryDelay   time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

func NewIdentityResolver(
	reader PendingIdentityReader,
	maxAttempts int,
	initialDelay, retryDelay time.Duration,
	opts ...IdentityResolverOption,
) *IdentityResolver {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r := &IdentityResolver{
		reader:       reader,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		retryDelay:   retryDelay,
		sleep:        sleepContext,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxWait is the longest Resolve can spend waiting between attempts.
func (r *IdentityResolver) MaxWait() time.Duration {
	return r.initialDelay + time.Duration(r.maxAttempts-1)*r.retryDelay
}

// Resolve polls for the member id written against checkoutConfigID. When every
// attempt comes back empty it makes one last lookup by email, scoped to the
// same checkout configuration. It returns ErrIdentityNotFound when nothing
// turns up, or the context error if the buyer went away mid-wait.
func (r *IdentityResolver) Resolve(ctx context.Context, checkoutConfigID, email string) (*Identity, error) {
	if checkoutConfigID != "" {
		for attempt := 1; attempt <= r.maxAttempts; attempt++ {
			delay := r.retryDelay
			if attempt == 1 {
				delay = r.initialDelay
			}
			if err := r.sleep(ctx, delay); err != nil {
				return nil, err
			}

			rec, err := r.reader.FindByCheckoutConfig(ctx, checkoutConfigID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.logger.WarnContext(ctx, "pending identity lookup failed",
					"checkout_config_id", checkoutConfigID,
					"attempt", attempt,
					"error", err,
				)
				continue
			}
			if id := toIdentity(rec); id != nil {
				return id, nil
			}
		}
	}

	if email != "" {
		rec, err := r.reader.FindByEmail(ctx, checkoutConfigID, email)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.WarnContext(ctx, "pending identity email lookup failed",
				"checkout_config_id", checkoutConfigID,
				"error", err,
			)
		} else if id := toIdentity(rec); id != nil {
			return id, nil
		}
	}

	return nil, ErrIdentityNotFound
}

func toIdentity(rec *model.PendingIdentity) *Identity {
	if rec == nil || rec.MemberID == "" {
		return nil
	}
	return &Identity{
		MemberID:      rec.MemberID,
		Email:         rec.Email,
		SetupIntentID: rec.SetupIntentID,
	}
}

// sleepContext waits for d or until ctx is done. The timer is always released.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

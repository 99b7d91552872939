package service

import (
	"context"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/repository"
	"log/slog"
)

type IdentityRequest struct {
	MemberID         string
	CheckoutConfigID string
	Email            string
	SessionID        string
}

type IdentityService interface {
	// ResolveMember tries, in order: the member id the page already has, the
	// identity cached for the session, the webhook row for the checkout
	// configuration, and finally the webhook row by email.
	ResolveMember(ctx context.Context, req IdentityRequest) (*funnel.Identity, error)
}

type identityServiceImpl struct {
	resolver *funnel.IdentityResolver
	cache    repository.IdentityCache
	logger   *slog.Logger
}

func NewIdentityService(
	resolver *funnel.IdentityResolver,
	cache repository.IdentityCache,
	logger *slog.Logger,
) IdentityService {
	return &identityServiceImpl{
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

func (s *identityServiceImpl) ResolveMember(ctx context.Context, req IdentityRequest) (*funnel.Identity, error) {
	if req.MemberID != "" {
		return &funnel.Identity{MemberID: req.MemberID, Email: req.Email}, nil
	}

	if req.SessionID != "" {
		cached, err := s.cache.Get(ctx, req.SessionID)
		if err != nil {
			s.logger.WarnContext(ctx, "identity cache read failed", "session_id", req.SessionID, "error", err)
		} else if cached != nil && cached.MemberID != "" {
			return cached, nil
		}
	}

	identity, err := s.resolver.Resolve(ctx, req.CheckoutConfigID, req.Email)
	if err != nil {
		return nil, err
	}

	if req.SessionID != "" {
		if err := s.cache.Put(ctx, req.SessionID, identity); err != nil {
			s.logger.WarnContext(ctx, "identity cache write failed", "session_id", req.SessionID, "error", err)
		}
	}

	return identity, nil
}

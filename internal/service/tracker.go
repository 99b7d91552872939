package service

import (
	"context"
	"log/slog"
)

type OfferEvent struct {
	Name      string
	CompanyID string
	FlowID    string
	NodeID    string
	MemberID  string
	SessionID string
}

// Tracker receives analytics events. Failures never affect routing.
type Tracker interface {
	Track(ctx context.Context, event OfferEvent) error
}

type logTracker struct {
	logger *slog.Logger
}

func NewLogTracker(logger *slog.Logger) Tracker {
	return &logTracker{logger: logger}
}

func (t *logTracker) Track(ctx context.Context, event OfferEvent) error {
	t.logger.InfoContext(ctx, "offer event",
		"event", event.Name,
		"company_id", event.CompanyID,
		"flow_id", event.FlowID,
		"node_id", event.NodeID,
		"member_id", event.MemberID,
		"session_id", event.SessionID,
	)
	return nil
}

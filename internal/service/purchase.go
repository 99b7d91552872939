package service

import (
	"context"
	"fmt"
	"funnel-engine/internal/dto"
	"funnel-engine/internal/model"
	"funnel-engine/internal/repository"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PlaceholderProductName is shown when a purchase's product can't be named.
const PlaceholderProductName = "Your purchase"

type PurchaseService interface {
	// GetPurchases returns the purchases of one visit. With a session id the
	// match is exact; without one it falls back to the member's purchases in
	// this flow within the attribution window.
	GetPurchases(ctx context.Context, memberID, flowID, sessionID string) ([]*dto.PurchaseView, error)
	TrackPurchase(ctx context.Context, req *dto.TrackPurchaseRequest) error
}

type purchaseServiceImpl struct {
	purchaseRepo repository.PurchaseRepository
	flowRepo     repository.FlowRepository
	window       time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	flowRepo repository.FlowRepository,
	window time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) PurchaseService {
	if now == nil {
		now = time.Now
	}
	return &purchaseServiceImpl{
		purchaseRepo: purchaseRepo,
		flowRepo:     flowRepo,
		window:       window,
		now:          now,
		logger:       logger,
	}
}

func (s *purchaseServiceImpl) GetPurchases(ctx context.Context, memberID, flowID, sessionID string) ([]*dto.PurchaseView, error) {
	if memberID == "" || flowID == "" {
		return nil, fmt.Errorf("member and flow are required: %w", ErrInvalidRequest)
	}

	var (
		purchases []*model.Purchase
		err       error
	)
	if sessionID != "" {
		purchases, err = s.purchaseRepo.FindBySession(ctx, memberID, flowID, sessionID)
	} else {
		since := s.now().UTC().Add(-s.window)
		purchases, err = s.purchaseRepo.FindSince(ctx, memberID, flowID, since)
	}
	if err != nil {
		return nil, fmt.Errorf("find purchases: %w", err)
	}

	names := s.productNames(ctx, flowID)

	views := make([]*dto.PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		view := &dto.PurchaseView{
			ID:           p.ID,
			PurchaseType: string(p.PurchaseType),
			Amount:       p.Amount,
			Currency:     p.Currency,
			PurchasedAt:  p.CreatedAt,
			ProductName:  PlaceholderProductName,
		}

		key := ""
		if p.NodeID != nil {
			view.NodeID = *p.NodeID
			key = *p.NodeID
		}
		if name := names[key]; name != "" {
			view.ProductName = name
		}

		views = append(views, view)
	}

	return views, nil
}

// productNames maps node id to title, with "" holding the initial product.
// A failed lookup yields an empty map so every purchase gets the placeholder.
func (s *purchaseServiceImpl) productNames(ctx context.Context, flowID string) map[string]string {
	names := make(map[string]string)

	flow, err := s.flowRepo.GetFlow(ctx, flowID)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve product names failed", "flow_id", flowID, "error", err)
		return names
	}

	names[""] = flow.InitialProductName
	for _, n := range flow.Nodes {
		names[n.ID] = n.Title
	}
	return names
}

func (s *purchaseServiceImpl) TrackPurchase(ctx context.Context, req *dto.TrackPurchaseRequest) error {
	if req.FlowID == "" || req.MemberID == "" {
		return fmt.Errorf("flow and member are required: %w", ErrInvalidRequest)
	}

	purchaseType := model.PurchaseType(req.PurchaseType)
	switch purchaseType {
	case model.PurchaseInitial, model.PurchaseUpsell, model.PurchaseDownsell, model.PurchaseCrossSell:
	default:
		return fmt.Errorf("unknown purchase type %q: %w", req.PurchaseType, ErrInvalidRequest)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	purchase := &model.Purchase{
		ID:           uuid.NewString(),
		FlowID:       req.FlowID,
		CompanyID:    req.CompanyID,
		MemberID:     req.MemberID,
		PlanID:       req.PlanID,
		PurchaseType: purchaseType,
		Amount:       req.Amount,
		Currency:     currency,
		CreatedAt:    s.now().UTC(),
	}
	if req.NodeID != "" && purchaseType != model.PurchaseInitial {
		nodeID := req.NodeID
		purchase.NodeID = &nodeID
	}
	if req.SessionID != "" {
		sessionID := req.SessionID
		purchase.SessionID = &sessionID
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return fmt.Errorf("store purchase: %w", err)
	}
	return nil
}

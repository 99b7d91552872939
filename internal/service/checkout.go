package service

import (
	"context"
	"errors"
	"fmt"
	"funnel-engine/internal/client"
	"funnel-engine/internal/dto"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/model"
	"funnel-engine/internal/repository"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type CheckoutService interface {
	CreateSetupCheckout(ctx context.Context, req *dto.SetupCheckoutRequest) (*dto.SetupCheckoutResponse, error)
	// ChargeAndAdvance applies a buyer's accept or decline on a step and
	// redirects them through env. On accept the offer is charged first; a
	// failed charge leaves the buyer where they are.
	ChargeAndAdvance(ctx context.Context, flowID string, req *dto.DecideRequest, env funnel.Environment) (*dto.DecideResponse, error)
}

type CheckoutOptions struct {
	DedupPerSession bool
	// ReturnURL and CancelURL are used when a setup request omits its own.
	ReturnURL string
	CancelURL string
	Now       func() time.Time
}

type checkoutServiceImpl struct {
	processor    client.PaymentProcessor
	flowSvc      FlowService
	identitySvc  IdentityService
	purchaseRepo repository.PurchaseRepository
	vaultRepo    repository.VaultRepository
	tracker      Tracker
	logger       *slog.Logger
	opts         CheckoutOptions
}

func NewCheckoutService(
	processor client.PaymentProcessor,
	flowSvc FlowService,
	identitySvc IdentityService,
	purchaseRepo repository.PurchaseRepository,
	vaultRepo repository.VaultRepository,
	tracker Tracker,
	logger *slog.Logger,
	opts CheckoutOptions,
) CheckoutService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &checkoutServiceImpl{
		processor:    processor,
		flowSvc:      flowSvc,
		identitySvc:  identitySvc,
		purchaseRepo: purchaseRepo,
		vaultRepo:    vaultRepo,
		tracker:      tracker,
		logger:       logger,
		opts:         opts,
	}
}

func (s *checkoutServiceImpl) CreateSetupCheckout(ctx context.Context, req *dto.SetupCheckoutRequest) (*dto.SetupCheckoutResponse, error) {
	if _, err := s.flowSvc.GetGraph(ctx, req.FlowID); err != nil {
		return nil, err
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.opts.ReturnURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.opts.CancelURL
	}

	checkout, err := s.processor.CreateSetupCheckout(ctx, &client.SetupCheckoutRequest{
		CompanyID: req.CompanyID,
		FlowID:    req.FlowID,
		ReturnURL: returnURL,
		CancelURL: cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("processor create setup checkout: %w", err)
	}

	return &dto.SetupCheckoutResponse{
		CheckoutConfigID: checkout.ID,
		ApprovalURL:      checkout.ApproveURL,
		ClientToken:      checkout.ClientToken,
	}, nil
}

func (s *checkoutServiceImpl) ChargeAndAdvance(ctx context.Context, flowID string, req *dto.DecideRequest, env funnel.Environment) (*dto.DecideResponse, error) {
	action := model.Action(req.Action)
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q: %w", req.Action, ErrInvalidRequest)
	}

	graph, err := s.flowSvc.GetGraph(ctx, flowID)
	if err != nil {
		if errors.Is(err, ErrFlowNotFound) {
			s.logger.ErrorContext(ctx, "flow missing for offer", "flow_id", flowID)
			return nil, fmt.Errorf("flow %s: %w", flowID, funnel.ErrOfferUnavailable)
		}
		return nil, err
	}

	var current *model.FlowNode
	if req.NodeID != "" {
		node, ok := graph.Node(req.NodeID)
		if !ok {
			s.logger.ErrorContext(ctx, "offer node missing from flow", "flow_id", flowID, "node_id", req.NodeID)
			return nil, fmt.Errorf("node %s: %w", req.NodeID, funnel.ErrOfferUnavailable)
		}
		current = node
	}

	fc := funnel.Context{
		CompanyID:     req.CompanyID,
		FlowID:        flowID,
		MemberID:      req.MemberID,
		SessionID:     req.SessionID,
		SetupIntentID: req.SetupIntentID,
	}
	if fc.CompanyID == "" {
		fc.CompanyID = graph.Flow.CompanyID
	}

	if action == model.ActionAccept {
		if current != nil && current.PlanID == "" {
			s.logger.ErrorContext(ctx, "offer has no plan configured", "flow_id", flowID, "node_id", current.ID)
			return nil, fmt.Errorf("node %s has no plan: %w", current.ID, funnel.ErrOfferUnavailable)
		}

		if current != nil || (fc.MemberID == "" && (req.CheckoutConfigID != "" || req.SessionID != "")) {
			identity, err := s.identitySvc.ResolveMember(ctx, IdentityRequest{
				MemberID:         req.MemberID,
				CheckoutConfigID: req.CheckoutConfigID,
				Email:            req.Email,
				SessionID:        req.SessionID,
			})
			if err != nil {
				return nil, err
			}
			fc.MemberID = identity.MemberID
			if fc.SetupIntentID == "" {
				fc.SetupIntentID = identity.SetupIntentID
			}
		}
	}

	// The next step is resolved and its URL checked before any money moves.
	decision := funnel.Resolve(graph, current, action)
	if decision.Kind != funnel.DecisionNone {
		if _, err := funnel.BuildURL(decision, fc); err != nil {
			s.logger.ErrorContext(ctx, "next step misconfigured", "flow_id", flowID, "decision", decision.Kind, "error", err)
			return nil, fmt.Errorf("next step: %w", err)
		}
	}

	charged := false
	if action == model.ActionAccept && current != nil {
		charged, err = s.chargeOffer(ctx, graph, current, fc, req.PaymentMethodID)
		if err != nil {
			return nil, err
		}
	}

	s.track(ctx, action, fc, current)

	resp := &dto.DecideResponse{
		Decision: decision,
		MemberID: fc.MemberID,
		Charged:  charged,
	}

	if decision.Kind == funnel.DecisionNone {
		nodeID := ""
		if current != nil {
			nodeID = current.ID
		}
		s.logger.WarnContext(ctx, "offer leads nowhere", "flow_id", flowID, "node_id", nodeID, "action", action)
		resp.Message = funnel.ErrDeadEnd.Error()
		return resp, nil
	}

	plan, err := funnel.Dispatch(decision, fc, env)
	if err != nil {
		if !charged {
			return nil, fmt.Errorf("dispatch redirect: %w", err)
		}
		// paid already: report it so the page does not offer the charge again
		s.logger.ErrorContext(ctx, "redirect after charge failed", "flow_id", flowID, "decision", decision.Kind, "error", err)
		resp.Message = err.Error()
		return resp, nil
	}
	resp.Plan = plan

	return resp, nil
}

// chargeOffer bills the node's plan and records the purchase. It reports
// false without charging when dedup is on and the offer was already bought in
// this session.
func (s *checkoutServiceImpl) chargeOffer(ctx context.Context, graph funnel.Graph, node *model.FlowNode, fc funnel.Context, paymentMethodID string) (bool, error) {
	if s.opts.DedupPerSession && fc.SessionID != "" {
		exists, err := s.purchaseRepo.ExistsForNode(ctx, fc.MemberID, node.ID, fc.SessionID)
		if err != nil {
			s.logger.WarnContext(ctx, "dedup lookup failed", "node_id", node.ID, "error", err)
		} else if exists {
			s.logger.InfoContext(ctx, "offer already purchased in session", "node_id", node.ID, "session_id", fc.SessionID)
			return false, nil
		}
	}

	currency := graph.Flow.Currency
	if currency == "" {
		currency = "USD"
	}

	result := &client.ChargeResult{Status: client.ChargeStatusFree}
	if !node.Price.IsZero() {
		pmID, err := s.paymentMethodFor(ctx, fc.MemberID, paymentMethodID)
		if err != nil {
			return false, err
		}

		result, err = s.processor.Charge(ctx, &client.ChargeRequest{
			MemberID:        fc.MemberID,
			PlanID:          node.PlanID,
			PaymentMethodID: pmID,
			Amount:          node.Price,
			Currency:        currency,
		})
		if err != nil {
			var procErr *client.ProcessorError
			if errors.As(err, &procErr) {
				return false, &funnel.ChargeError{Message: procErr.Message, Err: err}
			}
			return false, &funnel.ChargeError{Err: err}
		}
	}

	nodeID := node.ID
	purchase := &model.Purchase{
		ID:           uuid.NewString(),
		FlowID:       graph.Flow.ID,
		CompanyID:    fc.CompanyID,
		MemberID:     fc.MemberID,
		NodeID:       &nodeID,
		PlanID:       node.PlanID,
		PurchaseType: model.PurchaseTypeFor(node.Kind),
		Amount:       node.Price,
		Currency:     currency,
		PaymentID:    result.PaymentID,
		CreatedAt:    s.opts.Now().UTC(),
	}
	if fc.SessionID != "" {
		sessionID := fc.SessionID
		purchase.SessionID = &sessionID
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		s.logger.ErrorContext(ctx, "record purchase failed",
			"flow_id", purchase.FlowID,
			"node_id", nodeID,
			"member_id", purchase.MemberID,
			"payment_id", purchase.PaymentID,
			"error", err,
		)
	}

	return true, nil
}

// paymentMethodFor prefers the explicit id, then the member's vaulted
// instrument, then the first method the processor has on file.
func (s *checkoutServiceImpl) paymentMethodFor(ctx context.Context, memberID, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	vaultID, err := s.vaultRepo.GetVaultID(ctx, memberID)
	if err != nil {
		s.logger.WarnContext(ctx, "vault lookup failed", "member_id", memberID, "error", err)
	}
	if vaultID != "" {
		return vaultID, nil
	}

	methods, err := s.processor.ListPaymentMethods(ctx, memberID)
	if err != nil {
		return "", fmt.Errorf("list payment methods: %w", funnel.ErrIdentityNotFound)
	}
	if len(methods) == 0 {
		return "", fmt.Errorf("no saved payment method for member %s: %w", memberID, funnel.ErrIdentityNotFound)
	}
	return methods[0], nil
}

func (s *checkoutServiceImpl) track(ctx context.Context, action model.Action, fc funnel.Context, node *model.FlowNode) {
	event := OfferEvent{
		Name:      "offer_" + string(action),
		CompanyID: fc.CompanyID,
		FlowID:    fc.FlowID,
		MemberID:  fc.MemberID,
		SessionID: fc.SessionID,
	}
	if node != nil {
		event.NodeID = node.ID
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.tracker.Track(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "track offer event failed", "event", event.Name, "error", err)
		}
	}()
}

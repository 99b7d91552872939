package service

import (
	"context"
	"errors"
	"fmt"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/repository"

	"gorm.io/gorm"
)

var ErrFlowNotFound = errors.New("flow not found")

type FlowService interface {
	GetGraph(ctx context.Context, flowID string) (funnel.Graph, error)
	// DeleteNode removes a node owned by companyID along with its edges.
	DeleteNode(ctx context.Context, companyID, flowID, nodeID string) error
}

type flowServiceImpl struct {
	flowRepo repository.FlowRepository
}

func NewFlowService(flowRepo repository.FlowRepository) FlowService {
	return &flowServiceImpl{
		flowRepo: flowRepo,
	}
}

func (s *flowServiceImpl) GetGraph(ctx context.Context, flowID string) (funnel.Graph, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return funnel.Graph{}, ErrFlowNotFound
		}
		return funnel.Graph{}, fmt.Errorf("get flow: %w", err)
	}

	edges, err := s.flowRepo.ListEdges(ctx, flowID)
	if err != nil {
		return funnel.Graph{}, fmt.Errorf("list edges: %w", err)
	}

	return funnel.NewGraph(flow, edges), nil
}

func (s *flowServiceImpl) DeleteNode(ctx context.Context, companyID, flowID, nodeID string) error {
	flow, err := s.flowRepo.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFlowNotFound
		}
		return fmt.Errorf("get flow: %w", err)
	}
	if flow.CompanyID != companyID {
		return ErrFlowNotFound
	}

	if err := s.flowRepo.DeleteNode(ctx, flowID, nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFlowNotFound
		}
		return fmt.Errorf("delete node: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"funnel-engine/internal/model"

	"gorm.io/gorm"
)

type FlowRepository interface {
	Create(ctx context.Context, flow *model.Flow) error
	CreateEdges(ctx context.Context, edges []*model.FlowEdge) error
	GetFlow(ctx context.Context, flowID string) (*model.Flow, error)
	ListEdges(ctx context.Context, flowID string) ([]model.FlowEdge, error)
	DeleteNode(ctx context.Context, flowID, nodeID string) error
}

type flowRepoImpl struct {
	db *gorm.DB
}

func NewFlowRepository(db *gorm.DB) FlowRepository {
	return &flowRepoImpl{
		db: db,
	}
}

// nodeOrder sorts by kind precedence, then order index, then creation order.
const nodeOrder = `CASE kind
	WHEN 'upsell' THEN 0
	WHEN 'downsell' THEN 1
	WHEN 'cross_sell' THEN 2
	ELSE 3 END, order_index ASC, created_at ASC, id ASC`

func (r *flowRepoImpl) Create(ctx context.Context, flow *model.Flow) error {
	return r.db.WithContext(ctx).Create(flow).Error
}

func (r *flowRepoImpl) CreateEdges(ctx context.Context, edges []*model.FlowEdge) error {
	if len(edges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&edges).Error
}

func (r *flowRepoImpl) GetFlow(ctx context.Context, flowID string) (*model.Flow, error) {
	var flow model.Flow
	err := r.db.WithContext(ctx).
		Preload("Nodes", func(db *gorm.DB) *gorm.DB {
			return db.Order(nodeOrder)
		}).
		Where("id = ?", flowID).
		First(&flow).Error
	if err != nil {
		return nil, err
	}

	return &flow, nil
}

func (r *flowRepoImpl) ListEdges(ctx context.Context, flowID string) ([]model.FlowEdge, error) {
	var edges []model.FlowEdge
	err := r.db.WithContext(ctx).
		Where("flow_id = ?", flowID).
		Order("created_at ASC, id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	return edges, nil
}

// DeleteNode removes a node and every edge leaving or entering it.
func (r *flowRepoImpl) DeleteNode(ctx context.Context, flowID, nodeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("flow_id = ? AND id = ?", flowID, nodeID).
			Delete(&model.FlowNode{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("flow_id = ? AND (source_node_id = ? OR target_node_id = ?)", flowID, nodeID, nodeID).
			Delete(&model.FlowEdge{}).Error
	})
}

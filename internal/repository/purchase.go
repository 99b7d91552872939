package repository

import (
	"context"
	"funnel-engine/internal/model"
	"time"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	FindBySession(ctx context.Context, memberID, flowID, sessionID string) ([]*model.Purchase, error)
	FindSince(ctx context.Context, memberID, flowID string, since time.Time) ([]*model.Purchase, error)
	ExistsForNode(ctx context.Context, memberID, nodeID, sessionID string) (bool, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *purchaseRepoImpl) FindBySession(ctx context.Context, memberID, flowID, sessionID string) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND flow_id = ? AND session_id = ?", memberID, flowID, sessionID).
		Order("created_at ASC, id ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

func (r *purchaseRepoImpl) FindSince(ctx context.Context, memberID, flowID string, since time.Time) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND flow_id = ? AND created_at >= ?", memberID, flowID, since).
		Order("created_at ASC, id ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

func (r *purchaseRepoImpl) ExistsForNode(ctx context.Context, memberID, nodeID, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("member_id = ? AND node_id = ? AND session_id = ?", memberID, nodeID, sessionID).
		Count(&count).Error

	return count > 0, err
}

package repository

import (
	"context"
	"funnel-engine/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingIdentityRepository interface {
	Upsert(ctx context.Context, identity *model.PendingIdentity) error
	FindByCheckoutConfig(ctx context.Context, checkoutConfigID string) (*model.PendingIdentity, error)
	FindByEmail(ctx context.Context, checkoutConfigID, email string) (*model.PendingIdentity, error)
}

type pendingIdentityRepoImpl struct {
	db *gorm.DB
}

func NewPendingIdentityRepository(db *gorm.DB) PendingIdentityRepository {
	return &pendingIdentityRepoImpl{
		db: db,
	}
}

// Upsert writes identity keyed by checkout config. On conflict only the
// non-empty fields replace stored values.
func (r *pendingIdentityRepoImpl) Upsert(ctx context.Context, identity *model.PendingIdentity) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if identity.MemberID != "" {
		updates["member_id"] = identity.MemberID
	}
	if identity.Email != "" {
		updates["email"] = identity.Email
	}
	if identity.SetupIntentID != "" {
		updates["setup_intent_id"] = identity.SetupIntentID
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_config_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(identity).Error
}

// FindByCheckoutConfig returns nil without error while the webhook has not landed.
func (r *pendingIdentityRepoImpl) FindByCheckoutConfig(ctx context.Context, checkoutConfigID string) (*model.PendingIdentity, error) {
	var rows []*model.PendingIdentity
	err := r.db.WithContext(ctx).
		Where("checkout_config_id = ?", checkoutConfigID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// FindByEmail returns the newest resolved identity for email, preferring the
// row written for checkoutConfigID when there is one.
func (r *pendingIdentityRepoImpl) FindByEmail(ctx context.Context, checkoutConfigID, email string) (*model.PendingIdentity, error) {
	var rows []*model.PendingIdentity
	err := r.db.WithContext(ctx).
		Where("email = ? AND member_id <> ''", email).
		Order("updated_at DESC").
		Limit(20).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	for _, row := range rows {
		if row.CheckoutConfigID == checkoutConfigID {
			return row, nil
		}
	}
	return rows[0], nil
}

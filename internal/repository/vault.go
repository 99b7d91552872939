package repository

import (
	"context"
	"funnel-engine/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VaultRepository interface {
	Create(ctx context.Context, vault *model.MemberVault) error
	// GetVaultID returns the member's oldest saved instrument, or "" if none.
	GetVaultID(ctx context.Context, memberID string) (string, error)
}

type vaultRepoImpl struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepoImpl{
		db: db,
	}
}

func (r *vaultRepoImpl) Create(ctx context.Context, vault *model.MemberVault) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "member_id"}, {Name: "vault_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"updated_at": time.Now(),
		}),
	}).Create(vault).Error
}

func (r *vaultRepoImpl) GetVaultID(ctx context.Context, memberID string) (string, error) {
	var vaultIDs []string
	err := r.db.WithContext(ctx).
		Model(&model.MemberVault{}).
		Where("member_id = ?", memberID).
		Order("created_at ASC").
		Limit(1).
		Pluck("vault_id", &vaultIDs).
		Error
	if err != nil {
		return "", err
	}
	if len(vaultIDs) == 0 {
		return "", nil
	}

	return vaultIDs[0], nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Flow struct {
	ID                  string          `gorm:"primaryKey;size:64;not null"`
	CompanyID           string          `gorm:"size:64;index;not null"`
	Name                string          `gorm:"size:255"`
	InitialPlanID       string          `gorm:"size:64"`
	InitialProductName  string          `gorm:"size:255"`
	InitialPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency            string          `gorm:"size:8;not null;default:USD"`
	ConfirmationPageURL string          `gorm:"size:2048"`
	Nodes               []FlowNode      `gorm:"foreignKey:FlowID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type FlowNode struct {
	ID            string              `gorm:"primaryKey;size:64;not null"`
	FlowID        string              `gorm:"size:64;index;not null"`
	Kind          NodeKind            `gorm:"size:16;index;not null"` // upsell, downsell, cross_sell
	Title         string              `gorm:"size:255"`
	PlanID        string              `gorm:"size:64"`
	Price         decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	OriginalPrice decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	RedirectURL   string              `gorm:"size:2048"`
	OrderIndex    int                 `gorm:"not null;default:0"` // unique only within (flow, kind)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type FlowEdge struct {
	ID     string `gorm:"primaryKey;size:64;not null"`
	FlowID string `gorm:"size:64;index;not null"`
	// empty source = the flow's initial checkout step
	SourceNodeID string     `gorm:"size:64;index"`
	Action       Action     `gorm:"size:16;not null"`
	TargetKind   TargetKind `gorm:"size:16;not null"`
	TargetNodeID string     `gorm:"size:64;index"`
	TargetURL    string     `gorm:"size:2048"`
	CreatedAt    time.Time
}

type Purchase struct {
	ID           string          `gorm:"primaryKey;size:64;not null"`
	FlowID       string          `gorm:"size:64;index:idx_purchase_member_flow;not null"`
	CompanyID    string          `gorm:"size:64;index"`
	MemberID     string          `gorm:"size:64;index:idx_purchase_member_flow;not null"`
	NodeID       *string         `gorm:"size:64"` // nil for the initial purchase
	PlanID       string          `gorm:"size:64"`
	PurchaseType PurchaseType    `gorm:"size:16;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"size:8;not null"`
	SessionID    *string         `gorm:"size:64;index"`
	PaymentID    string          `gorm:"size:128"`
	CreatedAt    time.Time       `gorm:"index"`
}

// PendingIdentity is written by processor webhooks once a saved card is confirmed.
type PendingIdentity struct {
	CheckoutConfigID string `gorm:"primaryKey;size:128;not null"`
	MemberID         string `gorm:"size:64;index"`
	Email            string `gorm:"size:255;index"`
	SetupIntentID    string `gorm:"size:128"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// MemberVault is a saved payment instrument for a member.
type MemberVault struct {
	MemberID string `gorm:"primaryKey;size:64;not null"`
	VaultID  string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	Provider string `gorm:"size:32"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&Flow{},
		&FlowNode{},
		&FlowEdge{},
		&Purchase{},
		&PendingIdentity{},
		&WebhookEvent{},
		&MemberVault{},
	}
}

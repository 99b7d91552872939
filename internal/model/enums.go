package model

type NodeKind string

const (
	NodeKindUpsell    NodeKind = "upsell"
	NodeKindDownsell  NodeKind = "downsell"
	NodeKindCrossSell NodeKind = "cross_sell"
)

// Precedence orders node kinds for fallback routing: upsell < downsell < cross_sell.
func (k NodeKind) Precedence() int {
	switch k {
	case NodeKindUpsell:
		return 0
	case NodeKindDownsell:
		return 1
	case NodeKindCrossSell:
		return 2
	default:
		return 3
	}
}

func (k NodeKind) Valid() bool {
	return k.Precedence() < 3
}

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

func (a Action) Valid() bool {
	return a == ActionAccept || a == ActionDecline
}

type TargetKind string

const (
	TargetNode         TargetKind = "node"
	TargetConfirmation TargetKind = "confirmation"
	TargetExternalURL  TargetKind = "external_url"
)

type PurchaseType string

const (
	PurchaseInitial   PurchaseType = "initial"
	PurchaseUpsell    PurchaseType = "upsell"
	PurchaseDownsell  PurchaseType = "downsell"
	PurchaseCrossSell PurchaseType = "cross_sell"
)

// PurchaseTypeFor maps an offer node kind onto the purchase it produces.
func PurchaseTypeFor(kind NodeKind) PurchaseType {
	switch kind {
	case NodeKindDownsell:
		return PurchaseDownsell
	case NodeKindCrossSell:
		return PurchaseCrossSell
	default:
		return PurchaseUpsell
	}
}

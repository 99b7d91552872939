// Package funnel holds the navigation engine that walks a buyer through a
// flow's offer steps: edge resolution, identity polling and redirect planning.
package funnel

import "funnel-engine/internal/model"

type DecisionKind string

const (
	DecisionNode         DecisionKind = "node"
	DecisionConfirmation DecisionKind = "confirmation"
	DecisionExternalURL  DecisionKind = "external_url"
	DecisionNone         DecisionKind = "none"
)

// RoutingDecision is where the buyer goes after acting on a step.
// Target is set only for DecisionNode, URL only for confirmation and external_url.
type RoutingDecision struct {
	Kind   DecisionKind    `json:"kind"`
	Target *model.FlowNode `json:"target,omitempty"`
	URL    string          `json:"url,omitempty"`
}

func None() RoutingDecision {
	return RoutingDecision{Kind: DecisionNone}
}

// Graph is a loaded snapshot of one flow. Resolution never goes back to storage.
type Graph struct {
	Flow  *model.Flow
	Nodes []model.FlowNode
	Edges []model.FlowEdge
}

// NewGraph builds a snapshot from a flow with its nodes preloaded.
func NewGraph(flow *model.Flow, edges []model.FlowEdge) Graph {
	return Graph{
		Flow:  flow,
		Nodes: flow.Nodes,
		Edges: edges,
	}
}

// Node returns the node with the given id if it belongs to this flow.
func (g Graph) Node(id string) (*model.FlowNode, bool) {
	if id == "" {
		return nil, false
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == id && (g.Flow == nil || n.FlowID == g.Flow.ID) {
			return n, true
		}
	}
	return nil, false
}

// Context carries the identifiers propagated onto every redirect hop.
type Context struct {
	CompanyID     string `json:"company_id"`
	FlowID        string `json:"flow_id"`
	MemberID      string `json:"member_id"`
	SessionID     string `json:"session_id,omitempty"`
	SetupIntentID string `json:"setup_intent_id,omitempty"`
}

func (c Context) WithMember(memberID string) Context {
	c.MemberID = memberID
	return c
}

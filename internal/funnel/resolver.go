package funnel

import (
	"sort"

	"funnel-engine/internal/model"
)

// Resolve maps (current step, action) to the next routing decision.
// A nil current means the buyer is on the flow's initial checkout step.
//
// A configured edge wins. Without one the buyer moves to the next node in
// fallback order, then to the flow's confirmation page, then nowhere.
// Resolve is pure: it reads only the snapshot it is given.
func Resolve(g Graph, current *model.FlowNode, action model.Action) RoutingDecision {
	if !action.Valid() {
		return None()
	}

	sourceID := ""
	if current != nil {
		sourceID = current.ID
	}

	if edge, ok := findEdge(g.Edges, sourceID, action); ok {
		return fromEdge(g, edge)
	}

	return fallback(g, current)
}

// findEdge returns the first edge for (source, action) ordered by creation
// time then id, so duplicate edges always resolve the same way.
func findEdge(edges []model.FlowEdge, sourceID string, action model.Action) (model.FlowEdge, bool) {
	var matches []model.FlowEdge
	for _, e := range edges {
		if e.SourceNodeID == sourceID && e.Action == action {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return model.FlowEdge{}, false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches[0], true
}

func fromEdge(g Graph, edge model.FlowEdge) RoutingDecision {
	switch edge.TargetKind {
	case model.TargetNode:
		target, ok := g.Node(edge.TargetNodeID)
		if !ok {
			return None()
		}
		return RoutingDecision{Kind: DecisionNode, Target: target}
	case model.TargetConfirmation:
		url := edge.TargetURL
		if url == "" {
			url = confirmationURL(g)
		}
		if url == "" {
			return None()
		}
		return RoutingDecision{Kind: DecisionConfirmation, URL: url}
	case model.TargetExternalURL:
		if edge.TargetURL == "" {
			return None()
		}
		return RoutingDecision{Kind: DecisionExternalURL, URL: edge.TargetURL}
	default:
		return None()
	}
}

func fallback(g Graph, current *model.FlowNode) RoutingDecision {
	seq := FallbackOrder(g.Nodes)

	next := 0
	if current != nil {
		idx := -1
		for i, n := range seq {
			if n.ID == current.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return None()
		}
		next = idx + 1
	}

	if next < len(seq) {
		target, _ := g.Node(seq[next].ID)
		if target == nil {
			return None()
		}
		return RoutingDecision{Kind: DecisionNode, Target: target}
	}

	if url := confirmationURL(g); url != "" {
		return RoutingDecision{Kind: DecisionConfirmation, URL: url}
	}
	return None()
}

// FallbackOrder returns the nodes sorted by kind precedence, then order
// index, then creation time and id. The input slice is left untouched.
func FallbackOrder(nodes []model.FlowNode) []model.FlowNode {
	seq := make([]model.FlowNode, len(nodes))
	copy(seq, nodes)

	sort.SliceStable(seq, func(i, j int) bool {
		a, b := seq[i], seq[j]
		if a.Kind.Precedence() != b.Kind.Precedence() {
			return a.Kind.Precedence() < b.Kind.Precedence()
		}
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return seq
}

func confirmationURL(g Graph) string {
	if g.Flow == nil {
		return ""
	}
	return g.Flow.ConfirmationPageURL
}

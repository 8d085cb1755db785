package workflow

import (
	"context"
	"fmt"

	"github.com/aretw0/squadchat/pkg/domain"
)

type compiledNode struct {
	info   NodeInfo
	run    HandlerFunc
	inject InjectFunc
	routes map[domain.Outcome]domain.NodeID
}

// Definition is an immutable, validated workflow graph. It is safe for concurrent use.
type Definition struct {
	entry     domain.NodeID
	interrupt domain.NodeID
	nodes     map[domain.NodeID]*compiledNode
	ids       []domain.NodeID
}

// Entry returns the node fresh runs start at.
func (d *Definition) Entry() domain.NodeID {
	return d.entry
}

// Interrupt returns the node execution suspends before.
func (d *Definition) Interrupt() domain.NodeID {
	return d.interrupt
}

// IsInterrupt reports whether id is the suspension point.
func (d *Definition) IsInterrupt(id domain.NodeID) bool {
	return id == d.interrupt
}

// Has reports whether id names a node of the graph.
func (d *Definition) Has(id domain.NodeID) bool {
	_, ok := d.nodes[id]
	return ok
}

// Node returns a read-only view of a node.
func (d *Definition) Node(id domain.NodeID) (NodeInfo, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	return cloneInfo(n.info), true
}

// Nodes returns every node sorted by id.
func (d *Definition) Nodes() []NodeInfo {
	out := make([]NodeInfo, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, cloneInfo(d.nodes[id].info))
	}
	return out
}

// Run executes the step bound to id.
func (d *Definition) Run(ctx context.Context, id domain.NodeID, state domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	n, ok := d.nodes[id]
	if !ok {
		return state, "", fmt.Errorf("%w: unknown node %q", domain.ErrInvariantViolation, id)
	}
	return n.run(ctx, state.Clone())
}

// Route returns the target of the edge selected by outcome.
func (d *Definition) Route(id domain.NodeID, outcome domain.Outcome) (domain.NodeID, error) {
	n, ok := d.nodes[id]
	if !ok {
		return domain.Terminal, fmt.Errorf("%w: unknown node %q", domain.ErrInvariantViolation, id)
	}
	next, ok := n.routes[outcome]
	if !ok {
		return domain.Terminal, fmt.Errorf("%w: node %s returned %q", domain.ErrUnmappedOutcome, id, outcome)
	}
	return next, nil
}

// Inject merges resumed text into state using the interrupt node's inject function.
func (d *Definition) Inject(id domain.NodeID, state domain.ConversationState, text string) (domain.ConversationState, error) {
	n, ok := d.nodes[id]
	if !ok || n.inject == nil {
		return state, fmt.Errorf("%w: node %q does not accept injected input", domain.ErrInvariantViolation, id)
	}
	return n.inject(state.Clone(), text), nil
}

func cloneInfo(in NodeInfo) NodeInfo {
	out := in
	out.Outcomes = append([]domain.Outcome(nil), in.Outcomes...)
	out.Edges = append([]Edge(nil), in.Edges...)
	return out
}

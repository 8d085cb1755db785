package workflow

import (
	"context"

	"github.com/aretw0/squadchat/pkg/domain"
)

// HandlerFunc runs one step. It receives a copy of the state and returns the updated
// copy plus the outcome that selects the next edge.
type HandlerFunc func(ctx context.Context, state domain.ConversationState) (domain.ConversationState, domain.Outcome, error)

// InjectFunc merges the text of a resumed message into the state before the
// interrupt node runs.
type InjectFunc func(state domain.ConversationState, text string) domain.ConversationState

// Step is the work bound to a node together with the outcomes it may report.
type Step struct {
	Outcomes []domain.Outcome
	Run      HandlerFunc
}

// Edge is an outgoing transition selected by an outcome.
type Edge struct {
	Outcome domain.Outcome
	To      domain.NodeID
}

// NodeInfo is a read-only view of a node, used for introspection and rendering.
type NodeInfo struct {
	ID        domain.NodeID
	Outcomes  []domain.Outcome
	Edges     []Edge
	Interrupt bool
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id        domain.NodeID
	step      *Step
	edges     []Edge
	interrupt bool
	inject    InjectFunc
	problems  []string
}

// Do binds the step the node runs.
func (n *NodeBuilder) Do(step Step) *NodeBuilder {
	if n.step != nil {
		n.problems = append(n.problems, "step bound twice")
	}
	s := step
	s.Outcomes = append([]domain.Outcome(nil), step.Outcomes...)
	n.step = &s
	return n
}

// On adds a transition taken when the step reports outcome.
func (n *NodeBuilder) On(outcome domain.Outcome, target domain.NodeID) *NodeBuilder {
	for _, e := range n.edges {
		if e.Outcome == outcome {
			n.problems = append(n.problems, "duplicate edge for outcome "+string(outcome))
			return n
		}
	}
	n.edges = append(n.edges, Edge{Outcome: outcome, To: target})
	return n
}

// Go adds the unconditional transition, taken on domain.OutcomeNext.
func (n *NodeBuilder) Go(target domain.NodeID) *NodeBuilder {
	return n.On(domain.OutcomeNext, target)
}

// End routes outcome to the terminal sentinel.
func (n *NodeBuilder) End(outcome domain.Outcome) *NodeBuilder {
	return n.On(outcome, domain.Terminal)
}

// InterruptBefore marks the node as the suspension point. inject merges the
// resumed message into the state before the node runs.
func (n *NodeBuilder) InterruptBefore(inject InjectFunc) *NodeBuilder {
	n.interrupt = true
	n.inject = inject
	return n
}

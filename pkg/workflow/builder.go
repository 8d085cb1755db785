package workflow

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/squadchat/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	entry    domain.NodeID
	hasEntry bool
	nodes    map[domain.NodeID]*NodeBuilder
	order    []domain.NodeID
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[domain.NodeID]*NodeBuilder),
	}
}

// Entry sets the node every fresh run starts at.
func (b *Builder) Entry(id domain.NodeID) *Builder {
	b.entry = id
	b.hasEntry = true
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id domain.NodeID) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{id: id}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build validates the graph and freezes it into a Definition.
// Every problem found is reported in a single error wrapping domain.ErrInvalidDefinition.
func (b *Builder) Build() (*Definition, error) {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !b.hasEntry {
		report("no entry node")
	} else if _, ok := b.nodes[b.entry]; !ok {
		report("entry node %q is not defined", b.entry)
	}

	ids := append([]domain.NodeID(nil), b.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var interrupts []domain.NodeID
	for _, id := range ids {
		nb := b.nodes[id]
		if id == domain.Terminal {
			report("node id must not be empty")
			continue
		}
		for _, p := range nb.problems {
			report("node %s: %s", id, p)
		}
		if nb.interrupt {
			interrupts = append(interrupts, id)
			if nb.inject == nil {
				report("node %s: interrupt without inject function", id)
			}
		}
		if nb.step == nil || nb.step.Run == nil {
			report("node %s: no step bound", id)
			continue
		}
		if len(nb.step.Outcomes) == 0 {
			report("node %s: step declares no outcomes", id)
		}
		for _, o := range nb.step.Outcomes {
			if !slices.ContainsFunc(nb.edges, func(e Edge) bool { return e.Outcome == o }) {
				report("node %s: outcome %q has no edge", id, o)
			}
		}
		for _, e := range nb.edges {
			if !slices.Contains(nb.step.Outcomes, e.Outcome) {
				report("node %s: edge for undeclared outcome %q", id, e.Outcome)
			}
			if e.To == domain.Terminal {
				continue
			}
			if _, ok := b.nodes[e.To]; !ok {
				report("node %s: edge %q targets unknown node %q", id, e.Outcome, e.To)
			}
		}
	}

	switch len(interrupts) {
	case 1:
	case 0:
		report("no interrupt node")
	default:
		report("more than one interrupt node: %v", interrupts)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDefinition, strings.Join(problems, "; "))
	}

	def := &Definition{
		entry:     b.entry,
		interrupt: interrupts[0],
		nodes:     make(map[domain.NodeID]*compiledNode, len(b.nodes)),
	}
	for _, id := range ids {
		nb := b.nodes[id]
		cn := &compiledNode{
			info: NodeInfo{
				ID:        id,
				Outcomes:  append([]domain.Outcome(nil), nb.step.Outcomes...),
				Interrupt: nb.interrupt,
			},
			run:    nb.step.Run,
			inject: nb.inject,
			routes: make(map[domain.Outcome]domain.NodeID, len(nb.edges)),
		}
		// Edges follow the declaration order of the outcomes.
		for _, o := range nb.step.Outcomes {
			for _, e := range nb.edges {
				if e.Outcome == o {
					cn.info.Edges = append(cn.info.Edges, e)
					cn.routes[o] = e.To
				}
			}
		}
		def.nodes[id] = cn
	}
	def.ids = ids
	return def, nil
}

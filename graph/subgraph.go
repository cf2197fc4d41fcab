package graph

import (
	"context"
	"fmt"
)

// SubgraphNode nests an entire root-scoped graph as a single compound step.
// The node's input payload feeds the body's Entry edges and everything the
// body delivers to Exit becomes the node's output.
type SubgraphNode struct {
	name  string
	label string
	body  *Runnable
}

// NewSubgraphNode creates a subgraph node around the given root-scoped body.
func NewSubgraphNode(name, label string, body *Graph) (*SubgraphNode, error) {
	if body.Scope() != ScopeRoot {
		return nil, fmt.Errorf("subgraph %s: body must be root-scoped", name)
	}
	runnable, err := body.Compile()
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", name, err)
	}
	return &SubgraphNode{name: name, label: label, body: runnable}, nil
}

// Name returns the node's identifier.
func (s *SubgraphNode) Name() string { return s.name }

// Label returns the node's description.
func (s *SubgraphNode) Label() string { return s.label }

// Body returns the compiled body graph.
func (s *SubgraphNode) Body() *Runnable { return s.body }

// Execute runs the nested graph against the node's input payload.
func (s *SubgraphNode) Execute(ctx context.Context, input Payload) (Payload, error) {
	out, err := s.body.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", s.name, err)
	}
	return out, nil
}

package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// BranchSelector decides which of a switch's conditions matches the payload.
// It returns the index of the winning condition.
type BranchSelector interface {
	Select(ctx context.Context, input Payload, conditions []string) (int, error)
}

// SelectorFunc adapts a function to the BranchSelector interface.
type SelectorFunc func(ctx context.Context, input Payload, conditions []string) (int, error)

// Select calls the function.
func (f SelectorFunc) Select(ctx context.Context, input Payload, conditions []string) (int, error) {
	return f(ctx, input, conditions)
}

// ModelSelector asks a model which condition best matches the payload.
type ModelSelector struct {
	Model llms.Model
}

// Select prompts the model with the numbered condition list and parses the
// chosen index from its reply, falling back to a substring match on the
// condition text.
func (s *ModelSelector) Select(ctx context.Context, input Payload, conditions []string) (int, error) {
	if s.Model == nil {
		return 0, ErrNoModel
	}

	var sb strings.Builder
	sb.WriteString("Given the data below, pick the single branch condition that best matches.\n")
	sb.WriteString("Answer with the branch number only.\n\nData:\n")
	sb.WriteString(renderPayload(input))
	sb.WriteString("\n\nBranches:\n")
	for i, c := range conditions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, s.Model, sb.String())
	if err != nil {
		return 0, err
	}
	reply = strings.TrimSpace(reply)

	for _, field := range strings.Fields(reply) {
		field = strings.Trim(field, ".,:)")
		if n, err := strconv.Atoi(field); err == nil && n >= 1 && n <= len(conditions) {
			return n - 1, nil
		}
	}
	lower := strings.ToLower(reply)
	for i, c := range conditions {
		if strings.Contains(lower, strings.ToLower(c)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unparseable reply %q", ErrNoBranch, reply)
}

// SwitchNode routes its input payload along exactly one of its conditional
// outgoing edges. The node itself is a pass-through; the runnable consults
// its selector to pick the edge.
type SwitchNode struct {
	name     string
	label    string
	selector BranchSelector
}

// NewSwitchNode creates a switch node with the given branch selector.
func NewSwitchNode(name, label string, selector BranchSelector) *SwitchNode {
	return &SwitchNode{name: name, label: label, selector: selector}
}

// Name returns the node's identifier.
func (s *SwitchNode) Name() string { return s.name }

// Label returns the node's description.
func (s *SwitchNode) Label() string { return s.label }

// Execute passes the payload through unchanged; routing happens afterwards.
func (s *SwitchNode) Execute(_ context.Context, input Payload) (Payload, error) {
	return input, nil
}

// selectBranch picks one of the outgoing edges by evaluating their
// conditions against the payload.
func (s *SwitchNode) selectBranch(ctx context.Context, input Payload, edges []*Edge) (*Edge, error) {
	if len(edges) == 1 {
		return edges[0], nil
	}
	if s.selector == nil {
		return nil, fmt.Errorf("%w: switch %s has no selector", ErrNoBranch, s.name)
	}
	conditions := make([]string, len(edges))
	for i, e := range edges {
		conditions[i] = e.Condition
	}
	idx, err := s.selector.Select(ctx, input, conditions)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(edges) {
		return nil, fmt.Errorf("%w: selector returned %d of %d", ErrNoBranch, idx, len(edges))
	}
	return edges[idx], nil
}

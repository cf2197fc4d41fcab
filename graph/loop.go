package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// DefaultLoopIterations is the iteration cap used when a loop declares none.
const DefaultLoopIterations = 3

// LoopNode is a bounded-iteration container around a loop-scoped body graph.
// Each iteration the carry payload is published along the body's Controller
// dispatch edges; payloads returning to Controller become the next carry.
// A delivery to Terminate breaks out early, as does a yes from the optional
// model-evaluated termination prompt.
type LoopNode struct {
	name            string
	label           string
	body            *Runnable
	maxIterations   int
	terminatePrompt string
	model           llms.Model
}

// LoopOption configures a LoopNode.
type LoopOption func(*LoopNode)

// WithMaxIterations sets the iteration cap. Non-positive values keep the
// default.
func WithMaxIterations(n int) LoopOption {
	return func(l *LoopNode) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTermination attaches a model-evaluated termination predicate, asked
// after every iteration. Without it the loop is bounded only by its
// iteration cap.
func WithTermination(model llms.Model, prompt string) LoopOption {
	return func(l *LoopNode) {
		l.model = model
		l.terminatePrompt = prompt
	}
}

// NewLoopNode creates a loop node around the given loop-scoped body.
func NewLoopNode(name, label string, body *Graph, opts ...LoopOption) (*LoopNode, error) {
	if body.Scope() != ScopeLoop {
		return nil, fmt.Errorf("loop %s: body must be loop-scoped, use NewLoopBody", name)
	}
	runnable, err := body.Compile()
	if err != nil {
		return nil, fmt.Errorf("loop %s: %w", name, err)
	}
	l := &LoopNode{
		name:          name,
		label:         label,
		body:          runnable,
		maxIterations: DefaultLoopIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name returns the node's identifier.
func (l *LoopNode) Name() string { return l.name }

// Label returns the node's description.
func (l *LoopNode) Label() string { return l.label }

// Body returns the compiled loop body.
func (l *LoopNode) Body() *Runnable { return l.body }

// MaxIterations returns the iteration cap.
func (l *LoopNode) MaxIterations() int { return l.maxIterations }

// Execute runs the body up to the iteration cap, threading the carry payload
// through the Controller sentinel.
func (l *LoopNode) Execute(ctx context.Context, input Payload) (Payload, error) {
	carry := input
	for iter := 1; iter <= l.maxIterations; iter++ {
		res, err := l.body.runOnce(ctx, carry)
		if err != nil {
			return nil, fmt.Errorf("loop %s iteration %d: %w", l.name, iter, err)
		}
		if res.terminated {
			out := res.controller.Clone()
			out.Merge(res.terminate)
			return out, nil
		}
		carry = res.controller

		if l.terminatePrompt != "" && l.model != nil {
			done, err := l.shouldTerminate(ctx, carry)
			if err != nil {
				return nil, fmt.Errorf("loop %s iteration %d: %w", l.name, iter, err)
			}
			if done {
				break
			}
		}
	}
	return carry, nil
}

// shouldTerminate asks the termination evaluator whether the loop is done.
func (l *LoopNode) shouldTerminate(ctx context.Context, carry Payload) (bool, error) {
	prompt := fmt.Sprintf(
		"%s\n\nCurrent state:\n%s\n\nAnswer YES to stop the loop or NO to continue.",
		l.terminatePrompt, renderPayload(carry),
	)
	reply, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt)
	if err != nil {
		return false, err
	}
	answer := strings.ToUpper(strings.TrimSpace(reply))
	return strings.HasPrefix(answer, "YES") || strings.HasPrefix(answer, "TRUE"), nil
}

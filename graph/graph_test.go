package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcNode wraps a function as a Node for tests.
type funcNode struct {
	name string
	fn   func(ctx context.Context, input Payload) (Payload, error)
}

func (f *funcNode) Name() string  { return f.name }
func (f *funcNode) Label() string { return f.name }
func (f *funcNode) Execute(ctx context.Context, input Payload) (Payload, error) {
	return f.fn(ctx, input)
}

func step(name string, fn func(ctx context.Context, input Payload) (Payload, error)) *funcNode {
	return &funcNode{name: name, fn: fn}
}

// passThrough returns its input unchanged.
func passThrough(name string) *funcNode {
	return step(name, func(_ context.Context, in Payload) (Payload, error) {
		return in, nil
	})
}

func TestPayloadPick(t *testing.T) {
	p := Payload{"a": 1, "b": 2}

	// Empty key set carries the whole payload, as a copy.
	whole := p.Pick(nil)
	assert.Equal(t, Payload{"a": 1, "b": 2}, whole)
	whole["a"] = 99
	assert.Equal(t, 1, p["a"])

	// Named keys filter; missing keys are simply absent.
	part := p.Pick(map[string]string{"b": "", "c": ""})
	assert.Equal(t, Payload{"b": 2}, part)
}

func TestPayloadMerge(t *testing.T) {
	p := Payload{"a": 1}
	p.Merge(Payload{"a": 2, "b": 3})
	assert.Equal(t, Payload{"a": 2, "b": 3}, p)
}

func TestAddNodeErrors(t *testing.T) {
	g := New("g")
	require.NoError(t, g.AddNode(passThrough("a")))

	err := g.AddNode(passThrough("a"))
	assert.ErrorIs(t, err, ErrDuplicateNode)

	err = g.AddNode(passThrough(""))
	assert.ErrorIs(t, err, ErrInvalidNode)

	err = g.AddNode(passThrough(Entry))
	assert.ErrorIs(t, err, ErrInvalidNode)

	// Loop scope reserves its own vocabulary, not the root one.
	body := NewLoopBody("body")
	assert.ErrorIs(t, body.AddNode(passThrough(Controller)), ErrInvalidNode)
	assert.NoError(t, body.AddNode(passThrough("ENTRY_like")))
}

func TestCompileValidation(t *testing.T) {
	g := New("g")
	require.NoError(t, g.AddNode(passThrough("a")))

	g.AddEdge("a", Exit, nil)
	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrNoEntryEdge)

	g2 := New("g2")
	require.NoError(t, g2.AddNode(passThrough("a")))
	g2.AddEdge(Entry, "a", nil)
	_, err = g2.Compile()
	assert.ErrorIs(t, err, ErrNoExitEdge)

	g3 := New("g3")
	require.NoError(t, g3.AddNode(passThrough("a")))
	g3.AddEdge(Entry, "a", nil)
	g3.AddEdge("a", "ghost", nil)
	g3.AddEdge("a", Exit, nil)
	_, err = g3.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)

	// Sentinels are role-checked: EXIT cannot be a source.
	g4 := New("g4")
	require.NoError(t, g4.AddNode(passThrough("a")))
	g4.AddEdge(Entry, "a", nil)
	g4.AddEdge(Exit, "a", nil)
	g4.AddEdge("a", Exit, nil)
	_, err = g4.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompileLoopScopeSentinels(t *testing.T) {
	body := NewLoopBody("body")
	require.NoError(t, body.AddNode(passThrough("s")))

	// Root sentinels are illegal endpoints in a loop body.
	body.AddEdge(Controller, "s", nil)
	body.AddEdge("s", Exit, nil)
	_, err := body.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)

	body2 := NewLoopBody("body2")
	require.NoError(t, body2.AddNode(passThrough("s")))
	body2.AddEdge(Controller, "s", nil)
	body2.AddEdge("s", Terminate, nil)
	_, err = body2.Compile()
	assert.NoError(t, err)
}

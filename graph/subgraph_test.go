package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubgraphRequiresRootScope(t *testing.T) {
	body := NewLoopBody("body")
	require.NoError(t, body.AddNode(passThrough("s")))
	body.AddEdge(Controller, "s", nil)
	body.AddEdge("s", Terminate, nil)

	_, err := NewSubgraphNode("sub", "sub", body)
	assert.Error(t, err)
}

func TestSubgraphRejectsInvalidBody(t *testing.T) {
	body := New("no exit")
	require.NoError(t, body.AddNode(passThrough("s")))
	body.AddEdge(Entry, "s", nil)

	_, err := NewSubgraphNode("sub", "sub", body)
	assert.ErrorIs(t, err, ErrNoExitEdge)
}

func TestSubgraphExecute(t *testing.T) {
	body := New("shout")
	require.NoError(t, body.AddNode(step("upper", func(_ context.Context, in Payload) (Payload, error) {
		return Payload{"text": in["text"].(string) + "!"}, nil
	})))
	body.AddEdge(Entry, "upper", nil)
	body.AddEdge("upper", Exit, nil)

	sub, err := NewSubgraphNode("sub", "a nested step", body)
	require.NoError(t, err)
	assert.Equal(t, "sub", sub.Name())
	assert.Equal(t, "a nested step", sub.Label())

	out, err := sub.Execute(context.Background(), Payload{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi!", out["text"])
}

func TestSubgraphInsideGraph(t *testing.T) {
	inner := New("inner")
	require.NoError(t, inner.AddNode(step("tag", func(_ context.Context, in Payload) (Payload, error) {
		out := in.Clone()
		out["tagged"] = true
		return out, nil
	})))
	inner.AddEdge(Entry, "tag", nil)
	inner.AddEdge("tag", Exit, nil)

	sub, err := NewSubgraphNode("sub", "tagging", inner)
	require.NoError(t, err)

	outer := New("outer")
	require.NoError(t, outer.AddNode(sub))
	outer.AddEdge(Entry, "sub", nil)
	outer.AddEdge("sub", Exit, nil)

	r, err := outer.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), Payload{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, true, out["tagged"])
	assert.Equal(t, 1, out["x"])
}

func TestSubgraphErrorWrapped(t *testing.T) {
	body := New("failing")
	require.NoError(t, body.AddNode(step("boom", func(_ context.Context, _ Payload) (Payload, error) {
		return nil, assert.AnError
	})))
	body.AddEdge(Entry, "boom", nil)
	body.AddEdge("boom", Exit, nil)

	sub, err := NewSubgraphNode("sub", "sub", body)
	require.NoError(t, err)

	_, err = sub.Execute(context.Background(), Payload{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "subgraph sub")
}

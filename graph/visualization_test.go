package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diagramGraph builds a root graph with an action-like node, a switch, and a
// nested loop, exercising every renderer shape.
func diagramGraph(t *testing.T) *Graph {
	t.Helper()

	body := NewLoopBody("refine body")
	require.NoError(t, body.AddNode(step("revise", func(_ context.Context, in Payload) (Payload, error) {
		return in, nil
	})))
	body.AddEdge(Controller, "revise", nil)
	body.AddEdge("revise", Controller, nil)

	loop, err := NewLoopNode("refine", "refine the draft", body)
	require.NoError(t, err)

	g := New("article")
	require.NoError(t, g.AddNode(passThrough("research")))
	require.NoError(t, g.AddNode(NewSwitchNode("route", "pick a path", nil)))
	require.NoError(t, g.AddNode(loop))
	g.AddEdge(Entry, "research", nil)
	g.AddEdge("research", "route", nil)
	g.AddConditionalEdge("route", "refine", "needs work", nil)
	g.AddConditionalEdge("route", Exit, "good enough", nil)
	g.AddEdge("refine", Exit, nil)
	return g
}

func TestDrawMermaid(t *testing.T) {
	out := NewExporter(diagramGraph(t)).DrawMermaid()

	assert.True(t, strings.HasPrefix(out, "flowchart TD\n"))
	assert.Contains(t, out, `ENTRY(["ENTRY"])`)
	assert.Contains(t, out, `EXIT(["EXIT"])`)
	assert.Contains(t, out, `research["research"]`)
	assert.Contains(t, out, `route{"pick a path"}`)
	assert.Contains(t, out, `subgraph refine["refine the draft (loop)"]`)
	// Nested scope ids are namespaced under the loop node.
	assert.Contains(t, out, `refine_CONTROLLER(["CONTROLLER"])`)
	assert.Contains(t, out, `refine_revise["revise"]`)
	assert.Contains(t, out, "refine_CONTROLLER --> refine_revise")
	assert.Contains(t, out, "ENTRY --> research")
	assert.Contains(t, out, "route -->|needs work| refine")
	assert.Contains(t, out, "route -->|good enough| EXIT")
}

func TestDrawMermaidDirection(t *testing.T) {
	out := NewExporter(diagramGraph(t)).DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.True(t, strings.HasPrefix(out, "flowchart LR\n"))

	out = NewExporter(diagramGraph(t)).DrawMermaidWithOptions(MermaidOptions{})
	assert.True(t, strings.HasPrefix(out, "flowchart TD\n"))
}

func TestDrawMermaidEscapesQuotes(t *testing.T) {
	g := New("q")
	require.NoError(t, g.AddNode(NewSwitchNode("s", `say "hi"`, nil)))
	g.AddEdge(Entry, "s", nil)
	g.AddEdge("s", Exit, nil)

	out := NewExporter(g).DrawMermaid()
	assert.Contains(t, out, `s{"say 'hi'"}`)
}

func TestDrawDOT(t *testing.T) {
	out := NewExporter(diagramGraph(t)).DrawDOT()

	assert.True(t, strings.HasPrefix(out, `digraph "article" {`))
	assert.Contains(t, out, `"ENTRY" [shape=circle];`)
	assert.Contains(t, out, `"EXIT" [shape=doublecircle];`)
	assert.Contains(t, out, `"research" [shape=box, label="research"];`)
	assert.Contains(t, out, `"route" [shape=diamond, label="pick a path"];`)
	assert.Contains(t, out, `subgraph "cluster_refine" {`)
	assert.Contains(t, out, `label="refine the draft (loop)";`)
	assert.Contains(t, out, `"refine_CONTROLLER" [shape=circle];`)
	assert.Contains(t, out, `"route" -> "refine" [label="needs work"];`)
	assert.Contains(t, out, `"ENTRY" -> "research";`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

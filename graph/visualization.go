package graph

import (
	"fmt"
	"strings"
)

// Exporter renders a graph in diagram formats for debugging and docs.
type Exporter struct {
	graph *Graph
}

// NewExporter creates an exporter for the given graph.
func NewExporter(g *Graph) *Exporter {
	return &Exporter{graph: g}
}

// MermaidOptions defines configuration for Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid flowchart of the graph, rendering Loop and
// Subgraph bodies as nested subgraph blocks.
func (ex *Exporter) DrawMermaid() string {
	return ex.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
func (ex *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)
	ex.writeMermaidScope(&sb, ex.graph, "", "    ")
	return sb.String()
}

// writeMermaidScope renders one scope. prefix namespaces node ids so nested
// scopes never collide with their parents.
func (ex *Exporter) writeMermaidScope(sb *strings.Builder, g *Graph, prefix, indent string) {
	id := func(name string) string { return prefix + name }

	if g.scope == ScopeLoop {
		fmt.Fprintf(sb, "%s%s([\"CONTROLLER\"])\n", indent, id(Controller))
		fmt.Fprintf(sb, "%s%s([\"TERMINATE\"])\n", indent, id(Terminate))
	} else {
		fmt.Fprintf(sb, "%s%s([\"ENTRY\"])\n", indent, id(Entry))
		fmt.Fprintf(sb, "%s%s([\"EXIT\"])\n", indent, id(Exit))
	}

	for _, name := range g.order {
		node := g.nodes[name]
		switch n := node.(type) {
		case *SwitchNode:
			fmt.Fprintf(sb, "%s%s{\"%s\"}\n", indent, id(name), escapeMermaid(n.Label()))
		case *LoopNode:
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s (loop)\"]\n", indent, id(name), escapeMermaid(n.Label()))
			ex.writeMermaidScope(sb, n.body.graph, id(name)+"_", indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
		case *SubgraphNode:
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, id(name), escapeMermaid(n.Label()))
			ex.writeMermaidScope(sb, n.body.graph, id(name)+"_", indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
		default:
			fmt.Fprintf(sb, "%s%s[\"%s\"]\n", indent, id(name), escapeMermaid(node.Label()))
		}
	}

	for _, e := range g.edges {
		if e.Condition != "" {
			fmt.Fprintf(sb, "%s%s -->|%s| %s\n", indent, id(e.Source), escapeMermaid(e.Condition), id(e.Target))
		} else {
			fmt.Fprintf(sb, "%s%s --> %s\n", indent, id(e.Source), id(e.Target))
		}
	}
}

// DrawDOT generates a DOT (Graphviz) representation of the graph. Nested
// bodies are rendered as clusters.
func (ex *Exporter) DrawDOT() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", ex.graph.name)
	sb.WriteString("    rankdir=TB;\n")
	ex.writeDOTScope(&sb, ex.graph, "", "    ")
	sb.WriteString("}\n")
	return sb.String()
}

func (ex *Exporter) writeDOTScope(sb *strings.Builder, g *Graph, prefix, indent string) {
	id := func(name string) string { return prefix + name }

	if g.scope == ScopeLoop {
		fmt.Fprintf(sb, "%s%q [shape=circle];\n", indent, id(Controller))
		fmt.Fprintf(sb, "%s%q [shape=doublecircle];\n", indent, id(Terminate))
	} else {
		fmt.Fprintf(sb, "%s%q [shape=circle];\n", indent, id(Entry))
		fmt.Fprintf(sb, "%s%q [shape=doublecircle];\n", indent, id(Exit))
	}

	for _, name := range g.order {
		node := g.nodes[name]
		switch n := node.(type) {
		case *SwitchNode:
			fmt.Fprintf(sb, "%s%q [shape=diamond, label=%q];\n", indent, id(name), n.Label())
		case *LoopNode:
			fmt.Fprintf(sb, "%ssubgraph \"cluster_%s\" {\n", indent, id(name))
			fmt.Fprintf(sb, "%s    label=%q;\n", indent, n.Label()+" (loop)")
			ex.writeDOTScope(sb, n.body.graph, id(name)+"_", indent+"    ")
			fmt.Fprintf(sb, "%s}\n", indent)
		case *SubgraphNode:
			fmt.Fprintf(sb, "%ssubgraph \"cluster_%s\" {\n", indent, id(name))
			fmt.Fprintf(sb, "%s    label=%q;\n", indent, n.Label())
			ex.writeDOTScope(sb, n.body.graph, id(name)+"_", indent+"    ")
			fmt.Fprintf(sb, "%s}\n", indent)
		default:
			fmt.Fprintf(sb, "%s%q [shape=box, label=%q];\n", indent, id(name), node.Label())
		}
	}

	for _, e := range g.edges {
		if e.Condition != "" {
			fmt.Fprintf(sb, "%s%q -> %q [label=%q];\n", indent, id(e.Source), id(e.Target), e.Condition)
		} else {
			fmt.Fprintf(sb, "%s%q -> %q;\n", indent, id(e.Source), id(e.Target))
		}
	}
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

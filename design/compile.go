package design

import (
	"fmt"

	"github.com/smallnest/agentgraphgo/graph"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// Registry is the capability registry the compiler binds compiled nodes to:
// one model for Action steps, switch routing and loop termination, plus the
// named callables Action nodes may invoke.
type Registry struct {
	// Model is bound to every node kind that talks to a model.
	Model llms.Model

	// Tools are resolved by Name() when a node declares them.
	Tools []tools.Tool

	// Selector overrides the model-backed switch routing; useful for
	// deterministic tests.
	Selector graph.BranchSelector
}

// toolByName resolves one declared tool name.
func (r *Registry) toolByName(name string) (tools.Tool, bool) {
	for _, t := range r.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// selector returns the switch branch selector to bind.
func (r *Registry) selector() graph.BranchSelector {
	if r.Selector != nil {
		return r.Selector
	}
	return &graph.ModelSelector{Model: r.Model}
}

// Compile materializes a canonical design document into the target graph,
// creating live nodes and edges. The document is assumed to have passed
// Normalize; the compiler trusts its shape and only re-checks what the
// grammar cannot know: Action instructions and tool-name resolution.
//
// Compilation is not transactional. A failure leaves already-created nodes
// on the target, so callers should compile into a fresh graph.
func Compile(g *graph.Graph, doc *Document, reg *Registry) error {
	if reg == nil {
		reg = &Registry{}
	}
	return compileScope(g, doc, reg, "graph_design")
}

// NewRunnable compiles doc into a fresh root graph and returns it ready to
// invoke.
func NewRunnable(name string, doc *Document, reg *Registry) (*graph.Runnable, error) {
	g := graph.New(name)
	if err := Compile(g, doc, reg); err != nil {
		return nil, err
	}
	return g.Compile()
}

// compileScope materializes one scope. Each call owns the target graph's
// local node namespace; nested scopes get their own graphs and never see
// their siblings' names.
func compileScope(g *graph.Graph, doc *Document, reg *Registry, path string) error {
	for i, spec := range doc.Nodes {
		nodePath := fmt.Sprintf("%s.nodes[%d]", path, i)
		node, err := buildNode(spec, reg, nodePath, path)
		if err != nil {
			return err
		}
		if err := g.AddNode(node); err != nil {
			return newError(nodePath, IssueNodeNameDuplicate, "%v", err)
		}
	}

	for i, e := range doc.Edges {
		edgePath := fmt.Sprintf("%s.edges[%d]", path, i)
		if e.Source == "" || e.Target == "" {
			return newError(edgePath, IssueSchemaError, "edge has empty endpoints; document was not normalized")
		}
		if e.Condition != "" {
			g.AddConditionalEdge(e.Source, e.Target, e.Condition, e.Keys)
		} else {
			g.AddEdge(e.Source, e.Target, e.Keys)
		}
	}

	// Switch condition binding: the engine evaluates a switch's outgoing
	// edges in declaration order, which the loop above preserved. Re-check
	// the grammar's promise that each carries a condition.
	for i, e := range doc.Edges {
		node, ok := g.Node(e.Source)
		if !ok {
			continue
		}
		if _, isSwitch := node.(*graph.SwitchNode); isSwitch && e.Condition == "" {
			return newError(fmt.Sprintf("%s.edges[%d]", path, i), IssueSwitchEdgeNoCondition,
				"edge from Switch node '%s' has no condition", e.Source)
		}
	}
	return nil
}

// buildNode materializes one node spec, dispatching on the closed type set.
func buildNode(spec *NodeSpec, reg *Registry, nodePath, scopePath string) (graph.Node, error) {
	switch spec.Type {
	case NodeAction:
		if spec.Instructions == "" {
			return nil, newError(nodePath+".instructions", IssueInstructionsMissing,
				"Action node '%s' requires instructions", spec.Name)
		}
		resolved := make([]tools.Tool, 0, len(spec.Tools))
		for _, name := range spec.Tools {
			t, ok := reg.toolByName(name)
			if !ok {
				return nil, newError(nodePath+".tools", IssueToolNotFound,
					"unknown tool '%s' on node '%s'", name, spec.Name)
			}
			resolved = append(resolved, t)
		}
		return graph.NewActionNode(spec.Name, spec.Label, reg.Model, spec.Instructions,
			graph.WithAgent(spec.Agent),
			graph.WithTools(resolved),
			graph.WithPullKeys(spec.PullKeys),
			graph.WithPushKeys(spec.PushKeys),
		), nil

	case NodeSwitch:
		return graph.NewSwitchNode(spec.Name, spec.Label, reg.selector()), nil

	case NodeSubgraph:
		if spec.SubGraph == nil {
			return nil, newError(nodePath+".sub_graph", IssueSubgraphMissing,
				"Subgraph node '%s' has no sub_graph", spec.Name)
		}
		body := graph.New(spec.Name)
		if err := compileScope(body, spec.SubGraph, reg, scopePath+"."+spec.Name); err != nil {
			return nil, err
		}
		node, err := graph.NewSubgraphNode(spec.Name, spec.Label, body)
		if err != nil {
			return nil, newError(nodePath, IssueSchemaError, "%v", err)
		}
		return node, nil

	case NodeLoop:
		if spec.SubGraph == nil {
			return nil, newError(nodePath+".sub_graph", IssueSubgraphMissing,
				"Loop node '%s' has no sub_graph", spec.Name)
		}
		body := graph.NewLoopBody(spec.Name)
		if err := compileScope(body, spec.SubGraph, reg, scopePath+"."+spec.Name); err != nil {
			return nil, err
		}
		opts := []graph.LoopOption{graph.WithMaxIterations(spec.MaxIterations)}
		if spec.TerminateConditionPrompt != "" {
			opts = append(opts, graph.WithTermination(reg.Model, spec.TerminateConditionPrompt))
		}
		node, err := graph.NewLoopNode(spec.Name, spec.Label, body, opts...)
		if err != nil {
			return nil, newError(nodePath, IssueSchemaError, "%v", err)
		}
		return node, nil

	default:
		return nil, newError(nodePath+".type", IssueNodeTypeUnknown, "unknown node type '%s'", spec.Type)
	}
}

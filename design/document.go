package design

import "fmt"

// NodeType is the closed set of node kinds a design may declare.
type NodeType string

const (
	// NodeAction is a single model-invocation step.
	NodeAction NodeType = "Action"
	// NodeSwitch routes along one of several conditional edges.
	NodeSwitch NodeType = "Switch"
	// NodeLoop is a bounded-iteration container with a nested loop scope.
	NodeLoop NodeType = "Loop"
	// NodeSubgraph nests a whole non-loop design as one compound step.
	NodeSubgraph NodeType = "Subgraph"
)

// nodeTypes lists every known node type, in the order used by diagnostics.
var nodeTypes = []NodeType{NodeAction, NodeSwitch, NodeLoop, NodeSubgraph}

// knownNodeType reports whether t is a member of the closed type set.
func knownNodeType(t NodeType) bool {
	for _, k := range nodeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Document is a canonical graph design: the declarative description of one
// scope's nodes and edges. Nested scopes appear as NodeSpec.SubGraph.
type Document struct {
	Nodes []*NodeSpec `json:"nodes"`
	Edges []*EdgeSpec `json:"edges"`
}

// NodeSpec declares one vertex of a design.
type NodeSpec struct {
	Name  string   `json:"name"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`

	// Agent names the role an Action node acts as.
	Agent string `json:"agent,omitempty"`

	// Instructions is the Action node's system prompt. The normalizer
	// carries it through untouched; the compiler requires it.
	Instructions string `json:"instructions,omitempty"`

	// Tools names the callables the node may invoke.
	Tools []string `json:"tools,omitempty"`

	// PullKeys and PushKeys map attribute names to description strings.
	PullKeys map[string]string `json:"pull_keys,omitempty"`
	PushKeys map[string]string `json:"push_keys,omitempty"`

	// SubGraph is the nested design of a Loop or Subgraph node.
	SubGraph *Document `json:"sub_graph,omitempty"`

	// MaxIterations caps a Loop node's iterations; zero means default.
	MaxIterations int `json:"max_iterations,omitempty"`

	// TerminateConditionPrompt, when set, is evaluated against a model
	// after every loop iteration.
	TerminateConditionPrompt string `json:"terminate_condition_prompt,omitempty"`
}

// EdgeSpec declares one directed, keyed data-flow arc.
type EdgeSpec struct {
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	Condition string            `json:"condition,omitempty"`
	Keys      map[string]string `json:"keys,omitempty"`
}

// Scope distinguishes the sentinel vocabulary of a nesting level.
type Scope int

const (
	// ScopeRoot covers the root design and Subgraph bodies (ENTRY/EXIT).
	ScopeRoot Scope = iota
	// ScopeLoop covers Loop bodies (CONTROLLER/TERMINATE).
	ScopeLoop
)

func (s Scope) String() string {
	if s == ScopeLoop {
		return "loop"
	}
	return "root"
}

// Error is the single error kind raised by the validator and the compiler.
// It carries a dotted-path-qualified, human-readable message.
type Error struct {
	// Path locates the offending element, e.g. "graph_design.nodes[2].name".
	Path string
	// Code is the stable issue code shared with the diagnostic advisor.
	Code IssueCode
	// Message describes the violation.
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// newError builds a path-qualified Error.
func newError(path string, code IssueCode, format string, args ...any) *Error {
	return &Error{Path: path, Code: code, Message: fmt.Sprintf(format, args...)}
}

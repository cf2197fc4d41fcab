package graph

import (
	"context"
	"fmt"

	"github.com/smallnest/agentgraphgo/log"
)

// Sentinel identifiers marking a scope's implicit entry and exit points.
// Entry/Exit belong to root and subgraph scopes, Controller/Terminate to
// loop body scopes.
const (
	Entry      = "ENTRY"
	Exit       = "EXIT"
	Controller = "CONTROLLER"
	Terminate  = "TERMINATE"
)

// Payload is the key/value document that flows along edges. Edge key
// declarations select which attributes are copied from a sender's output
// into a receiver's input.
type Payload map[string]any

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies every attribute of other into p, overwriting existing keys.
func (p Payload) Merge(other Payload) {
	for k, v := range other {
		p[k] = v
	}
}

// Pick returns a new payload holding only the named keys. An empty key set
// carries the whole payload.
func (p Payload) Pick(keys map[string]string) Payload {
	if len(keys) == 0 {
		return p.Clone()
	}
	out := make(Payload, len(keys))
	for k := range keys {
		if v, ok := p[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Node is a single executable vertex of the graph.
type Node interface {
	// Name is the unique identifier for the node within its scope.
	Name() string

	// Label is the human-readable description of the node.
	Label() string

	// Execute runs the node against its merged input payload and returns
	// its output payload.
	Execute(ctx context.Context, input Payload) (Payload, error)
}

// Edge is a directed, keyed data-flow arc. Source and Target are node names
// or scope sentinels. Keys maps carried attribute names to documentation
// strings; an empty map carries the sender's whole payload. Condition is
// only meaningful on edges leaving a Switch node.
type Edge struct {
	Source    string
	Target    string
	Condition string
	Keys      map[string]string
}

// Scope distinguishes the sentinel vocabulary a graph executes under.
type Scope int

const (
	// ScopeRoot is the vocabulary of the root graph and Subgraph bodies:
	// Entry feeds the first nodes, Exit collects the result.
	ScopeRoot Scope = iota
	// ScopeLoop is the vocabulary of a Loop body: Controller dispatches
	// each iteration and collects the carry payload, Terminate breaks out.
	ScopeLoop
)

// Graph is a static container of named nodes and keyed edges. Build it with
// AddNode/AddEdge and turn it into an executable with Compile.
type Graph struct {
	name   string
	scope  Scope
	nodes  map[string]Node
	order  []string
	edges  []*Edge
	logger log.Logger
}

// New creates an empty root-scoped graph.
func New(name string) *Graph {
	return &Graph{
		name:   name,
		scope:  ScopeRoot,
		nodes:  make(map[string]Node),
		logger: log.GetDefaultLogger(),
	}
}

// NewLoopBody creates an empty loop-scoped graph, executed by a LoopNode.
func NewLoopBody(name string) *Graph {
	g := New(name)
	g.scope = ScopeLoop
	return g
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Scope returns the graph's sentinel scope.
func (g *Graph) Scope() Scope { return g.scope }

// SetLogger replaces the graph's logger. Compiled runnables inherit it.
func (g *Graph) SetLogger(logger log.Logger) {
	g.logger = logger
}

// AddNode registers a node. Node names must be unique and must not collide
// with the scope's sentinels.
func (g *Graph) AddNode(n Node) error {
	name := n.Name()
	if name == "" {
		return fmt.Errorf("%w: empty node name", ErrInvalidNode)
	}
	if g.isSentinel(name) {
		return fmt.Errorf("%w: %q is a reserved sentinel", ErrInvalidNode, name)
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = n
	g.order = append(g.order, name)
	return nil
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns the edge list in declaration order.
func (g *Graph) Edges() []*Edge { return g.edges }

// AddEdge connects source to target, carrying the named keys. Either end may
// be a sentinel legal for the graph's scope.
func (g *Graph) AddEdge(source, target string, keys map[string]string) *Edge {
	e := &Edge{Source: source, Target: target, Keys: keys}
	g.edges = append(g.edges, e)
	return e
}

// AddConditionalEdge connects a Switch node to target under the given
// condition. The condition is evaluated by the switch's branch selector.
func (g *Graph) AddConditionalEdge(source, target, condition string, keys map[string]string) *Edge {
	e := &Edge{Source: source, Target: target, Condition: condition, Keys: keys}
	g.edges = append(g.edges, e)
	return e
}

// outgoing returns the edges leaving the named node in declaration order.
func (g *Graph) outgoing(name string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == name {
			out = append(out, e)
		}
	}
	return out
}

// isSentinel reports whether name is a sentinel of the graph's own scope.
func (g *Graph) isSentinel(name string) bool {
	switch g.scope {
	case ScopeLoop:
		return name == Controller || name == Terminate
	default:
		return name == Entry || name == Exit
	}
}

// Compile validates the graph's structure and returns an executable
// Runnable. The graph must have at least one edge leaving its entry
// sentinel, and every edge endpoint must resolve to a node or a legal
// sentinel.
func (g *Graph) Compile() (*Runnable, error) {
	entry := Entry
	if g.scope == ScopeLoop {
		entry = Controller
	}

	hasEntry := false
	hasExit := false
	for i, e := range g.edges {
		if e.Source == entry {
			hasEntry = true
		}
		if g.scope == ScopeRoot && e.Target == Exit {
			hasExit = true
		}
		if g.scope == ScopeLoop && (e.Target == Controller || e.Target == Terminate) {
			hasExit = true
		}
		if err := g.checkEndpoint(e.Source, true); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if err := g.checkEndpoint(e.Target, false); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	if !hasEntry {
		return nil, fmt.Errorf("%w: no edge leaving %s", ErrNoEntryEdge, entry)
	}
	if !hasExit {
		return nil, fmt.Errorf("%w: graph %s", ErrNoExitEdge, g.name)
	}

	return &Runnable{graph: g, maxSteps: defaultMaxSteps}, nil
}

// checkEndpoint verifies that an edge endpoint names a node or a sentinel
// legal for its role (source vs target) under the graph's scope.
func (g *Graph) checkEndpoint(name string, isSource bool) error {
	if _, ok := g.nodes[name]; ok {
		return nil
	}
	switch g.scope {
	case ScopeLoop:
		if isSource && name == Controller {
			return nil
		}
		if !isSource && (name == Controller || name == Terminate) {
			return nil
		}
	default:
		if isSource && name == Entry {
			return nil
		}
		if !isSource && name == Exit {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

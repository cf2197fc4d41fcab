package design

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smallnest/agentgraphgo/graph"
)

// nodeNameRe is the identifier grammar for node names.
var nodeNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Normalize validates a raw graph design against the grammar and returns its
// canonical form. It accepts an in-memory mapping (optionally wrapped in
// graph_design/graph envelopes), a JSON or loosely-quoted string, a
// filesystem path, or an already-canonical *Document. It fails fast: the
// first violation aborts with a *Error carrying a dotted-path-qualified
// message.
//
// Normalization is idempotent: re-normalizing its own output yields a
// structurally identical document.
func Normalize(raw any) (*Document, error) {
	m, err := decodeInput(raw)
	if err != nil {
		return nil, err
	}
	w := &walker{sink: failFast{}}
	return w.normalizeScope(m, "graph_design", ScopeRoot)
}

// violationSink receives grammar violations. The fail-fast sink turns the
// first one into an error that aborts the walk; the collecting sink
// accumulates them all and lets the walk continue. Both the strict
// validator and the diagnostic advisor run the exact same walker, so they
// agree on validity by construction.
type violationSink interface {
	report(v Violation) error
}

// failFast aborts the walk on the first violation.
type failFast struct{}

func (failFast) report(v Violation) error {
	return &Error{Path: v.Path, Code: v.Code, Message: v.Message}
}

// collector accumulates every violation and never aborts.
type collector struct {
	issues []Violation
}

func (c *collector) report(v Violation) error {
	c.issues = append(c.issues, v)
	return nil
}

// walker normalizes and checks one design document scope by scope.
type walker struct {
	sink violationSink

	// rolePool, when non-nil, restricts Action agents to its members
	// (advisor-only rule).
	rolePool map[string]bool
}

func (w *walker) report(path string, code IssueCode, format string, args ...any) error {
	return w.sink.report(Violation{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

// scope vocabulary helpers

// reservedNames returns the uppercase sentinel names a node may not shadow
// in the given scope, aliases included.
func reservedNames(scope Scope) map[string]bool {
	if scope == ScopeLoop {
		return map[string]bool{graph.Controller: true, graph.Terminate: true}
	}
	return map[string]bool{graph.Entry: true, graph.Exit: true, "START": true, "END": true}
}

// canonicalSentinel maps an endpoint spelling to its canonical sentinel
// name, independent of scope. Legacy START/END normalize to ENTRY/EXIT.
func canonicalSentinel(name string) (string, bool) {
	switch strings.ToUpper(name) {
	case "START", graph.Entry:
		return graph.Entry, true
	case "END", graph.Exit:
		return graph.Exit, true
	case graph.Controller:
		return graph.Controller, true
	case graph.Terminate:
		return graph.Terminate, true
	default:
		return "", false
	}
}

// normalizeScope normalizes one scope's nodes and edges, then runs the
// whole-scope structural checks.
func (w *walker) normalizeScope(m map[string]any, path string, scope Scope) (*Document, error) {
	doc := &Document{}
	names := make(map[string]*NodeSpec)

	nodesRaw, ok := anyList(m["nodes"])
	if !ok {
		if err := w.report(path, IssueNodesMissing, "scope has no nodes list"); err != nil {
			return nil, err
		}
	}
	for i, item := range nodesRaw {
		nodePath := fmt.Sprintf("%s.nodes[%d]", path, i)
		nm, ok := item.(map[string]any)
		if !ok {
			if err := w.report(nodePath, IssueNodeNotObject, "node entry is %T, not an object", item); err != nil {
				return nil, err
			}
			continue
		}
		spec, err := w.normalizeNode(nm, nodePath, path, scope, names)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, spec)
		if spec.Name != "" {
			names[spec.Name] = spec
		}
	}

	edgesRaw, ok := anyList(m["edges"])
	if !ok {
		if err := w.report(path, IssueEdgesMissing, "scope has no edges list"); err != nil {
			return nil, err
		}
	}
	for i, item := range edgesRaw {
		edgePath := fmt.Sprintf("%s.edges[%d]", path, i)
		em, ok := item.(map[string]any)
		if !ok {
			if err := w.report(edgePath, IssueEdgeNotObject, "edge entry is %T, not an object", item); err != nil {
				return nil, err
			}
			continue
		}
		spec, err := w.normalizeEdge(em, edgePath, scope, names)
		if err != nil {
			return nil, err
		}
		doc.Edges = append(doc.Edges, spec)
	}

	if err := w.checkStructure(doc, path, scope); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalizeNode applies the per-node normalization algorithm: resolve the
// name (alias: id), the type, the label, the type-specific fields, and the
// key declarations (aliases: tools_allowed, input_fields, output_fields,
// terminate_condition).
func (w *walker) normalizeNode(nm map[string]any, nodePath, scopePath string, scope Scope, names map[string]*NodeSpec) (*NodeSpec, error) {
	spec := &NodeSpec{}

	// 1. name
	name := strings.TrimSpace(stringField(nm, "name"))
	if name == "" {
		name = strings.TrimSpace(stringField(nm, "id"))
	}
	switch {
	case name == "":
		if err := w.report(nodePath+".name", IssueNodeNameMissing, "node name is missing or empty"); err != nil {
			return nil, err
		}
	case !nodeNameRe.MatchString(name):
		if err := w.report(nodePath+".name", IssueNodeNameInvalid, "node name '%s' contains illegal characters", name); err != nil {
			return nil, err
		}
	case reservedNames(scope)[strings.ToUpper(name)]:
		if err := w.report(nodePath+".name", IssueNodeNameReserved, "node name '%s' collides with a reserved %s-scope sentinel", name, scope); err != nil {
			return nil, err
		}
	default:
		if _, dup := names[name]; dup {
			if err := w.report(nodePath+".name", IssueNodeNameDuplicate, "duplicate node '%s'", name); err != nil {
				return nil, err
			}
		} else {
			spec.Name = name
		}
	}

	// 2. type
	typ := NodeType(strings.TrimSpace(stringField(nm, "type")))
	switch {
	case typ == "":
		if err := w.report(nodePath+".type", IssueNodeTypeMissing, "node type is missing"); err != nil {
			return nil, err
		}
	case !knownNodeType(typ):
		if err := w.report(nodePath+".type", IssueNodeTypeUnknown, "unknown node type '%s'", typ); err != nil {
			return nil, err
		}
	default:
		spec.Type = typ
	}

	// 3. label
	label := strings.TrimSpace(stringField(nm, "label"))
	if label == "" {
		if err := w.report(nodePath+".label", IssueNodeLabelMissing, "node label is missing or empty"); err != nil {
			return nil, err
		}
	}
	spec.Label = label

	// 4. Action agent
	if spec.Type == NodeAction {
		agent := strings.TrimSpace(stringField(nm, "agent"))
		if agent == "" {
			if err := w.report(nodePath+".agent", IssueAgentMissing, "Action node requires a non-empty agent"); err != nil {
				return nil, err
			}
		} else if w.rolePool != nil && !w.rolePool[agent] {
			if err := w.report(nodePath+".agent", IssueAgentNotInRolePool, "agent '%s' is not in the role pool", agent); err != nil {
				return nil, err
			}
		}
		spec.Agent = agent
	}

	// The compiler requires instructions on Action nodes; the grammar
	// carries them through unchecked.
	spec.Instructions = stringField(nm, "instructions")

	// 5. tools (legacy alias: tools_allowed)
	toolsRaw, present := nm["tools"]
	if !present {
		toolsRaw, present = nm["tools_allowed"]
	}
	if present && toolsRaw != nil {
		list, ok := stringList(toolsRaw)
		if !ok {
			if err := w.report(nodePath+".tools", IssueNodeToolsInvalid, "tools must be a list of non-empty strings"); err != nil {
				return nil, err
			}
		} else {
			spec.Tools = list
		}
	}

	// 6. nested scope
	if spec.Type == NodeLoop || spec.Type == NodeSubgraph {
		sub, ok := nm["sub_graph"].(map[string]any)
		if !ok {
			if err := w.report(nodePath+".sub_graph", IssueSubgraphMissing, "%s node requires a sub_graph object", spec.Type); err != nil {
				return nil, err
			}
		} else {
			childScope := ScopeRoot
			if spec.Type == NodeLoop {
				childScope = ScopeLoop
			}
			childPath := scopePath + "." + spec.Name
			if spec.Name == "" {
				childPath = nodePath + ".sub_graph"
			}
			child, err := w.normalizeScope(sub, childPath, childScope)
			if err != nil {
				return nil, err
			}
			spec.SubGraph = child
		}
	}

	// 7. loop extras (legacy alias: terminate_condition)
	if spec.Type == NodeLoop {
		prompt := stringField(nm, "terminate_condition_prompt")
		if prompt == "" {
			prompt = stringField(nm, "terminate_condition")
		}
		spec.TerminateConditionPrompt = prompt

		if raw, present := nm["max_iterations"]; present && raw != nil {
			n, ok := intValue(raw)
			if !ok || n <= 0 {
				if err := w.report(nodePath+".max_iterations", IssueMaxIterationsInvalid, "max_iterations must be a positive integer, got %v", raw); err != nil {
					return nil, err
				}
			} else {
				spec.MaxIterations = n
			}
		}
	}

	// 8. key declarations (legacy aliases: input_fields / output_fields)
	pullRaw, present := nm["pull_keys"]
	if !present {
		pullRaw, present = nm["input_fields"]
	}
	if present && pullRaw != nil {
		keys, ok := normalizeKeyMap(pullRaw)
		if !ok {
			if err := w.report(nodePath+".pull_keys", IssueNodeKeysInvalid, "pull_keys must be a {name: description} object or a list of names"); err != nil {
				return nil, err
			}
		} else {
			spec.PullKeys = keys
		}
	}
	pushRaw, present := nm["push_keys"]
	if !present {
		pushRaw, present = nm["output_fields"]
	}
	if present && pushRaw != nil {
		keys, ok := normalizeKeyMap(pushRaw)
		if !ok {
			if err := w.report(nodePath+".push_keys", IssueNodeKeysInvalid, "push_keys must be a {name: description} object or a list of names"); err != nil {
				return nil, err
			}
		} else {
			spec.PushKeys = keys
		}
	}

	return spec, nil
}

// normalizeEdge applies the per-edge normalization algorithm: sentinel alias
// mapping, endpoint existence, key-shape normalization (alias: key), and the
// condition rules (alias: label).
func (w *walker) normalizeEdge(em map[string]any, edgePath string, scope Scope, names map[string]*NodeSpec) (*EdgeSpec, error) {
	spec := &EdgeSpec{}

	// 1. endpoints
	source := strings.TrimSpace(stringField(em, "source"))
	if source == "" {
		if err := w.report(edgePath+".source", IssueEdgeSourceMissing, "edge source is missing or empty"); err != nil {
			return nil, err
		}
	}
	target := strings.TrimSpace(stringField(em, "target"))
	if target == "" {
		if err := w.report(edgePath+".target", IssueEdgeTargetMissing, "edge target is missing or empty"); err != nil {
			return nil, err
		}
	}

	// 2+3. sentinel aliasing and endpoint legality
	if source != "" {
		resolved, err := w.resolveEndpoint(source, edgePath+".source", scope, true, names)
		if err != nil {
			return nil, err
		}
		spec.Source = resolved
	}
	if target != "" {
		resolved, err := w.resolveEndpoint(target, edgePath+".target", scope, false, names)
		if err != nil {
			return nil, err
		}
		spec.Target = resolved
	}

	// 4. keys (legacy alias: key)
	keysRaw, present := em["keys"]
	if !present {
		keysRaw, present = em["key"]
	}
	if present && keysRaw != nil {
		keys, ok := normalizeKeyMap(keysRaw)
		if !ok {
			if err := w.report(edgePath+".keys", IssueEdgeKeysInvalid, "keys must be a {name: description} object or a list of names"); err != nil {
				return nil, err
			}
		} else {
			spec.Keys = keys
		}
	}

	// 5. condition (fallback alias: label)
	condition := strings.TrimSpace(stringField(em, "condition"))
	if condition == "" {
		condition = strings.TrimSpace(stringField(em, "label"))
	}
	spec.Condition = condition

	// 6. controller dispatch edges are unconditional
	if spec.Source == graph.Controller && condition != "" {
		if err := w.report(edgePath+".condition", IssueControllerEdgeHasCond, "edge from CONTROLLER must not carry a condition"); err != nil {
			return nil, err
		}
	}

	// 7. switch edges require a condition
	if src, ok := names[spec.Source]; ok && src.Type == NodeSwitch && condition == "" {
		if err := w.report(edgePath+".condition", IssueSwitchEdgeNoCondition, "edge from Switch node '%s' requires a non-empty condition", spec.Source); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// resolveEndpoint maps one edge endpoint to a node name or canonical
// sentinel, rejecting wrong-scope vocabularies and misplaced sentinels.
// Sentinel spellings are matched case-insensitively.
func (w *walker) resolveEndpoint(name, path string, scope Scope, isSource bool, names map[string]*NodeSpec) (string, error) {
	if _, ok := names[name]; ok {
		return name, nil
	}

	sentinel, isSentinel := canonicalSentinel(name)
	if !isSentinel {
		code := IssueEdgeUnknownTarget
		role := "target"
		if isSource {
			code = IssueEdgeUnknownSource
			role = "source"
		}
		return "", w.report(path, code, "unknown %s '%s'", role, name)
	}

	loopSentinel := sentinel == graph.Controller || sentinel == graph.Terminate
	if (scope == ScopeLoop) != loopSentinel {
		return "", w.report(path, IssueEdgeWrongScope, "sentinel '%s' is not allowed in %s scope", sentinel, scope)
	}

	switch sentinel {
	case graph.Entry:
		if !isSource {
			return "", w.report(path, IssueEdgeSentinelMisplaced, "ENTRY may only be an edge source")
		}
	case graph.Exit:
		if isSource {
			return "", w.report(path, IssueEdgeSentinelMisplaced, "EXIT may only be an edge target")
		}
	case graph.Terminate:
		if isSource {
			return "", w.report(path, IssueEdgeTerminateAsSource, "TERMINATE may only be an edge target")
		}
	}
	return sentinel, nil
}

// checkStructure runs the whole-scope invariants: the scope must be entered
// and left through its sentinels, every node must be reachable from the
// entry sentinel, and every node must have a path to an exit sentinel.
func (w *walker) checkStructure(doc *Document, path string, scope Scope) error {
	entry := graph.Entry
	exits := []string{graph.Exit}
	if scope == ScopeLoop {
		entry = graph.Controller
		exits = []string{graph.Controller, graph.Terminate}
	}

	hasDispatch := false
	hasReturn := false
	forward := make(map[string][]string)
	backward := make(map[string][]string)
	for _, e := range doc.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		if e.Source == entry {
			hasDispatch = true
		}
		forward[e.Source] = append(forward[e.Source], e.Target)
		backward[e.Target] = append(backward[e.Target], e.Source)
		if scope == ScopeLoop && e.Target == graph.Controller {
			hasReturn = true
		}
		if scope == ScopeRoot && e.Target == graph.Exit {
			hasReturn = true
		}
	}

	if !hasDispatch {
		code, msg := IssueEntryEdgeMissing, "no edge leaves ENTRY"
		if scope == ScopeLoop {
			code, msg = IssueControllerNoDispatch, "no edge leaves CONTROLLER"
		}
		if err := w.report(path, code, "%s", msg); err != nil {
			return err
		}
	}
	if !hasReturn {
		code, msg := IssueExitEdgeMissing, "no edge reaches EXIT"
		if scope == ScopeLoop {
			code, msg = IssueControllerNoReturn, "no edge returns to CONTROLLER"
		}
		if err := w.report(path, code, "%s", msg); err != nil {
			return err
		}
	}

	reachable := traverse(forward, []string{entry})
	canExit := traverse(backward, exits)

	for i, n := range doc.Nodes {
		if n.Name == "" {
			continue
		}
		nodePath := fmt.Sprintf("%s.nodes[%d]", path, i)
		if !reachable[n.Name] {
			if err := w.report(nodePath, IssueNodeUnreachable, "node '%s' is unreachable from %s", n.Name, entry); err != nil {
				return err
			}
		}
		if !canExit[n.Name] {
			if err := w.report(nodePath, IssueNodeCannotReachExit, "node '%s' has no path to %s", n.Name, strings.Join(exits, " or ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// traverse performs an iterative depth-first search over the adjacency map
// from the given start vertices.
func traverse(adj map[string][]string, start []string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), start...)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[v] {
			continue
		}
		seen[v] = true
		stack = append(stack, adj[v]...)
	}
	return seen
}

// field coercion helpers

// anyList coerces a raw list value to []any, accepting the generic element
// types hand-built mappings tend to use.
func anyList(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []map[string]any:
		out := make([]any, len(items))
		for i, m := range items {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// stringField returns m[key] when it is a string, else "".
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stringList coerces a value to a list of non-empty strings.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, true
}

// normalizeKeyMap coerces a key declaration into the canonical
// {name: description} shape. Lists of names map to empty descriptions, and a
// bare string declares a single key.
func normalizeKeyMap(v any) (map[string]string, bool) {
	switch kv := v.(type) {
	case map[string]any:
		out := make(map[string]string, len(kv))
		for k, raw := range kv {
			if k == "" {
				return nil, false
			}
			switch d := raw.(type) {
			case string:
				out[k] = d
			case nil:
				out[k] = ""
			default:
				return nil, false
			}
		}
		return out, true
	case []any:
		out := make(map[string]string, len(kv))
		for _, item := range kv {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, false
			}
			out[strings.TrimSpace(s)] = ""
		}
		return out, true
	case string:
		if strings.TrimSpace(kv) == "" {
			return nil, false
		}
		return map[string]string{strings.TrimSpace(kv): ""}, true
	default:
		return nil, false
	}
}

// intValue coerces JSON numbers (and plain ints) to int, rejecting
// non-integral floats.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

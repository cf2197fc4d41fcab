package design

// IssueCode identifies one class of design violation. The same codes back
// both the fail-fast validator errors and the advisor's collected issues.
type IssueCode string

const (
	IssueNoJSONFound     IssueCode = "no_json_found"
	IssueJSONDecodeError IssueCode = "json_decode_error"
	IssueSchemaError     IssueCode = "schema_error"
	IssueEnvelopeTooDeep IssueCode = "envelope_too_deep"

	IssueNodesMissing IssueCode = "nodes_missing"
	IssueEdgesMissing IssueCode = "edges_missing"

	IssueNodeNotObject     IssueCode = "node_not_object"
	IssueNodeNameMissing   IssueCode = "node_name_missing"
	IssueNodeNameInvalid   IssueCode = "node_name_invalid"
	IssueNodeNameReserved  IssueCode = "node_name_reserved"
	IssueNodeNameDuplicate IssueCode = "node_name_duplicate"
	IssueNodeTypeMissing   IssueCode = "node_type_missing"
	IssueNodeTypeUnknown   IssueCode = "node_type_unknown"
	IssueNodeLabelMissing  IssueCode = "node_label_missing"
	IssueNodeToolsInvalid  IssueCode = "node_tools_invalid"
	IssueNodeKeysInvalid   IssueCode = "node_keys_invalid"
	IssueSubgraphMissing   IssueCode = "node_subgraph_missing"

	IssueAgentMissing       IssueCode = "action_agent_missing"
	IssueAgentNotInRolePool IssueCode = "action_agent_not_in_role_pool"

	IssueMaxIterationsInvalid IssueCode = "loop_max_iterations_invalid"

	IssueEdgeNotObject          IssueCode = "edge_not_object"
	IssueEdgeSourceMissing      IssueCode = "edge_source_missing"
	IssueEdgeTargetMissing      IssueCode = "edge_target_missing"
	IssueEdgeUnknownSource      IssueCode = "edge_unknown_source"
	IssueEdgeUnknownTarget      IssueCode = "edge_unknown_target"
	IssueEdgeWrongScope         IssueCode = "edge_sentinel_wrong_scope"
	IssueEdgeSentinelMisplaced  IssueCode = "edge_sentinel_misplaced"
	IssueEdgeTerminateAsSource  IssueCode = "edge_terminate_as_source"
	IssueEdgeKeysInvalid        IssueCode = "edge_keys_invalid"
	IssueSwitchEdgeNoCondition  IssueCode = "switch_edge_missing_condition"
	IssueControllerEdgeHasCond  IssueCode = "controller_edge_with_condition"
	IssueEntryEdgeMissing       IssueCode = "entry_edge_missing"
	IssueExitEdgeMissing        IssueCode = "exit_edge_missing"
	IssueControllerNoDispatch   IssueCode = "controller_dispatch_missing"
	IssueControllerNoReturn     IssueCode = "controller_return_missing"
	IssueNodeUnreachable        IssueCode = "node_unreachable"
	IssueNodeCannotReachExit    IssueCode = "node_cannot_reach_exit"

	// Compile-time-only codes: raised by the compiler against documents
	// that already passed the grammar, never collected by the advisor.
	IssueInstructionsMissing IssueCode = "action_instructions_missing"
	IssueToolNotFound        IssueCode = "tool_not_found"
)

// Violation is one detected breach of the design grammar.
type Violation struct {
	// Path locates the offending element, dotted per scope, e.g.
	// "graph_design.retry_loop.edges[1]".
	Path string
	// Code is the stable issue class.
	Code IssueCode
	// Message is the concrete, instance-specific description.
	Message string
}

// advice pairs a one-line problem statement with a one-line remediation
// suggestion for one issue code.
type advice struct {
	problem    string
	suggestion string
}

// adviceTable renders issue codes into author-facing guidance. Unknown codes
// fall back to a generic line.
var adviceTable = map[IssueCode]advice{
	IssueNoJSONFound: {
		"No JSON object was found in the output.",
		`Reply with a single JSON object shaped {"graph": {"nodes": [...], "edges": [...]}}.`,
	},
	IssueJSONDecodeError: {
		"The output contains JSON that could not be decoded.",
		"Check for unbalanced braces, missing commas, or unquoted strings and emit strict JSON.",
	},
	IssueSchemaError: {
		"The decoded JSON does not have the expected graph shape.",
		`Wrap the design as {"graph": {"nodes": [...], "edges": [...]}} with both lists present.`,
	},
	IssueEnvelopeTooDeep: {
		"The design is wrapped in too many envelope levels.",
		`Use a single {"graph": {...}} wrapper around the nodes/edges object.`,
	},
	IssueNodesMissing: {
		`The scope has no "nodes" list.`,
		`Add a "nodes" array declaring at least one node.`,
	},
	IssueEdgesMissing: {
		`The scope has no "edges" list.`,
		`Add an "edges" array connecting the declared nodes.`,
	},
	IssueNodeNotObject: {
		"A node entry is not a JSON object.",
		"Each node must be an object with name, type and label fields.",
	},
	IssueNodeNameMissing: {
		`A node has no "name".`,
		`Give every node a unique non-empty "name".`,
	},
	IssueNodeNameInvalid: {
		"A node name contains illegal characters.",
		"Node names may only use letters, digits, underscore and hyphen.",
	},
	IssueNodeNameReserved: {
		"A node name collides with a reserved sentinel.",
		"Rename the node; ENTRY/EXIT (and CONTROLLER/TERMINATE inside loops) are reserved.",
	},
	IssueNodeNameDuplicate: {
		"Two sibling nodes share the same name.",
		"Make every node name unique within its scope.",
	},
	IssueNodeTypeMissing: {
		`A node has no "type".`,
		"Set type to one of Action, Switch, Loop or Subgraph.",
	},
	IssueNodeTypeUnknown: {
		"A node declares an unknown type.",
		"Use only Action, Switch, Loop or Subgraph.",
	},
	IssueNodeLabelMissing: {
		`A node has no "label".`,
		`Give every node a short human-readable "label".`,
	},
	IssueNodeToolsInvalid: {
		`A node's "tools" is not a list of non-empty strings.`,
		"List tool names as strings, or omit the field.",
	},
	IssueNodeKeysInvalid: {
		"A node's pull_keys/push_keys has the wrong shape.",
		"Use a {name: description} object or a list of key names.",
	},
	IssueSubgraphMissing: {
		`A Loop or Subgraph node has no "sub_graph" object.`,
		`Add a nested "sub_graph" with its own nodes and edges.`,
	},
	IssueAgentMissing: {
		`An Action node has no "agent".`,
		`Set "agent" to the role that should perform the step.`,
	},
	IssueAgentNotInRolePool: {
		"An Action node names an agent outside the provided role pool.",
		"Pick the agent from the role list given in the prompt.",
	},
	IssueMaxIterationsInvalid: {
		`A Loop node's "max_iterations" is not a positive integer.`,
		`Use a positive integer, or omit "max_iterations" for the default.`,
	},
	IssueEdgeNotObject: {
		"An edge entry is not a JSON object.",
		"Each edge must be an object with source and target fields.",
	},
	IssueEdgeSourceMissing: {
		`An edge has no "source".`,
		`Set "source" to a declared node name or the scope's entry sentinel.`,
	},
	IssueEdgeTargetMissing: {
		`An edge has no "target".`,
		`Set "target" to a declared node name or the scope's exit sentinel.`,
	},
	IssueEdgeUnknownSource: {
		"An edge's source is neither a declared node nor a legal sentinel.",
		"Declare the node in this scope's nodes list, or use the scope's sentinel.",
	},
	IssueEdgeUnknownTarget: {
		"An edge's target is neither a declared node nor a legal sentinel.",
		"Declare the node in this scope's nodes list, or use the scope's sentinel.",
	},
	IssueEdgeWrongScope: {
		"An edge uses a sentinel from the wrong scope vocabulary.",
		"Use ENTRY/EXIT outside loops and CONTROLLER/TERMINATE inside loop bodies.",
	},
	IssueEdgeSentinelMisplaced: {
		"An entry sentinel is used as a target, or an exit sentinel as a source.",
		"ENTRY/CONTROLLER may only be edge sources; EXIT may only be a target.",
	},
	IssueEdgeTerminateAsSource: {
		"TERMINATE is used as an edge source.",
		"TERMINATE may only appear as an edge target.",
	},
	IssueEdgeKeysInvalid: {
		`An edge's "keys" has the wrong shape.`,
		"Use a {name: description} object or a list of key names.",
	},
	IssueSwitchEdgeNoCondition: {
		"An edge leaving a Switch node has no condition.",
		`Add a non-empty "condition" to every edge whose source is a Switch node.`,
	},
	IssueControllerEdgeHasCond: {
		"An edge leaving CONTROLLER carries a condition.",
		"Remove the condition; controller dispatch edges are unconditional.",
	},
	IssueEntryEdgeMissing: {
		"The scope has no edge leaving ENTRY.",
		"Add at least one ENTRY -> node edge so the scope can start.",
	},
	IssueExitEdgeMissing: {
		"The scope has no edge reaching EXIT.",
		"Add at least one node -> EXIT edge so the scope can finish.",
	},
	IssueControllerNoDispatch: {
		"The loop body has no edge leaving CONTROLLER.",
		"Add at least one CONTROLLER -> node dispatch edge.",
	},
	IssueControllerNoReturn: {
		"The loop body has no edge returning to CONTROLLER.",
		"Add at least one node -> CONTROLLER edge to close the iteration cycle.",
	},
	IssueNodeUnreachable: {
		"A node is unreachable from the scope's entry sentinel.",
		"Connect the node to the flow starting at ENTRY (or CONTROLLER inside loops).",
	},
	IssueNodeCannotReachExit: {
		"A node has no path to the scope's exit sentinel.",
		"Connect the node towards EXIT (or CONTROLLER/TERMINATE inside loops).",
	},
}

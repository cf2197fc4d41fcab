package design

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipelineDesign is a well-formed two-step root design used across tests.
const pipelineDesign = `{
	"graph_design": {
		"nodes": [
			{"name": "research", "type": "Action", "label": "Collect sources",
			 "agent": "Researcher", "instructions": "Find sources.",
			 "push_keys": {"sources": "collected source list"}},
			{"name": "write", "type": "Action", "label": "Write the report",
			 "agent": "Writer", "instructions": "Write it.",
			 "pull_keys": {"sources": "collected source list"},
			 "push_keys": {"report": "final report"}}
		],
		"edges": [
			{"source": "ENTRY", "target": "research"},
			{"source": "research", "target": "write", "keys": {"sources": ""}},
			{"source": "write", "target": "EXIT", "keys": {"report": ""}}
		]
	}
}`

func TestNormalizePipeline(t *testing.T) {
	doc, err := Normalize(pipelineDesign)
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "research", doc.Nodes[0].Name)
	assert.Equal(t, NodeAction, doc.Nodes[0].Type)
	assert.Equal(t, "Researcher", doc.Nodes[0].Agent)
	assert.Equal(t, map[string]string{"sources": "collected source list"}, doc.Nodes[0].PushKeys)

	require.Len(t, doc.Edges, 3)
	assert.Equal(t, "ENTRY", doc.Edges[0].Source)
	assert.Equal(t, "EXIT", doc.Edges[2].Target)
}

func TestNormalizeIdempotent(t *testing.T) {
	doc, err := Normalize(pipelineDesign)
	require.NoError(t, err)

	again, err := Normalize(doc)
	require.NoError(t, err)

	a, _ := json.Marshal(doc)
	b, _ := json.Marshal(again)
	assert.JSONEq(t, string(a), string(b))
}

func TestNormalizeLegacyAliases(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{
				"id": "step", "type": "Action", "label": "Do the step",
				"agent": "Worker", "instructions": "Do it.",
				"tools_allowed": []any{"Calculator"},
				"input_fields":  []any{"task"},
				"output_fields": map[string]any{"result": "the result"},
			},
		},
		"edges": []any{
			map[string]any{"source": "START", "target": "step"},
			map[string]any{"source": "step", "target": "END", "key": "result"},
		},
	}

	doc, err := Normalize(raw)
	require.NoError(t, err)

	n := doc.Nodes[0]
	assert.Equal(t, "step", n.Name)
	assert.Equal(t, []string{"Calculator"}, n.Tools)
	assert.Equal(t, map[string]string{"task": ""}, n.PullKeys)
	assert.Equal(t, map[string]string{"result": "the result"}, n.PushKeys)

	// START/END normalize to the canonical sentinels.
	assert.Equal(t, "ENTRY", doc.Edges[0].Source)
	assert.Equal(t, "EXIT", doc.Edges[1].Target)
	assert.Equal(t, map[string]string{"result": ""}, doc.Edges[1].Keys)
}

func TestNormalizeSentinelsCaseInsensitive(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{"name": "n", "type": "Action", "label": "l", "agent": "a", "instructions": "i"},
		},
		"edges": []any{
			map[string]any{"source": "entry", "target": "n"},
			map[string]any{"source": "n", "target": "exit"},
		},
	}
	doc, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "ENTRY", doc.Edges[0].Source)
	assert.Equal(t, "EXIT", doc.Edges[1].Target)
}

func TestNormalizeErrors(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"nodes": []any{
				map[string]any{"name": "a", "type": "Action", "label": "A", "agent": "x", "instructions": "i"},
			},
			"edges": []any{
				map[string]any{"source": "ENTRY", "target": "a"},
				map[string]any{"source": "a", "target": "EXIT"},
			},
		}
	}

	tests := []struct {
		name     string
		mutate   func(m map[string]any)
		code     IssueCode
		pathPart string
	}{
		{
			name: "missing node name",
			mutate: func(m map[string]any) {
				node(m, 0)["name"] = ""
				delete(node(m, 0), "id")
			},
			code:     IssueNodeNameMissing,
			pathPart: "graph_design.nodes[0].name",
		},
		{
			name:     "illegal node name",
			mutate:   func(m map[string]any) { node(m, 0)["name"] = "bad name!" },
			code:     IssueNodeNameInvalid,
			pathPart: ".name",
		},
		{
			name:     "reserved node name",
			mutate:   func(m map[string]any) { node(m, 0)["name"] = "entry" },
			code:     IssueNodeNameReserved,
			pathPart: ".name",
		},
		{
			name: "duplicate node name",
			mutate: func(m map[string]any) {
				m["nodes"] = append(m["nodes"].([]any),
					map[string]any{"name": "a", "type": "Action", "label": "A2", "agent": "x", "instructions": "i"})
			},
			code:     IssueNodeNameDuplicate,
			pathPart: "nodes[1].name",
		},
		{
			name:     "unknown node type",
			mutate:   func(m map[string]any) { node(m, 0)["type"] = "Widget" },
			code:     IssueNodeTypeUnknown,
			pathPart: ".type",
		},
		{
			name:     "missing label",
			mutate:   func(m map[string]any) { node(m, 0)["label"] = "  " },
			code:     IssueNodeLabelMissing,
			pathPart: ".label",
		},
		{
			name:     "action without agent",
			mutate:   func(m map[string]any) { delete(node(m, 0), "agent") },
			code:     IssueAgentMissing,
			pathPart: ".agent",
		},
		{
			name:     "unknown edge target",
			mutate:   func(m map[string]any) { edge(m, 1)["target"] = "ghost" },
			code:     IssueEdgeUnknownTarget,
			pathPart: "edges[1].target",
		},
		{
			name:     "loop sentinel in root scope",
			mutate:   func(m map[string]any) { edge(m, 1)["target"] = "CONTROLLER" },
			code:     IssueEdgeWrongScope,
			pathPart: "edges[1].target",
		},
		{
			name:     "entry as target",
			mutate:   func(m map[string]any) { edge(m, 1)["target"] = "ENTRY" },
			code:     IssueEdgeSentinelMisplaced,
			pathPart: "edges[1].target",
		},
		{
			name:     "exit as source",
			mutate:   func(m map[string]any) { edge(m, 0)["source"] = "EXIT" },
			code:     IssueEdgeSentinelMisplaced,
			pathPart: "edges[0].source",
		},
		{
			name:     "no entry edge",
			mutate:   func(m map[string]any) { m["edges"] = m["edges"].([]any)[1:] },
			code:     IssueEntryEdgeMissing,
			pathPart: "graph_design",
		},
		{
			name:     "no exit edge",
			mutate:   func(m map[string]any) { m["edges"] = m["edges"].([]any)[:1] },
			code:     IssueExitEdgeMissing,
			pathPart: "graph_design",
		},
		{
			name:     "bad tools shape",
			mutate:   func(m map[string]any) { node(m, 0)["tools"] = "Calculator" },
			code:     IssueNodeToolsInvalid,
			pathPart: ".tools",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			_, err := Normalize(m)
			require.Error(t, err)

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Contains(t, de.Path, tt.pathPart)
		})
	}
}

func TestNormalizeReachability(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{"name": "a", "type": "Action", "label": "A", "agent": "x", "instructions": "i"},
			map[string]any{"name": "orphan", "type": "Action", "label": "O", "agent": "x", "instructions": "i"},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "a"},
			map[string]any{"source": "a", "target": "EXIT"},
			map[string]any{"source": "orphan", "target": "EXIT"},
		},
	}
	_, err := Normalize(raw)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueNodeUnreachable, de.Code)
	assert.Contains(t, de.Message, "orphan")

	// No path from the node to EXIT.
	raw["edges"] = []any{
		map[string]any{"source": "ENTRY", "target": "a"},
		map[string]any{"source": "ENTRY", "target": "orphan"},
		map[string]any{"source": "a", "target": "EXIT"},
	}
	_, err = Normalize(raw)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueNodeCannotReachExit, de.Code)
}

func TestNormalizeLoopScope(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{
				"name": "refine", "type": "Loop", "label": "Refine until done",
				"max_iterations":      2,
				"terminate_condition": "Is the draft final?",
				"sub_graph": map[string]any{
					"nodes": []any{
						map[string]any{"name": "improve", "type": "Action", "label": "Improve draft",
							"agent": "Editor", "instructions": "Improve."},
					},
					"edges": []any{
						map[string]any{"source": "CONTROLLER", "target": "improve"},
						map[string]any{"source": "improve", "target": "CONTROLLER"},
					},
				},
			},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "refine"},
			map[string]any{"source": "refine", "target": "EXIT"},
		},
	}

	doc, err := Normalize(raw)
	require.NoError(t, err)

	loop := doc.Nodes[0]
	assert.Equal(t, 2, loop.MaxIterations)
	assert.Equal(t, "Is the draft final?", loop.TerminateConditionPrompt)
	require.NotNil(t, loop.SubGraph)
	assert.Equal(t, "improve", loop.SubGraph.Nodes[0].Name)

	// Loop scope rejects root sentinels; the error path points into the
	// nested scope by node name.
	sub := raw["nodes"].([]any)[0].(map[string]any)["sub_graph"].(map[string]any)
	sub["edges"].([]any)[1].(map[string]any)["target"] = "EXIT"
	_, err = Normalize(raw)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueEdgeWrongScope, de.Code)
	assert.Contains(t, de.Path, "graph_design.refine")
}

func TestNormalizeLoopMaxIterations(t *testing.T) {
	base := map[string]any{
		"nodes": []any{
			map[string]any{
				"name": "l", "type": "Loop", "label": "L",
				"max_iterations": 0,
				"sub_graph": map[string]any{
					"nodes": []any{map[string]any{"name": "s", "type": "Action", "label": "S", "agent": "a", "instructions": "i"}},
					"edges": []any{
						map[string]any{"source": "CONTROLLER", "target": "s"},
						map[string]any{"source": "s", "target": "TERMINATE"},
						map[string]any{"source": "s", "target": "CONTROLLER"},
					},
				},
			},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "l"},
			map[string]any{"source": "l", "target": "EXIT"},
		},
	}

	_, err := Normalize(base)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueMaxIterationsInvalid, de.Code)

	node(base, 0)["max_iterations"] = 2.5
	_, err = Normalize(base)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueMaxIterationsInvalid, de.Code)

	// JSON numbers decode as float64; integral values are accepted.
	node(base, 0)["max_iterations"] = float64(5)
	doc, err := Normalize(base)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Nodes[0].MaxIterations)
}

func TestNormalizeSwitchConditions(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{"name": "route", "type": "Switch", "label": "Route by topic"},
			map[string]any{"name": "a", "type": "Action", "label": "A", "agent": "x", "instructions": "i"},
			map[string]any{"name": "b", "type": "Action", "label": "B", "agent": "x", "instructions": "i"},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "route"},
			map[string]any{"source": "route", "target": "a", "condition": "topic is tech"},
			map[string]any{"source": "route", "target": "b", "label": "otherwise"},
			map[string]any{"source": "a", "target": "EXIT"},
			map[string]any{"source": "b", "target": "EXIT"},
		},
	}

	// An edge label doubles as the condition.
	doc, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "otherwise", doc.Edges[2].Condition)

	// A switch edge with neither fails.
	delete(raw["edges"].([]any)[2].(map[string]any), "label")
	_, err = Normalize(raw)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueSwitchEdgeNoCondition, de.Code)
}

func TestNormalizeLoopRequiresControllerEdges(t *testing.T) {
	build := func(subEdges []any) map[string]any {
		return map[string]any{
			"nodes": []any{
				map[string]any{
					"name": "l", "type": "Loop", "label": "L",
					"sub_graph": map[string]any{
						"nodes": []any{map[string]any{"name": "s", "type": "Action", "label": "S", "agent": "a", "instructions": "i"}},
						"edges": subEdges,
					},
				},
			},
			"edges": []any{
				map[string]any{"source": "ENTRY", "target": "l"},
				map[string]any{"source": "l", "target": "EXIT"},
			},
		}
	}

	// A body that dispatches but never returns cannot iterate.
	noReturn := build([]any{
		map[string]any{"source": "CONTROLLER", "target": "s"},
		map[string]any{"source": "s", "target": "TERMINATE"},
	})
	_, err := Normalize(noReturn)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueControllerNoReturn, de.Code)
	assert.Contains(t, de.Path, "graph_design.l")

	// A body that never dispatches runs nothing at all.
	noDispatch := build([]any{
		map[string]any{"source": "s", "target": "CONTROLLER"},
	})
	_, err = Normalize(noDispatch)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueControllerNoDispatch, de.Code)
	assert.Contains(t, de.Path, "graph_design.l")
}

func TestNormalizeControllerEdgesUnconditional(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{
				"name": "l", "type": "Loop", "label": "L",
				"sub_graph": map[string]any{
					"nodes": []any{map[string]any{"name": "s", "type": "Action", "label": "S", "agent": "a", "instructions": "i"}},
					"edges": []any{
						map[string]any{"source": "CONTROLLER", "target": "s", "condition": "always"},
						map[string]any{"source": "s", "target": "CONTROLLER"},
					},
				},
			},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "l"},
			map[string]any{"source": "l", "target": "EXIT"},
		},
	}

	_, err := Normalize(raw)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueControllerEdgeHasCond, de.Code)
}

func TestNormalizeTerminateAsSource(t *testing.T) {
	raw := map[string]any{
		"nodes": []any{
			map[string]any{
				"name": "l", "type": "Loop", "label": "L",
				"sub_graph": map[string]any{
					"nodes": []any{map[string]any{"name": "s", "type": "Action", "label": "S", "agent": "a", "instructions": "i"}},
					"edges": []any{
						map[string]any{"source": "CONTROLLER", "target": "s"},
						map[string]any{"source": "s", "target": "CONTROLLER"},
						map[string]any{"source": "TERMINATE", "target": "s"},
					},
				},
			},
		},
		"edges": []any{
			map[string]any{"source": "ENTRY", "target": "l"},
			map[string]any{"source": "l", "target": "EXIT"},
		},
	}

	_, err := Normalize(raw)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, IssueEdgeTerminateAsSource, de.Code)
}

// node and edge are shorthands for reaching into the raw test mappings.
func node(m map[string]any, i int) map[string]any {
	return m["nodes"].([]any)[i].(map[string]any)
}

func edge(m map[string]any, i int) map[string]any {
	return m["edges"].([]any)[i].(map[string]any)
}

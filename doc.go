// AgentGraph Go - Dynamic Graph Design for Multi-Agent Workflows in Go
//
// AgentGraph Go turns model-written workflow descriptions into running
// multi-agent graphs. A planner model emits a graph design as JSON; the
// design package validates it, explains its problems back to the model until
// it is acceptable, compiles it against a capability registry, and the graph
// package executes it with parallel payload-flow semantics.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/agentgraphgo
//
// Compile and run a design:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/agentgraphgo/design"
//		"github.com/smallnest/agentgraphgo/graph"
//		"github.com/tmc/langchaingo/llms/openai"
//	)
//
//	func main() {
//		llm, _ := openai.New()
//
//		doc, _ := design.Normalize(`{
//		  "graph_design": {
//		    "nodes": [
//		      {"name": "answer", "type": "Action", "label": "answer the question",
//		       "agent": "Assistant", "instructions": "Answer the user's question.",
//		       "push_keys": {"answer": "the answer"}}
//		    ],
//		    "edges": [
//		      {"source": "ENTRY", "target": "answer"},
//		      {"source": "answer", "target": "EXIT"}
//		    ]
//		  }
//		}`)
//
//		runnable, _ := design.NewRunnable("qa", doc, &design.Registry{Model: llm})
//		out, _ := runnable.Invoke(context.Background(), graph.Payload{
//			"question": "What is a goroutine?",
//		})
//		fmt.Println(out["answer"])
//	}
//
// Or let a planner model design the graph:
//
//	builder := design.NewBuilder(llm, design.WithCache(cache))
//	doc, err := builder.Build(ctx, "research a topic and write a report", rolePool)
//
// # Packages
//
//   - design: document model, fail-fast validator/normalizer, collect-all
//     diagnostic advisor, graph compiler, and the iterative build loop.
//   - graph: the runtime engine — Action/Switch/Loop/Subgraph nodes, keyed
//     payload edges, parallel wave execution, Mermaid/DOT export.
//   - store: design caches (memory, file, sqlite, redis, postgres).
//   - tool: a named tool registry plus web-fetch and calculator tools.
//   - adapter/openai: an llms.Model over any OpenAI-compatible endpoint.
//   - log: the leveled logging interface used across the module.
//
// # Design Documents
//
// A design is a JSON object with "nodes" and "edges". Node types are Action
// (one model invocation with pull/push key contracts), Switch (routes along
// exactly one conditional edge), Loop (a bounded-iteration body using the
// CONTROLLER and TERMINATE sentinels), and Subgraph (a nested graph). The
// root graph runs from ENTRY to EXIT. design.Normalize accepts common
// planner-output dialects: legacy aliases (id, START/END, input_fields,
// output_fields, tools_allowed), fenced JSON, and Python-style literals.
//
// design.Diagnose checks the same rules but never fails: it returns numbered
// remediation advice suitable for feeding back to the planner, which is
// exactly what design.Builder does until the design validates.
package agentgraphgo // import "github.com/smallnest/agentgraphgo"

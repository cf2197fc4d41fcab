// Package graph implements the runtime execution substrate for agent
// workflow graphs: named nodes connected by directed, keyed data-flow edges.
//
// Four node kinds exist. ActionNode invokes a model with fixed instructions,
// SwitchNode routes its payload along exactly one conditional edge, LoopNode
// repeats a nested loop-scoped body up to an iteration cap, and SubgraphNode
// nests an entire root-scoped graph as one compound step.
//
// Each scope has its own sentinel vocabulary. Root and subgraph scopes use
// Entry and Exit; loop bodies use Controller (dispatch and carry collection)
// and Terminate (early break). Edges declare which payload attributes they
// carry; an empty key set carries everything.
//
// Graphs are usually produced by the design package's compiler from a
// validated graph-design document, but can also be assembled by hand:
//
//	g := graph.New("pipeline")
//	g.AddNode(graph.NewActionNode("plan", "Plan the task", model, "You are a planner."))
//	g.AddEdge(graph.Entry, "plan", nil)
//	g.AddEdge("plan", graph.Exit, nil)
//	runnable, err := g.Compile()
//	out, err := runnable.Invoke(ctx, graph.Payload{"task": "write a haiku"})
package graph

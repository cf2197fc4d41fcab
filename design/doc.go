// Package design turns declarative graph descriptions, typically produced by
// a planner model, into executable graphs.
//
// A design is a JSON document of nodes and edges. The package offers four
// entry points around it:
//
//   - Normalize validates a raw design fail-fast and returns its canonical
//     form, resolving legacy aliases along the way.
//   - Diagnose inspects raw model output tolerantly and returns numbered
//     remediation advice instead of an error; designs that Diagnose clears
//     always pass Normalize, since both run the same rule walker.
//   - Compile materializes a canonical document into a live graph against a
//     Registry of models and tools.
//   - Builder runs the plan-diagnose-revise loop around a planner model,
//     optionally backed by a Cache.
//
// A minimal end-to-end use:
//
//	doc, err := design.Normalize(rawJSON)
//	if err != nil {
//		return err
//	}
//	runnable, err := design.NewRunnable("pipeline", doc, &design.Registry{Model: model})
//	if err != nil {
//		return err
//	}
//	out, err := runnable.Invoke(ctx, graph.Payload{"demand": "..."})
package design

// Package tool provides ready-made tools for Action nodes and a Registry
// that maps a design's declared tool names to implementations.
//
// Every tool implements the langchaingo tools.Tool interface, so anything
// from that ecosystem can be registered alongside the built-ins:
//
//	reg := tool.NewRegistry()
//	reg.MustRegister(tool.NewCalculator())
//	reg.MustRegister(tool.NewWebFetch())
//
//	runnable, err := design.NewRunnable("pipeline", doc, &design.Registry{
//		Model: model,
//		Tools: reg.All(),
//	})
package tool

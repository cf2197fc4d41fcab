// Package log provides a simple, leveled logging interface for agentgraphgo.
//
// The graph engine and the design build loop accept any implementation of the
// Logger interface. Two implementations ship with the package: DefaultLogger,
// built on the standard library's log package, and GologLogger, a thin
// wrapper around github.com/kataras/golog for applications that already use
// it.
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("compiled graph with %d nodes", n)
//
// A package-level default logger is available through Debug/Info/Warn/Error
// and can be swapped with SetDefaultLogger.
package log

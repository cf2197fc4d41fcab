package graph

import "errors"

var (
	// ErrInvalidNode is returned when a node cannot be added to a graph.
	ErrInvalidNode = errors.New("invalid node")

	// ErrDuplicateNode is returned when a node name is already taken.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNodeNotFound is returned when an edge endpoint resolves to nothing.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoEntryEdge is returned by Compile when nothing leaves the scope's
	// entry sentinel.
	ErrNoEntryEdge = errors.New("no entry edge")

	// ErrNoExitEdge is returned by Compile when nothing reaches the scope's
	// exit sentinel.
	ErrNoExitEdge = errors.New("no exit edge")

	// ErrStepLimit is returned when execution exceeds the runnable's wave
	// budget, usually indicating an unbounded cycle.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrNoBranch is returned when a switch selector picks no usable branch.
	ErrNoBranch = errors.New("no branch selected")

	// ErrNoModel is returned when a node that needs a model was built
	// without one.
	ErrNoModel = errors.New("no model bound")
)

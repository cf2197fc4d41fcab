package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// defaultMaxSteps bounds the number of execution waves per Invoke. Designs
// produced by the validator always terminate, but hand-built graphs may
// cycle.
const defaultMaxSteps = 256

// Runnable is a compiled, executable graph.
type Runnable struct {
	graph    *Graph
	maxSteps int
}

// SetMaxSteps overrides the wave budget for one runnable.
func (r *Runnable) SetMaxSteps(n int) {
	if n > 0 {
		r.maxSteps = n
	}
}

// Graph returns the underlying static graph.
func (r *Runnable) Graph() *Graph { return r.graph }

// waveResult accumulates payloads delivered to a scope's exit sentinels
// during one run.
type waveResult struct {
	exit       Payload
	controller Payload
	terminated bool
	terminate  Payload
}

// Invoke executes a root-scoped graph: the input payload is published along
// every Entry edge, nodes run wave by wave, and everything delivered to Exit
// is merged into the result.
func (r *Runnable) Invoke(ctx context.Context, input Payload) (Payload, error) {
	if r.graph.scope != ScopeRoot {
		return nil, fmt.Errorf("graph %s: loop bodies run inside a LoopNode", r.graph.name)
	}
	res, err := r.run(ctx, Entry, input)
	if err != nil {
		return nil, err
	}
	return res.exit, nil
}

// runOnce executes one pass of a loop body seeded from the Controller
// sentinel. LoopNode drives it once per iteration.
func (r *Runnable) runOnce(ctx context.Context, carry Payload) (*waveResult, error) {
	return r.run(ctx, Controller, carry)
}

func (r *Runnable) run(ctx context.Context, seed string, input Payload) (*waveResult, error) {
	runID := uuid.New().String()
	logger := r.graph.logger
	logger.Debug("run %s: graph %q seeded from %s", runID, r.graph.name, seed)

	res := &waveResult{
		exit:       Payload{},
		controller: Payload{},
		terminate:  Payload{},
	}
	inbox := make(map[string]Payload)
	var frontier []string
	inFrontier := make(map[string]bool)

	deliver := func(e *Edge, out Payload) {
		carried := out.Pick(e.Keys)
		switch e.Target {
		case Exit:
			res.exit.Merge(carried)
		case Controller:
			res.controller.Merge(carried)
		case Terminate:
			res.terminated = true
			res.terminate.Merge(carried)
		default:
			if box, ok := inbox[e.Target]; ok {
				box.Merge(carried)
			} else {
				inbox[e.Target] = carried
			}
			if !inFrontier[e.Target] {
				inFrontier[e.Target] = true
				frontier = append(frontier, e.Target)
			}
		}
	}

	for _, e := range r.graph.outgoing(seed) {
		deliver(e, input)
	}

	steps := 0
	for len(frontier) > 0 && !res.terminated {
		steps++
		if steps > r.maxSteps {
			return nil, fmt.Errorf("%w: graph %s after %d waves", ErrStepLimit, r.graph.name, r.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		wave := frontier
		frontier = nil
		inFrontier = make(map[string]bool)

		ready, waiting := r.splitWave(wave)
		for _, name := range waiting {
			logger.Debug("run %s: node %s waits for upstream deliveries", runID, name)
			inFrontier[name] = true
			frontier = append(frontier, name)
		}
		wave = ready

		outputs := make([]Payload, len(wave))
		errs := make([]error, len(wave))
		var wg sync.WaitGroup
		for i, name := range wave {
			node, ok := r.graph.nodes[name]
			if !ok {
				errs[i] = fmt.Errorf("%w: %s", ErrNodeNotFound, name)
				continue
			}
			idx := i
			n := node
			in := inbox[name]
			delete(inbox, name)
			SafeGo(&wg, func() {
				logger.Debug("run %s: executing node %s", runID, n.Name())
				out, err := n.Execute(ctx, in)
				if err != nil {
					errs[idx] = fmt.Errorf("node %s: %w", n.Name(), err)
					return
				}
				outputs[idx] = out
			}, func(panicVal any) {
				errs[idx] = fmt.Errorf("panic in node %s: %v", n.Name(), panicVal)
			})
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				logger.Error("run %s: %v", runID, err)
				return nil, err
			}
		}

		for i, name := range wave {
			node := r.graph.nodes[name]
			out := outputs[i]
			edges := r.graph.outgoing(name)
			if len(edges) == 0 {
				logger.Warn("run %s: node %s has no outgoing edges, payload dropped", runID, name)
				continue
			}
			if sw, ok := node.(*SwitchNode); ok {
				chosen, err := sw.selectBranch(ctx, out, edges)
				if err != nil {
					return nil, fmt.Errorf("switch %s: %w", name, err)
				}
				logger.Debug("run %s: switch %s chose %q -> %s", runID, name, chosen.Condition, chosen.Target)
				deliver(chosen, out)
				continue
			}
			for _, e := range edges {
				deliver(e, out)
			}
		}
	}

	logger.Debug("run %s: graph %q finished in %d waves", runID, r.graph.name, steps)
	return res, nil
}

// splitWave holds back frontier nodes that still await deliveries from
// upstream nodes scheduled in this run, so a join fed by paths of different
// lengths fires exactly once with its full input. A node waits while any of
// its incoming edges starts at a scheduled node or a node downstream of one.
// If every node would wait (a cycle), the whole wave runs so the graph keeps
// moving.
func (r *Runnable) splitWave(wave []string) (ready, waiting []string) {
	if len(wave) < 2 {
		return wave, nil
	}

	pending := make(map[string]bool, len(wave))
	var mark func(name string)
	mark = func(name string) {
		if pending[name] {
			return
		}
		if _, ok := r.graph.nodes[name]; !ok {
			return
		}
		pending[name] = true
		for _, e := range r.graph.outgoing(name) {
			mark(e.Target)
		}
	}
	for _, name := range wave {
		mark(name)
	}

	for _, name := range wave {
		waits := false
		for _, e := range r.graph.edges {
			if e.Target == name && e.Source != name && pending[e.Source] {
				waits = true
				break
			}
		}
		if waits {
			waiting = append(waiting, name)
		} else {
			ready = append(ready, name)
		}
	}
	if len(ready) == 0 {
		return wave, nil
	}
	return ready, waiting
}

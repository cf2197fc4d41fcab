package design

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/smallnest/agentgraphgo/log"
	"github.com/tmc/langchaingo/llms"
)

// DefaultBuildAttempts bounds the plan-diagnose-revise loop.
const DefaultBuildAttempts = 3

// plannerSystemPrompt frames the design task. The concrete demand, role pool
// and accumulated advice are appended as separate messages.
const plannerSystemPrompt = `You are a workflow architect. Design a multi-agent
workflow graph for the user's demand and return it as a single JSON object:

{
  "graph_design": {
    "nodes": [
      {"name": "...", "type": "Action|Switch|Loop|Subgraph", "label": "...",
       "agent": "...", "instructions": "...",
       "pull_keys": {"attr": "description"}, "push_keys": {"attr": "description"}}
    ],
    "edges": [
      {"source": "...", "target": "...", "condition": "...", "keys": {"attr": "description"}}
    ]
  }
}

Rules:
- The root graph starts at the sentinel ENTRY and ends at the sentinel EXIT.
- Loop bodies use the sentinels CONTROLLER and TERMINATE instead.
- Node names match [A-Za-z0-9_-]+ and must be unique within their graph.
- Every node needs a type and a label; Action nodes also need an agent from
  the role pool and instructions.
- Edges out of a Switch node each carry a condition; all other edges are
  unconditional.
- Every node must be reachable from ENTRY and must reach EXIT.

Return only the JSON object.`

// Builder runs the iterative plan-diagnose-revise loop: it asks a planner
// model for a design, collects advice with Diagnose, feeds the advice back,
// and stops at the first design the grammar accepts.
type Builder struct {
	model       llms.Model
	maxAttempts int
	cache       Cache
	logger      log.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildAttempts caps the number of planner rounds. Non-positive values
// keep the default.
func WithBuildAttempts(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithCache attaches a design cache keyed by demand and role pool.
func WithCache(c Cache) BuilderOption {
	return func(b *Builder) { b.cache = c }
}

// WithBuilderLogger overrides the package default logger.
func WithBuilderLogger(l log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder around the given planner model.
func NewBuilder(model llms.Model, opts ...BuilderOption) *Builder {
	b := &Builder{
		model:       model,
		maxAttempts: DefaultBuildAttempts,
		logger:      log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a canonical design for the demand, consulting the cache
// first. rolePool is the agent catalogue in "- Name: description" lines; an
// empty pool disables the agent membership check.
//
// The returned document has passed Normalize. On exhausted attempts the last
// round's advice is wrapped into the error.
func (b *Builder) Build(ctx context.Context, demand, rolePool string) (*Document, error) {
	key := cacheKey(demand, rolePool)

	if b.cache != nil {
		raw, ok, err := b.cache.Get(ctx, key)
		if err != nil {
			b.logger.Warn("design cache get failed: %v", err)
		} else if ok {
			doc, err := Normalize(raw)
			if err == nil {
				b.logger.Debug("design cache hit for key %s", key)
				return doc, nil
			}
			// A stale or corrupted entry is treated as a miss.
			b.logger.Warn("cached design no longer valid, rebuilding: %v", err)
			if derr := b.cache.Delete(ctx, key); derr != nil {
				b.logger.Warn("design cache delete failed: %v", derr)
			}
		}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, plannerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildDemandMessage(demand, rolePool)),
	}

	var advice string
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		resp, err := b.model.GenerateContent(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("planner attempt %d: %w", attempt, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("planner attempt %d: empty response", attempt)
		}
		planText := resp.Choices[0].Content

		var ok bool
		advice, ok = Diagnose(planText, rolePool)
		if ok {
			doc, err := Normalize(planText)
			if err != nil {
				// The advisor and the validator share one rule set, so a
				// clean diagnosis that fails Normalize means the shared
				// walker has a bug, not the plan.
				return nil, fmt.Errorf("planner attempt %d: diagnosis clean but validation failed: %w", attempt, err)
			}
			if b.cache != nil {
				if err := b.cache.Put(ctx, key, planText); err != nil {
					b.logger.Warn("design cache put failed: %v", err)
				}
			}
			b.logger.Info("design accepted on attempt %d", attempt)
			return doc, nil
		}

		b.logger.Info("design attempt %d rejected, feeding advice back", attempt)
		b.logger.Debug("advice:\n%s", advice)
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeAI, planText),
			llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(
				"Your design has problems. Revise it and return the full corrected JSON object.\n\nsystem_advice:\n%s", advice)),
		)
	}

	return nil, fmt.Errorf("no valid design after %d attempts; last advice:\n%s", b.maxAttempts, advice)
}

// buildDemandMessage renders the human turn for the first planner round.
func buildDemandMessage(demand, rolePool string) string {
	if rolePool == "" {
		return fmt.Sprintf("Demand:\n%s", demand)
	}
	return fmt.Sprintf("Demand:\n%s\n\nAvailable agent roles:\n%s", demand, rolePool)
}

// cacheKey derives a stable cache key from the demand and role pool.
func cacheKey(demand, rolePool string) string {
	h := sha256.New()
	h.Write([]byte(demand))
	h.Write([]byte{0})
	h.Write([]byte(rolePool))
	return hex.EncodeToString(h.Sum(nil))
}

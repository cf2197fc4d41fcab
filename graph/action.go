package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// ActionNode is a node bound to a single model invocation. Its instructions
// become the system prompt, the incoming payload (filtered by pull keys) is
// rendered as the human turn, and the model's reply is parsed back into a
// payload shaped by the push keys. When tools are attached the node runs a
// bounded tool-call loop before producing its final reply.
type ActionNode struct {
	name         string
	label        string
	agent        string
	model        llms.Model
	instructions string
	tools        []tools.Tool
	pullKeys     map[string]string
	pushKeys     map[string]string
	maxToolTurns int
}

// ActionOption configures an ActionNode.
type ActionOption func(*ActionNode)

// WithAgent records the role name the node acts as.
func WithAgent(agent string) ActionOption {
	return func(a *ActionNode) { a.agent = agent }
}

// WithTools attaches callable tools the model may invoke.
func WithTools(ts []tools.Tool) ActionOption {
	return func(a *ActionNode) { a.tools = ts }
}

// WithPullKeys declares which payload attributes flow into the node.
func WithPullKeys(keys map[string]string) ActionOption {
	return func(a *ActionNode) { a.pullKeys = keys }
}

// WithPushKeys declares which attributes the node publishes.
func WithPushKeys(keys map[string]string) ActionOption {
	return func(a *ActionNode) { a.pushKeys = keys }
}

// WithMaxToolTurns bounds the tool-call loop (default 4).
func WithMaxToolTurns(n int) ActionOption {
	return func(a *ActionNode) {
		if n > 0 {
			a.maxToolTurns = n
		}
	}
}

// NewActionNode creates an action node bound to model with the given
// instructions.
func NewActionNode(name, label string, model llms.Model, instructions string, opts ...ActionOption) *ActionNode {
	a := &ActionNode{
		name:         name,
		label:        label,
		model:        model,
		instructions: instructions,
		maxToolTurns: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the node's identifier.
func (a *ActionNode) Name() string { return a.name }

// Label returns the node's description.
func (a *ActionNode) Label() string { return a.label }

// Agent returns the role the node acts as.
func (a *ActionNode) Agent() string { return a.agent }

// Execute invokes the model and parses its reply into the output payload.
func (a *ActionNode) Execute(ctx context.Context, input Payload) (Payload, error) {
	if a.model == nil {
		return nil, fmt.Errorf("action %s: %w", a.name, ErrNoModel)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, a.systemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, renderPayload(input.Pick(a.pullKeys))),
	}

	var opts []llms.CallOption
	if len(a.tools) > 0 {
		opts = append(opts, llms.WithTools(toolDefinitions(a.tools)))
	}

	var text string
	for turn := 0; ; turn++ {
		resp, err := a.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.name, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("action %s: model returned no choices", a.name)
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 || turn >= a.maxToolTurns {
			text = choice.Content
			break
		}

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		messages = append(messages, aiMsg)
		messages = append(messages, a.executeToolCalls(ctx, choice.ToolCalls)...)
	}

	return parseModelOutput(text, a.pushKeys), nil
}

// systemPrompt combines the instructions with the output contract derived
// from the push keys.
func (a *ActionNode) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(a.instructions)
	if len(a.pushKeys) > 0 {
		sb.WriteString("\n\nRespond with a JSON object containing the keys:\n")
		for _, k := range sortedKeys(a.pushKeys) {
			fmt.Fprintf(&sb, "- %q: %s\n", k, a.pushKeys[k])
		}
	}
	return sb.String()
}

// executeToolCalls runs each requested tool and wraps results as tool
// messages for the next model turn.
func (a *ActionNode) executeToolCalls(ctx context.Context, calls []llms.ToolCall) []llms.MessageContent {
	var out []llms.MessageContent
	for _, tc := range calls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args)
		input := tc.FunctionCall.Arguments
		if v, ok := args["input"].(string); ok {
			input = v
		}

		result := ""
		found := false
		for _, t := range a.tools {
			if t.Name() == tc.FunctionCall.Name {
				found = true
				res, err := t.Call(ctx, input)
				if err != nil {
					result = fmt.Sprintf("Error: %v", err)
				} else {
					result = res
				}
				break
			}
		}
		if !found {
			result = fmt.Sprintf("Error: unknown tool %s", tc.FunctionCall.Name)
		}

		out = append(out, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				},
			},
		})
	}
	return out
}

// toolDefinitions converts tools to the model-facing schema. Every tool takes
// a single string input.
func toolDefinitions(ts []tools.Tool) []llms.Tool {
	var defs []llms.Tool
	for _, t := range ts {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}

// renderPayload formats a payload as an indented JSON document for the
// model. Keys are sorted by encoding/json, so rendering is stable.
func renderPayload(p Payload) string {
	if len(p) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(p))
	}
	return string(b)
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseModelOutput turns the model's reply text into a payload. A JSON
// object reply (bare or fenced) is used directly, filtered by the push keys;
// plain text lands under the sole push key, or under "output".
func parseModelOutput(text string, pushKeys map[string]string) Payload {
	candidates := []string{strings.TrimSpace(text)}
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		candidates = append([]string{m[1]}, candidates...)
	}
	for _, c := range candidates {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err == nil {
			return Payload(obj).Pick(pushKeys)
		}
	}

	out := Payload{}
	if len(pushKeys) == 1 {
		for k := range pushKeys {
			out[k] = strings.TrimSpace(text)
		}
		return out
	}
	out["output"] = strings.TrimSpace(text)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

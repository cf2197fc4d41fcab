package design

import (
	"errors"
	"fmt"
	"strings"
)

// NoIssuesMessage is returned by Diagnose when the design is clean.
const NoIssuesMessage = "No issues detected."

// Diagnose inspects raw planner output and returns remediation advice for
// feeding back into an LLM authoring loop. Unlike Normalize it never fails:
// unparseable input yields parse-failure advice, and every grammar violation
// is collected and reported together rather than aborting on the first.
//
// rolePool is a freeform role list, one "- Name: description" line per role;
// when non-empty, Action agents must be drawn from it. Diagnose and
// Normalize run the same rule walker, so a design Diagnose calls clean is
// exactly a design Normalize accepts (role-pool rule aside).
//
// The second return is true when no issues were found.
func Diagnose(raw string, rolePool string) (string, bool) {
	issues := collectIssues(raw, rolePool)
	if len(issues) == 0 {
		return NoIssuesMessage, true
	}
	return renderAdvice(issues), false
}

// collectIssues extracts, parses and lint-walks raw planner output.
func collectIssues(raw, rolePool string) []Violation {
	stripped := stripThink(raw)
	if !strings.Contains(stripped, "{") {
		return []Violation{{
			Path:    "graph_design",
			Code:    IssueNoJSONFound,
			Message: "no JSON object found in the output",
		}}
	}

	candidate := extractCandidate(stripped)
	value, err := parseLoose(candidate)
	if err != nil {
		return []Violation{{
			Path:    "graph_design",
			Code:    IssueJSONDecodeError,
			Message: fmt.Sprintf("cannot decode JSON: %v", err),
		}}
	}

	m, ok := value.(map[string]any)
	if !ok {
		return []Violation{{
			Path:    "graph_design",
			Code:    IssueSchemaError,
			Message: fmt.Sprintf("design must be a JSON object, got %T", value),
		}}
	}
	inner, err := unwrap(m)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			return []Violation{{Path: de.Path, Code: de.Code, Message: de.Message}}
		}
		return []Violation{{Path: "graph_design", Code: IssueSchemaError, Message: err.Error()}}
	}
	if _, hasNodes := inner["nodes"]; !hasNodes {
		if _, hasEdges := inner["edges"]; !hasEdges {
			return []Violation{{
				Path:    "graph_design",
				Code:    IssueSchemaError,
				Message: `decoded object has neither "nodes" nor "edges"`,
			}}
		}
	}

	c := &collector{}
	w := &walker{sink: c, rolePool: parseRolePool(rolePool)}
	_, _ = w.normalizeScope(inner, "graph_design", ScopeRoot)
	return c.issues
}

// renderAdvice converts collected violations into deduplicated, numbered
// advice lines, one problem statement and one suggestion each.
func renderAdvice(issues []Violation) string {
	var lines []string
	seen := make(map[IssueCode]bool)
	for _, v := range issues {
		if seen[v.Code] {
			continue
		}
		seen[v.Code] = true

		a, known := adviceTable[v.Code]
		if !known {
			a = advice{
				problem:    fmt.Sprintf("Validation error: %s.", v.Code),
				suggestion: "Review the design against the graph grammar.",
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s Fix: %s (%s: %s)",
			len(lines)+1, a.problem, a.suggestion, v.Path, v.Message))
	}
	return strings.Join(lines, "\n")
}

// parseRolePool extracts role names from "- Name: description" lines. An
// empty pool disables the role check.
func parseRolePool(s string) map[string]bool {
	pool := make(map[string]bool)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		name, _, found := strings.Cut(line, ":")
		if !found {
			name = line
		}
		name = strings.TrimSpace(name)
		if name != "" {
			pool[name] = true
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool
}

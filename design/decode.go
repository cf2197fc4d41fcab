package design

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// maxEnvelopeDepth bounds how many {"graph_design": ...} / {"graph": ...}
// wrapper levels decodeInput peels off before giving up.
const maxEnvelopeDepth = 10

// DesignFileName is the file looked up when a design path names a directory.
const DesignFileName = "graph_design.json"

// decodeInput turns any accepted input form into the raw {nodes, edges}
// mapping of the outermost scope. Accepted forms: an in-memory mapping
// (possibly enveloped), an already-canonical *Document, a JSON or
// Python-literal string, or a filesystem path.
func decodeInput(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, newError("graph_design", IssueSchemaError, "design is nil")
	case map[string]any:
		return unwrap(v)
	case *Document:
		m, err := documentToMap(v)
		if err != nil {
			return nil, err
		}
		return m, nil
	case Document:
		return decodeInput(&v)
	case []byte:
		return decodeText(string(v))
	case string:
		return decodeText(v)
	default:
		return nil, newError("graph_design", IssueSchemaError, "unsupported design input type %T", raw)
	}
}

// decodeText handles the string forms: a filesystem path, or an encoded
// document.
func decodeText(s string) (map[string]any, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, newError("graph_design", IssueNoJSONFound, "empty design input")
	}

	if !strings.ContainsAny(trimmed, "{[") {
		if body, ok := readDesignFile(trimmed); ok {
			return decodeText(body)
		}
		return nil, newError("graph_design", IssueNoJSONFound, "input is neither a design document nor a readable path: %q", trimmed)
	}

	value, err := parseLoose(trimmed)
	if err != nil {
		return nil, newError("graph_design", IssueJSONDecodeError, "cannot parse design: %v", err)
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, newError("graph_design", IssueSchemaError, "design must decode to an object, got %T", value)
	}
	return unwrap(m)
}

// readDesignFile loads a design from a file path or from
// <dir>/graph_design.json when the path is a directory.
func readDesignFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		path = filepath.Join(path, DesignFileName)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// unwrap peels "graph_design"/"graph" envelopes, up to maxEnvelopeDepth
// levels.
func unwrap(m map[string]any) (map[string]any, error) {
	for depth := 0; depth < maxEnvelopeDepth; depth++ {
		if inner, ok := m["graph_design"].(map[string]any); ok {
			m = inner
			continue
		}
		if inner, ok := m["graph"].(map[string]any); ok {
			m = inner
			continue
		}
		return m, nil
	}
	return nil, newError("graph_design", IssueEnvelopeTooDeep, "design wrapped more than %d envelope levels deep", maxEnvelopeDepth)
}

// documentToMap round-trips a canonical document back into the generic
// mapping shape the normalizer walks, so re-normalizing canonical documents
// exercises the same code path.
func documentToMap(d *Document) (map[string]any, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, newError("graph_design", IssueSchemaError, "cannot encode document: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, newError("graph_design", IssueSchemaError, "cannot decode document: %v", err)
	}
	return m, nil
}

// parseLoose decodes strict JSON first and falls back to a permissive
// literal parser accepting single-quoted strings, Python booleans/None and
// trailing commas, since LLM planners frequently emit that dialect.
func parseLoose(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, nil
	}
	p := &looseParser{input: s}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	return v, nil
}

// looseParser is a small recursive-descent parser over JSON-like literals.
type looseParser struct {
	input string
	pos   int
}

func (p *looseParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *looseParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *looseParser) parseValue() (any, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input at offset %d", p.pos)
	}
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseWord()
	}
}

func (p *looseParser) parseObject() (map[string]any, error) {
	p.pos++ // consume '{'
	obj := make(map[string]any)
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated object at offset %d", p.pos)
		}
		if c == '}' {
			p.pos++
			return obj, nil
		}
		if c != '"' && c != '\'' {
			return nil, fmt.Errorf("expected string key at offset %d", p.pos)
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj[key] = val
		p.skipSpace()
		if c, ok := p.peek(); ok && c == ',' {
			p.pos++
			continue
		}
	}
}

func (p *looseParser) parseArray() ([]any, error) {
	p.pos++ // consume '['
	var arr []any
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated array at offset %d", p.pos)
		}
		if c == ']' {
			p.pos++
			if arr == nil {
				arr = []any{}
			}
			return arr, nil
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
		p.skipSpace()
		if c, ok := p.peek(); ok && c == ',' {
			p.pos++
		}
	}
}

func (p *looseParser) parseString() (string, error) {
	quote := p.input[p.pos]
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("unterminated escape at offset %d", p.pos)
			}
			esc := p.input[p.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'u':
				if p.pos+4 >= len(p.input) {
					return "", fmt.Errorf("truncated \\u escape at offset %d", p.pos)
				}
				n, err := strconv.ParseUint(p.input[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", fmt.Errorf("bad \\u escape at offset %d", p.pos)
				}
				sb.WriteRune(utf16.Decode([]uint16{uint16(n)})[0])
				p.pos += 4
			default:
				sb.WriteByte(esc)
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *looseParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q at offset %d", p.input[start:p.pos], start)
	}
	return f, nil
}

func (p *looseParser) parseWord() (any, error) {
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsLetter(rune(p.input[p.pos]))) {
		p.pos++
	}
	switch p.input[start:p.pos] {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None":
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token %q at offset %d", p.input[start:p.pos], start)
	}
}

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	fencedRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// stripThink removes <think>...</think> reasoning blocks from raw model
// output.
func stripThink(s string) string {
	return strings.TrimSpace(thinkBlockRe.ReplaceAllString(s, ""))
}

// extractCandidate finds the most likely design text inside freeform model
// output: a fenced json block first, then the first balanced {...} span,
// then the whole text.
func extractCandidate(s string) string {
	if m := fencedRe.FindStringSubmatch(s); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c
		}
	}
	if span := balancedSpan(s); span != "" {
		return span
	}
	return s
}

// balancedSpan returns the first balanced top-level {...} span, respecting
// quoted strings.
func balancedSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

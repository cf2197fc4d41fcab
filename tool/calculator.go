package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Calculator is a tool that evaluates basic arithmetic expressions. It
// supports +, -, *, /, parentheses and unary minus over floating point
// numbers.
type Calculator struct{}

// NewCalculator creates a new Calculator tool.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name returns the name of the tool.
func (c *Calculator) Name() string {
	return "Calculator"
}

// Description returns the description of the tool.
func (c *Calculator) Description() string {
	return "Evaluates an arithmetic expression with +, -, *, / and parentheses. " +
		"Input should be the expression, e.g. \"(2 + 3) * 4\"."
}

// Call evaluates the expression.
func (c *Calculator) Call(_ context.Context, input string) (string, error) {
	p := &exprParser{input: strings.TrimSpace(input)}
	v, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return "", fmt.Errorf("unexpected character at position %d", p.pos)
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// exprParser is a recursive-descent parser over the grammar
// expr = term (('+'|'-') term)*, term = factor (('*'|'/') factor)*,
// factor = number | '-' factor | '(' expr ')'.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	switch ch := p.peek(); {
	case ch == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case ch == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		start := p.pos
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c >= '0' && c <= '9' || c == '.' {
				p.pos++
				continue
			}
			break
		}
		v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
		}
		return v, nil
	case ch == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	default:
		return 0, fmt.Errorf("unexpected character %q at position %d", ch, p.pos)
	}
}

package preprocess

import (
	"fmt"
	"strconv"
	"strings"
)

// evalCondition evaluates the expression of an #if or #elif directive.
func (r *run) evalCondition(expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, fmt.Errorf("missing expression")
	}
	resolved, err := r.replaceDefined(expr)
	if err != nil {
		return false, err
	}
	expanded, err := r.expand(resolved, nil)
	if err != nil {
		return false, err
	}
	v, err := evalExpr(expanded)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// replaceDefined rewrites `defined(X)` and `defined X` to 1 or 0 before macro
// expansion, so that X itself is not expanded.
func (r *run) replaceDefined(expr string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(expr); {
		if !isIdentStart(expr[i]) {
			b.WriteByte(expr[i])
			i++
			continue
		}
		end := i
		for end < len(expr) && isIdentChar(expr[end]) {
			end++
		}
		if expr[i:end] != "defined" {
			b.WriteString(expr[i:end])
			i = end
			continue
		}

		j := skipSpaces(expr, end)
		paren := j < len(expr) && expr[j] == '('
		if paren {
			j = skipSpaces(expr, j+1)
		}
		name := firstIdent(expr[j:])
		if name == "" {
			return "", fmt.Errorf("defined requires a macro name")
		}
		j += len(name)
		if paren {
			j = skipSpaces(expr, j)
			if j >= len(expr) || expr[j] != ')' {
				return "", fmt.Errorf("missing ')' after defined(%s", name)
			}
			j++
		}
		if _, ok := r.macros[name]; ok {
			b.WriteString("1")
		} else {
			b.WriteString("0")
		}
		i = j
	}
	return b.String(), nil
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// Expression evaluation follows C integer semantics: identifiers that survive
// macro expansion evaluate to 0 and any non-zero value is true.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  int64
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case isDigit(c):
			end := i
			for end < len(s) && isIdentChar(s[end]) {
				end++
			}
			n, err := parseNumber(s[i:end])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNum, text: s[i:end], num: n})
			i = end
		case isIdentStart(c):
			end := i
			for end < len(s) && isIdentChar(s[end]) {
				end++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:end]})
			i = end
		default:
			op := ""
			for _, candidate := range []string{"||", "&&", "==", "!=", "<=", ">=", "<<", ">>"} {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				if !strings.ContainsRune("+-*/%<>!~&|^?:()", rune(c)) {
					return nil, fmt.Errorf("unexpected character %q", c)
				}
				op = string(c)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += len(op)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// parseNumber parses a C integer literal, ignoring u/l suffixes.
func parseNumber(lit string) (int64, error) {
	trimmed := strings.TrimRight(strings.ToLower(lit), "ul")
	base := 10
	switch {
	case strings.HasPrefix(trimmed, "0x"):
		base = 16
		trimmed = trimmed[2:]
	case len(trimmed) > 1 && trimmed[0] == '0':
		base = 8
		trimmed = trimmed[1:]
	}
	n, err := strconv.ParseInt(trimmed, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q", lit)
	}
	return n, nil
}

// node is a parsed expression; eval is deferred so that short-circuited
// operands are never evaluated.
type node func() (int64, error)

type parser struct {
	toks []token
	pos  int
}

var binaryPrec = map[string]int{
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7,
	"!=": 7,
	"<":  8,
	"<=": 8,
	">":  8,
	">=": 8,
	"<<": 9,
	">>": 9,
	"+":  10,
	"-":  10,
	"*":  11,
	"/":  11,
	"%":  11,
}

func evalExpr(s string) (int64, error) {
	toks, err := tokenize(s)
	if err != nil {
		return 0, err
	}
	p := &parser{toks: toks}
	n, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, fmt.Errorf("unexpected %q", t.text)
	}
	return n()
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) ternary() (node, error) {
	cond, err := p.binary(2)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokOp || t.text != "?" {
		return cond, nil
	}
	p.next()
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if t := p.next(); t.kind != tokOp || t.text != ":" {
		return nil, fmt.Errorf("expected ':' in conditional expression")
	}
	otherwise, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return func() (int64, error) {
		c, err := cond()
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return then()
		}
		return otherwise()
	}, nil
}

func (p *parser) binary(minPrec int) (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		prec, ok := binaryPrec[t.text]
		if t.kind != tokOp || !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = binaryNode(t.text, left, right)
	}
}

func binaryNode(op string, left, right node) node {
	return func() (int64, error) {
		l, err := left()
		if err != nil {
			return 0, err
		}
		switch op {
		case "&&":
			if l == 0 {
				return 0, nil
			}
		case "||":
			if l != 0 {
				return 1, nil
			}
		}
		r, err := right()
		if err != nil {
			return 0, err
		}
		switch op {
		case "&&", "||":
			return boolInt(r != 0), nil
		case "|":
			return l | r, nil
		case "^":
			return l ^ r, nil
		case "&":
			return l & r, nil
		case "==":
			return boolInt(l == r), nil
		case "!=":
			return boolInt(l != r), nil
		case "<":
			return boolInt(l < r), nil
		case "<=":
			return boolInt(l <= r), nil
		case ">":
			return boolInt(l > r), nil
		case ">=":
			return boolInt(l >= r), nil
		case "<<":
			return l << uint64(r), nil
		case ">>":
			return l >> uint64(r), nil
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "/", "%":
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			if op == "/" {
				return l / r, nil
			}
			return l % r, nil
		}
		return 0, fmt.Errorf("unknown operator %q", op)
	}
}

func (p *parser) unary() (node, error) {
	t := p.next()
	switch {
	case t.kind == tokNum:
		v := t.num
		return func() (int64, error) { return v, nil }, nil
	case t.kind == tokIdent:
		return func() (int64, error) { return 0, nil }, nil
	case t.kind == tokOp && t.text == "(":
		inner, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokOp || c.text != ")" {
			return nil, fmt.Errorf("missing ')'")
		}
		return inner, nil
	case t.kind == tokOp && (t.text == "!" || t.text == "~" || t.text == "-" || t.text == "+"):
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		op := t.text
		return func() (int64, error) {
			v, err := operand()
			if err != nil {
				return 0, err
			}
			switch op {
			case "!":
				return boolInt(v == 0), nil
			case "~":
				return ^v, nil
			case "-":
				return -v, nil
			}
			return v, nil
		}, nil
	case t.kind == tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

package preprocess

import (
	"fmt"
	"strings"
)

// maxExpansionDepth bounds nested macro expansion.
const maxExpansionDepth = 64

type macro struct {
	name   string
	params []string
	fn     bool // function-like
	body   string
}

// parseDefine parses the text following #define.
func parseDefine(rest string) (*macro, error) {
	name := firstIdent(rest)
	if name == "" {
		return nil, fmt.Errorf("#define requires a macro name")
	}
	after := rest[len(name):]
	m := &macro{name: name}

	// A '(' directly after the name makes the macro function-like.
	if strings.HasPrefix(after, "(") {
		end := strings.IndexByte(after, ')')
		if end < 0 {
			return nil, fmt.Errorf("unterminated parameter list in #define %s", name)
		}
		m.fn = true
		if list := strings.TrimSpace(after[1:end]); list != "" {
			for _, p := range strings.Split(list, ",") {
				p = strings.TrimSpace(p)
				if firstIdent(p) != p {
					return nil, fmt.Errorf("invalid parameter %q in #define %s", p, name)
				}
				m.params = append(m.params, p)
			}
		}
		after = after[end+1:]
	}
	m.body = strings.TrimSpace(stripComment(after))
	return m, nil
}

// stripComment cuts text at the first '#' outside a string literal.
func stripComment(text string) string {
	for i := 0; i < len(text); {
		switch text[i] {
		case '"', '\'':
			i = skipString(text, i)
		case '#':
			return text[:i]
		default:
			i++
		}
	}
	return text
}

// expand performs macro replacement on one line of text. Macros named in
// disabled are not expanded again, which stops self-referential recursion.
func (r *run) expand(text string, disabled map[string]bool) (string, error) {
	if len(disabled) > maxExpansionDepth {
		return "", fmt.Errorf("macro expansion too deep")
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			end := skipString(text, i)
			b.WriteString(text[i:end])
			i = end
		case c == '#':
			// The rest of the line is a comment.
			b.WriteString(text[i:])
			i = len(text)
		case isDigit(c):
			end := i
			for end < len(text) && (isIdentChar(text[end]) || text[end] == '.') {
				end++
			}
			b.WriteString(text[i:end])
			i = end
		case isIdentStart(c):
			end := i
			for end < len(text) && isIdentChar(text[end]) {
				end++
			}
			ident := text[i:end]
			m, ok := r.macros[ident]
			if !ok || disabled[ident] {
				b.WriteString(ident)
				i = end
				continue
			}

			next := withDisabled(disabled, ident)
			if !m.fn {
				out, err := r.expand(m.body, next)
				if err != nil {
					return "", err
				}
				b.WriteString(out)
				i = end
				continue
			}

			lparen := end
			for lparen < len(text) && (text[lparen] == ' ' || text[lparen] == '\t') {
				lparen++
			}
			if lparen >= len(text) || text[lparen] != '(' {
				// A function-like macro name without arguments is left alone.
				b.WriteString(ident)
				i = end
				continue
			}
			args, rparen, err := splitArgs(text, lparen)
			if err != nil {
				return "", fmt.Errorf("%s: %w", ident, err)
			}
			if len(args) == 1 && args[0] == "" && len(m.params) == 0 {
				args = nil
			}
			if len(args) != len(m.params) {
				return "", fmt.Errorf("macro %s expects %d arguments, got %d", ident, len(m.params), len(args))
			}
			expandedArgs := make(map[string]string, len(args))
			for k, a := range args {
				ea, err := r.expand(a, disabled)
				if err != nil {
					return "", err
				}
				expandedArgs[m.params[k]] = ea
			}
			out, err := r.expand(substitute(m.body, expandedArgs), next)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i = rparen + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// splitArgs parses a parenthesized argument list starting at text[lparen] and
// returns the trimmed arguments and the index of the closing parenthesis.
func splitArgs(text string, lparen int) ([]string, int, error) {
	var args []string
	depth := 0
	start := lparen + 1
	for i := lparen; i < len(text); {
		switch c := text[i]; {
		case c == '"' || c == '\'':
			i = skipString(text, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:i]))
				return args, i, nil
			}
		case c == ',' && depth == 1:
			args = append(args, strings.TrimSpace(text[start:i]))
			start = i + 1
		}
		i++
	}
	return nil, 0, fmt.Errorf("unterminated macro argument list")
}

// substitute replaces whole-identifier occurrences of parameters in body.
func substitute(body string, args map[string]string) string {
	if len(args) == 0 {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '"' || c == '\'':
			end := skipString(body, i)
			b.WriteString(body[i:end])
			i = end
		case isIdentStart(c):
			end := i
			for end < len(body) && isIdentChar(body[end]) {
				end++
			}
			ident := body[i:end]
			if v, ok := args[ident]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(ident)
			}
			i = end
		case isDigit(c):
			end := i
			for end < len(body) && (isIdentChar(body[end]) || body[end] == '.') {
				end++
			}
			b.WriteString(body[i:end])
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipString returns the index just past the string literal starting at i.
// An unterminated literal runs to the end of the text.
func skipString(text string, i int) int {
	quote := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(text)
}

func withDisabled(disabled map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(disabled)+1)
	for k := range disabled {
		next[k] = true
	}
	next[name] = true
	return next
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

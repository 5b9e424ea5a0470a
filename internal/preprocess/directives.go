package preprocess

import (
	"fmt"
	"os"
	"strings"
)

var directives = map[string]bool{
	"define":  true,
	"undef":   true,
	"include": true,
	"ifdef":   true,
	"ifndef":  true,
	"if":      true,
	"elif":    true,
	"else":    true,
	"endif":   true,
	"pragma":  true,
	"error":   true,
}

// cond is one level of #if nesting.
type cond struct {
	line    int
	parent  bool // the enclosing region is active
	active  bool // the current branch is active
	taken   bool // some branch of this group has been active
	hasElse bool
}

// parseDirective splits a line into its directive keyword and argument text.
// ok is false for lines that are not directives.
func parseDirective(line string) (keyword, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	body := trimmed[1:]
	end := 0
	for end < len(body) && isIdentChar(body[end]) {
		end++
	}
	keyword = body[:end]
	if !directives[keyword] {
		return "", "", false
	}
	if end < len(body) && !strings.ContainsRune(" \t\r\n(", rune(body[end])) {
		return "", "", false
	}
	return keyword, strings.TrimSpace(body[end:]), true
}

// file preprocesses one file's source into out.
func (r *run) file(name, src string, out *strings.Builder) error {
	key := canonical(name)
	if r.once[key] {
		return nil
	}
	for _, p := range r.stack {
		if p == key {
			return &SyntaxError{Path: name, Msg: fmt.Sprintf("include cycle: %s", strings.Join(append(r.stack, key), " -> "))}
		}
	}
	r.stack = append(r.stack, key)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	lines := strings.SplitAfter(src, "\n")
	var conds []*cond
	active := func() bool { return len(conds) == 0 || conds[len(conds)-1].active }

	for i := 0; i < len(lines); i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		lineNo := i + 1
		line := lines[i]
		if line == "" {
			continue
		}

		keyword, rest, ok := parseDirective(line)
		if !ok {
			if !active() {
				out.WriteString(newlineOf(line))
				continue
			}
			expanded, err := r.expand(strings.TrimSuffix(line, "\n"), nil)
			if err != nil {
				return &SyntaxError{Path: name, Line: lineNo, Msg: err.Error()}
			}
			out.WriteString(expanded)
			out.WriteString(newlineOf(line))
			continue
		}

		// Directives may continue onto following lines with a trailing backslash.
		blank := newlineOf(line)
		for strings.HasSuffix(strings.TrimRight(rest, " \t\r"), "\\") && i+1 < len(lines) {
			rest = strings.TrimSuffix(strings.TrimRight(rest, " \t\r"), "\\") + " " + strings.TrimSpace(lines[i+1])
			i++
			blank += newlineOf(lines[i])
		}

		fail := func(format string, args ...any) error {
			return &SyntaxError{Path: name, Line: lineNo, Msg: fmt.Sprintf(format, args...)}
		}

		switch keyword {
		case "ifdef", "ifndef":
			ident := firstIdent(rest)
			if ident == "" {
				return fail("#%s requires a macro name", keyword)
			}
			_, defined := r.macros[ident]
			take := defined == (keyword == "ifdef")
			parent := active()
			conds = append(conds, &cond{line: lineNo, parent: parent, active: parent && take, taken: take})
		case "if":
			parent := active()
			take := false
			if parent {
				v, err := r.evalCondition(rest)
				if err != nil {
					return fail("#if %s: %v", rest, err)
				}
				take = v
			}
			conds = append(conds, &cond{line: lineNo, parent: parent, active: parent && take, taken: take})
		case "elif":
			if len(conds) == 0 {
				return fail("#elif without #if")
			}
			c := conds[len(conds)-1]
			if c.hasElse {
				return fail("#elif after #else")
			}
			c.active = false
			if c.parent && !c.taken {
				v, err := r.evalCondition(rest)
				if err != nil {
					return fail("#elif %s: %v", rest, err)
				}
				c.active = v
				c.taken = v
			}
		case "else":
			if len(conds) == 0 {
				return fail("#else without #if")
			}
			c := conds[len(conds)-1]
			if c.hasElse {
				return fail("duplicate #else")
			}
			c.hasElse = true
			c.active = c.parent && !c.taken
			c.taken = true
		case "endif":
			if len(conds) == 0 {
				return fail("#endif without #if")
			}
			conds = conds[:len(conds)-1]
		default:
			if !active() {
				break
			}
			if err := r.directive(name, keyword, rest, out, fail); err != nil {
				return err
			}
			if keyword == "pragma" && rest != "once" {
				out.WriteString(strings.TrimSuffix(line, "\n"))
				blank = newlineOf(line)
			}
		}
		out.WriteString(blank)
	}

	if len(conds) > 0 {
		return &SyntaxError{Path: name, Line: conds[len(conds)-1].line, Msg: "unterminated conditional directive"}
	}
	return nil
}

// directive handles the non-conditional directives in an active region.
func (r *run) directive(name, keyword, rest string, out *strings.Builder, fail func(string, ...any) error) error {
	switch keyword {
	case "define":
		m, err := parseDefine(rest)
		if err != nil {
			return fail("%v", err)
		}
		r.macros[m.name] = m
	case "undef":
		ident := firstIdent(rest)
		if ident == "" {
			return fail("#undef requires a macro name")
		}
		delete(r.macros, ident)
	case "include":
		target, err := includeTarget(rest)
		if err != nil {
			return fail("%v", err)
		}
		path, ok := r.resolveInclude(name, target)
		if !ok {
			return fail("cannot resolve #include %q", target)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return fail("failed to read included file %s: %v", path, err)
		}
		if err := r.file(path, string(src), out); err != nil {
			return err
		}
		if len(src) > 0 && !strings.HasSuffix(string(src), "\n") {
			out.WriteString("\n")
		}
	case "pragma":
		if rest == "once" {
			r.once[canonical(name)] = true
		}
	case "error":
		return fail("#error %s", rest)
	}
	return nil
}

// includeTarget extracts the file name from `"file"` or `<file>`.
func includeTarget(rest string) (string, error) {
	if len(rest) >= 2 {
		switch {
		case rest[0] == '"':
			if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
				return rest[1 : end+1], nil
			}
		case rest[0] == '<':
			if end := strings.IndexByte(rest[1:], '>'); end >= 0 {
				return rest[1 : end+1], nil
			}
		}
	}
	return "", fmt.Errorf("malformed #include %s", rest)
}

// newlineOf returns the line terminator of line, if any.
func newlineOf(line string) string {
	if strings.HasSuffix(line, "\n") {
		return "\n"
	}
	return ""
}

func firstIdent(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && isIdentChar(s[end]) && !(end == 0 && isDigit(s[end])) {
		end++
	}
	return s[:end]
}

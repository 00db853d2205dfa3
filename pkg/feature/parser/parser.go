// Package parser turns model text into a declaration tree and a flat
// list of constraint lines.
//
// The grammar is line-oriented: a "namespace" header, a "features"
// block nested by indentation, and an optional "constraints" block.
// Inside the features block a line is either a feature declaration
// ("Name {abstract} {rec Template}", annotations optional) or one of
// the group keywords (mandatory, optional, alternative, or)
// introducing a nested block of child declarations. Feature names
// start with an upper-case letter or underscore; a bare lower-case
// word is always read as a group keyword.
package parser

import (
	"bufio"
	"strings"
	"unicode"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

var groupKeywords = map[string]struct{}{
	"mandatory":   {},
	"optional":    {},
	"alternative": {},
	"or":          {},
}

type line struct {
	num    int
	indent int
	text   string
}

// Parse consumes model text and produces its abstract syntax. It
// fails with a *feature.SyntaxError on malformed indentation, unknown
// group keywords, malformed annotations, or unterminated constraint
// expressions.
func Parse(text string) (*Model, error) {
	lines, err := scan(text)
	if err != nil {
		return nil, err
	}

	m := &Model{}
	i := 0

	// namespace header
	if i >= len(lines) {
		return nil, syntaxErr(1, 1, "empty model: expected namespace header")
	}
	if lines[i].indent != 0 || !strings.HasPrefix(lines[i].text, "namespace") {
		return nil, syntaxErr(lines[i].num, lines[i].indent+1, "expected namespace header")
	}
	name := strings.TrimSpace(strings.TrimPrefix(lines[i].text, "namespace"))
	if !isIdent(name) {
		return nil, syntaxErr(lines[i].num, lines[i].indent+len("namespace")+2, "expected namespace name")
	}
	m.Namespace = name
	i++

	// features block
	if i >= len(lines) || lines[i].indent != 0 || lines[i].text != "features" {
		n, col := 1, 1
		if i < len(lines) {
			n, col = lines[i].num, lines[i].indent+1
		}
		return nil, syntaxErr(n, col, "expected features block")
	}
	i++
	start := i
	for i < len(lines) && lines[i].indent > 0 {
		i++
	}
	decls, err := parseFeatures(lines[start:i])
	if err != nil {
		return nil, err
	}
	m.Features = decls

	// optional constraints block
	if i < len(lines) {
		if lines[i].indent != 0 || lines[i].text != "constraints" {
			return nil, syntaxErr(lines[i].num, lines[i].indent+1, "expected constraints block")
		}
		i++
		for ; i < len(lines); i++ {
			l := lines[i]
			if l.indent == 0 {
				return nil, syntaxErr(l.num, 1, "unexpected top-level line after constraints block")
			}
			if err := checkTerminated(l); err != nil {
				return nil, err
			}
			m.Constraints = append(m.Constraints, feature.ConstraintLine{Line: l.num, Text: l.text})
		}
	}

	return m, nil
}

// scan splits the input into meaningful lines, dropping blanks and
// // comments and measuring indentation (tabs and spaces both count
// one column).
func scan(text string) ([]line, error) {
	var lines []line
	sc := bufio.NewScanner(strings.NewReader(text))
	num := 0
	for sc.Scan() {
		num++
		raw := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		indent := 0
		for _, r := range raw {
			if r != ' ' && r != '\t' {
				break
			}
			indent++
		}
		lines = append(lines, line{num: num, indent: indent, text: trimmed})
	}
	if err := sc.Err(); err != nil {
		// strings.Reader never fails; bufio can still reject
		// pathological line lengths.
		return nil, syntaxErr(num+1, 1, err.Error())
	}
	return lines, nil
}

// frame is one open declaration or group block on the indentation
// stack. childIndent is the indent level its children were declared
// at, fixed by the first child.
type frame struct {
	indent      int
	childIndent int
	decl        *Decl
	block       *Block
}

func parseFeatures(lines []line) ([]*Decl, error) {
	var roots []*Decl
	var stack []frame
	rootIndent := -1

	for _, l := range lines {
		for len(stack) > 0 && l.indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		// Siblings must line up: a dedent lands on the indent level
		// some open block's children already use.
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.childIndent < 0 {
				top.childIndent = l.indent
			} else if top.childIndent != l.indent {
				return nil, syntaxErr(l.num, l.indent+1, "indentation does not match any enclosing block")
			}
		} else {
			if rootIndent < 0 {
				rootIndent = l.indent
			} else if rootIndent != l.indent {
				return nil, syntaxErr(l.num, l.indent+1, "indentation does not match any enclosing block")
			}
		}

		if isGroupLine(l.text) {
			if _, ok := groupKeywords[l.text]; !ok {
				return nil, syntaxErr(l.num, l.indent+1, "unknown group keyword "+quote(l.text))
			}
			if len(stack) == 0 || stack[len(stack)-1].decl == nil {
				return nil, syntaxErr(l.num, l.indent+1, "group keyword "+quote(l.text)+" must appear under a feature")
			}
			parent := stack[len(stack)-1].decl
			b := &Block{Line: l.num, Keyword: l.text}
			parent.Blocks = append(parent.Blocks, b)
			stack = append(stack, frame{indent: l.indent, childIndent: -1, block: b})
			continue
		}

		d, err := parseDecl(l)
		if err != nil {
			return nil, err
		}
		switch {
		case len(stack) == 0:
			roots = append(roots, d)
		case stack[len(stack)-1].block != nil:
			b := stack[len(stack)-1].block
			b.Children = append(b.Children, d)
		default:
			// direct child with no keyword line
			parent := stack[len(stack)-1].decl
			var b *Block
			if n := len(parent.Blocks); n > 0 && parent.Blocks[n-1].Keyword == "" {
				b = parent.Blocks[n-1]
			} else {
				b = &Block{Line: l.num}
				parent.Blocks = append(parent.Blocks, b)
			}
			b.Children = append(b.Children, d)
		}
		stack = append(stack, frame{indent: l.indent, childIndent: -1, decl: d})
	}

	return roots, nil
}

// parseDecl reads "Name {annotation} ..." from a feature line.
func parseDecl(l line) (*Decl, error) {
	name, rest := scanIdent(l.text)
	if name == "" {
		return nil, syntaxErr(l.num, l.indent+1, "expected feature name or group keyword")
	}
	d := &Decl{Line: l.num, Name: name}
	col := l.indent + len(name) + 1

	for {
		trimmed := strings.TrimLeft(rest, " \t")
		col += len(rest) - len(trimmed)
		rest = trimmed
		if rest == "" {
			return d, nil
		}
		if rest[0] != '{' {
			return nil, syntaxErr(l.num, col, "expected annotation in braces")
		}
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, syntaxErr(l.num, col, "unterminated annotation")
		}
		body := strings.TrimSpace(rest[1:end])
		switch {
		case body == "abstract":
			d.Abstract = true
		case body == "rec" || strings.HasPrefix(body, "rec "):
			ref := strings.TrimSpace(strings.TrimPrefix(body, "rec"))
			if !isIdent(ref) {
				return nil, syntaxErr(l.num, col, "expected feature name after rec")
			}
			d.RecRef = ref
		default:
			return nil, syntaxErr(l.num, col, "unknown annotation "+quote(body))
		}
		col += end + 1
		rest = rest[end+1:]
	}
}

// checkTerminated rejects constraint lines that are syntactically
// unterminated: dangling binary operators, negations, or unbalanced
// parentheses. Full formula parsing belongs to the constraint
// compiler.
func checkTerminated(l line) error {
	depth := 0
	for i, r := range l.text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return syntaxErr(l.num, l.indent+i+1, "unbalanced parenthesis in constraint")
			}
		}
	}
	if depth != 0 {
		return syntaxErr(l.num, l.indent+len(l.text), "unterminated constraint expression")
	}
	switch l.text[len(l.text)-1] {
	case '!', '&', '|', '>', '=', '<', '(':
		return syntaxErr(l.num, l.indent+len(l.text), "unterminated constraint expression")
	}
	return nil
}

func isGroupLine(text string) bool {
	r := rune(text[0])
	return unicode.IsLower(r) && isIdent(text)
}

func scanIdent(s string) (ident, rest string) {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return s[:i], s[i:]
	}
	return s, ""
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	ident, rest := scanIdent(s)
	return ident == s && rest == ""
}

func quote(s string) string {
	return "\"" + s + "\""
}

func syntaxErr(line, col int, msg string) error {
	return &feature.SyntaxError{Line: line, Column: col, Message: msg}
}

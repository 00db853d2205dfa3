package constraint

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// ParseFormula parses one constraint formula into an expression tree
// whose atoms still carry declared feature names. Precedence, tightest
// first: !, &, |, => (right-associative), <=>.
func ParseFormula(line feature.ConstraintLine) (Expr, error) {
	p := &formulaParser{line: line.Line, input: line.Text}
	p.next()
	e, err := p.biimplication()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q after formula", p.tok.text)
	}
	return e, nil
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNot
	tokAnd
	tokOr
	tokImplies
	tokBiImplication
	tokLParen
	tokRParen
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
}

type formulaParser struct {
	line  int
	input string
	pos   int
	tok   token
}

func (p *formulaParser) next() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF}
		return
	}
	rest := p.input[p.pos:]
	switch {
	case rest[0] == '(':
		p.tok = token{kind: tokLParen, text: "("}
	case rest[0] == ')':
		p.tok = token{kind: tokRParen, text: ")"}
	case rest[0] == '!':
		p.tok = token{kind: tokNot, text: "!"}
	case rest[0] == '&':
		p.tok = token{kind: tokAnd, text: "&"}
	case rest[0] == '|':
		p.tok = token{kind: tokOr, text: "|"}
	case strings.HasPrefix(rest, "<=>"):
		p.tok = token{kind: tokBiImplication, text: "<=>"}
	case strings.HasPrefix(rest, "=>"):
		p.tok = token{kind: tokImplies, text: "=>"}
	default:
		r := rune(rest[0])
		if r == '_' || unicode.IsLetter(r) {
			end := len(rest)
			for i, rr := range rest {
				if rr == '_' || unicode.IsLetter(rr) || unicode.IsDigit(rr) {
					continue
				}
				end = i
				break
			}
			p.tok = token{kind: tokIdent, text: rest[:end]}
		} else {
			p.tok = token{kind: tokInvalid, text: rest[:1]}
		}
	}
	p.pos += len(p.tok.text)
}

func (p *formulaParser) biimplication() (Expr, error) {
	lhs, err := p.implication()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokBiImplication {
		p.next()
		rhs, err := p.implication()
		if err != nil {
			return nil, err
		}
		lhs = &BiImplication{LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *formulaParser) implication() (Expr, error) {
	lhs, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokImplies {
		p.next()
		rhs, err := p.implication()
		if err != nil {
			return nil, err
		}
		return &Implies{LHS: lhs, RHS: rhs}, nil
	}
	return lhs, nil
}

func (p *formulaParser) disjunction() (Expr, error) {
	lhs, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		p.next()
		rhs, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		lhs = &Or{LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *formulaParser) conjunction() (Expr, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		p.next()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = &And{LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *formulaParser) unary() (Expr, error) {
	switch p.tok.kind {
	case tokNot:
		p.next()
		op, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: op}, nil
	case tokLParen:
		p.next()
		e, err := p.biimplication()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected closing parenthesis, found %q", p.tok.text)
		}
		p.next()
		return e, nil
	case tokIdent:
		a := &Atom{ID: feature.Identifier(p.tok.text)}
		p.next()
		return a, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of formula")
	default:
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
}

func (p *formulaParser) errorf(format string, args ...interface{}) error {
	return &feature.ConstraintError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

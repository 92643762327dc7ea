package boolean

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// Node is an expression in a parsed query.
type Node interface {
	fmt.Stringer
	node()
}

// Term matches the documents containing a single term.
type Term struct {
	Value string
}

// And matches documents matched by both operands.
type And struct {
	Left, Right Node
}

// Or matches documents matched by either operand.
type Or struct {
	Left, Right Node
}

// Not matches every indexed document not matched by its operand.
type Not struct {
	Operand Node
}

func (Term) node() {}
func (And) node() {}
func (Or) node() {}
func (Not) node() {}

func (t Term) String() string { return t.Value }

func (a And) String() string { return "(" + a.Left.String() + " AND " + a.Right.String() + ")" }

func (o Or) String() string { return "(" + o.Left.String() + " OR " + o.Right.String() + ")" }

func (n Not) String() string { return "NOT " + n.Operand.String() }

// ParseError describes where a query stopped matching the grammar.
type ParseError struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Position int    `json:"position"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query syntax error at token %d: expected %s, got %s", e.Position, e.Expected, e.Actual)
}

func (e *ParseError) Unwrap() error {
	return apperrors.ErrQuerySyntax
}

// Parse builds the expression tree of a query. Precedence is NOT over AND
// over OR; AND and OR associate to the left.
//
//	Query   := OrExpr
//	OrExpr  := AndExpr (OR AndExpr)*
//	AndExpr := NotExpr (AND NotExpr)*
//	NotExpr := NOT NotExpr | Primary
//	Primary := TERM | '(' Query ')'
func Parse(query string) (Node, error) {
	p := &parser{tokens: Tokenize(query)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != KindEnd {
		return nil, p.unexpected("end of query")
	}
	return node, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: KindEnd, Position: len(p.tokens)}
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) unexpected(expected string) *ParseError {
	tok := p.peek()
	actual := tok.Kind.String()
	if tok.Kind == KindTerm {
		actual = fmt.Sprintf("%q", tok.Text)
	}
	return &ParseError{Expected: expected, Actual: actual, Position: tok.Position}
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == KindOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == KindAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().Kind == KindNot {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch tok := p.peek(); tok.Kind {
	case KindTerm:
		p.next()
		return Term{Value: tok.Text}, nil
	case KindLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != KindRParen {
			return nil, p.unexpected(`")"`)
		}
		p.next()
		return inner, nil
	default:
		return nil, p.unexpected(`term, NOT or "("`)
	}
}

// Package boolean parses and evaluates Boolean queries (AND, OR, NOT and
// parentheses) against the term index.
package boolean

import (
	"strings"
	"unicode"
)

// Kind identifies a token class.
type Kind int

const (
	KindTerm Kind = iota
	KindAnd
	KindOr
	KindNot
	KindLParen
	KindRParen
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindAnd:
		return "AND"
	case KindOr:
		return "OR"
	case KindNot:
		return "NOT"
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	case KindEnd:
		return "end of query"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a query. Position is the token's index in
// the token stream.
type Token struct {
	Kind     Kind
	Text     string
	Position int
}

// Tokenize splits a query into parentheses and words. Words are runs of
// letters, digits and underscores; AND, OR and NOT are recognized in any
// case and upper-cased, every other word is lower-cased. All other
// characters are ignored.
func Tokenize(query string) []Token {
	var tokens []Token
	emit := func(kind Kind, text string) {
		tokens = append(tokens, Token{Kind: kind, Text: text, Position: len(tokens)})
	}

	runes := []rune(query)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '(':
			emit(KindLParen, "(")
			i++
		case r == ')':
			emit(KindRParen, ")")
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			switch upper := strings.ToUpper(word); upper {
			case "AND":
				emit(KindAnd, upper)
			case "OR":
				emit(KindOr, upper)
			case "NOT":
				emit(KindNot, upper)
			default:
				emit(KindTerm, strings.ToLower(word))
			}
		default:
			i++
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

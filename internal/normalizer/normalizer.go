// Package normalizer turns raw document text into the ordered sequence of
// normalized terms every index is built from. It lower-cases input, splits
// on non-alphanumeric boundaries, removes English stop-words, and applies
// the Porter stemmer.
package normalizer

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Normalizer produces normalized tokens from text. Implementations must be
// safe for concurrent use; the index builder calls them from every worker.
type Normalizer interface {
	Normalize(text string) []string
}

// Func adapts a plain function to the Normalizer interface.
type Func func(text string) []string

func (f Func) Normalize(text string) []string { return f(text) }

var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "myself": {}, "we": {}, "our": {}, "ours": {},
	"ourselves": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {}, "he": {}, "him": {}, "his": {}, "himself": {}, "she": {},
	"her": {}, "hers": {}, "herself": {}, "it": {}, "its": {}, "itself": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "themselves": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "am": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "having": {}, "do": {}, "does": {}, "did": {}, "doing": {},
	"a": {}, "an": {}, "the": {}, "and": {}, "but": {}, "if": {}, "or": {},
	"because": {}, "as": {}, "until": {}, "while": {}, "of": {}, "at": {},
	"by": {}, "for": {}, "with": {}, "about": {}, "against": {}, "between": {},
	"into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "to": {}, "from": {}, "up": {}, "down": {},
	"in": {}, "out": {}, "on": {}, "off": {}, "over": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {}, "here": {}, "there": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "any": {},
	"both": {}, "each": {}, "few": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "no": {}, "nor": {}, "not": {}, "only": {},
	"own": {}, "same": {}, "so": {}, "than": {}, "too": {}, "very": {},
	"s": {}, "t": {}, "can": {}, "will": {}, "just": {}, "don": {},
	"should": {}, "now": {},
}

// English is the default Normalizer.
type English struct{}

// Normalize lower-cases text, splits it into words, drops stop-words and
// stems what remains. Token order follows the text, so the slice index of a
// token is its position.
func (English) Normalize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if IsStopWord(word) {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// IsStopWord reports whether the lower-cased word is filtered out of
// documents.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// StemWord lower-cases and stems a single query word. Stop-words are kept.
func StemWord(word string) string {
	return stem(strings.ToLower(word))
}

func stem(word string) string {
	return porterstemmer.StemString(word)
}

package correction

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
)

// Suggestion is one alternative query and the documents it retrieves.
type Suggestion struct {
	Query string        `json:"query"`
	Docs  postings.List `json:"docs"`
	Count int           `json:"count"`
}

// Candidate is a vocabulary term proposed for one query word.
type Candidate struct {
	Term       string  `json:"term"`
	DocFreq    int     `json:"df"`
	Similarity float64 `json:"similarity,omitempty"`
	Distance   int     `json:"distance,omitempty"`
}

type vocabEntry struct {
	term   string
	df     int
	ngrams map[string]struct{}
}

// Corrector generates and ranks corrections against one immutable index.
type Corrector struct {
	idx       *index.Index
	intersect postings.Intersector
	cfg       config.CorrectionConfig
	vocab     []vocabEntry
}

// NewCorrector precomputes the n-grams of every vocabulary term. A nil
// intersector uses the linear merge.
func NewCorrector(idx *index.Index, intersect postings.Intersector, cfg config.CorrectionConfig) *Corrector {
	if intersect == nil {
		intersect = postings.Intersect
	}
	vocab := make([]vocabEntry, 0, len(idx.Vocabulary()))
	for term, df := range idx.Vocabulary() {
		vocab = append(vocab, vocabEntry{term: term, df: df, ngrams: NGrams(term)})
	}
	slices.SortFunc(vocab, func(a, b vocabEntry) int { return strings.Compare(a.term, b.term) })
	return &Corrector{idx: idx, intersect: intersect, cfg: cfg, vocab: vocab}
}

// Candidates proposes replacements for word. N-gram similarity is tried
// first; edit distance is the fallback; the word itself is returned when
// neither finds anything.
func (c *Corrector) Candidates(word string) []Candidate {
	if found := c.jaccardCandidates(word); len(found) > 0 {
		return found
	}
	if found := c.editCandidates(word); len(found) > 0 {
		return found
	}
	return []Candidate{{Term: word, DocFreq: c.idx.Vocabulary()[word]}}
}

func (c *Corrector) jaccardCandidates(word string) []Candidate {
	grams := NGrams(word)
	var out []Candidate
	for _, v := range c.vocab {
		if v.df < c.cfg.MinDocFreq {
			continue
		}
		sim := Jaccard(grams, v.ngrams)
		if sim >= c.cfg.MinSimilarity {
			out = append(out, Candidate{Term: v.term, DocFreq: v.df, Similarity: sim})
		}
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		if r := cmp.Compare(b.Similarity, a.Similarity); r != 0 {
			return r
		}
		if r := cmp.Compare(b.DocFreq, a.DocFreq); r != 0 {
			return r
		}
		return strings.Compare(a.Term, b.Term)
	})
	return truncate(out, c.cfg.JaccardTopN)
}

func (c *Corrector) editCandidates(word string) []Candidate {
	n := len([]rune(word))
	var out []Candidate
	for _, v := range c.vocab {
		if v.df < c.cfg.EditMinDocFreq {
			continue
		}
		// The distance is at least the difference in length.
		if diff := len([]rune(v.term)) - n; diff > c.cfg.MaxEditDistance || -diff > c.cfg.MaxEditDistance {
			continue
		}
		if d := Levenshtein(word, v.term); d <= c.cfg.MaxEditDistance {
			out = append(out, Candidate{Term: v.term, DocFreq: v.df, Distance: d})
		}
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		if r := cmp.Compare(a.Distance, b.Distance); r != 0 {
			return r
		}
		if r := cmp.Compare(b.DocFreq, a.DocFreq); r != 0 {
			return r
		}
		return strings.Compare(a.Term, b.Term)
	})
	return truncate(out, c.cfg.EditTopN)
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// Alternatives is the Cartesian product of the candidates of each word in
// query, in word order with the last word varying fastest, capped at
// MaxAlternatives.
func (c *Corrector) Alternatives(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}
	choices := make([][]string, len(words))
	for i, w := range words {
		for _, cand := range c.Candidates(w) {
			choices[i] = append(choices[i], cand.Term)
		}
	}

	var out []string
	picked := make([]string, len(words))
	var walk func(i int) bool
	walk = func(i int) bool {
		if i == len(words) {
			out = append(out, strings.Join(picked, " "))
			return c.cfg.MaxAlternatives <= 0 || len(out) < c.cfg.MaxAlternatives
		}
		for _, term := range choices[i] {
			picked[i] = term
			if !walk(i + 1) {
				return false
			}
		}
		return true
	}
	walk(0)
	return out
}

// Retrieve intersects the postings of every term of a space-separated
// query. A term missing from the index empties the result.
func (c *Corrector) Retrieve(query string) postings.List {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return postings.List{}
	}
	lists := make([]postings.List, len(terms))
	for i, term := range terms {
		lists[i] = c.idx.Postings(term)
		if len(lists[i]) == 0 {
			return postings.List{}
		}
	}
	return postings.IntersectAll(c.intersect, lists...)
}

// Correct ranks the alternatives of query by how many documents they
// retrieve. Alternatives that retrieve nothing are dropped; ties keep
// generation order. At most TopAlternatives suggestions are returned.
func (c *Corrector) Correct(query string) []Suggestion {
	var out []Suggestion
	for _, alt := range c.Alternatives(query) {
		docs := c.Retrieve(alt)
		if len(docs) == 0 {
			continue
		}
		out = append(out, Suggestion{Query: alt, Docs: docs, Count: len(docs)})
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int { return cmp.Compare(b.Count, a.Count) })
	return truncate(out, c.cfg.TopAlternatives)
}

// Package index holds the immutable, queryable index structures shared by
// every query engine: the document map and the term, biword and positional
// inverted indexes.
package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
)

// BiwordSeparator joins the two terms of a biword key.
const BiwordSeparator = "_"

// DocMap maps a document ID to the name of its source file.
type DocMap map[int]string

// TermIndex maps a term to the documents containing it.
type TermIndex map[string]postings.List

// BiwordIndex maps a "t1_t2" key to the documents containing that pair of
// adjacent terms.
type BiwordIndex map[string]postings.List

// PositionalIndex maps a term to its ascending token offsets in each
// document.
type PositionalIndex map[string]map[int][]int

// Vocabulary maps a term to its document frequency.
type Vocabulary map[string]int

// BiwordKey builds the composite key of an adjacent term pair.
func BiwordKey(first, second string) string {
	return first + BiwordSeparator + second
}

// Docs returns the document IDs of a positional posting, ascending.
func (p PositionalIndex) Docs(term string) postings.List {
	byDoc := p[term]
	ids := make(postings.List, 0, len(byDoc))
	for id := range byDoc {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Index bundles the structures produced by one build. It is never mutated
// after New returns; accessors hand out shared slices that callers must
// treat as read-only.
type Index struct {
	docs      DocMap
	terms     TermIndex
	biwords   BiwordIndex
	positions PositionalIndex
	universe  postings.List
	vocab     Vocabulary
}

// New takes ownership of the given structures. Nil structures are replaced
// by empty ones. The universal document set is derived from the term index.
func New(docs DocMap, terms TermIndex, biwords BiwordIndex, positions PositionalIndex) *Index {
	if docs == nil {
		docs = DocMap{}
	}
	if terms == nil {
		terms = TermIndex{}
	}
	if biwords == nil {
		biwords = BiwordIndex{}
	}
	if positions == nil {
		positions = PositionalIndex{}
	}
	all := make(map[int]struct{})
	vocab := make(Vocabulary, len(terms))
	for term, ids := range terms {
		vocab[term] = len(ids)
		for _, id := range ids {
			all[id] = struct{}{}
		}
	}
	return &Index{
		docs:      docs,
		terms:     terms,
		biwords:   biwords,
		positions: positions,
		universe:  postings.FromSet(all),
		vocab:     vocab,
	}
}

// Postings returns the documents containing term. Unknown terms yield an
// empty list.
func (x *Index) Postings(term string) postings.List {
	return x.terms[term]
}

// Biword returns the documents containing the adjacent pair key.
func (x *Index) Biword(key string) postings.List {
	return x.biwords[key]
}

// Positions returns the offsets of term keyed by document.
func (x *Index) Positions(term string) map[int][]int {
	return x.positions[term]
}

// Universe is the union of every term posting list.
func (x *Index) Universe() postings.List {
	return x.universe
}

// Vocabulary returns term document frequencies.
func (x *Index) Vocabulary() Vocabulary {
	return x.vocab
}

func (x *Index) Docs() DocMap { return x.docs }

func (x *Index) Terms() TermIndex { return x.terms }

func (x *Index) Biwords() BiwordIndex { return x.biwords }

func (x *Index) Positional() PositionalIndex { return x.positions }

// DocName returns the source name of a document.
func (x *Index) DocName(id int) (string, bool) {
	name, ok := x.docs[id]
	return name, ok
}

// Validate checks that every document referenced by any index is present
// in the document map.
func (x *Index) Validate() error {
	var missing []string
	check := func(kind, key string, id int) {
		if _, ok := x.docs[id]; !ok && len(missing) < 10 {
			missing = append(missing, fmt.Sprintf("%s %q -> %d", kind, key, id))
		}
	}
	for term, ids := range x.terms {
		for _, id := range ids {
			check("term", term, id)
		}
	}
	for key, ids := range x.biwords {
		for _, id := range ids {
			check("biword", key, id)
		}
	}
	for term, byDoc := range x.positions {
		for id := range byDoc {
			check("positional", term, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("postings reference unknown documents: %s", strings.Join(missing, "; "))
	}
	return nil
}

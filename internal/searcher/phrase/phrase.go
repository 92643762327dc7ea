// Package phrase resolves phrase queries, either approximately through the
// biword index or exactly through the positional index.
package phrase

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
)

// Split lower-cases a phrase, splits it on whitespace and stems each word
// the way documents are stemmed at build time. Stop-words are kept.
func Split(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := normalizer.StemWord(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Biwords returns the overlapping biword keys of a split phrase.
func Biwords(words []string) []string {
	if len(words) < 2 {
		return nil
	}
	keys := make([]string, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		keys = append(keys, index.BiwordKey(words[i], words[i+1]))
	}
	return keys
}

// Engine answers phrase queries against one immutable index.
type Engine struct {
	idx       *index.Index
	intersect postings.Intersector
}

// NewEngine creates an Engine. A nil intersector uses the linear merge.
func NewEngine(idx *index.Index, intersect postings.Intersector) *Engine {
	if intersect == nil {
		intersect = postings.Intersect
	}
	return &Engine{idx: idx, intersect: intersect}
}

// Biword matches documents containing every adjacent pair of the phrase.
// The pairs need not form one contiguous run, so phrases of three or more
// words can match documents the positional engine rejects. Phrases of
// fewer than two words match nothing.
func (e *Engine) Biword(query string) postings.List {
	keys := Biwords(Split(query))
	if len(keys) == 0 {
		return postings.List{}
	}
	lists := make([]postings.List, 0, len(keys))
	for _, key := range keys {
		ids := e.idx.Biword(key)
		if len(ids) == 0 {
			return postings.List{}
		}
		lists = append(lists, ids)
	}
	return postings.IntersectAll(e.intersect, lists...)
}

// Positional matches documents where the phrase words occur at consecutive
// offsets. Candidates are the documents containing every word; each is
// accepted at the first start offset that lines up.
func (e *Engine) Positional(query string) postings.List {
	words := Split(query)
	if len(words) == 0 {
		return postings.List{}
	}
	positional := e.idx.Positional()
	lists := make([]postings.List, len(words))
	for i, w := range words {
		lists[i] = positional.Docs(w)
		if len(lists[i]) == 0 {
			return postings.List{}
		}
	}
	candidates := postings.IntersectAll(e.intersect, lists...)
	if len(words) == 1 {
		return candidates
	}

	out := make(postings.List, 0, len(candidates))
	for _, id := range candidates {
		if e.contiguous(words, id) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) contiguous(words []string, id int) bool {
	offsets := make([][]int, len(words))
	for i, w := range words {
		offsets[i] = e.idx.Positions(w)[id]
	}
	for _, start := range offsets[0] {
		match := true
		for i := 1; i < len(words); i++ {
			if _, ok := slices.BinarySearch(offsets[i], start+i); !ok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

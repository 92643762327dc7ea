package boolean

import (
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
)

// Engine evaluates parsed queries against one immutable index.
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

// Search parses and evaluates query. Nothing is evaluated when the query
// does not parse.
func (e *Engine) Search(query string) (postings.List, error) {
	node, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(node), nil
}

// Evaluate resolves node bottom-up. Terms missing from the index match no
// documents; NOT is taken relative to the universal document set.
func (e *Engine) Evaluate(node Node) postings.List {
	switch n := node.(type) {
	case Term:
		if ids := e.idx.Postings(n.Value); ids != nil {
			return ids
		}
		return postings.List{}
	case And:
		return e.intersect(e.Evaluate(n.Left), e.Evaluate(n.Right))
	case Or:
		return postings.Union(e.Evaluate(n.Left), e.Evaluate(n.Right))
	case Not:
		return postings.Difference(e.idx.Universe(), e.Evaluate(n.Operand))
	default:
		return postings.List{}
	}
}

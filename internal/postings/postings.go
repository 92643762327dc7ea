// Package postings implements set algebra over posting lists: ascending,
// duplicate-free slices of document IDs. Every function is pure; inputs are
// never modified and results never alias an input.
package postings

import (
	"fmt"
	"slices"
	"sort"
)

// List is an ascending sequence of distinct document IDs.
type List []int

// Intersector computes the intersection of two Lists.
type Intersector func(a, b List) List

// Strategy names an intersection algorithm.
type Strategy string

const (
	Linear    Strategy = "linear"
	Galloping Strategy = "galloping"
)

// IntersectorFor returns the algorithm registered under s.
func IntersectorFor(s Strategy) (Intersector, error) {
	switch s {
	case Linear:
		return Intersect, nil
	case Galloping:
		return Gallop, nil
	default:
		return nil, fmt.Errorf("unknown intersection strategy %q", s)
	}
}

// Normalize sorts ids and removes duplicates, returning a new List.
func Normalize(ids []int) List {
	if len(ids) == 0 {
		return List{}
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return List(slices.Compact(out))
}

// FromSet converts a set of IDs into a List.
func FromSet(set map[int]struct{}) List {
	out := make(List, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Contains reports whether id is in l.
func (l List) Contains(id int) bool {
	_, found := slices.BinarySearch(l, id)
	return found
}

// Union merges two Lists.
func Union(a, b List) List {
	out := make(List, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Intersect is the two-pointer merge intersection, O(|a|+|b|).
func Intersect(a, b List) List {
	if len(a) == 0 || len(b) == 0 {
		return List{}
	}
	out := make(List, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// Gallop intersects by walking the shorter list and locating each element
// in the longer one with an exponential probe followed by a binary search.
// The probe starts where the previous element was found, so the total cost
// is O(|short| log(|long|/|short|)).
func Gallop(a, b List) List {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return List{}
	}
	out := make(List, 0, len(a))
	lo := 0
	for _, x := range a {
		if lo >= len(b) {
			break
		}
		hi := lo
		step := 1
		for hi < len(b) && b[hi] < x {
			lo = hi + 1
			hi += step
			step *= 2
		}
		hi = min(hi+1, len(b))
		pos := lo + sort.SearchInts(b[lo:hi], x)
		if pos < len(b) && b[pos] == x {
			out = append(out, x)
			pos++
		}
		lo = pos
	}
	return out
}

// Difference returns the members of universe that are not in a.
func Difference(universe, a List) List {
	out := make(List, 0, len(universe))
	j := 0
	for _, id := range universe {
		for j < len(a) && a[j] < id {
			j++
		}
		if j < len(a) && a[j] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

// IntersectAll intersects every list, shortest first, stopping as soon as
// the running result is empty. No lists means no documents.
func IntersectAll(intersect Intersector, lists ...List) List {
	if len(lists) == 0 {
		return List{}
	}
	ordered := slices.Clone(lists)
	slices.SortStableFunc(ordered, func(x, y List) int { return len(x) - len(y) })
	result := slices.Clone(ordered[0])
	for _, l := range ordered[1:] {
		if len(result) == 0 {
			break
		}
		result = intersect(result, l)
	}
	if result == nil {
		return List{}
	}
	return result
}

// UnionAll merges every list.
func UnionAll(lists ...List) List {
	result := List{}
	for _, l := range lists {
		result = Union(result, l)
	}
	return result
}

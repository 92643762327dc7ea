package postings

import (
	"fmt"
	"time"
)

// LetterLists groups documents by the first letter of the terms they
// contain: entry k holds every document with at least one term starting
// with 'a'+k. Terms starting with anything else are ignored.
func LetterLists(terms map[string]List) [26]List {
	var sets [26]map[int]struct{}
	for term, ids := range terms {
		if term == "" {
			continue
		}
		c := term[0]
		if c < 'a' || c > 'z' {
			continue
		}
		k := c - 'a'
		if sets[k] == nil {
			sets[k] = make(map[int]struct{})
		}
		for _, id := range ids {
			sets[k][id] = struct{}{}
		}
	}
	var out [26]List
	for k := range sets {
		out[k] = FromSet(sets[k])
	}
	return out
}

// StrategyReport summarises one run of CompareStrategies.
type StrategyReport struct {
	Pairs         int
	Elements      int
	LinearTime    time.Duration
	GallopingTime time.Duration
	Mismatches    []string
}

// LinearRate is the number of input elements intersected per second.
func (r StrategyReport) LinearRate() float64 {
	return rate(r.Elements, r.LinearTime)
}

func (r StrategyReport) GallopingRate() float64 {
	return rate(r.Elements, r.GallopingTime)
}

func rate(elements int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(elements) / d.Seconds()
}

// CompareStrategies intersects every unordered pair of letter lists with
// both algorithms, timing each and recording any pair whose results
// differ.
func CompareStrategies(lists [26]List) StrategyReport {
	var report StrategyReport
	for i := 0; i < len(lists); i++ {
		for j := i + 1; j < len(lists); j++ {
			a, b := lists[i], lists[j]
			report.Pairs++
			report.Elements += len(a) + len(b)

			start := time.Now()
			linear := Intersect(a, b)
			report.LinearTime += time.Since(start)

			start = time.Now()
			galloping := Gallop(a, b)
			report.GallopingTime += time.Since(start)

			if !Equal(linear, galloping) {
				report.Mismatches = append(report.Mismatches, fmt.Sprintf("%c/%c", 'a'+i, 'a'+j))
			}
		}
	}
	return report
}

// Equal reports whether two Lists hold the same IDs.
func Equal(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

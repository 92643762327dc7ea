package postings

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	assert.Equal(t, List{1, 2, 3, 5, 8}, Union(List{1, 3, 5}, List{2, 3, 8}))
	assert.Equal(t, List{4}, Union(List{}, List{4}))
	assert.Equal(t, List{}, Union(nil, nil))
}

func TestDifference(t *testing.T) {
	assert.Equal(t, List{0, 2, 4}, Difference(List{0, 1, 2, 3, 4}, List{1, 3, 9}))
	assert.Equal(t, List{0, 1}, Difference(List{0, 1}, nil))
	assert.Equal(t, List{}, Difference(List{0, 1}, List{0, 1}))
	assert.Equal(t, List{}, Difference(nil, List{3}))
}

func TestIntersectEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		a, b List
		want List
	}{
		{"both empty", List{}, List{}, List{}},
		{"left empty", List{}, List{1, 2}, List{}},
		{"right empty", List{1, 2}, nil, List{}},
		{"singleton hit", List{7}, List{1, 4, 7, 9}, List{7}},
		{"singleton miss", List{5}, List{1, 4, 7, 9}, List{}},
		{"singleton past end", List{10}, List{1, 4, 7, 9}, List{}},
		{"disjoint", List{1, 3, 5}, List{2, 4, 6}, List{}},
		{"identical", List{1, 2, 3}, List{1, 2, 3}, List{1, 2, 3}},
		{"subset", List{2, 50}, List{1, 2, 3, 4, 5, 6, 7, 8, 50, 60}, List{2, 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Intersect(tc.a, tc.b))
			assert.Equal(t, tc.want, Gallop(tc.a, tc.b))
			assert.Equal(t, tc.want, Gallop(tc.b, tc.a))
		})
	}
}

func randomList(r *rand.Rand, n, universe int) List {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = r.IntN(universe)
	}
	return Normalize(ids)
}

func TestIntersectionStrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	for i := 0; i < 2000; i++ {
		universe := 1 + r.IntN(500)
		a := randomList(r, r.IntN(60), universe)
		b := randomList(r, r.IntN(400), universe)
		linear := Intersect(a, b)
		require.Equal(t, linear, Gallop(a, b), "a=%v b=%v", a, b)
		require.Equal(t, linear, Gallop(b, a), "a=%v b=%v", a, b)
		require.Equal(t, linear, Intersect(b, a))
	}
}

func TestIntersectAll(t *testing.T) {
	lists := []List{{1, 2, 3, 4, 5}, {2, 4}, {0, 2, 4, 6}}
	assert.Equal(t, List{2, 4}, IntersectAll(Intersect, lists...))
	assert.Equal(t, List{2, 4}, IntersectAll(Gallop, lists...))
	assert.Equal(t, List{}, IntersectAll(Gallop))
	assert.Equal(t, List{}, IntersectAll(Gallop, List{1}, List{}))
	assert.Equal(t, List{1, 5}, IntersectAll(Intersect, List{1, 5}))
}

func TestIntersectAllDoesNotAliasInput(t *testing.T) {
	in := List{1, 2}
	out := IntersectAll(Intersect, in)
	out[0] = 99
	assert.Equal(t, List{1, 2}, in)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, List{1, 2, 3}, Normalize([]int{3, 1, 2, 3, 1}))
	assert.Equal(t, List{}, Normalize(nil))
}

func TestIntersectorFor(t *testing.T) {
	fn, err := IntersectorFor(Galloping)
	require.NoError(t, err)
	assert.Equal(t, List{2}, fn(List{1, 2}, List{2, 3}))
	_, err = IntersectorFor("skip-list")
	assert.Error(t, err)
}

func TestLetterListsAndCompare(t *testing.T) {
	terms := map[string]List{
		"real":   {0, 1},
		"rival":  {2},
		"madrid": {0, 1},
		"match":  {1, 3},
		"9ers":   {4},
	}
	lists := LetterLists(terms)
	assert.Equal(t, List{0, 1, 2}, lists['r'-'a'])
	assert.Equal(t, List{0, 1, 3}, lists['m'-'a'])
	assert.Empty(t, lists['z'-'a'])

	report := CompareStrategies(lists)
	assert.Equal(t, 325, report.Pairs)
	assert.Equal(t, 25*6, report.Elements)
	assert.Empty(t, report.Mismatches)
}

func BenchmarkIntersect(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 2))
	short := randomList(r, 100, 1_000_000)
	long := randomList(r, 100_000, 1_000_000)
	b.Run("linear", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = Intersect(short, long)
		}
	})
	b.Run("galloping", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = Gallop(short, long)
		}
	})
}

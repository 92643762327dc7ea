package indexer

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func scenarioDir(t *testing.T) string {
	return writeDocs(t, map[string]string{
		"page_00000.txt": "real madrid wins",
		"page_00001.txt": "barcelona beats real madrid",
		"page_00002.txt": "transfer news today",
	})
}

func TestBuildScenario(t *testing.T) {
	b := NewBuilder(config.IndexerConfig{Workers: 3})
	res, err := b.Build(context.Background(), scenarioDir(t))
	require.NoError(t, err)
	idx := res.Index

	assert.Equal(t, index.DocMap{0: "page_00000.txt", 1: "page_00001.txt", 2: "page_00002.txt"}, idx.Docs())
	assert.Equal(t, postings.List{0, 1}, idx.Postings("real"))
	assert.Equal(t, postings.List{0, 1}, idx.Postings("madrid"))
	assert.Equal(t, postings.List{1}, idx.Postings("barcelona"))
	assert.Equal(t, postings.List{0}, idx.Postings("win"))
	assert.Equal(t, postings.List{2}, idx.Postings("new"))

	assert.Equal(t, postings.List{0, 1}, idx.Biword("real_madrid"))
	assert.Equal(t, postings.List{1}, idx.Biword("barcelona_beat"))
	assert.Equal(t, postings.List{1}, idx.Biword("beat_real"))

	assert.Equal(t, map[int][]int{0: {0}, 1: {2}}, idx.Positions("real"))
	assert.Equal(t, map[int][]int{0: {1}, 1: {3}}, idx.Positions("madrid"))

	assert.Equal(t, 3, res.Stats.Documents)
	assert.Zero(t, res.Stats.Skipped)
	assert.Equal(t, 2, res.Stats.MaxPostingLength)
	assert.NoError(t, idx.Validate())
}

func TestBuildDropsStopWordsBeforePositions(t *testing.T) {
	dir := writeDocs(t, map[string]string{"a.txt": "the king of the north"})
	res, err := NewBuilder(config.IndexerConfig{}).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int{0: {0}}, res.Index.Positions("king"))
	assert.Equal(t, map[int][]int{0: {1}}, res.Index.Positions("north"))
	assert.Equal(t, postings.List{0}, res.Index.Biword("king_north"))
}

func TestBiwordsSkipSingleCharacterTerms(t *testing.T) {
	dir := writeDocs(t, map[string]string{"a.txt": "plan b works"})
	res, err := NewBuilder(config.IndexerConfig{}).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, res.Index.Biwords())
	assert.NotEmpty(t, res.Index.Postings("b"))
}

func TestBiwordsCountCharactersNotBytes(t *testing.T) {
	dir := writeDocs(t, map[string]string{"a.txt": "plan é works"})
	res, err := NewBuilder(config.IndexerConfig{}).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, res.Index.Biwords())
	assert.NotEmpty(t, res.Index.Postings("é"))
}

func TestBuildExtractsArticleFromHTML(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"page.html": `<html><head><title>menu</title><script>var tracking = 1;</script></head>
<body><nav>navigation</nav><article><p>Champions league final</p></article></body></html>`,
	})
	res, err := NewBuilder(config.IndexerConfig{}).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Index.Postings("champion"))
	assert.NotEmpty(t, res.Index.Postings("final"))
	assert.Empty(t, res.Index.Postings("navig"))
	assert.Empty(t, res.Index.Postings("track"))
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"b.txt":     "x",
		"a.HTML":    "x",
		"notes.md":  "x",
		"c.htm":     "x",
		"image.png": "x",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	docs, err := NewBuilder(config.IndexerConfig{}).Discover(dir)
	require.NoError(t, err)
	var names []string
	for i, d := range docs {
		assert.Equal(t, i, d.ID)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a.HTML", "b.txt", "c.htm"}, names)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := NewBuilder(config.IndexerConfig{}).Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestUnreadableDocumentIsSkipped(t *testing.T) {
	dir := scenarioDir(t)
	docs := []Document{
		{ID: 0, Name: "page_00000.txt", Path: filepath.Join(dir, "page_00000.txt")},
		{ID: 1, Name: "gone.txt", Path: filepath.Join(dir, "gone.txt")},
		{ID: 2, Name: "page_00002.txt", Path: filepath.Join(dir, "page_00002.txt")},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	res, err := NewBuilder(config.IndexerConfig{Workers: 2}, WithMetrics(m)).BuildDocuments(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.txt"}, res.Skipped)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, 2, res.Stats.Documents)

	_, ok := res.Index.DocName(1)
	assert.False(t, ok)
	assert.Equal(t, postings.List{0, 2}, res.Index.Universe())
	assert.NoError(t, res.Index.Validate())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsSkippedTotal))
}

func TestBuildHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(config.IndexerConfig{}).Build(ctx, scenarioDir(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReduceIsOrderIndependent(t *testing.T) {
	texts := []string{
		"alpha beta gamma alpha",
		"beta gamma delta",
		"gamma alpha beta",
		"delta epsilon",
		"alpha beta",
	}
	results := make([]*docResult, len(texts))
	for i, text := range texts {
		doc := Document{ID: i, Name: text}
		results[i] = analyze(doc, strings.Fields(text), int64(len(text)))
	}
	want := reduce(results).Index

	rng := rand.New(rand.NewPCG(3, 9))
	for range 20 {
		shuffled := append([]*docResult(nil), results...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := reduce(shuffled).Index
		assert.Equal(t, want.Terms(), got.Terms())
		assert.Equal(t, want.Biwords(), got.Biwords())
		assert.Equal(t, want.Positional(), got.Positional())
		assert.Equal(t, want.Docs(), got.Docs())
	}
}

func TestBuildWorkerCountDoesNotChangeIndex(t *testing.T) {
	dir := scenarioDir(t)
	one, err := NewBuilder(config.IndexerConfig{Workers: 1}).Build(context.Background(), dir)
	require.NoError(t, err)
	many, err := NewBuilder(config.IndexerConfig{Workers: 8}).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, one.Index.Terms(), many.Index.Terms())
	assert.Equal(t, one.Index.Biwords(), many.Index.Biwords())
	assert.Equal(t, one.Index.Positional(), many.Index.Positional())
}

func TestResultSave(t *testing.T) {
	res, err := NewBuilder(config.IndexerConfig{}).Build(context.Background(), scenarioDir(t))
	require.NoError(t, err)

	out := t.TempDir()
	m, err := res.Save(out)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Documents)

	loaded, err := store.LoadIndex(out, store.Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, res.Index.Terms(), loaded.Terms())
	// Only real_madrid occurs in two documents.
	assert.Equal(t, index.BiwordIndex{"real_madrid": {0, 1}}, loaded.Biwords())
}

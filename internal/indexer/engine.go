// Package indexer builds the term, biword and positional indexes from a
// directory of documents.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Document is one file selected for indexing. ID is assigned before any
// document is processed.
type Document struct {
	ID   int
	Name string
	Path string
}

// Stats summarizes a completed build.
type Stats struct {
	Documents        int           `json:"documents"`
	Skipped          int           `json:"skipped"`
	DistinctTerms    int           `json:"distinct_terms"`
	Biwords          int           `json:"biwords"`
	PositionalKeys   int           `json:"positional_keys"`
	AvgDistinctTerms float64       `json:"avg_distinct_terms"`
	MaxPostingLength int           `json:"max_posting_length"`
	CollectionBytes  int64         `json:"collection_bytes"`
	Duration         time.Duration `json:"duration"`
}

// Result is the output of Build.
type Result struct {
	Index   *index.Index
	Stats   Stats
	Skipped []string
}

// Save writes the index files of r into dir.
func (r *Result) Save(dir string) (*store.Manifest, error) {
	return store.NewWriter(dir).Write(r.Index)
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetrics records build counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithNormalizer replaces the default English normalizer.
func WithNormalizer(n normalizer.Normalizer) Option {
	return func(b *Builder) { b.normalizer = n }
}

// Builder turns documents into an immutable index.
type Builder struct {
	cfg        config.IndexerConfig
	normalizer normalizer.Normalizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewBuilder creates a Builder. Workers below one are treated as one.
func NewBuilder(cfg config.IndexerConfig, opts ...Option) *Builder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".html", ".htm", ".txt"}
	}
	b := &Builder{
		cfg:        cfg,
		normalizer: normalizer.English{},
		logger:     slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discover lists the regular files in dir whose extension is configured,
// sorted by name, and assigns dense ids in that order.
func (b *Builder) Discover(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading documents directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if b.matches(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]Document, len(names))
	for i, name := range names {
		docs[i] = Document{ID: i, Name: name, Path: filepath.Join(dir, name)}
	}
	return docs, nil
}

func (b *Builder) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range b.cfg.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Build indexes every matching document in dir.
func (b *Builder) Build(ctx context.Context, dir string) (*Result, error) {
	docs, err := b.Discover(dir)
	if err != nil {
		return nil, err
	}
	b.logger.Info("starting index build", "dir", dir, "documents", len(docs), "workers", b.cfg.Workers)
	return b.BuildDocuments(ctx, docs)
}

// BuildDocuments indexes docs on a bounded worker pool. Each worker fills
// its own slot; the results are merged by a single reducer once the pool
// drains. A document that cannot be read is logged and skipped.
func (b *Builder) BuildDocuments(ctx context.Context, docs []Document) (*Result, error) {
	start := time.Now()
	results := make([]*docResult, len(docs))
	failed := make([]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.process(doc)
			if err != nil {
				b.logger.Warn("skipping document", "doc", doc.Name, "error", err)
				failed[i] = true
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	var skipped []string
	for i, bad := range failed {
		if bad {
			skipped = append(skipped, docs[i].Name)
		}
	}

	out := reduce(results)
	out.Skipped = skipped
	out.Stats.Skipped = len(skipped)
	out.Stats.Duration = time.Since(start)

	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Add(float64(out.Stats.Documents))
		b.metrics.DocsSkippedTotal.Add(float64(out.Stats.Skipped))
		b.metrics.BuildDuration.Observe(out.Stats.Duration.Seconds())
	}
	b.logger.Info("index build complete",
		"documents", out.Stats.Documents,
		"skipped", out.Stats.Skipped,
		"terms", out.Stats.DistinctTerms,
		"biwords", out.Stats.Biwords,
		"duration", out.Stats.Duration,
	)
	return out, nil
}

// docResult is what one worker produces for one document.
type docResult struct {
	id        int
	name      string
	bytes     int64
	terms     []string
	biwords   []string
	positions map[string][]int
}

func (b *Builder) process(doc Document) (*docResult, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	text, n, err := readText(f, doc.Name)
	if err != nil {
		return nil, err
	}
	return analyze(doc, b.normalizer.Normalize(text), n), nil
}

// readText returns the indexable text of a document. HTML is reduced to
// its article body; anything else is taken as is.
func readText(r io.Reader, name string) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("reading document: %w", err)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		text, err := normalizer.ExtractText(bytes.NewReader(data))
		if err != nil {
			return "", 0, fmt.Errorf("extracting text: %w", err)
		}
		return text, int64(len(data)), nil
	default:
		return string(data), int64(len(data)), nil
	}
}

// analyze derives the unique terms, biwords and term offsets of one
// normalized token stream.
func analyze(doc Document, tokens []string, size int64) *docResult {
	res := &docResult{
		id:        doc.ID,
		name:      doc.Name,
		bytes:     size,
		positions: make(map[string][]int),
	}
	for pos, tok := range tokens {
		res.positions[tok] = append(res.positions[tok], pos)
	}
	res.terms = make([]string, 0, len(res.positions))
	for term := range res.positions {
		res.terms = append(res.terms, term)
	}
	slices.Sort(res.terms)

	seen := make(map[string]struct{})
	for i := 0; i+1 < len(tokens); i++ {
		if utf8.RuneCountInString(tokens[i]) <= 1 || utf8.RuneCountInString(tokens[i+1]) <= 1 {
			continue
		}
		key := index.BiwordKey(tokens[i], tokens[i+1])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res.biwords = append(res.biwords, key)
	}
	return res
}

// reduce merges per-document results. Nil entries are skipped documents.
// Postings are sorted at the end so the merge order does not matter.
func reduce(results []*docResult) *Result {
	docs := make(index.DocMap)
	terms := make(index.TermIndex)
	biwords := make(index.BiwordIndex)
	positions := make(index.PositionalIndex)

	var stats Stats
	var distinct int
	for _, res := range results {
		if res == nil {
			continue
		}
		docs[res.id] = res.name
		stats.Documents++
		stats.CollectionBytes += res.bytes
		distinct += len(res.terms)
		for _, term := range res.terms {
			terms[term] = append(terms[term], res.id)
		}
		for _, key := range res.biwords {
			biwords[key] = append(biwords[key], res.id)
		}
		for term, offsets := range res.positions {
			byDoc, ok := positions[term]
			if !ok {
				byDoc = make(map[int][]int)
				positions[term] = byDoc
			}
			byDoc[res.id] = offsets
		}
	}
	for term, ids := range terms {
		list := postings.Normalize(ids)
		terms[term] = list
		if len(list) > stats.MaxPostingLength {
			stats.MaxPostingLength = len(list)
		}
	}
	for key, ids := range biwords {
		biwords[key] = postings.Normalize(ids)
	}

	stats.DistinctTerms = len(terms)
	stats.Biwords = len(biwords)
	stats.PositionalKeys = len(positions)
	if stats.Documents > 0 {
		stats.AvgDistinctTerms = float64(distinct) / float64(stats.Documents)
	}
	return &Result{
		Index: index.New(docs, terms, biwords, positions),
		Stats: stats,
	}
}

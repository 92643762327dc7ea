// Package executor dispatches search requests to the Boolean, phrase and
// correction engines over the currently loaded index.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/correction"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/phrase"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Mode selects the engine that answers a request.
type Mode string

const (
	ModeBoolean    Mode = "boolean"
	ModeBiword     Mode = "biword"
	ModePositional Mode = "positional"
	ModeCorrect    Mode = "correct"
)

// ParseMode accepts a mode name in any case. The empty string is Boolean.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeBoolean, nil
	case ModeBoolean, ModeBiword, ModePositional, ModeCorrect:
		return m, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown search mode %q", s)
	}
}

// Request is one search.
type Request struct {
	Mode  Mode
	Query string
	Limit int
}

// Hit is a matching document.
type Hit struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchResult is the answer to a Request. For correction requests the
// hits are those of the best suggestion.
type SearchResult struct {
	Query       string                  `json:"query"`
	Mode        Mode                    `json:"mode"`
	TotalHits   int                     `json:"total_hits"`
	Results     []Hit                   `json:"results"`
	Suggestions []correction.Suggestion `json:"suggestions,omitempty"`
	LatencyMs   float64                 `json:"latency_ms"`
}

// IndexStats describes the loaded index.
type IndexStats struct {
	Dir            string    `json:"dir,omitempty"`
	Documents      int       `json:"documents"`
	Terms          int       `json:"terms"`
	Biwords        int       `json:"biwords"`
	PositionalKeys int       `json:"positional_keys"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// snapshot bundles one immutable index with the engines built over it.
type snapshot struct {
	idx       *index.Index
	boolean   *boolean.Engine
	phrase    *phrase.Engine
	corrector *correction.Corrector
	dir       string
	loadedAt  time.Time
}

// Executor answers requests against the current snapshot. Reloads build a
// new snapshot and swap it in; requests in flight keep the one they
// started with.
type Executor struct {
	current   atomic.Pointer[snapshot]
	intersect postings.Intersector
	search    config.SearchConfig
	corr      config.CorrectionConfig
	loadOpts  store.Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records query and reload metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithLoadOptions sets how Reload parses index files.
func WithLoadOptions(opts store.Options) Option {
	return func(e *Executor) { e.loadOpts = opts }
}

// New creates an Executor serving idx.
func New(idx *index.Index, search config.SearchConfig, corr config.CorrectionConfig, opts ...Option) (*Executor, error) {
	strategy := postings.Strategy(search.Intersection)
	if strategy == "" {
		strategy = postings.Linear
	}
	intersect, err := postings.IntersectorFor(strategy)
	if err != nil {
		return nil, err
	}
	e := &Executor{
		intersect: intersect,
		search:    search,
		corr:      corr,
		logger:    slog.Default().With("component", "query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.swap(idx, "")
	return e, nil
}

// Open loads the index stored in dir and creates an Executor over it.
func Open(dir string, search config.SearchConfig, corr config.CorrectionConfig, opts ...Option) (*Executor, error) {
	e, err := New(index.New(nil, nil, nil, nil), search, corr, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Reload(dir); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload loads a fresh copy of the index in dir and swaps it in. On error
// the current index stays in service.
func (e *Executor) Reload(dir string) error {
	idx, err := store.LoadIndex(dir, e.loadOpts)
	if err != nil {
		if e.metrics != nil {
			e.metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		}
		return fmt.Errorf("reloading index: %w", err)
	}
	e.swap(idx, dir)
	if e.metrics != nil {
		e.metrics.IndexReloadsTotal.WithLabelValues("ok").Inc()
	}
	return nil
}

func (e *Executor) swap(idx *index.Index, dir string) {
	snap := &snapshot{
		idx:       idx,
		boolean:   boolean.NewEngine(idx, e.intersect),
		phrase:    phrase.NewEngine(idx, e.intersect),
		corrector: correction.NewCorrector(idx, e.intersect, e.corr),
		dir:       dir,
		loadedAt:  time.Now().UTC(),
	}
	e.current.Store(snap)
	if e.metrics != nil {
		e.metrics.IndexDocuments.Set(float64(len(idx.Docs())))
		e.metrics.IndexTerms.WithLabelValues("term").Set(float64(len(idx.Terms())))
		e.metrics.IndexTerms.WithLabelValues("biword").Set(float64(len(idx.Biwords())))
		e.metrics.IndexTerms.WithLabelValues("positional").Set(float64(len(idx.Positional())))
	}
	e.logger.Info("index swapped in",
		"dir", dir,
		"documents", len(idx.Docs()),
		"terms", len(idx.Terms()),
	)
}

// Index returns the index currently in service.
func (e *Executor) Index() *index.Index {
	return e.current.Load().idx
}

// Stats describes the index currently in service.
func (e *Executor) Stats() IndexStats {
	snap := e.current.Load()
	return IndexStats{
		Dir:            snap.dir,
		Documents:      len(snap.idx.Docs()),
		Terms:          len(snap.idx.Terms()),
		Biwords:        len(snap.idx.Biwords()),
		PositionalKeys: len(snap.idx.Positional()),
		LoadedAt:       snap.loadedAt,
	}
}

// Execute answers req. Boolean syntax errors are returned as
// *boolean.ParseError and nothing is evaluated.
func (e *Executor) Execute(ctx context.Context, req Request) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	req.Mode = mode
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query must not be empty")
	}
	limit := e.clampLimit(req.Limit)

	start := time.Now()
	snap := e.current.Load()
	var (
		ids         postings.List
		suggestions []correction.Suggestion
	)
	switch req.Mode {
	case ModeBoolean:
		ids, err = snap.boolean.Search(req.Query)
	case ModeBiword:
		ids = snap.phrase.Biword(req.Query)
	case ModePositional:
		ids = snap.phrase.Positional(req.Query)
	case ModeCorrect:
		suggestions = snap.corrector.Correct(req.Query)
		if len(suggestions) > 0 {
			ids = suggestions[0].Docs
		}
	}
	elapsed := time.Since(start)

	if err != nil {
		e.observe(req.Mode, outcome(err), elapsed, 0)
		return nil, err
	}

	result := &SearchResult{
		Query:       req.Query,
		Mode:        req.Mode,
		TotalHits:   len(ids),
		Results:     e.hits(snap.idx, ids, limit),
		Suggestions: suggestions,
		LatencyMs:   float64(elapsed.Microseconds()) / 1000,
	}
	status := "ok"
	if len(ids) == 0 {
		status = "empty"
	}
	e.observe(req.Mode, status, elapsed, len(ids))
	e.logger.Debug("query executed",
		"mode", req.Mode,
		"query", req.Query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
	)
	return result, nil
}

func (e *Executor) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.search.DefaultLimit
	}
	if e.search.MaxResults > 0 && limit > e.search.MaxResults {
		limit = e.search.MaxResults
	}
	return limit
}

func (e *Executor) hits(idx *index.Index, ids postings.List, limit int) []Hit {
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]Hit, 0, len(ids))
	for _, id := range ids {
		name, _ := idx.DocName(id)
		out = append(out, Hit{ID: id, Name: name})
	}
	return out
}

func (e *Executor) observe(mode Mode, status string, elapsed time.Duration, count int) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(string(mode), status).Inc()
	e.metrics.QueryLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	if status == "ok" || status == "empty" {
		e.metrics.QueryResultsCount.WithLabelValues(string(mode)).Observe(float64(count))
	}
}

func outcome(err error) string {
	if apperrors.Is(err, apperrors.ErrQuerySyntax) {
		return "syntax_error"
	}
	return "error"
}

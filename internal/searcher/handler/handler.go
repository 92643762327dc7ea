// Package handler exposes the search executor over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
)

// SearchExecutor answers search requests and describes the index it serves.
type SearchExecutor interface {
	Execute(ctx context.Context, req executor.Request) (*executor.SearchResult, error)
	Stats() executor.IndexStats
}

// Handler serves the search API.
type Handler struct {
	executor     SearchExecutor
	cache        *cache.QueryCache
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. A nil cache disables result caching.
func New(exec SearchExecutor, queryCache *cache.QueryCache, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API and the health probes on a new mux.
func (h *Handler) Routes(checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	if checker != nil {
		mux.HandleFunc("GET /health/live", checker.LiveHandler())
		mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	}
	return mux
}

type searchResponse struct {
	*executor.SearchResult
	CacheHit bool `json:"cache_hit"`
}

type errorResponse struct {
	Error   string              `json:"error"`
	Details *boolean.ParseError `json:"details,omitempty"`
}

// Search handles GET /api/v1/search?q=&mode=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode, err := executor.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.maxResults > 0 && parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	req := executor.Request{Mode: mode, Query: query, Limit: limit}
	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, req)
		})
	} else {
		result, err = h.executor.Execute(ctx, req)
	}
	if err != nil {
		h.writeSearchError(w, log, req, err)
		return
	}

	log.Info("search completed",
		"mode", mode,
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{SearchResult: result, CacheHit: cacheHit})
}

func (h *Handler) writeSearchError(w http.ResponseWriter, log *slog.Logger, req executor.Request, err error) {
	var perr *boolean.ParseError
	switch {
	case errors.As(err, &perr):
		log.Info("rejected query", "query", req.Query, "error", err)
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Error(), Details: perr})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("search timed out", "query", req.Query)
		h.writeError(w, http.StatusGatewayTimeout, apperrors.ErrTimeout.Error())
	default:
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("search execution failed", "query", req.Query, "mode", req.Mode, "error", err)
			h.writeError(w, status, "search failed")
			return
		}
		h.writeError(w, status, err.Error())
	}
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// IndexStats handles GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.executor.Stats())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

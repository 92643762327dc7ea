package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// query is one request in the mix.
type query struct {
	Mode string
	Text string
}

var defaultQueries = []query{
	{"boolean", "real AND madrid"},
	{"boolean", "real AND NOT barcelona"},
	{"boolean", "(transfer OR news) AND NOT today"},
	{"biword", "real madrid"},
	{"positional", "real madrid wins"},
	{"positional", "champions league final"},
	{"correct", "relal madird"},
	{"correct", "barcelonna"},
}

// modeStats aggregates the requests of one mode.
type modeStats struct {
	requests  int
	errors    int
	cacheHits int
	latencies []time.Duration
	codes     map[int]int
}

type stats struct {
	mu     sync.Mutex
	byMode map[string]*modeStats
}

func (s *stats) record(mode string, d time.Duration, code int, cacheHit bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byMode[mode]
	if !ok {
		m = &modeStats{codes: make(map[int]int)}
		s.byMode[mode] = m
	}
	m.requests++
	if err != nil || code < 200 || code >= 300 {
		m.errors++
	}
	if err != nil {
		return
	}
	if cacheHit {
		m.cacheHits++
	}
	m.latencies = append(m.latencies, d)
	m.codes[code]++
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	queryFile := flag.String("queries", "", `file of "mode<TAB>query" lines (default: built-in mix)`)
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		loaded, err := loadQueries(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading queries: %v\n", err)
			os.Exit(1)
		}
		queries = loaded
	}

	fmt.Println("=== Search Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n\n", len(queries))

	s := run(*baseURL, *concurrency, *duration, queries)
	if !report(s, *duration) {
		fmt.Println("\nWARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func loadQueries(path string) ([]query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []query
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		mode, text, ok := strings.Cut(sc.Text(), "\t")
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, query{Mode: mode, Text: text})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no queries", path)
	}
	return out, sc.Err()
}

func run(baseURL string, concurrency int, duration time.Duration, queries []query) *stats {
	s := &stats{byMode: make(map[string]*modeStats)}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := range concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				q := queries[i%len(queries)]
				start := time.Now()
				code, hit, err := search(ctx, client, baseURL, q)
				if ctx.Err() != nil {
					return nil
				}
				s.record(q.Mode, time.Since(start), code, hit, err)
			}
			return nil
		})
	}
	g.Wait()
	return s
}

func search(ctx context.Context, client *http.Client, baseURL string, q query) (int, bool, error) {
	params := url.Values{"q": {q.Text}, "mode": {q.Mode}, "limit": {"10"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/search?"+params.Encode(), nil)
	if err != nil {
		return 0, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	var body struct {
		CacheHit bool `json:"cache_hit"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body.CacheHit, nil
}

// report prints per-mode results and reports whether anything completed.
func report(s *stats, duration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	modes := make([]string, 0, len(s.byMode))
	total := 0
	for mode, m := range s.byMode {
		modes = append(modes, mode)
		total += m.requests
	}
	slices.Sort(modes)

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests: %d\n", total)
	if total > 0 {
		fmt.Printf("Requests/sec:   %.2f\n", float64(total)/duration.Seconds())
	}
	for _, mode := range modes {
		m := s.byMode[mode]
		fmt.Printf("\n--- %s ---\n", mode)
		fmt.Printf("Requests:   %d (errors %d, cache hits %d)\n", m.requests, m.errors, m.cacheHits)
		if len(m.latencies) == 0 {
			continue
		}
		slices.Sort(m.latencies)
		fmt.Printf("Latency:    p50 %s  p90 %s  p99 %s  max %s\n",
			percentile(m.latencies, 50),
			percentile(m.latencies, 90),
			percentile(m.latencies, 99),
			m.latencies[len(m.latencies)-1],
		)
		codes := make([]int, 0, len(m.codes))
		for code := range m.codes {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for _, code := range codes {
			fmt.Printf("  %d: %d\n", code, m.codes[code])
		}
	}
	return total > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

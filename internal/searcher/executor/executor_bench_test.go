package executor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
)

var benchVocab = []string{
	"real", "madrid", "barcelona", "transfer", "league", "champion", "final",
	"goal", "striker", "keeper", "coach", "season", "derby", "match", "score",
	"injury", "contract", "market", "fan", "stadium",
}

// benchExecutor indexes n synthetic documents of 40 words each.
func benchExecutor(b *testing.B, n int, strategy string) *Executor {
	b.Helper()
	dir := b.TempDir()
	rng := rand.New(rand.NewPCG(7, 11))
	words := make([]string, 40)
	for i := range n {
		for j := range words {
			words[j] = benchVocab[rng.IntN(len(benchVocab))]
		}
		name := filepath.Join(dir, fmt.Sprintf("page_%05d.txt", i))
		require.NoError(b, os.WriteFile(name, []byte(strings.Join(words, " ")), 0644))
	}
	res, err := indexer.NewBuilder(config.IndexerConfig{Workers: 4}).Build(context.Background(), dir)
	require.NoError(b, err)

	cfg := config.Default()
	cfg.Search.Intersection = strategy
	e, err := New(res.Index, cfg.Search, cfg.Correction)
	require.NoError(b, err)
	return e
}

// BenchmarkExecute measures end-to-end query latency per mode and
// intersection strategy over 2 000 documents.
func BenchmarkExecute(b *testing.B) {
	requests := []Request{
		{Mode: ModeBoolean, Query: "real AND madrid AND NOT barcelona"},
		{Mode: ModeBoolean, Query: "(goal OR score) AND (striker OR keeper)"},
		{Mode: ModeBiword, Query: "real madrid final"},
		{Mode: ModePositional, Query: "real madrid final"},
		{Mode: ModeCorrect, Query: "relal madird"},
	}
	for _, strategy := range []string{"linear", "galloping"} {
		e := benchExecutor(b, 2000, strategy)
		for _, req := range requests {
			b.Run(fmt.Sprintf("%s/%s/%s", strategy, req.Mode, req.Query), func(b *testing.B) {
				ctx := context.Background()
				b.ReportAllocs()
				for b.Loop() {
					if _, err := e.Execute(ctx, req); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
)

func indexDir(t *testing.T) string {
	t.Helper()
	docs := t.TempDir()
	for i, text := range []string{"real madrid wins", "barcelona beats real madrid", "transfer news today"} {
		require.NoError(t, os.WriteFile(filepath.Join(docs, fmt.Sprintf("doc%d.txt", i)), []byte(text), 0644))
	}
	res, err := indexer.NewBuilder(config.IndexerConfig{Workers: 1}).Build(context.Background(), docs)
	require.NoError(t, err)
	out := t.TempDir()
	_, err = res.Save(out)
	require.NoError(t, err)
	return out
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBooleanCommand(t *testing.T) {
	dir := indexDir(t)
	out, err := execute("boolean", "-i", dir, "real", "AND", "madrid")
	require.NoError(t, err)
	assert.Contains(t, out, `2 documents match "real AND madrid"`)
	assert.Contains(t, out, "  0\tdoc0.txt\n")
	assert.Contains(t, out, "  1\tdoc1.txt\n")

	out, err = execute("b", "-i", dir, "-n", "1", "real OR transfer")
	require.NoError(t, err)
	assert.Contains(t, out, "3 documents match")
	assert.Contains(t, out, "... 2 more")
}

func TestBooleanSyntaxError(t *testing.T) {
	_, err := execute("boolean", "-i", indexDir(t), "real AND")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected: term, NOT or "("`)
}

func TestPhraseCommand(t *testing.T) {
	dir := indexDir(t)
	out, err := execute("phrase", "-i", dir, "--mode", "biword", "real", "madrid")
	require.NoError(t, err)
	assert.Contains(t, out, "2 documents match")

	out, err = execute("phrase", "-i", dir, "madrid", "real")
	require.NoError(t, err)
	assert.Contains(t, out, "0 documents match")

	_, err = execute("phrase", "-i", dir, "--mode", "correct", "real")
	assert.ErrorContains(t, err, "biword or positional")
}

func TestCorrectCommand(t *testing.T) {
	out, err := execute("correct", "-i", indexDir(t), "relal", "madird")
	require.NoError(t, err)
	assert.Contains(t, out, `suggestion 1: "real madrid" (2 documents)`)
}

func TestStatsCommand(t *testing.T) {
	out, err := execute("stats", "-i", indexDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "inverted_index.txt")
	assert.Contains(t, out, "positional_index.txt")
	assert.Contains(t, out, "biword/term:")
}

func TestIntersectCommand(t *testing.T) {
	out, err := execute("intersect", "-i", indexDir(t), "--intersection", "linear")
	require.NoError(t, err)
	assert.Contains(t, out, "pairs: 325")
	assert.Contains(t, out, "results identical")
}

func TestMissingIndex(t *testing.T) {
	_, err := execute("boolean", "-i", t.TempDir(), "real")
	assert.Error(t, err)
}

func TestStrictLoadFromConfig(t *testing.T) {
	dir := indexDir(t)
	f, err := os.OpenFile(filepath.Join(dir, store.TermsFile), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("broken 3\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	strict := filepath.Join(t.TempDir(), "strict.yaml")
	require.NoError(t, os.WriteFile(strict, []byte("indexer:\n  strictLoad: true\n"), 0644))

	out, err := execute("boolean", "-i", dir, "real")
	require.NoError(t, err)
	assert.Contains(t, out, "2 documents match")

	_, err = execute("boolean", "--config", strict, "-i", dir, "real")
	assert.ErrorContains(t, err, "malformed")

	_, err = execute("intersect", "--config", strict, "-i", dir)
	assert.ErrorContains(t, err, "malformed")
}

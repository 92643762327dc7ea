package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
)

// Manifest describes a completed write.
type Manifest struct {
	Dir            string `json:"dir"`
	Terms          int    `json:"terms"`
	Biwords        int    `json:"biwords"`
	PrunedBiwords  int    `json:"pruned_biwords"`
	PositionalKeys int    `json:"positional_terms"`
	Documents      int    `json:"documents"`
}

// tempFile is the part of *os.File a write needs.
type tempFile interface {
	io.WriteCloser
	Sync() error
}

// Writer serialises an index into the four text files of a directory.
type Writer struct {
	dataDir string
	create  func(path string) (tempFile, error)
	logger  *slog.Logger
}

// NewWriter creates a Writer that writes into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{
		dataDir: dataDir,
		create: func(path string) (tempFile, error) {
			return os.Create(path)
		},
		logger: slog.Default().With("component", "index-writer"),
	}
}

// Write persists every structure of idx. Each file is written to a .tmp
// sibling first and renamed on success.
func (w *Writer) Write(idx *index.Index) (*Manifest, error) {
	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	m := &Manifest{
		Dir:            w.dataDir,
		Terms:          len(idx.Terms()),
		PositionalKeys: len(idx.Positional()),
		Documents:      len(idx.Docs()),
	}
	if err := w.writeFile(TermsFile, func(f io.Writer) error {
		return EncodeTerms(f, idx.Terms())
	}); err != nil {
		return nil, err
	}
	if err := w.writeFile(BiwordsFile, func(f io.Writer) error {
		pruned, err := EncodeBiwords(f, idx.Biwords())
		m.PrunedBiwords = pruned
		return err
	}); err != nil {
		return nil, err
	}
	m.Biwords = len(idx.Biwords()) - m.PrunedBiwords
	if err := w.writeFile(PositionalFile, func(f io.Writer) error {
		return EncodePositions(f, idx.Positional())
	}); err != nil {
		return nil, err
	}
	if err := w.writeFile(DocMapFile, func(f io.Writer) error {
		return EncodeDocMap(f, idx.Docs())
	}); err != nil {
		return nil, err
	}
	w.logger.Info("index written",
		"dir", w.dataDir,
		"terms", m.Terms,
		"biwords", m.Biwords,
		"pruned_biwords", m.PrunedBiwords,
		"documents", m.Documents,
	)
	return m, nil
}

func (w *Writer) writeFile(name string, encode func(io.Writer) error) error {
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"
	f, err := w.create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file %s: %w", tmpPath, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

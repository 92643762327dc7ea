package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// Reader loads index files from a directory.
type Reader struct {
	dataDir string
	opts    Options
	logger  *slog.Logger
}

// NewReader creates a Reader over dataDir.
func NewReader(dataDir string, opts Options) *Reader {
	return &Reader{
		dataDir: dataDir,
		opts:    opts,
		logger:  slog.Default().With("component", "index-reader"),
	}
}

// Load reads all four files and assembles an immutable Index. A missing
// file is reported as ErrIndexNotFound.
func (r *Reader) Load() (*index.Index, error) {
	terms, err := r.Terms()
	if err != nil {
		return nil, err
	}
	biwords, err := r.Biwords()
	if err != nil {
		return nil, err
	}
	positions, err := r.Positions()
	if err != nil {
		return nil, err
	}
	docs, err := r.DocMap()
	if err != nil {
		return nil, err
	}
	idx := index.New(docs, terms, biwords, positions)
	if err := idx.Validate(); err != nil {
		r.logger.Warn("loaded index is inconsistent", "dir", r.dataDir, "error", err)
	}
	r.logger.Info("index loaded",
		"dir", r.dataDir,
		"terms", len(terms),
		"biwords", len(biwords),
		"documents", len(docs),
	)
	return idx, nil
}

// Terms loads the term index.
func (r *Reader) Terms() (index.TermIndex, error) {
	var out index.TermIndex
	err := r.decodeFile(TermsFile, func(f io.Reader) (LoadStats, error) {
		var stats LoadStats
		var err error
		out, stats, err = DecodeTerms(f, r.opts)
		return stats, err
	})
	return out, err
}

// Biwords loads the biword index.
func (r *Reader) Biwords() (index.BiwordIndex, error) {
	var out index.BiwordIndex
	err := r.decodeFile(BiwordsFile, func(f io.Reader) (LoadStats, error) {
		var stats LoadStats
		var err error
		out, stats, err = DecodeBiwords(f, r.opts)
		return stats, err
	})
	return out, err
}

// Positions loads the positional index.
func (r *Reader) Positions() (index.PositionalIndex, error) {
	var out index.PositionalIndex
	err := r.decodeFile(PositionalFile, func(f io.Reader) (LoadStats, error) {
		var stats LoadStats
		var err error
		out, stats, err = DecodePositions(f, r.opts)
		return stats, err
	})
	return out, err
}

// DocMap loads the document map.
func (r *Reader) DocMap() (index.DocMap, error) {
	var out index.DocMap
	err := r.decodeFile(DocMapFile, func(f io.Reader) (LoadStats, error) {
		var stats LoadStats
		var err error
		out, stats, err = DecodeDocMap(f, r.opts)
		return stats, err
	})
	return out, err
}

func (r *Reader) decodeFile(name string, decode func(io.Reader) (LoadStats, error)) error {
	path := filepath.Join(r.dataDir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", apperrors.ErrIndexNotFound, path)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	stats, err := decode(bufio.NewReaderSize(f, 64*1024))
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if stats.Skipped > 0 {
		r.logger.Debug("skipped malformed lines", "file", name, "skipped", stats.Skipped, "lines", stats.Lines)
	}
	return nil
}

// LoadIndex is shorthand for NewReader(dir, opts).Load().
func LoadIndex(dir string, opts Options) (*index.Index, error) {
	return NewReader(dir, opts).Load()
}

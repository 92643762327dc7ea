package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSummary is the size of one index file.
type FileSummary struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
	Bytes int64  `json:"bytes"`
}

// Summary compares the three index variants of a directory against the
// single-term index.
type Summary struct {
	Terms      FileSummary `json:"terms"`
	Biwords    FileSummary `json:"biwords"`
	Positional FileSummary `json:"positional"`
}

// BiwordSizeRatio is the biword file size relative to the term file.
func (s Summary) BiwordSizeRatio() float64 { return ratio(s.Biwords.Bytes, s.Terms.Bytes) }

func (s Summary) PositionalSizeRatio() float64 { return ratio(s.Positional.Bytes, s.Terms.Bytes) }

func (s Summary) BiwordTermRatio() float64 {
	return ratio(int64(s.Biwords.Lines), int64(s.Terms.Lines))
}

func (s Summary) PositionalTermRatio() float64 {
	return ratio(int64(s.Positional.Lines), int64(s.Terms.Lines))
}

func ratio(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// Describe counts lines and bytes of each index file in dir. Missing files
// are reported as zero-sized.
func Describe(dir string) (Summary, error) {
	var s Summary
	var err error
	if s.Terms, err = describeFile(dir, TermsFile); err != nil {
		return s, err
	}
	if s.Biwords, err = describeFile(dir, BiwordsFile); err != nil {
		return s, err
	}
	if s.Positional, err = describeFile(dir, PositionalFile); err != nil {
		return s, err
	}
	return s, nil
}

func describeFile(dir, name string) (FileSummary, error) {
	out := FileSummary{Name: name}
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return out, fmt.Errorf("stat %s: %w", name, err)
	}
	out.Bytes = info.Size()
	br := bufio.NewReader(f)
	for {
		_, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			break
		}
		out.Lines++
	}
	return out, nil
}

package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// Options controls how tolerant decoding is.
type Options struct {
	// Strict fails the load on the first malformed line instead of
	// skipping it.
	Strict bool
}

// LoadStats counts what a decoder saw.
type LoadStats struct {
	Lines   int
	Skipped int
}

var errMalformed = errors.New("malformed")

// DecodeTerms reads "term df id,id,..." lines. It also reads biword files,
// which share the layout.
func DecodeTerms(r io.Reader, opts Options) (index.TermIndex, LoadStats, error) {
	terms := make(index.TermIndex)
	stats, err := eachLine(r, opts, func(line string) error {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return errMalformed
		}
		ids, err := parseIDs(fields[2])
		if err != nil {
			return err
		}
		terms[fields[0]] = postings.Normalize(ids)
		return nil
	})
	return terms, stats, err
}

// DecodeBiwords reads a biword file.
func DecodeBiwords(r io.Reader, opts Options) (index.BiwordIndex, LoadStats, error) {
	terms, stats, err := DecodeTerms(r, opts)
	return index.BiwordIndex(terms), stats, err
}

// DecodePositions reads "term id:p,p;id:p,p" lines. Groups may be separated
// by "; " and a trailing ';' is ignored.
func DecodePositions(r io.Reader, opts Options) (index.PositionalIndex, LoadStats, error) {
	positions := make(index.PositionalIndex)
	stats, err := eachLine(r, opts, func(line string) error {
		term, rest, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok || term == "" {
			return errMalformed
		}
		byDoc := make(map[int][]int)
		for _, group := range strings.Split(strings.ReplaceAll(rest, " ", ""), ";") {
			if group == "" {
				continue
			}
			idStr, posStr, ok := strings.Cut(group, ":")
			if !ok {
				return errMalformed
			}
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return errMalformed
			}
			pos, err := parseIDs(posStr)
			if err != nil {
				return err
			}
			byDoc[id] = append(byDoc[id], pos...)
		}
		if len(byDoc) == 0 {
			return errMalformed
		}
		for id := range byDoc {
			slices.Sort(byDoc[id])
		}
		positions[term] = byDoc
		return nil
	})
	return positions, stats, err
}

// DecodeDocMap reads "id name" lines. Names may contain spaces.
func DecodeDocMap(r io.Reader, opts Options) (index.DocMap, LoadStats, error) {
	docs := make(index.DocMap)
	stats, err := eachLine(r, opts, func(line string) error {
		idStr, name, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			return errMalformed
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return errMalformed
		}
		docs[id] = strings.TrimSpace(name)
		return nil
	})
	return docs, stats, err
}

func parseIDs(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id < 0 {
			return nil, errMalformed
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errMalformed
	}
	return ids, nil
}

func eachLine(r io.Reader, opts Options, fn func(line string) error) (LoadStats, error) {
	var stats LoadStats
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			stats.Lines++
			if strings.TrimSpace(line) != "" {
				if err := fn(strings.TrimRight(line, "\r\n")); err != nil {
					if opts.Strict {
						return stats, fmt.Errorf("%w: line %d: %q", apperrors.ErrMalformedLine, stats.Lines, strings.TrimSpace(line))
					}
					stats.Skipped++
				}
			}
		}
		if readErr == io.EOF {
			return stats, nil
		}
		if readErr != nil {
			return stats, fmt.Errorf("reading index: %w", readErr)
		}
	}
}

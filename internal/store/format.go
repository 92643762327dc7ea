// Package store implements the line-oriented text format of the index
// files. One entity per line, lines sorted by key:
//
//	inverted_index.txt    term df id,id,...
//	biword_index.txt      t1_t2 df id,id,...      (df <= 1 never written)
//	positional_index.txt  term id:p,p,...;id:p,p,...
//	doc_id_map.txt        id name
package store

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/index"
)

const (
	TermsFile      = "inverted_index.txt"
	BiwordsFile    = "biword_index.txt"
	PositionalFile = "positional_index.txt"
	DocMapFile     = "doc_id_map.txt"
)

// MinBiwordDocFreq is the smallest document frequency a biword needs to be
// persisted. Rarer biwords are dropped when the file is written.
const MinBiwordDocFreq = 2

// PruneBiwords returns the biwords that survive persistence.
func PruneBiwords(b index.BiwordIndex) index.BiwordIndex {
	out := make(index.BiwordIndex, len(b))
	for key, ids := range b {
		if len(ids) >= MinBiwordDocFreq {
			out[key] = ids
		}
	}
	return out
}

// EncodeTerms writes a term index, one term per line.
func EncodeTerms(w io.Writer, terms index.TermIndex) error {
	bw := bufio.NewWriter(w)
	for _, term := range sortedKeys(terms) {
		if err := writePostingLine(bw, term, terms[term]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeBiwords writes the biword index, omitting pairs seen in fewer than
// MinBiwordDocFreq documents. It returns the number of omitted pairs.
func EncodeBiwords(w io.Writer, biwords index.BiwordIndex) (int, error) {
	bw := bufio.NewWriter(w)
	pruned := 0
	for _, key := range sortedKeys(biwords) {
		ids := biwords[key]
		if len(ids) < MinBiwordDocFreq {
			pruned++
			continue
		}
		if err := writePostingLine(bw, key, ids); err != nil {
			return pruned, err
		}
	}
	return pruned, bw.Flush()
}

// EncodePositions writes the positional index. Document groups are
// separated by ';'.
func EncodePositions(w io.Writer, positions index.PositionalIndex) error {
	bw := bufio.NewWriter(w)
	for _, term := range sortedKeys(positions) {
		byDoc := positions[term]
		ids := make([]int, 0, len(byDoc))
		for id := range byDoc {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		groups := make([]string, 0, len(ids))
		for _, id := range ids {
			groups = append(groups, strconv.Itoa(id)+":"+joinInts(byDoc[id]))
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", term, strings.Join(groups, ";")); err != nil {
			return fmt.Errorf("writing positions for term %q: %w", term, err)
		}
	}
	return bw.Flush()
}

// EncodeDocMap writes the document map ordered by ID.
func EncodeDocMap(w io.Writer, docs index.DocMap) error {
	bw := bufio.NewWriter(w)
	ids := make([]int, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if _, err := fmt.Fprintf(bw, "%d %s\n", id, docs[id]); err != nil {
			return fmt.Errorf("writing document %d: %w", id, err)
		}
	}
	return bw.Flush()
}

func writePostingLine(w *bufio.Writer, key string, ids []int) error {
	if _, err := fmt.Fprintf(w, "%s %d %s\n", key, len(ids), joinInts(ids)); err != nil {
		return fmt.Errorf("writing postings for %q: %w", key, err)
	}
	return nil
}

func joinInts(ids []int) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

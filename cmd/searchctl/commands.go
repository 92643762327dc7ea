package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/postings"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath   string
	indexDir     string
	intersection string
	limit        int
	logLevel     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "searchctl",
		Short:        "Query and inspect a text search index from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(opts.logLevel, "text")
			cfg := config.Default()
			if opts.configPath != "" {
				loaded, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if opts.indexDir != "" {
				cfg.Indexer.OutputDir = opts.indexDir
			}
			if opts.intersection != "" {
				cfg.Search.Intersection = opts.intersection
			}
			opts.cfg = cfg
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default: built-in defaults)")
	flags.StringVarP(&opts.indexDir, "index", "i", "", "index directory (overrides indexer.outputDir)")
	flags.StringVar(&opts.intersection, "intersection", "", "posting intersection: linear or galloping")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "maximum documents to print (default: search.defaultLimit)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newBooleanCmd(opts),
		newPhraseCmd(opts),
		newCorrectCmd(opts),
		newStatsCmd(opts),
		newIntersectCmd(opts),
	)
	return root
}

func (o *options) loadOptions() store.Options {
	return store.Options{Strict: o.cfg.Indexer.StrictLoad}
}

func newBooleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "boolean <query>",
		Aliases: []string{"b"},
		Short:   "Evaluate a Boolean query (AND, OR, NOT, parentheses)",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, executor.ModeBoolean, args)
		},
	}
}

func newPhraseCmd(opts *options) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:     "phrase <words>",
		Aliases: []string{"p"},
		Short:   "Find documents containing the words as a phrase",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := executor.ParseMode(mode)
			if err != nil {
				return err
			}
			if m != executor.ModeBiword && m != executor.ModePositional {
				return fmt.Errorf("phrase mode must be biword or positional, got %q", mode)
			}
			return runSearch(cmd, opts, m, args)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "positional", "biword or positional")
	return cmd
}

func newCorrectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "correct <words>",
		Aliases: []string{"c"},
		Short:   "Suggest corrected queries for misspelled words",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, executor.ModeCorrect, args)
		},
	}
}

func runSearch(cmd *cobra.Command, opts *options, mode executor.Mode, args []string) error {
	exec, err := executor.Open(opts.cfg.Indexer.OutputDir, opts.cfg.Search, opts.cfg.Correction,
		executor.WithLoadOptions(opts.loadOptions()),
	)
	if err != nil {
		return err
	}
	res, err := exec.Execute(cmd.Context(), executor.Request{
		Mode:  mode,
		Query: strings.Join(args, " "),
		Limit: opts.limit,
	})
	var perr *boolean.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%w\n  expected: %s\n  actual:   %s\n  position: %d", err, perr.Expected, perr.Actual, perr.Position)
	}
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *executor.SearchResult) {
	for i, s := range res.Suggestions {
		fmt.Fprintf(w, "suggestion %d: %q (%d documents)\n", i+1, s.Query, s.Count)
	}
	fmt.Fprintf(w, "%d documents match %q\n", res.TotalHits, res.Query)
	for _, h := range res.Results {
		fmt.Fprintf(w, "  %d\t%s\n", h.ID, h.Name)
	}
	if res.TotalHits > len(res.Results) {
		fmt.Fprintf(w, "  ... %d more\n", res.TotalHits-len(res.Results))
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Compare the sizes of the term, biword and positional index files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Describe(opts.cfg.Indexer.OutputDir)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-12s %10s %12s\n", "index", "lines", "bytes")
			for _, f := range []store.FileSummary{s.Terms, s.Biwords, s.Positional} {
				fmt.Fprintf(w, "%-12s %10d %12d\n", f.Name, f.Lines, f.Bytes)
			}
			fmt.Fprintf(w, "biword/term:     %.2fx size, %.2fx entries\n", s.BiwordSizeRatio(), s.BiwordTermRatio())
			fmt.Fprintf(w, "positional/term: %.2fx size, %.2fx entries\n", s.PositionalSizeRatio(), s.PositionalTermRatio())
			return nil
		},
	}
}

func newIntersectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "intersect",
		Short: "Time linear against galloping intersection over per-letter posting lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := store.NewReader(opts.cfg.Indexer.OutputDir, opts.loadOptions()).Load()
			if err != nil {
				return err
			}
			lists := postings.LetterLists(idx.Terms())
			r := postings.CompareStrategies(lists)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pairs: %d, elements: %d\n", r.Pairs, r.Elements)
			fmt.Fprintf(w, "linear:    %s (%.0f elements/s)\n", r.LinearTime, r.LinearRate())
			fmt.Fprintf(w, "galloping: %s (%.0f elements/s)\n", r.GallopingTime, r.GallopingRate())
			if len(r.Mismatches) > 0 {
				return fmt.Errorf("strategies disagree on %s", strings.Join(r.Mismatches, ", "))
			}
			fmt.Fprintln(w, "results identical")
			return nil
		},
	}
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/medsearch"
	"github.com/poiesic/medsearch/config"
	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/corpus"
	"github.com/poiesic/medsearch/ingestion"
	"github.com/poiesic/medsearch/reindex"
	"github.com/poiesic/medsearch/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "medsearch",
		Usage: "Medical symptom search over a French disease corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "thesaurus",
				Aliases: []string{"t"},
				Usage:   "Path to the symptom thesaurus (JSON or YAML); overrides thesaurus_path",
			},
			&cli.StringFlag{
				Name:  "clusters",
				Usage: "Path to a standalone cluster registry; overrides clusters_path",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load, enrich and store a disease corpus",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the disease corpus (JSON array)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Also write the enriched corpus to this path",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-enrich stored diseases after a thesaurus change",
				Action: reindexCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of diseases to process in each batch",
						Value: reindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N diseases",
						Value: reindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for conflicting storage writes",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 50 * time.Millisecond,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reindex even if the enriched corpus is current",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Query the knowledge base",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Search mode (tfidf, cluster, weighted, semantic, hybrid)",
						Value:   "hybrid",
					},
					&cli.StringSliceFlag{
						Name:    "symptom",
						Aliases: []string{"s"},
						Usage:   "Symptom for semantic matching (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "cluster",
						Usage: "Restrict results to diseases in this cluster (repeatable)",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "core-weight",
						Usage: "Core field weight for weighted mode",
						Value: 0.7,
					},
					&cli.Float64Flag{
						Name:  "context-weight",
						Usage: "Context field weight for weighted mode",
						Value: 0.3,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:      "lookup",
				Usage:     "List diseases presenting a symptom",
				ArgsUsage: "<symptom>",
				Action:    lookupCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "export",
				Usage:  "Write the enriched corpus as indented JSON",
				Action: exportCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path; standard output if empty",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show enrichment statistics of the stored corpus",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if path := c.String("thesaurus"); path != "" {
		cfg.ThesaurusPath = path
	}
	if path := c.String("clusters"); path != "" {
		cfg.ClustersPath = path
	}
	return cfg, nil
}

func openKnowledgeBase(c *cli.Context) (*medsearch.KnowledgeBase, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	kb, err := medsearch.Open(c.String("db"), medsearch.WithConfig(cfg), medsearch.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return kb, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	records, err := corpus.LoadDiseases(c.String("input"))
	if err != nil {
		return err
	}

	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	snapshot, err := pipeline.Ingest(ctx, records)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printStats(c.App.Writer, snapshot)

	if path := c.String("export"); path != "" {
		if err := exportTo(ctx, kb, path, c.App.Writer); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Enriched corpus written to %s\n", path)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	cfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Force:          c.Bool("force"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	reindexer, err := kb.NewReindexer(pipeline, reindex.WithConfig(cfg), reindex.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}

	result, err := reindexer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	if result.UpToDate {
		fmt.Fprintln(c.App.Writer, "Enriched corpus is up to date")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Reindexed %d diseases in %v\n", result.Processed, result.Elapsed.Round(time.Millisecond))
	printStats(c.App.Writer, result.Snapshot)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	text := strings.Join(c.Args().Slice(), " ")
	symptoms := c.StringSlice("symptom")
	clusters := c.StringSlice("cluster")
	topK := c.Int("top-k")

	mode := strings.ToLower(c.String("mode"))
	switch mode {
	case "tfidf", "cluster", "weighted", "semantic", "hybrid":
	default:
		return fmt.Errorf("invalid search mode %q: must be one of tfidf, cluster, weighted, semantic, hybrid", mode)
	}

	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher(ctx)
	if err != nil {
		return err
	}

	var results []core.SearchResult
	switch mode {
	case "tfidf":
		results, err = searcher.TFIDFSearch(ctx, text, topK)
	case "cluster":
		results, err = searcher.ClusterFilterSearch(ctx, text, clusters, topK)
	case "weighted":
		results, err = searcher.WeightedTFIDFSearch(ctx, text, topK, c.Float64("core-weight"), c.Float64("context-weight"))
	case "semantic":
		if len(symptoms) == 0 {
			symptoms = splitSymptoms(text)
		}
		results, err = searcher.SemanticSearch(ctx, symptoms, topK)
	case "hybrid":
		results, err = searcher.HybridSearch(ctx, search.HybridQuery{
			Text:     text,
			Symptoms: symptoms,
			Clusters: clusters,
		}, topK)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("json") {
		if results == nil {
			results = []core.SearchResult{}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, r := range results {
		name := r.DiseaseID
		if d, ok := searcher.Disease(r.DiseaseID); ok {
			name = d.Name
		}
		fmt.Fprintf(c.App.Writer, "%d: %s (%s) [%0.3f] tfidf=%0.3f semantic=%0.3f matched=%s\n",
			i+1, name, r.DiseaseID, r.FinalScore, r.Breakdown.TFIDF, r.Breakdown.Semantic,
			strings.Join(r.MatchedTerms, ", "))
	}
	return nil
}

// splitSymptoms reads a comma-separated symptom list.
func splitSymptoms(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lookupCommand(c *cli.Context) error {
	symptom := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if symptom == "" {
		return fmt.Errorf("a symptom is required")
	}

	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher(c.Context)
	if err != nil {
		return err
	}
	ids, err := searcher.DiseasesWithSymptom(c.Context, symptom)
	if err != nil {
		return err
	}

	canonical := kb.Normalizer().Canonicalize(symptom)
	fmt.Fprintf(c.App.Writer, "%s (%s): %d diseases\n", canonical.Term, canonical.PrimaryCluster, len(ids))
	for _, id := range ids {
		fmt.Fprintln(c.App.Writer, id)
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	return exportTo(c.Context, kb, c.String("output"), c.App.Writer)
}

// exportTo writes the stored enriched corpus to path, or to w when path is empty.
func exportTo(ctx context.Context, kb *medsearch.KnowledgeBase, path string, w io.Writer) error {
	stored, err := kb.EnrichedRepository().ListEnriched(ctx)
	if err != nil {
		return err
	}
	diseases := make([]core.EnrichedDisease, len(stored))
	for i, d := range stored {
		diseases[i] = *d
	}
	if path == "" {
		return corpus.Export(w, diseases)
	}
	return corpus.ExportFile(path, diseases)
}

func statsCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	snapshot, err := kb.SnapshotRepository().LoadSnapshot(c.Context, ingestion.DefaultSnapshotName)
	if err != nil {
		return err
	}
	if snapshot == nil {
		fmt.Fprintln(c.App.Writer, "No corpus has been ingested")
		return nil
	}
	printStats(c.App.Writer, snapshot)

	stale, err := kb.EnrichedRepository().StaleEnriched(c.Context, kb.Normalizer().Version())
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		fmt.Fprintf(c.App.Writer, "Stale diseases: %d (run reindex)\n", len(stale))
	}
	return nil
}

func printStats(w io.Writer, snapshot *core.Snapshot) {
	s := snapshot.Stats
	fmt.Fprintf(w, "Diseases: %d\n", s.Diseases)
	fmt.Fprintf(w, "Raw symptoms: %d (mapped %d, unmapped %d)\n", s.RawSymptoms, s.Mapped, s.Unmapped)
	fmt.Fprintf(w, "Normalized symptoms: %d\n", s.NormalizedSymptoms)
	fmt.Fprintf(w, "Reduction: %.1f%%\n", s.Reduction()*100)
	fmt.Fprintf(w, "Clusters: %d (%s)\n", len(s.UniqueClusters), strings.Join(s.UniqueClusters, ", "))
	fmt.Fprintf(w, "Thesaurus version: %s\n", shortVersion(snapshot.ThesaurusVersion))
	fmt.Fprintf(w, "Corpus version: %s\n", shortVersion(snapshot.CorpusVersion))
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

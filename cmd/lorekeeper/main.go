// Package main provides the lorekeeper CLI for rulebook ingestion and search.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmcastell/lorekeeper/internal/chunker"
	"github.com/jmcastell/lorekeeper/internal/config"
	"github.com/jmcastell/lorekeeper/internal/embedding"
	"github.com/jmcastell/lorekeeper/internal/extract"
	"github.com/jmcastell/lorekeeper/internal/ingest"
	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/search"
	"github.com/jmcastell/lorekeeper/internal/section"
	"github.com/jmcastell/lorekeeper/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lorekeeper",
	Short: "Tabletop RPG rulebook ingestion and search tool",
	Long: `CLI tool for ingesting rulebooks into Redis and searching them with
hybrid semantic and keyword retrieval.

Environment variables:
  REDIS_ADDR        Redis address (default: localhost:6379)
  OPENAI_API_KEY    OpenAI API key for embeddings (required for ingest/search)
  LOREKEEPER_CONFIG Path to the YAML config file (default: lorekeeper.yaml)`,
}

var (
	flagRulebook string
	flagSystem   string
	flagType     string
	flagMax      int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a rulebook document into the corpus",
	Long: `Extracts text from a PDF or markdown document, identifies sections,
chunks them, generates embeddings, and stores everything in Redis.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search ingested rulebooks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <rulebook>",
	Short: "Remove a rulebook and all its chunks from the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus statistics",
	RunE:  runStatus,
}

func init() {
	ingestCmd.Flags().StringVar(&flagRulebook, "rulebook", "", "display name for the rulebook (required)")
	ingestCmd.Flags().StringVar(&flagSystem, "system", "", "game system the rulebook belongs to (required)")
	ingestCmd.MarkFlagRequired("rulebook")
	ingestCmd.MarkFlagRequired("system")

	searchCmd.Flags().StringVar(&flagRulebook, "rulebook", "", "restrict results to one rulebook")
	searchCmd.Flags().StringVar(&flagSystem, "system", "", "restrict results to one game system")
	searchCmd.Flags().StringVar(&flagType, "type", "", "restrict results to one content type (rule, spell, monster, item)")
	searchCmd.Flags().IntVar(&flagMax, "max", 0, "maximum number of results")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(personalityCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// deps bundles the wired components a subcommand needs.
type deps struct {
	cfg           *config.Config
	backend       kv.Store
	store         *store.Store
	engine        *search.Engine
	pipeline      *ingest.Pipeline
	personalities *personality.Manager
	logger        *slog.Logger
}

// buildDeps connects to Redis and wires the application components.
// withEmbedder controls whether the OpenAI client is required; commands that
// never embed (status, delete, campaign) skip it so they work without a key.
func buildDeps(ctx context.Context, withEmbedder bool) (*deps, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(getEnv("LOREKEEPER_CONFIG", "lorekeeper.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := kv.NewRedis(ctx, kv.RedisOptions{
		Addr:       cfg.Redis.Addr,
		DB:         cfg.Redis.DB,
		Password:   cfg.Redis.Password,
		MaxRetries: cfg.Redis.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	d := &deps{
		cfg:           cfg,
		backend:       backend,
		store:         store.New(backend, logger),
		personalities: personality.NewManager(backend, logger),
		logger:        logger,
	}

	if !withEmbedder {
		return d, nil
	}

	client, err := embedding.NewClient()
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	cache, err := embedding.LoadCache(cfg.Embedding.CachePath, cfg.Embedding.CacheEntries)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load embedding cache: %w", err)
	}
	embedder := embedding.NewCached(
		embedding.NewOpenAI(client, cfg.Embedding.Model, cfg.Embedding.BatchSize, logger),
		cache,
		logger,
	)

	d.engine = search.New(d.store, embedder, search.Options{
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		MaxResults:          cfg.Search.MaxResults,
		KeywordFallback:     cfg.Search.KeywordFallback,
	}, logger)

	d.pipeline = ingest.New(
		section.New(),
		chunker.New(cfg.Extract.MaxChunkSize),
		embedder,
		d.store,
		extract.Options{
			MaxFileSizeMB: cfg.Extract.MaxFileSizeMB,
			PdftotextBin:  cfg.Extract.PdftotextBin,
			PdfinfoBin:    cfg.Extract.PdfinfoBin,
		},
		logger,
	).WithPersonalities(d.personalities)

	return d, nil
}

func (d *deps) close() {
	d.backend.Close()
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	fmt.Printf("Ingesting %s...\n", args[0])

	res, err := d.pipeline.Ingest(ctx, args[0], flagRulebook, flagSystem)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Pages:    %d\n", res.Pages)
	fmt.Printf("  Sections: %d\n", res.Sections)
	fmt.Printf("  Chunks:   %d\n", res.Chunks)
	fmt.Printf("  Embedded: %d\n", res.Embedded)
	if res.SkippedEmbeds > 0 {
		fmt.Printf("  Skipped embeddings: %d\n", res.SkippedEmbeds)
	}
	fmt.Printf("  Duration: %s\n", res.Duration.Round(time.Millisecond))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	filters := map[string]string{}
	if flagRulebook != "" {
		filters[store.FilterRulebook] = flagRulebook
	}
	if flagSystem != "" {
		filters[store.FilterSystem] = flagSystem
	}
	if flagType != "" {
		filters[store.FilterCategory] = flagType
	}

	results, err := d.engine.Search(ctx, args[0], filters, flagMax)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching content found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s (%s, p.%d) [%s %.3f]\n", i+1, r.Chunk.Title, r.Chunk.Rulebook, r.Chunk.PageNumber, r.MatchType, r.Score)
		fmt.Printf("   %s\n", truncate(r.Chunk.Content, 200))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	removed, err := d.store.DeleteRulebook(ctx, args[0])
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Removed %d chunks from %q\n", removed, args[0])
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	stats, err := d.store.CorpusStats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	fmt.Printf("Backend: %s\n", d.backend.Name())
	fmt.Printf("Total chunks: %d\n", stats.TotalChunks)
	printCounts("Rulebooks", stats.Rulebooks)
	printCounts("Systems", stats.Systems)
	printCounts("Content types", stats.Categories)
	return nil
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for name, n := range counts {
		fmt.Printf("  %s: %d\n", name, n)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// Package main provides the MCP server entry point for the rulebook assistant.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jmcastell/lorekeeper/internal/chunker"
	"github.com/jmcastell/lorekeeper/internal/config"
	"github.com/jmcastell/lorekeeper/internal/embedding"
	"github.com/jmcastell/lorekeeper/internal/extract"
	"github.com/jmcastell/lorekeeper/internal/ingest"
	"github.com/jmcastell/lorekeeper/internal/kv"
	mcpserver "github.com/jmcastell/lorekeeper/internal/mcp"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/search"
	"github.com/jmcastell/lorekeeper/internal/section"
	"github.com/jmcastell/lorekeeper/internal/store"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(getEnv("LOREKEEPER_CONFIG", "lorekeeper.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	backend, err := kv.NewRedis(ctx, kv.RedisOptions{
		Addr:       cfg.Redis.Addr,
		DB:         cfg.Redis.DB,
		Password:   cfg.Redis.Password,
		MaxRetries: cfg.Redis.MaxRetries,
	})
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer backend.Close()

	st := store.New(backend, logger)

	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	cache, err := embedding.LoadCache(cfg.Embedding.CachePath, cfg.Embedding.CacheEntries)
	if err != nil {
		log.Fatalf("failed to load embedding cache: %v", err)
	}
	embedder := embedding.NewCached(
		embedding.NewOpenAI(client, cfg.Embedding.Model, cfg.Embedding.BatchSize, logger),
		cache,
		logger,
	)

	engine := search.New(st, embedder, search.Options{
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		MaxResults:          cfg.Search.MaxResults,
		KeywordFallback:     cfg.Search.KeywordFallback,
	}, logger)

	personalities := personality.NewManager(backend, logger)

	pipeline := ingest.New(
		section.New(),
		chunker.New(cfg.Extract.MaxChunkSize),
		embedder,
		st,
		extract.Options{
			MaxFileSizeMB: cfg.Extract.MaxFileSizeMB,
			PdftotextBin:  cfg.Extract.PdftotextBin,
			PdfinfoBin:    cfg.Extract.PdfinfoBin,
		},
		logger,
	).WithPersonalities(personalities)

	server := mcpserver.NewServer(&mcpserver.Config{
		Store:         st,
		Engine:        engine,
		Pipeline:      pipeline,
		Personalities: personalities,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(backend))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))
	mux.HandleFunc("/", mcpserver.NewLandingHandler())

	port := getEnv("PORT", "8080")
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Lorekeeper MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

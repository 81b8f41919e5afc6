// Package ingest orchestrates the ingestion path: extraction, section
// identification, chunking, vectorization, and storage.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmcastell/lorekeeper/internal/chunker"
	"github.com/jmcastell/lorekeeper/internal/embedding"
	"github.com/jmcastell/lorekeeper/internal/extract"
	"github.com/jmcastell/lorekeeper/internal/model"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/section"
	"github.com/jmcastell/lorekeeper/internal/store"
)

// Result contains statistics about one ingestion run.
type Result struct {
	Rulebook      string
	System        string
	Pages         int
	Sections      int
	Chunks        int
	Embedded      int
	SkippedEmbeds int // chunks stored with an empty vector after embed failure
	Duration      time.Duration
}

// Pipeline wires the ingestion stages together. Each run is sequential end to
// end from the caller's point of view; the embedding stage batches
// internally.
type Pipeline struct {
	identifier    *section.Identifier
	chunker       *chunker.Chunker
	embedder      embedding.Embedder
	store         *store.Store
	extractOpts   extract.Options
	logger        *slog.Logger
	personalities *personality.Manager
}

// New creates an ingestion pipeline with the given components.
func New(
	identifier *section.Identifier,
	ch *chunker.Chunker,
	embedder embedding.Embedder,
	st *store.Store,
	extractOpts extract.Options,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		identifier:  identifier,
		chunker:     ch,
		embedder:    embedder,
		store:       st,
		extractOpts: extractOpts,
		logger:      logger,
	}
}

// WithPersonalities enables profile extraction after each ingestion run.
// Without it the personality stage is skipped.
func (p *Pipeline) WithPersonalities(mgr *personality.Manager) *Pipeline {
	p.personalities = mgr
	return p
}

// Ingest processes one source document end to end and stores its chunks.
// Extraction failures abort the run with no partial persistence; a chunk
// whose embedding fails is stored with an empty vector and counted, not
// dropped silently.
func (p *Pipeline) Ingest(ctx context.Context, path, rulebook, system string) (*Result, error) {
	start := time.Now()

	extractor, err := extract.ForPath(path, p.extractOpts)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	p.logger.Info("extracted document", "path", path, "pages", doc.PageCount, "outline_entries", len(doc.Outline))

	sections := p.identifier.Identify(doc)
	p.logger.Debug("identified sections", "path", path, "sections", len(sections))

	chunks := p.chunker.Chunk(sections, rulebook, system)
	attachTables(chunks, doc)
	p.logger.Debug("chunked sections", "path", path, "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	result := &Result{
		Rulebook: rulebook,
		System:   system,
		Pages:    doc.PageCount,
		Sections: len(sections),
		Chunks:   len(chunks),
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		if len(vectors[i]) == 0 && texts[i] != "" {
			result.SkippedEmbeds++
			p.logger.Warn("chunk stored without embedding", "chunk", chunks[i].ID)
			continue
		}
		if len(vectors[i]) > 0 {
			result.Embedded++
		}
	}

	if err := p.store.PutChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	// Profile extraction is best effort; a failure never fails the run.
	// The profile is rebuilt from every chunk stored for the system so it
	// reflects all of its rulebooks, not just this one.
	if p.personalities != nil && len(chunks) > 0 {
		if err := p.refreshProfile(ctx, system); err != nil {
			p.logger.Warn("personality extraction failed", "system", system, "error", err)
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingested rulebook",
		"rulebook", rulebook,
		"system", system,
		"chunks", result.Chunks,
		"embedded", result.Embedded,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) refreshProfile(ctx context.Context, system string) error {
	keys, err := p.store.CandidateKeys(ctx, map[string]string{store.FilterSystem: system})
	if err != nil {
		return err
	}
	corpus, err := p.store.ChunksByKeys(ctx, keys)
	if err != nil {
		return err
	}
	_, err = p.personalities.ExtractAndStore(ctx, corpus, system)
	return err
}

// attachTables hangs the tables of each section's page span off the
// section's first chunk, keyed by the chunk_index metadata written by the
// chunker.
func attachTables(chunks []model.Chunk, doc *model.Document) {
	tablesByPage := make(map[int][]model.Table)
	for _, page := range doc.Pages {
		if len(page.Tables) > 0 {
			tablesByPage[page.PageNumber] = page.Tables
		}
	}
	if len(tablesByPage) == 0 {
		return
	}

	for i := range chunks {
		if chunks[i].Metadata["chunk_index"] != "0" {
			continue
		}
		start, end := pageRange(&chunks[i])
		for page := start; page <= end; page++ {
			chunks[i].Tables = append(chunks[i].Tables, tablesByPage[page]...)
		}
	}
}

func pageRange(chunk *model.Chunk) (int, int) {
	var start, end int
	if _, err := fmt.Sscanf(chunk.Metadata["page_range"], "%d-%d", &start, &end); err != nil {
		return chunk.PageNumber, chunk.PageNumber
	}
	return start, end
}

// Package search implements the two-stage retrieval engine: exact cosine
// scoring over a filtered candidate set, with a keyword-substring fallback
// that fires only when the vector pass comes back empty.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jmcastell/lorekeeper/internal/embedding"
	"github.com/jmcastell/lorekeeper/internal/model"
	"github.com/jmcastell/lorekeeper/internal/store"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a semantic hit.
	DefaultThreshold = 0.7

	// DefaultMaxResults bounds the ranked list.
	DefaultMaxResults = 5
)

// Options tunes a retrieval engine.
type Options struct {
	SimilarityThreshold float64
	MaxResults          int
	KeywordFallback     bool
}

// Engine scores filtered candidates against a query. The scan is brute-force
// by design: exact ranking over corpora of tens of thousands of chunks, no
// approximate index.
type Engine struct {
	store    *store.Store
	embedder embedding.Embedder
	opts     Options
	logger   *slog.Logger
}

// New creates an engine. Zero option fields select the package defaults.
func New(st *store.Store, embedder embedding.Embedder, opts Options, logger *slog.Logger) *Engine {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultThreshold
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, embedder: embedder, opts: opts, logger: logger}
}

// Search embeds the query and ranks the filtered candidates. maxResults <= 0
// uses the configured default. An empty result list is a valid outcome, not
// an error.
func (e *Engine) Search(ctx context.Context, query string, filters map[string]string, maxResults int) ([]model.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = e.opts.MaxResults
	}

	keys, err := e.store.CandidateKeys(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("narrow candidates: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	candidates, err := e.store.ChunksByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, using keyword fallback", "error", err)
		queryVec = nil
	}

	if len(queryVec) > 0 {
		results := e.vectorPass(queryVec, candidates, maxResults)
		if len(results) > 0 {
			return results, nil
		}
	}

	if e.opts.KeywordFallback {
		return e.keywordPass(query, candidates, maxResults), nil
	}
	return nil, nil
}

// vectorPass keeps candidates scoring at or above the threshold. A candidate
// with a missing or malformed stored vector is skipped and logged, never
// fatal to the search.
func (e *Engine) vectorPass(queryVec []float32, candidates []*model.Chunk, maxResults int) []model.SearchResult {
	var results []model.SearchResult
	for _, chunk := range candidates {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if len(chunk.Embedding) != len(queryVec) {
			e.logger.Warn("skipping chunk with malformed vector",
				"chunk", chunk.ID, "len", len(chunk.Embedding), "want", len(queryVec))
			continue
		}
		score := embedding.Cosine(queryVec, chunk.Embedding)
		if score >= e.opts.SimilarityThreshold {
			results = append(results, model.SearchResult{
				Chunk:     chunk,
				Score:     score,
				MatchType: model.MatchSemantic,
			})
		}
	}
	return rank(results, maxResults)
}

// keywordPass scores case-insensitive substring hits: +1.0 in the title,
// +0.5 in the content. Zero-score candidates drop out.
func (e *Engine) keywordPass(query string, candidates []*model.Chunk, maxResults int) []model.SearchResult {
	needle := strings.ToLower(query)
	var results []model.SearchResult
	for _, chunk := range candidates {
		score := 0.0
		if strings.Contains(strings.ToLower(chunk.Title), needle) {
			score += 1.0
		}
		if strings.Contains(strings.ToLower(chunk.Content), needle) {
			score += 0.5
		}
		if score > 0 {
			results = append(results, model.SearchResult{
				Chunk:     chunk,
				Score:     score,
				MatchType: model.MatchKeyword,
			})
		}
	}
	return rank(results, maxResults)
}

// rank sorts descending by score with ties broken by ascending chunk id, so
// equal scores always rank deterministically, then truncates.
func rank(results []model.SearchResult, maxResults int) []model.SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

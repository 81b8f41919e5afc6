// Package store persists chunks, campaign records, and their secondary
// indexes in the key/value backend. Every multi-record write lands in one
// atomic batch so index sets never diverge from primary records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
)

const (
	chunkPrefix    = "chunk:"
	rulebookIndex  = "rulebook:"
	systemIndex    = "system:"
	categoryIndex  = "content_type:"
	campaignPrefix = "campaign:"
	campaignIndex  = "campaign_index:"
	campaignType   = "campaign_type:"
)

var (
	ErrChunkNotFound  = errors.New("store: chunk not found")
	ErrRecordNotFound = errors.New("store: campaign record not found")
)

// Filter dimensions accepted by CandidateKeys.
const (
	FilterRulebook = "rulebook"
	FilterSystem   = "system"
	FilterCategory = "content_type"
)

// Store is the domain storage layer.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// New creates a store over the given backend.
func New(backend kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: backend, logger: logger}
}

// Backend exposes the underlying key/value store for collaborating services.
func (s *Store) Backend() kv.Store { return s.kv }

// PutChunks stores chunks and their rulebook/system/category index
// memberships in one atomic batch. Chunk ids are deterministic, so
// re-ingesting a rulebook overwrites in place.
func (s *Store) PutChunks(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.kv.Batch(ctx, func(b kv.Batch) error {
		for i := range chunks {
			chunk := &chunks[i]
			data, err := json.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode chunk %s: %w", chunk.ID, err)
			}
			key := chunkPrefix + chunk.ID
			b.HSet(key, map[string]string{
				"data":         string(data),
				"rulebook":     chunk.Rulebook,
				"system":       chunk.System,
				"content_type": string(chunk.Category),
				"title":        chunk.Title,
			})
			b.SAdd(rulebookIndex+chunk.Rulebook, key)
			b.SAdd(systemIndex+chunk.System, key)
			b.SAdd(categoryIndex+string(chunk.Category), key)
		}
		return nil
	})
}

// GetChunk loads a chunk by id.
func (s *Store) GetChunk(ctx context.Context, id string) (*model.Chunk, error) {
	return s.chunkByKey(ctx, chunkPrefix+id)
}

func (s *Store) chunkByKey(ctx context.Context, key string) (*model.Chunk, error) {
	data, err := s.kv.HGet(ctx, key, "data")
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, key)
		}
		return nil, err
	}
	var chunk model.Chunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, fmt.Errorf("decode chunk %s: %w", key, err)
	}
	return &chunk, nil
}

// CandidateKeys narrows chunk keys by intersecting each filter dimension's
// index set. No filters means every stored chunk: a full scan, acceptable at
// this corpus scale.
func (s *Store) CandidateKeys(ctx context.Context, filters map[string]string) ([]string, error) {
	if len(filters) == 0 {
		return s.kv.Scan(ctx, chunkPrefix)
	}

	var result map[string]struct{}
	for dim, value := range filters {
		var indexKey string
		switch dim {
		case FilterRulebook:
			indexKey = rulebookIndex + value
		case FilterSystem:
			indexKey = systemIndex + value
		case FilterCategory:
			indexKey = categoryIndex + value
		default:
			return nil, fmt.Errorf("store: unknown filter dimension %q", dim)
		}

		members, err := s.kv.SMembers(ctx, indexKey)
		if err != nil {
			return nil, err
		}

		if result == nil {
			result = make(map[string]struct{}, len(members))
			for _, m := range members {
				result[m] = struct{}{}
			}
			continue
		}
		next := make(map[string]struct{}, len(result))
		for _, m := range members {
			if _, ok := result[m]; ok {
				next[m] = struct{}{}
			}
		}
		result = next
	}

	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ChunksByKeys loads chunks for the given keys. A malformed or vanished entry
// is logged and skipped, never aborting the whole read.
func (s *Store) ChunksByKeys(ctx context.Context, keys []string) ([]*model.Chunk, error) {
	chunks := make([]*model.Chunk, 0, len(keys))
	for _, key := range keys {
		chunk, err := s.chunkByKey(ctx, key)
		if err != nil {
			s.logger.Warn("skipping unreadable chunk", "key", key, "error", err)
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// DeleteRulebook removes every chunk of one rulebook and all of its index
// memberships in a single atomic batch. Returns the number of chunks removed.
func (s *Store) DeleteRulebook(ctx context.Context, rulebook string) (int, error) {
	keys, err := s.kv.SMembers(ctx, rulebookIndex+rulebook)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	// Read system/category memberships up front; the batch itself must not
	// depend on reads. The plain hash fields are enough, so a chunk whose
	// JSON payload is corrupt still gets its index entries removed.
	type membership struct {
		key, system, category string
	}
	memberships := make([]membership, 0, len(keys))
	for _, key := range keys {
		fields, err := s.kv.HGetAll(ctx, key)
		if err != nil {
			s.logger.Warn("skipping index cleanup for unreadable chunk", "key", key, "error", err)
			continue
		}
		memberships = append(memberships, membership{
			key:      key,
			system:   fields["system"],
			category: fields["content_type"],
		})
	}

	err = s.kv.Batch(ctx, func(b kv.Batch) error {
		for _, m := range memberships {
			b.SRem(systemIndex+m.system, m.key)
			b.SRem(categoryIndex+m.category, m.key)
		}
		b.SRem(rulebookIndex+rulebook, keys...)
		b.Del(keys...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats summarizes the stored corpus.
type Stats struct {
	TotalChunks int            `json:"total_chunks"`
	Rulebooks   map[string]int `json:"rulebooks"`
	Systems     map[string]int `json:"systems"`
	Categories  map[string]int `json:"content_types"`
}

// CorpusStats counts chunks total and by rulebook, system, and category.
func (s *Store) CorpusStats(ctx context.Context) (*Stats, error) {
	keys, err := s.kv.Scan(ctx, chunkPrefix)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalChunks: len(keys),
		Rulebooks:   make(map[string]int),
		Systems:     make(map[string]int),
		Categories:  make(map[string]int),
	}
	for _, key := range keys {
		fields, err := s.kv.HGetAll(ctx, key)
		if err != nil {
			s.logger.Warn("skipping unreadable chunk", "key", key, "error", err)
			continue
		}
		stats.Rulebooks[fields["rulebook"]]++
		stats.Systems[fields["system"]]++
		stats.Categories[fields["content_type"]]++
	}
	return stats, nil
}

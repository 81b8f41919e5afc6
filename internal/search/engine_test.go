package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
	"github.com/jmcastell/lorekeeper/internal/store"
)

// stubEmbedder maps query text to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 2 }

func seedChunks(t *testing.T, st *store.Store, chunks []model.Chunk) {
	t.Helper()
	require.NoError(t, st.PutChunks(context.Background(), chunks))
}

func chunkWithVec(id, title, content string, vec []float32) model.Chunk {
	return model.Chunk{
		ID:        id,
		Rulebook:  "core",
		System:    "dnd",
		Category:  model.CategoryRule,
		Title:     title,
		Content:   content,
		Embedding: vec,
	}
}

func TestSearch_SemanticRanking(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "Grappling", "grab rules", []float32{1, 0}),
		chunkWithVec("b", "Shoving", "push rules", []float32{0.9, 0.1}),
		chunkWithVec("c", "Falling", "drop rules", []float32{0, 1}),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"how to grapple": {1, 0}}}

	e := New(st, embedder, Options{SimilarityThreshold: 0.7}, nil)
	results, err := e.Search(ctx, "how to grapple", nil, 10)
	require.NoError(t, err)

	require.Len(t, results, 2, "orthogonal chunk must fall below threshold")
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
	assert.Equal(t, model.MatchSemantic, results[0].MatchType)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_ThresholdIsInclusive(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	// Identical vectors score exactly 1.0.
	seedChunks(t, st, []model.Chunk{chunkWithVec("a", "T", "c", []float32{3, 4})})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {3, 4}}}

	e := New(st, embedder, Options{SimilarityThreshold: 1.0}, nil)
	results, err := e.Search(ctx, "q", nil, 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "score equal to the threshold must be kept")
}

func TestSearch_TieBreakByChunkID(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	vec := []float32{1, 0}
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("zeta", "T1", "c", vec),
		chunkWithVec("alpha", "T2", "c", vec),
		chunkWithVec("mid", "T3", "c", vec),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": vec}}

	e := New(st, embedder, Options{}, nil)
	results, err := e.Search(ctx, "q", nil, 10)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "alpha", results[0].Chunk.ID)
	assert.Equal(t, "mid", results[1].Chunk.ID)
	assert.Equal(t, "zeta", results[2].Chunk.ID)
}

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	vec := []float32{1, 0}
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "T", "c", vec),
		chunkWithVec("b", "T", "c", vec),
		chunkWithVec("c", "T", "c", vec),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": vec}}

	e := New(st, embedder, Options{}, nil)
	results, err := e.Search(ctx, "q", nil, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_KeywordFallbackOnlyWhenVectorPassEmpty(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "Fireball Spell", "The fireball detonates in a burst.", []float32{0, 1}),
		chunkWithVec("b", "Ice Storm", "Hail falls. Mentions fireball once.", []float32{0, 1}),
	})
	// Query vector is orthogonal to everything: the vector pass finds nothing.
	embedder := &stubEmbedder{vectors: map[string][]float32{"fireball": {1, 0}}}

	e := New(st, embedder, Options{KeywordFallback: true}, nil)
	results, err := e.Search(ctx, "fireball", nil, 5)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, model.MatchKeyword, results[0].MatchType)
	assert.Equal(t, "a", results[0].Chunk.ID, "title hit outranks content hit")
	assert.InDelta(t, 1.5, results[0].Score, 1e-9, "title plus content")
	assert.InDelta(t, 0.5, results[1].Score, 1e-9, "content only")
}

func TestSearch_NoFallbackWhenSemanticHits(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "Semantic Hit", "no keyword here", []float32{1, 0}),
		chunkWithVec("b", "fireball", "fireball fireball", []float32{0, 1}),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"fireball": {1, 0}}}

	e := New(st, embedder, Options{KeywordFallback: true}, nil)
	results, err := e.Search(ctx, "fireball", nil, 5)
	require.NoError(t, err)

	require.Len(t, results, 1, "semantic and keyword results never mix")
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, model.MatchSemantic, results[0].MatchType)
}

func TestSearch_FallbackDisabled(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "fireball", "fireball", []float32{0, 1}),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"fireball": {1, 0}}}

	e := New(st, embedder, Options{KeywordFallback: false}, nil)
	results, err := e.Search(ctx, "fireball", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmbedFailureFallsBackToKeyword(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "Fireball", "boom", []float32{1, 0}),
	})
	embedder := &stubEmbedder{err: errors.New("api down")}

	e := New(st, embedder, Options{KeywordFallback: true}, nil)
	results, err := e.Search(ctx, "fireball", nil, 5)
	require.NoError(t, err, "embedding failure must not fail the search")
	require.Len(t, results, 1)
	assert.Equal(t, model.MatchKeyword, results[0].MatchType)
}

func TestSearch_SkipsChunksWithoutVectors(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "Has Vector", "c", []float32{1, 0}),
		chunkWithVec("b", "No Vector", "c", nil),
		chunkWithVec("c", "Wrong Dim", "c", []float32{1, 0, 0}),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0}}}

	e := New(st, embedder, Options{}, nil)
	results, err := e.Search(ctx, "q", nil, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.ID)
}

func TestSearch_FiltersNarrowCandidates(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	vec := []float32{1, 0}
	a := chunkWithVec("a", "T", "c", vec)
	b := chunkWithVec("b", "T", "c", vec)
	b.Rulebook = "bestiary"
	seedChunks(t, st, []model.Chunk{a, b})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": vec}}

	e := New(st, embedder, Options{}, nil)
	results, err := e.Search(ctx, "q", map[string]string{store.FilterRulebook: "bestiary"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Chunk.ID)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	st := store.New(kv.NewMemory(), nil)
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0}}}

	e := New(st, embedder, Options{KeywordFallback: true}, nil)
	results, err := e.Search(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Deterministic(t *testing.T) {
	ctx := context.Background()
	st := store.New(kv.NewMemory(), nil)
	vec := []float32{1, 0}
	seedChunks(t, st, []model.Chunk{
		chunkWithVec("a", "T", "c", vec),
		chunkWithVec("b", "T", "c", vec),
		chunkWithVec("c", "T", "c", []float32{0.95, 0.05}),
	})
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": vec}}
	e := New(st, embedder, Options{}, nil)

	first, err := e.Search(ctx, "q", nil, 5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Search(ctx, "q", nil, 5)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Chunk.ID, again[j].Chunk.ID)
			assert.Equal(t, first[j].Score, again[j].Score)
		}
	}
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
)

func testChunk(id, rulebook, system string, category model.Category) model.Chunk {
	return model.Chunk{
		ID:          id,
		Rulebook:    rulebook,
		System:      system,
		Category:    category,
		Title:       "Title " + id,
		Content:     "content of " + id,
		PageNumber:  3,
		SectionPath: []string{"Parent", "Title " + id},
		Embedding:   []float32{0.1, 0.2, 0.3},
		Metadata:    map[string]string{"chunk_index": "0", "page_range": "3-4"},
	}
}

func TestPutChunks_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	in := testChunk("core_Combat_0", "core", "dnd", model.CategoryRule)
	in.Tables = []model.Table{{
		Title:      "Table 1 (Page 3)",
		Headers:    []string{"Weapon", "Damage"},
		Rows:       [][]string{{"Dagger", "1d4"}},
		PageNumber: 3,
	}}
	require.NoError(t, s.PutChunks(ctx, []model.Chunk{in}))

	out, err := s.GetChunk(ctx, "core_Combat_0")
	require.NoError(t, err)
	assert.Equal(t, &in, out, "stored chunk must round-trip byte for byte")
}

func TestGetChunk_NotFound(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	_, err := s.GetChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

func TestPutChunks_ReingestOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	first := testChunk("core_Combat_0", "core", "dnd", model.CategoryRule)
	require.NoError(t, s.PutChunks(ctx, []model.Chunk{first}))

	second := first
	second.Content = "revised content"
	require.NoError(t, s.PutChunks(ctx, []model.Chunk{second}))

	out, err := s.GetChunk(ctx, "core_Combat_0")
	require.NoError(t, err)
	assert.Equal(t, "revised content", out.Content)

	keys, err := s.CandidateKeys(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, keys, 1, "re-ingest must not duplicate")
}

func TestCandidateKeys_Intersection(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	chunks := []model.Chunk{
		testChunk("a", "core", "dnd", model.CategoryRule),
		testChunk("b", "core", "pf", model.CategoryRule),
		testChunk("c", "bestiary", "dnd", model.CategoryMonster),
	}
	require.NoError(t, s.PutChunks(ctx, chunks))

	keys, err := s.CandidateKeys(ctx, map[string]string{FilterRulebook: "core"})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk:a", "chunk:b"}, keys)

	keys, err = s.CandidateKeys(ctx, map[string]string{FilterRulebook: "core", FilterSystem: "dnd"})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk:a"}, keys)

	keys, err = s.CandidateKeys(ctx, map[string]string{FilterCategory: string(model.CategoryMonster)})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk:c"}, keys)

	// Disjoint filters intersect to nothing.
	keys, err = s.CandidateKeys(ctx, map[string]string{FilterRulebook: "bestiary", FilterSystem: "pf"})
	require.NoError(t, err)
	assert.Empty(t, keys)

	// No filters scans everything.
	keys, err = s.CandidateKeys(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	_, err = s.CandidateKeys(ctx, map[string]string{"page": "3"})
	assert.Error(t, err, "unknown filter dimension must be rejected")
}

func TestChunksByKeys_SkipsUnreadable(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := New(backend, nil)

	require.NoError(t, s.PutChunks(ctx, []model.Chunk{testChunk("a", "core", "dnd", model.CategoryRule)}))
	require.NoError(t, backend.HSet(ctx, "chunk:bad", map[string]string{"data": "{corrupt"}))

	chunks, err := s.ChunksByKeys(ctx, []string{"chunk:a", "chunk:bad", "chunk:gone"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a", chunks[0].ID)
}

func TestDeleteRulebook(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	chunks := []model.Chunk{
		testChunk("a", "core", "dnd", model.CategoryRule),
		testChunk("b", "core", "dnd", model.CategorySpell),
		testChunk("c", "bestiary", "dnd", model.CategoryMonster),
	}
	require.NoError(t, s.PutChunks(ctx, chunks))

	removed, err := s.DeleteRulebook(ctx, "core")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetChunk(ctx, "a")
	assert.ErrorIs(t, err, ErrChunkNotFound)

	// Index memberships must be gone too.
	keys, err := s.CandidateKeys(ctx, map[string]string{FilterSystem: "dnd"})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk:c"}, keys)
	keys, err = s.CandidateKeys(ctx, map[string]string{FilterCategory: string(model.CategorySpell)})
	require.NoError(t, err)
	assert.Empty(t, keys)

	// The untouched rulebook survives.
	out, err := s.GetChunk(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "bestiary", out.Rulebook)
}

func TestDeleteRulebook_CorruptPayloadStillCleansIndexes(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := New(backend, nil)

	require.NoError(t, s.PutChunks(ctx, []model.Chunk{
		testChunk("a", "core", "dnd", model.CategoryRule),
		testChunk("b", "core", "dnd", model.CategorySpell),
	}))
	// Simulate a chunk whose JSON payload rotted in place. The plain hash
	// fields are intact, so deletion must still find its index memberships.
	require.NoError(t, backend.HSet(ctx, "chunk:a", map[string]string{"data": "{corrupt"}))

	removed, err := s.DeleteRulebook(ctx, "core")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetChunk(ctx, "a")
	assert.ErrorIs(t, err, ErrChunkNotFound)

	for _, index := range []string{"rulebook:core", "system:dnd", "content_type:rule", "content_type:spell"} {
		members, err := backend.SMembers(ctx, index)
		require.NoError(t, err)
		assert.Empty(t, members, index)
	}
}

func TestDeleteRulebook_Unknown(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	removed, err := s.DeleteRulebook(context.Background(), "never-ingested")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCorpusStats(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	chunks := []model.Chunk{
		testChunk("a", "core", "dnd", model.CategoryRule),
		testChunk("b", "core", "dnd", model.CategorySpell),
		testChunk("c", "bestiary", "pf", model.CategoryMonster),
	}
	require.NoError(t, s.PutChunks(ctx, chunks))

	stats, err := s.CorpusStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 2, stats.Rulebooks["core"])
	assert.Equal(t, 1, stats.Rulebooks["bestiary"])
	assert.Equal(t, 2, stats.Systems["dnd"])
	assert.Equal(t, 1, stats.Categories[string(model.CategorySpell)])
}

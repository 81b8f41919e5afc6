package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// TestChunk_SmallSectionSingleChunk tests that content under the limit stays whole.
func TestChunk_SmallSectionSingleChunk(t *testing.T) {
	sections := []model.Section{
		{Title: "Combat Basics", Content: "Roll initiative.", PageStart: 10, PageEnd: 12, Level: 1},
	}

	c := New(1500)
	chunks := c.Chunk(sections, "Core Rules", "Dragonmarch")

	require.Len(t, chunks, 1)
	chunk := chunks[0]
	assert.Equal(t, "Core_Rules_Combat_Basics_0", chunk.ID)
	assert.Equal(t, "Roll initiative.", chunk.Content)
	assert.Equal(t, "Core Rules", chunk.Rulebook)
	assert.Equal(t, "Dragonmarch", chunk.System)
	assert.Equal(t, 10, chunk.PageNumber)
	assert.Equal(t, "10-12", chunk.Metadata["page_range"])
	assert.Equal(t, "0", chunk.Metadata["chunk_index"])
}

// TestChunk_SplitsOnParagraphs tests that oversized sections split along
// paragraph boundaries and every piece respects the size limit.
func TestChunk_SplitsOnParagraphs(t *testing.T) {
	paraA := strings.Repeat("a", 40)
	paraB := strings.Repeat("b", 40)
	paraC := strings.Repeat("c", 40)
	content := paraA + "\n\n" + paraB + "\n\n" + paraC

	c := New(90)
	chunks := c.Chunk([]model.Section{{Title: "Long", Content: content, PageStart: 1, PageEnd: 1}}, "Book", "Sys")

	// paraA+paraB = 40+2+40 = 82 fits; adding paraC would be 124.
	require.Len(t, chunks, 2)
	assert.Equal(t, paraA+"\n\n"+paraB, chunks[0].Content)
	assert.Equal(t, paraC, chunks[1].Content)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 90, "chunk %d", i)
	}
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID, "chunk ids must differ by index")
	assert.Equal(t, "1", chunks[1].Metadata["chunk_index"])
}

// TestChunk_OversizeParagraphKeptWhole tests that a single paragraph longer
// than the limit is never truncated.
func TestChunk_OversizeParagraphKeptWhole(t *testing.T) {
	big := strings.Repeat("x", 200)
	content := "short" + "\n\n" + big

	c := New(50)
	chunks := c.Chunk([]model.Section{{Title: "T", Content: content, PageStart: 1, PageEnd: 1}}, "B", "S")

	require.Len(t, chunks, 2)
	assert.Equal(t, big, chunks[1].Content)
}

// TestChunk_SectionPath tests that the section path ends with the section's
// own title after its parents.
func TestChunk_SectionPath(t *testing.T) {
	sections := []model.Section{
		{Title: "Fireball", Content: "Boom.", PageStart: 5, PageEnd: 5, Level: 2, Parents: []string{"Spells"}},
	}

	chunks := New(0).Chunk(sections, "B", "S")
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Spells", "Fireball"}, chunks[0].SectionPath)
}

// TestChunkID_Deterministic tests id normalization and stability.
func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("Player's  Handbook", "Chapter 9:\tCombat", 3)
	b := ChunkID("Player's  Handbook", "Chapter 9:\tCombat", 3)
	assert.Equal(t, a, b, "ids must be stable across calls")
	assert.Equal(t, "Player's_Handbook_Chapter_9:_Combat_3", a)
	assert.False(t, strings.ContainsAny(a, " \t\n"), "id contains whitespace: %q", a)
}

// TestClassify tests title keyword classification and its priority order.
func TestClassify(t *testing.T) {
	cases := []struct {
		title string
		want  model.Category
	}{
		{"Spells and Magic", model.CategorySpell},
		{"Cantrips", model.CategorySpell},
		{"Monster Manual", model.CategoryMonster},
		{"Creature Types", model.CategoryMonster},
		{"Weapons and Armor", model.CategoryItem},
		{"Equipment Lists", model.CategoryItem},
		{"Combat Rules", model.CategoryRule},
		{"Actions in Combat", model.CategoryRule},
		{"Introduction", model.CategoryRule}, // default
		{"Magic Items", model.CategorySpell}, // spell keywords win over item
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.title), "Classify(%q)", tc.title)
	}
}

// TestNew_NonPositiveSizeFallsBack tests the default size guard.
func TestNew_NonPositiveSizeFallsBack(t *testing.T) {
	assert.Equal(t, DefaultMaxChunkSize, New(0).MaxChunkSize())
	assert.Equal(t, DefaultMaxChunkSize, New(-5).MaxChunkSize())
}

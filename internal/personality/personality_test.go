package personality

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
)

func chunksFrom(category model.Category, contents ...string) []*model.Chunk {
	out := make([]*model.Chunk, len(contents))
	for i, c := range contents {
		out[i] = &model.Chunk{ID: string(rune('a' + i)), Category: category, Content: c}
	}
	return out
}

func TestExtract_ToneAndPerspective(t *testing.T) {
	chunks := chunksFrom(model.CategoryRule,
		"When you attack, you roll your dice. If you hit, you deal your weapon damage. "+
			"When you miss, you lose your turn. Before you strike, you check your reach in battle.",
	)

	p := NewExtractor().Extract(chunks, "ironblade")

	assert.Equal(t, "ironblade", p.System)
	assert.Equal(t, "ironblade Guide", p.Name)
	assert.Equal(t, "martial", p.Tone)
	assert.Equal(t, "second person", p.Perspective)
	assert.Contains(t, p.Description, "martial")
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestExtract_ThirdPersonDefault(t *testing.T) {
	chunks := chunksFrom(model.CategoryRule,
		"The arcane ritual binds ancient eldritch power. The mystic circle holds the occult energies.",
	)

	p := NewExtractor().Extract(chunks, "veilworld")
	assert.Equal(t, "mystical", p.Tone)
	assert.Equal(t, "third person", p.Perspective)
}

func TestExtract_Traits(t *testing.T) {
	spells := chunksFrom(model.CategorySpell, "a", "b", "c")
	p := NewExtractor().Extract(spells, "sys")
	assert.Contains(t, p.Traits, "magic-rich")

	rules := chunksFrom(model.CategoryRule, "a", "b")
	p = NewExtractor().Extract(rules, "sys")
	assert.Equal(t, []string{"rules-oriented"}, p.Traits)
}

func TestExtract_VernacularRecurringTerms(t *testing.T) {
	text := strings.Repeat("The Iron Legion marches. ", 4) + "One-off Proper Noun here. "
	p := NewExtractor().Extract(chunksFrom(model.CategoryRule, text), "sys")

	require.NotEmpty(t, p.Vernacular)
	assert.Equal(t, "The Iron Legion", p.Vernacular[0].Term)
	assert.Equal(t, 4, p.Vernacular[0].Frequency)
	for _, term := range p.Vernacular {
		assert.NotEqual(t, "Proper Noun", term.Term, "terms below the frequency floor are dropped")
	}
}

func TestExtract_ConfidenceGrowsWithCorpus(t *testing.T) {
	empty := NewExtractor().Extract(nil, "sys")
	one := NewExtractor().Extract(chunksFrom(model.CategoryRule, "a"), "sys")
	assert.Greater(t, one.Confidence, empty.Confidence)

	huge := make([]*model.Chunk, 500)
	for i := range huge {
		huge[i] = &model.Chunk{Category: model.CategoryRule}
	}
	p := NewExtractor().Extract(huge, "sys")
	assert.InDelta(t, 0.9, p.Confidence, 1e-9, "confidence saturates")
}

func TestManager_PutGetListDelete(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemory(), nil)

	require.NoError(t, m.Put(ctx, &Profile{System: "dnd", Name: "dnd Guide", Confidence: 0.5}))
	require.NoError(t, m.Put(ctx, &Profile{System: "pf", Name: "pf Guide", Confidence: 0.4}))

	got, err := m.Get(ctx, "dnd")
	require.NoError(t, err)
	assert.Equal(t, "dnd Guide", got.Name)

	systems, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dnd", "pf"}, systems)

	require.NoError(t, m.Delete(ctx, "dnd"))
	_, err = m.Get(ctx, "dnd")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	systems, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pf"}, systems)
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager(kv.NewMemory(), nil)
	_, err := m.Get(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestManager_CacheSurvivesBackendLoss(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	m := NewManager(backend, nil)

	require.NoError(t, m.Put(ctx, &Profile{System: "dnd", Name: "dnd Guide"}))
	require.NoError(t, backend.Del(ctx, "personality:dnd"))

	// The in-process cache still serves the profile.
	got, err := m.Get(ctx, "dnd")
	require.NoError(t, err)
	assert.Equal(t, "dnd Guide", got.Name)

	// A second manager over the same backend misses.
	fresh := NewManager(backend, nil)
	_, err = fresh.Get(ctx, "dnd")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestManager_ExtractAndStore(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemory(), nil)

	chunks := chunksFrom(model.CategoryRule, "When you attack, you roll dice for combat damage in battle.")
	p, err := m.ExtractAndStore(ctx, chunks, "dnd")
	require.NoError(t, err)
	assert.Equal(t, "dnd", p.System)

	loaded, err := m.Get(ctx, "dnd")
	require.NoError(t, err)
	assert.Equal(t, p.Tone, loaded.Tone)
}

func TestManager_Prompt(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemory(), nil)
	require.NoError(t, m.Put(ctx, &Profile{
		System:      "dnd",
		Name:        "dnd Guide",
		Description: "A martial, neutral voice.",
		Tone:        "martial",
		Formality:   "neutral",
		Perspective: "second person",
	}))

	prompt, err := m.Prompt(ctx, "dnd", "How does grappling work?", "Grappling uses opposed checks.")
	require.NoError(t, err)
	assert.Contains(t, prompt, "dnd Guide")
	assert.Contains(t, prompt, "How does grappling work?")
	assert.Contains(t, prompt, "Grappling uses opposed checks.")

	_, err = m.Prompt(ctx, "unknown", "q", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestManager_ApplyFeedback(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemory(), nil)
	require.NoError(t, m.Put(ctx, &Profile{System: "dnd", Confidence: 0.5}))

	require.NoError(t, m.ApplyFeedback(ctx, "dnd", true))
	p, err := m.Get(ctx, "dnd")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p.Confidence, 1e-9)

	for i := 0; i < 10; i++ {
		require.NoError(t, m.ApplyFeedback(ctx, "dnd", false))
	}
	p, err = m.Get(ctx, "dnd")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, p.Confidence, 1e-9, "confidence clamps at the floor")
}

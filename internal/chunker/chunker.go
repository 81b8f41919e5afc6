// Package chunker splits section content into bounded-size retrievable units
// along paragraph boundaries and tags each with a content category.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// DefaultMaxChunkSize is the soft character limit per chunk.
const DefaultMaxChunkSize = 1500

// Chunker turns sections into chunks.
type Chunker struct {
	maxChunkSize int
}

// New creates a chunker. A non-positive size falls back to the default.
func New(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

// MaxChunkSize returns the configured soft limit.
func (c *Chunker) MaxChunkSize() int { return c.maxChunkSize }

// Chunk converts the sections of one rulebook into chunks, in section order.
// Embeddings are left empty for the vectorizer to populate.
func (c *Chunker) Chunk(sections []model.Section, rulebook, system string) []model.Chunk {
	var chunks []model.Chunk

	for _, sec := range sections {
		pieces := c.split(sec.Content)
		category := Classify(sec.Title)

		for i, piece := range pieces {
			chunks = append(chunks, model.Chunk{
				ID:          ChunkID(rulebook, sec.Title, i),
				Rulebook:    rulebook,
				System:      system,
				Category:    category,
				Title:       sec.Title,
				Content:     piece,
				PageNumber:  sec.PageStart,
				SectionPath: append(append([]string{}, sec.Parents...), sec.Title),
				Embedding:   nil,
				Metadata: map[string]string{
					"section_level": fmt.Sprintf("%d", sec.Level),
					"page_range":    fmt.Sprintf("%d-%d", sec.PageStart, sec.PageEnd),
					"chunk_index":   fmt.Sprintf("%d", i),
				},
			})
		}
	}

	return chunks
}

// split packs paragraphs into pieces of at most maxChunkSize characters. The
// limit is a soft target: a single paragraph longer than the limit stays
// whole in its own piece, never truncated mid-paragraph.
func (c *Chunker) split(content string) []string {
	if len(content) <= c.maxChunkSize {
		return []string{content}
	}

	paragraphs := strings.Split(content, "\n\n")
	var pieces []string
	var current []string
	size := 0

	for _, para := range paragraphs {
		added := len(para)
		if len(current) > 0 {
			added += 2 // joining blank line
		}
		if size+added > c.maxChunkSize && len(current) > 0 {
			pieces = append(pieces, strings.Join(current, "\n\n"))
			current = []string{para}
			size = len(para)
			continue
		}
		current = append(current, para)
		size += added
	}
	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, "\n\n"))
	}

	return pieces
}

var whitespace = regexp.MustCompile(`\s+`)

// ChunkID derives a deterministic chunk id from the rulebook name, section
// title, and piece index, with whitespace collapsed to underscores.
// Re-ingesting the same document with the same parameters reproduces the same
// ids, so ingestion overwrites instead of duplicating.
func ChunkID(rulebook, title string, index int) string {
	raw := fmt.Sprintf("%s_%s_%d", rulebook, title, index)
	return whitespace.ReplaceAllString(strings.TrimSpace(raw), "_")
}

// Category keyword sets, checked in priority order against the section title.
var categoryKeywords = []struct {
	category model.Category
	words    []string
}{
	{model.CategorySpell, []string{"spell", "magic", "cantrip"}},
	{model.CategoryMonster, []string{"monster", "creature", "bestiary"}},
	{model.CategoryItem, []string{"item", "equipment", "weapon", "armor"}},
	{model.CategoryRule, []string{"rule", "combat", "action", "mechanic"}},
}

// Classify assigns a content category by case-insensitive substring match
// against the section title. First matching category wins; unmatched titles
// default to rule.
func Classify(title string) model.Category {
	lower := strings.ToLower(title)
	for _, set := range categoryKeywords {
		for _, word := range set.words {
			if strings.Contains(lower, word) {
				return set.category
			}
		}
	}
	return model.CategoryRule
}

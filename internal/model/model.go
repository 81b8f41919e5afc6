// Package model defines the core data types shared across the ingestion
// pipeline, the store, and the retrieval engine.
package model

import "time"

// Category classifies chunk content for filtered retrieval.
type Category string

const (
	CategoryRule    Category = "rule"
	CategorySpell   Category = "spell"
	CategoryMonster Category = "monster"
	CategoryItem    Category = "item"
)

// PageText holds the raw extracted text and tables of a single page.
// Page numbers are 1-based. Produced once during extraction, never mutated.
type PageText struct {
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
	Tables     []Table `json:"tables,omitempty"`
}

// Table is a structured table recovered from a source document. Rows have the
// same length as Headers; fully empty rows are discarded at extraction time.
type Table struct {
	Title      string     `json:"title"`
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
	PageNumber int        `json:"page_number"`
}

// OutlineEntry is one entry of a document's table of contents.
// Page is the 1-based start page, or 0 when the entry has no resolvable
// destination.
type OutlineEntry struct {
	Title string
	Page  int
	Level int
}

// DocMetadata carries best-effort document metadata. Absent fields are empty.
type DocMetadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Document is the page-indexed intermediate form produced by extraction.
// Pages cover every page of the source in order, with no gaps.
type Document struct {
	Path      string
	PageCount int
	Metadata  DocMetadata
	Outline   []OutlineEntry
	Pages     []PageText
}

// Section is a hierarchical structural unit of a source document: a heading
// and the textual content of its page span. Parents lists ancestor titles
// root-first, exclusive of the section itself.
type Section struct {
	Title     string
	Content   string
	PageStart int
	PageEnd   int
	Level     int
	Parents   []string
}

// Chunk is the retrievable unit: a bounded-size slice of section content with
// an attached embedding vector. IDs are deterministic so re-ingesting the same
// rulebook with unchanged chunking parameters overwrites instead of
// duplicating.
type Chunk struct {
	ID          string            `json:"id"`
	Rulebook    string            `json:"rulebook"`
	System      string            `json:"system"`
	Category    Category          `json:"content_type"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	PageNumber  int               `json:"page_number"`
	SectionPath []string          `json:"section_path"`
	Embedding   []float32         `json:"embedding"`
	Metadata    map[string]string `json:"metadata"`
	Tables      []Table           `json:"tables,omitempty"`
}

// CampaignRecord is an arbitrary versioned record scoped to one campaign and
// partitioned by a data-type tag. Version starts at 1 and increments on every
// update.
type CampaignRecord struct {
	ID         string         `json:"id"`
	CampaignID string         `json:"campaign_id"`
	DataType   string         `json:"data_type"`
	Name       string         `json:"name"`
	Content    map[string]any `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Version    int            `json:"version"`
	Tags       []string       `json:"tags,omitempty"`
}

// MatchType tags the provenance of a search result score.
type MatchType string

const (
	MatchSemantic MatchType = "semantic"
	MatchKeyword  MatchType = "keyword"
)

// SearchResult pairs a chunk with its relevance score. Semantic scores are
// cosine similarities in [-1,1]; keyword scores are additive and unbounded.
// The two scales never appear in the same result list.
type SearchResult struct {
	Chunk       *Chunk    `json:"chunk"`
	Score       float64   `json:"score"`
	MatchType   MatchType `json:"match_type"`
	Highlighted string    `json:"highlighted,omitempty"`
}

// Package mcp serves the rulebook assistant over the Model Context Protocol.
package mcp

import (
	"github.com/jmcastell/lorekeeper/internal/model"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/store"
)

// SearchRulebookInput defines the input parameters for the search_rulebook tool.
type SearchRulebookInput struct {
	// Query is the search text.
	Query string `json:"query" jsonschema:"required,description=Search query for rules, spells, monsters, or items"`
	// Rulebook optionally narrows the search to one source book.
	Rulebook string `json:"rulebook,omitempty" jsonschema:"description=Restrict results to one rulebook"`
	// System optionally narrows the search to one game system.
	System string `json:"system,omitempty" jsonschema:"description=Restrict results to one game system"`
	// ContentType optionally narrows by category.
	ContentType string `json:"content_type,omitempty" jsonschema:"enum=rule,enum=spell,enum=monster,enum=item,description=Restrict results to one content category"`
	// MaxResults bounds the ranked list.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of results"`
}

// RulebookHit is a single ranked search result.
type RulebookHit struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Rulebook    string   `json:"rulebook"`
	System      string   `json:"system"`
	ContentType string   `json:"content_type"`
	Page        int      `json:"page"`
	SectionPath []string `json:"section_path,omitempty"`
	Score       float64  `json:"score"`
	MatchType   string   `json:"match_type"`
}

// SearchRulebookOutput contains the ranked search results.
type SearchRulebookOutput struct {
	Results []RulebookHit `json:"results"`
	// Message provides informational context (e.g. "no matching content found").
	Message string `json:"message,omitempty"`
}

// AddRulebookInput defines the input parameters for the add_rulebook tool.
type AddRulebookInput struct {
	// Path is the source document on disk.
	Path string `json:"path" jsonschema:"required,description=Path to the source document (PDF or markdown)"`
	// Rulebook is the display name under which chunks are stored.
	Rulebook string `json:"rulebook" jsonschema:"required,description=Display name for the rulebook"`
	// System is the game system the rulebook belongs to.
	System string `json:"system" jsonschema:"required,description=Game system the rulebook belongs to"`
}

// AddRulebookOutput reports ingestion statistics.
type AddRulebookOutput struct {
	Pages    int    `json:"pages"`
	Sections int    `json:"sections"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
	Skipped  int    `json:"skipped"`
	Duration string `json:"duration"`
}

// ManageCampaignInput drives campaign record operations.
type ManageCampaignInput struct {
	Action     string         `json:"action" jsonschema:"required,enum=create,enum=read,enum=update,enum=delete,enum=list,description=Operation to perform"`
	CampaignID string         `json:"campaign_id" jsonschema:"required,description=Campaign identifier"`
	DataType   string         `json:"data_type,omitempty" jsonschema:"description=Record data type such as character, npc, or location"`
	RecordID   string         `json:"record_id,omitempty" jsonschema:"description=Record id for read, update, and delete"`
	Data       map[string]any `json:"data,omitempty" jsonschema:"description=Record payload for create and update"`
	Name       string         `json:"name,omitempty" jsonschema:"description=Replacement display name for update"`
	Tags       []string       `json:"tags,omitempty" jsonschema:"description=Replacement tags for update"`
}

// ManageCampaignOutput carries the affected record or record list.
type ManageCampaignOutput struct {
	Record  *model.CampaignRecord   `json:"record,omitempty"`
	Records []*model.CampaignRecord `json:"records,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// ManagePersonalityInput drives personality profile operations.
type ManagePersonalityInput struct {
	Action string `json:"action" jsonschema:"required,enum=get,enum=summary,enum=list,enum=delete,description=Operation to perform"`
	System string `json:"system,omitempty" jsonschema:"description=Game system name (required for everything except list)"`
}

// ManagePersonalityOutput carries personality profile data.
type ManagePersonalityOutput struct {
	Profile *personality.Profile `json:"profile,omitempty"`
	Summary *personality.Summary `json:"summary,omitempty"`
	Systems []string             `json:"systems,omitempty"`
	Message string               `json:"message,omitempty"`
}

// GetStatusInput takes no parameters.
type GetStatusInput struct {
	// No input parameters required
}

// GetStatusOutput summarizes the stored corpus.
type GetStatusOutput struct {
	Backend string       `json:"backend"`
	Stats   *store.Stats `json:"stats"`
}

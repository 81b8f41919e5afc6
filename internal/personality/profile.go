// Package personality extracts and manages per-system voice profiles derived
// from a system's rulebook chunks.
package personality

import "time"

// Term is a recurring piece of system vernacular with usage context.
type Term struct {
	Term      string   `json:"term"`
	Category  string   `json:"category"`
	Frequency int      `json:"frequency"`
	Examples  []string `json:"examples,omitempty"`
}

// Profile captures how a game system "speaks": tone, perspective, formality,
// recurring traits and vernacular, and a confidence score adjusted by usage
// feedback.
type Profile struct {
	System         string    `json:"system"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Tone           string    `json:"tone"`
	Perspective    string    `json:"perspective"`
	Formality      string    `json:"formality"`
	Traits         []string  `json:"traits,omitempty"`
	Vernacular     []Term    `json:"vernacular,omitempty"`
	ExamplePhrases []string  `json:"example_phrases,omitempty"`
	Confidence     float64   `json:"confidence"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Summary is the compact view served to callers that don't need the full
// vernacular list.
type Summary struct {
	System          string   `json:"system"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Tone            string   `json:"tone"`
	Perspective     string   `json:"perspective"`
	Formality       string   `json:"formality"`
	Confidence      float64  `json:"confidence"`
	VernacularCount int      `json:"vernacular_count"`
	TraitCount      int      `json:"trait_count"`
	ExamplePhrases  []string `json:"example_phrases,omitempty"`
}

// Summarize builds the compact view, keeping at most three example phrases.
func (p *Profile) Summarize() Summary {
	phrases := p.ExamplePhrases
	if len(phrases) > 3 {
		phrases = phrases[:3]
	}
	return Summary{
		System:          p.System,
		Name:            p.Name,
		Description:     p.Description,
		Tone:            p.Tone,
		Perspective:     p.Perspective,
		Formality:       p.Formality,
		Confidence:      p.Confidence,
		VernacularCount: len(p.Vernacular),
		TraitCount:      len(p.Traits),
		ExamplePhrases:  phrases,
	}
}

package personality

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// Extractor derives a Profile from a system's chunks using lexical
// heuristics. It is deliberately model-free: profiles are rebuilt rarely and
// the signal (tone words, person markers, recurring capitalized terms) is
// shallow enough for counting.
type Extractor struct {
	maxVernacular int
	maxPhrases    int
}

// NewExtractor creates an extractor with sensible caps.
func NewExtractor() *Extractor {
	return &Extractor{maxVernacular: 25, maxPhrases: 5}
}

var toneWords = map[string][]string{
	"mystical": {"arcane", "mystic", "ancient", "eldritch", "ritual", "occult"},
	"martial":  {"combat", "attack", "weapon", "battle", "strike", "damage"},
	"whimsical": {
		"wonder", "curious", "delight", "strange", "marvel", "peculiar",
	},
	"grim": {"death", "doom", "dread", "horror", "corruption", "despair"},
}

var capitalizedTerm = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)

// Extract builds a profile from chunks belonging to one system.
func (e *Extractor) Extract(chunks []*model.Chunk, system string) *Profile {
	var text strings.Builder
	for _, c := range chunks {
		text.WriteString(c.Content)
		text.WriteString("\n")
	}
	corpus := text.String()
	lower := strings.ToLower(corpus)

	profile := &Profile{
		System:      system,
		Name:        system + " Guide",
		Tone:        dominantTone(lower),
		Perspective: perspective(lower),
		Formality:   formality(corpus),
		Traits:      traits(chunks),
		Vernacular:  e.vernacular(corpus),
		Confidence:  confidence(len(chunks)),
		UpdatedAt:   time.Now().UTC(),
	}
	profile.Description = fmt.Sprintf("A %s, %s voice for %s, speaking in the %s.",
		profile.Tone, profile.Formality, system, profile.Perspective)
	profile.ExamplePhrases = e.examplePhrases(chunks)
	return profile
}

func dominantTone(lower string) string {
	best, bestCount := "neutral", 0
	// Deterministic iteration for stable extraction output.
	tones := make([]string, 0, len(toneWords))
	for tone := range toneWords {
		tones = append(tones, tone)
	}
	sort.Strings(tones)
	for _, tone := range tones {
		count := 0
		for _, word := range toneWords[tone] {
			count += strings.Count(lower, word)
		}
		if count > bestCount {
			best, bestCount = tone, count
		}
	}
	return best
}

// perspective distinguishes instructional second-person text ("you roll...")
// from descriptive third-person text.
func perspective(lower string) string {
	secondPerson := strings.Count(lower, " you ") + strings.Count(lower, " your ")
	if secondPerson > strings.Count(lower, " the character ")+10 {
		return "second person"
	}
	return "third person"
}

func formality(corpus string) string {
	sentences := strings.FieldsFunc(corpus, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) == 0 {
		return "neutral"
	}
	totalWords := 0
	for _, s := range sentences {
		totalWords += len(strings.Fields(s))
	}
	avg := totalWords / len(sentences)
	switch {
	case avg >= 18:
		return "formal"
	case avg <= 9:
		return "casual"
	default:
		return "neutral"
	}
}

func traits(chunks []*model.Chunk) []string {
	counts := make(map[model.Category]int)
	for _, c := range chunks {
		counts[c.Category]++
	}
	var out []string
	if counts[model.CategorySpell] > len(chunks)/10 {
		out = append(out, "magic-rich")
	}
	if counts[model.CategoryMonster] > len(chunks)/10 {
		out = append(out, "bestiary-heavy")
	}
	if counts[model.CategoryItem] > len(chunks)/10 {
		out = append(out, "equipment-focused")
	}
	if len(out) == 0 {
		out = append(out, "rules-oriented")
	}
	return out
}

// vernacular collects recurring multi-word capitalized phrases, which in
// rulebooks are overwhelmingly proper game terms.
func (e *Extractor) vernacular(corpus string) []Term {
	counts := make(map[string]int)
	for _, m := range capitalizedTerm.FindAllString(corpus, -1) {
		counts[m]++
	}

	var terms []Term
	for term, n := range counts {
		if n >= 3 {
			terms = append(terms, Term{Term: term, Category: "game term", Frequency: n})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Frequency != terms[j].Frequency {
			return terms[i].Frequency > terms[j].Frequency
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > e.maxVernacular {
		terms = terms[:e.maxVernacular]
	}
	return terms
}

func (e *Extractor) examplePhrases(chunks []*model.Chunk) []string {
	var phrases []string
	for _, c := range chunks {
		sentence, _, _ := strings.Cut(strings.TrimSpace(c.Content), ".")
		sentence = strings.TrimSpace(sentence)
		if len(sentence) >= 20 && len(sentence) <= 160 {
			phrases = append(phrases, sentence+".")
		}
		if len(phrases) == e.maxPhrases {
			break
		}
	}
	return phrases
}

// confidence grows with corpus size and saturates at 0.9; feedback moves it
// from there.
func confidence(chunkCount int) float64 {
	c := 0.3 + float64(chunkCount)/200.0
	if c > 0.9 {
		c = 0.9
	}
	return c
}

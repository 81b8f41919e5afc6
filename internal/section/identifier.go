// Package section converts a page-indexed document into an ordered hierarchy
// of sections, either by mapping the document's outline onto page ranges or,
// when no outline exists, by pattern-matching heading-like lines.
package section

import (
	"strings"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// Identifier builds sections from an extracted document. Output order follows
// document order; downstream chunk ids encode position, so it must be stable.
type Identifier struct {
	matchers []Matcher
}

// New creates an identifier. Empty matchers fall back to DefaultMatchers.
func New(matchers ...Matcher) *Identifier {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Identifier{matchers: matchers}
}

// Identify returns the document's sections in document order.
func (id *Identifier) Identify(doc *model.Document) []model.Section {
	if len(doc.Outline) == 0 {
		return id.fromHeadings(doc.Pages)
	}
	return fromOutline(doc)
}

// fromOutline maps each outline entry onto a page span. The span ends one
// page before the next entry at the same or a shallower level, or at the last
// page of the document. An entry with no resolvable page yields a section
// with empty content, which is a valid degenerate case.
func fromOutline(doc *model.Document) []model.Section {
	sections := make([]model.Section, 0, len(doc.Outline))

	for i, entry := range doc.Outline {
		endPage := doc.PageCount
		for _, next := range doc.Outline[i+1:] {
			if next.Level <= entry.Level && next.Page > 0 {
				endPage = next.Page - 1
				break
			}
		}

		var parents []string
		for _, earlier := range doc.Outline[:i] {
			if earlier.Level < entry.Level {
				parents = append(parents, earlier.Title)
			}
		}

		sections = append(sections, model.Section{
			Title:     entry.Title,
			Content:   pageSpanContent(doc.Pages, entry.Page, endPage),
			PageStart: entry.Page,
			PageEnd:   endPage,
			Level:     entry.Level,
			Parents:   parents,
		})
	}

	return sections
}

func pageSpanContent(pages []model.PageText, start, end int) string {
	if start <= 0 {
		return ""
	}
	var parts []string
	for _, page := range pages {
		if page.PageNumber >= start && page.PageNumber <= end && page.Text != "" {
			parts = append(parts, page.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// fromHeadings scans lines in page order. A matching line starts a new flat
// top-level section and closes the previous one; the section still open at
// end of document is flushed even if empty. Lines before the first detected
// heading are dropped: there is no preamble section.
func (id *Identifier) fromHeadings(pages []model.PageText) []model.Section {
	var sections []model.Section
	var current *model.Section
	var content []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(content, "\n")
		sections = append(sections, *current)
		current = nil
		content = nil
	}

	for _, page := range pages {
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if id.isHeading(line) {
				flush()
				current = &model.Section{
					Title:     line,
					PageStart: page.PageNumber,
					PageEnd:   page.PageNumber,
					Level:     1,
				}
				continue
			}

			if current != nil {
				content = append(content, line)
				current.PageEnd = page.PageNumber
			}
		}
	}
	flush()

	return sections
}

func (id *Identifier) isHeading(line string) bool {
	for _, match := range id.matchers {
		if match(line) {
			return true
		}
	}
	return false
}

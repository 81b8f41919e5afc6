package extract

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// Markdown extracts markdown and plain-text documents. Pages are delimited by
// form feeds (a document without them is a single page), and the outline is
// recovered from the heading tree.
type Markdown struct {
	parser goldmark.Markdown
	opts   Options
}

// NewMarkdown creates a markdown extractor.
func NewMarkdown(opts Options) *Markdown {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Markdown{parser: md, opts: opts.withDefaults()}
}

func (m *Markdown) Extract(_ context.Context, path string) (*model.Document, error) {
	if err := checkSource(path, m.opts.MaxFileSizeMB); err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	pages := splitPages(string(source))
	bounds := pageBounds(pages)

	doc := &model.Document{
		Path:      path,
		PageCount: len(pages),
		Pages:     make([]model.PageText, len(pages)),
	}
	for i, pageText := range pages {
		doc.Pages[i] = model.PageText{
			PageNumber: i + 1,
			Text:       pageText,
			Tables:     parseTables(pageText, i+1),
		}
	}

	outline, err := m.extractOutline(source, bounds)
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", path, err)
	}
	doc.Outline = outline

	for _, entry := range outline {
		if entry.Level == 1 {
			doc.Metadata.Title = entry.Title
			break
		}
	}

	return doc, nil
}

// extractOutline walks the heading tree and resolves each heading to the page
// containing its byte offset. A heading with no source lines keeps page 0,
// the degenerate no-destination case.
func (m *Markdown) extractOutline(source []byte, bounds []int) ([]model.OutlineEntry, error) {
	reader := text.NewReader(source)
	root := m.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(root, source,
		toc.MinDepth(1),
		toc.MaxDepth(6),
		toc.Compact(true),
	)
	if err != nil {
		return nil, err
	}

	var outline []model.OutlineEntry
	collectEntries(root, source, tree.Items, 1, bounds, &outline)
	return outline, nil
}

func collectEntries(root ast.Node, source []byte, items toc.Items, level int, bounds []int, out *[]model.OutlineEntry) {
	for _, item := range items {
		entry := model.OutlineEntry{
			Title: string(item.Title),
			Level: level,
		}
		if heading := findHeadingByID(root, string(item.ID)); heading != nil && heading.Lines().Len() > 0 {
			entry.Page = pageForOffset(heading.Lines().At(0).Start, bounds)
		}
		*out = append(*out, entry)

		if len(item.Items) > 0 {
			collectEntries(root, source, item.Items, level+1, bounds, out)
		}
	}
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// pageBounds returns the starting byte offset of each page, accounting for
// the one-byte form-feed separator between pages.
func pageBounds(pages []string) []int {
	bounds := make([]int, len(pages))
	off := 0
	for i, p := range pages {
		bounds[i] = off
		off += len(p) + 1
	}
	return bounds
}

func pageForOffset(off int, bounds []int) int {
	i := sort.Search(len(bounds), func(i int) bool { return bounds[i] > off })
	return i // bounds[i-1] <= off < bounds[i]; pages are 1-based
}

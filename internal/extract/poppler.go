package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// CommandRunner executes an external command and returns its stdout. Tests
// inject fakes; production uses the real binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Poppler extracts PDF documents by shelling out to pdftotext, which emits
// one form feed per page boundary. Document metadata comes from pdfinfo,
// best-effort: a missing or failing pdfinfo leaves metadata empty rather than
// failing the extraction. PDFs expose no outline through this path, so the
// section identifier falls back to heading patterns.
type Poppler struct {
	runner CommandRunner
	opts   Options
}

// NewPoppler creates a PDF extractor. A nil runner uses the real binaries.
func NewPoppler(runner CommandRunner, opts Options) *Poppler {
	if runner == nil {
		runner = execRunner{}
	}
	return &Poppler{runner: runner, opts: opts.withDefaults()}
}

func (p *Poppler) Extract(ctx context.Context, path string) (*model.Document, error) {
	if err := checkSource(path, p.opts.MaxFileSizeMB); err != nil {
		return nil, err
	}

	out, err := p.runner.Run(ctx, p.opts.PdftotextBin, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w", path, err)
	}

	pages := splitPages(string(out))
	doc := &model.Document{
		Path:      path,
		PageCount: len(pages),
		Metadata:  p.metadata(ctx, path),
		Pages:     make([]model.PageText, len(pages)),
	}
	for i, pageText := range pages {
		doc.Pages[i] = model.PageText{
			PageNumber: i + 1,
			Text:       pageText,
			Tables:     parseTables(pageText, i+1),
		}
	}

	return doc, nil
}

func (p *Poppler) metadata(ctx context.Context, path string) model.DocMetadata {
	out, err := p.runner.Run(ctx, p.opts.PdfinfoBin, path)
	if err != nil {
		return model.DocMetadata{}
	}

	var meta model.DocMetadata
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Title":
			meta.Title = value
		case "Author":
			meta.Author = value
		case "Subject":
			meta.Subject = value
		case "Creator":
			meta.Creator = value
		}
	}
	return meta
}

// Package extract pulls page-level text, tables, and an optional outline out
// of source documents, normalizing them into a page-indexed intermediate form.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmcastell/lorekeeper/internal/model"
)

var (
	ErrSourceNotFound    = errors.New("extract: source document not found")
	ErrFileTooLarge      = errors.New("extract: source document exceeds size limit")
	ErrUnsupportedFormat = errors.New("extract: unsupported document format")
)

// Extractor converts a source document into its page-indexed form. Extraction
// is all-or-nothing: a corrupt or unreadable document fails the whole call,
// because partial documents produce misleading chunk sets downstream.
type Extractor interface {
	Extract(ctx context.Context, path string) (*model.Document, error)
}

// Options bounds extraction and names the external tools used for PDFs.
type Options struct {
	MaxFileSizeMB int
	PdftotextBin  string
	PdfinfoBin    string
}

func (o Options) withDefaults() Options {
	if o.MaxFileSizeMB <= 0 {
		o.MaxFileSizeMB = 100
	}
	if o.PdftotextBin == "" {
		o.PdftotextBin = "pdftotext"
	}
	if o.PdfinfoBin == "" {
		o.PdfinfoBin = "pdfinfo"
	}
	return o
}

// ForPath selects an extractor by file extension.
func ForPath(path string, opts Options) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return NewMarkdown(opts), nil
	case ".pdf":
		return NewPoppler(nil, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// checkSource validates the precondition contract: the file must exist and
// fit under the configured size ceiling.
func checkSource(path string, maxSizeMB int) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return err
	}
	if info.Size() > int64(maxSizeMB)*1024*1024 {
		return fmt.Errorf("%w: %s is %dMB, limit %dMB",
			ErrFileTooLarge, path, info.Size()/(1024*1024), maxSizeMB)
	}
	return nil
}

// splitPages cuts extracted text into pages at form-feed boundaries. Input
// without form feeds is a single page. A trailing form feed (as pdftotext
// emits) does not produce an empty final page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

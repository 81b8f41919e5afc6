package extract

import (
	"fmt"
	"strings"

	"github.com/jmcastell/lorekeeper/internal/model"
)

// parseTables recovers pipe-delimited tables from a page's text. A table is a
// run of two or more consecutive lines containing cell separators; the first
// row supplies headers. Rows with no non-empty cell are dropped, and a table
// keeps its place only with at least one surviving data row.
func parseTables(text string, pageNumber int) []model.Table {
	var tables []model.Table
	lines := strings.Split(text, "\n")

	var block []string
	flush := func() {
		if len(block) >= 2 {
			if t, ok := buildTable(block, len(tables)+1, pageNumber); ok {
				tables = append(tables, t)
			}
		}
		block = nil
	}

	for _, line := range lines {
		if isTableRow(line) {
			block = append(block, line)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Count(trimmed, "|") >= 2
}

// isSeparatorRow reports whether every cell is a markdown alignment rule
// such as --- or :---:.
func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		t := strings.Trim(c, ": ")
		if t == "" || strings.Trim(t, "-") != "" {
			return false
		}
	}
	return true
}

func buildTable(block []string, index, pageNumber int) (model.Table, bool) {
	headers := splitCells(block[0])
	if len(headers) < 2 {
		return model.Table{}, false
	}
	for i, h := range headers {
		if h == "" {
			headers[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	var rows [][]string
	for _, line := range block[1:] {
		cells := splitCells(line)
		if isSeparatorRow(cells) {
			continue
		}
		if !hasContent(cells) {
			continue
		}
		rows = append(rows, normalizeRow(cells, len(headers)))
	}
	if len(rows) == 0 {
		return model.Table{}, false
	}

	return model.Table{
		Title:      fmt.Sprintf("Table %d (Page %d)", index, pageNumber),
		Headers:    headers,
		Rows:       rows,
		PageNumber: pageNumber,
	}, true
}

func splitCells(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func hasContent(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return true
		}
	}
	return false
}

// normalizeRow pads or truncates a row to the header width so every row has
// equal length.
func normalizeRow(cells []string, width int) []string {
	row := make([]string, width)
	copy(row, cells)
	return row
}

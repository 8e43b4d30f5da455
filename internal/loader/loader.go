// Package loader reads tabular files and in-memory structures into a
// table.Table.
//
// Loaders only produce tables; they know nothing about constraints. The
// fileframe package pairs a loader with a constraint registry and validates
// every freshly loaded table.
//
// Supported sources:
//
//   - CSV (any single-rune delimiter), with BOM skipping and UTF-8 repair
//   - Fixed-width text, described by byte ranges
//   - Excel workbooks (.xlsx), one sheet at a time
//   - map[string][]any and pre-built columns
//
// Text sources share one inference step that turns raw cells into typed
// values (see infer.go).
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// ContextCheckInterval is how often (in rows) readers check for cancellation.
var ContextCheckInterval = 100

// Source produces a complete table in one call.
type Source interface {
	Load(ctx context.Context) (*table.Table, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*table.Table, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) (*table.Table, error) { return f(ctx) }

// Format names a supported file format.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatFixedWidth Format = "fwf"
	FormatExcel      Format = "xlsx"
)

// DetectFormat guesses a format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".fwf", ".dat":
		return FormatFixedWidth, nil
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// checkContext returns ctx.Err() every ContextCheckInterval rows.
func checkContext(ctx context.Context, row int) error {
	if ContextCheckInterval > 0 && row%ContextCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load cancelled: %w", err)
		}
	}
	return nil
}

// columnNames returns header names with blanks and repeats made unique,
// e.g. ["A", "", "A"] becomes ["A", "Unnamed: 1", "A.1"].
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

// buildTable turns rows of raw cells into a typed table.
// Short rows are padded with nulls; extra cells are an error.
func buildTable(names []string, rows [][]string, opts inferOptions) (*table.Table, error) {
	raw := make([][]string, len(names))
	for i := range raw {
		raw[i] = make([]string, len(rows))
	}
	present := make([][]bool, len(names))
	for i := range present {
		present[i] = make([]bool, len(rows))
	}

	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(names))
		}
		for c, cell := range row {
			raw[c][r] = cell
			present[c][r] = true
		}
	}

	cols := make([]table.Column, len(names))
	for c, name := range names {
		cols[c] = table.Column{Name: name, Values: inferColumn(raw[c], present[c], opts)}
	}
	return table.New(cols...)
}

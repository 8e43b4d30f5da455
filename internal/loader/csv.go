package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// CSV returns a Source reading the delimited file at path.
func CSV(path string, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		return ReadCSV(ctx, f, opts...)
	})
}

// CSVReader returns a Source reading delimited text from r. The reader is
// consumed by the first Load.
func CSVReader(r io.Reader, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		return ReadCSV(ctx, r, opts...)
	})
}

// ReadCSV parses delimited text into a table.
func ReadCSV(ctx context.Context, r io.Reader, opts ...Option) (*table.Table, error) {
	cfg := newSettings(opts)

	cr := csv.NewReader(Normalize(r))
	cr.Comma = cfg.delimiter
	cr.Comment = cfg.comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for row := 0; ; row++ {
		if err := checkContext(ctx, row); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
	return assemble(records, nil, cfg)
}

// assemble applies header handling shared by the text loaders and builds the
// table. Non-empty fallback names (fixed-width field specs) win over the header.
func assemble(records [][]string, fallback []string, cfg *settings) (*table.Table, error) {
	if cfg.skipRows > 0 {
		records = records[min(cfg.skipRows, len(records)):]
	}
	rows := records[:0:0]
	for _, rec := range records {
		if !isEmptyRow(rec) {
			rows = append(rows, rec)
		}
	}

	var header []string
	if !cfg.noHeader && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}

	width := len(header)
	if cfg.noHeader {
		width = len(fallback)
		for _, r := range rows {
			width = max(width, len(r))
		}
	}

	names := make([]string, width)
	for i := range names {
		switch {
		case i < len(fallback) && fallback[i] != "":
			names[i] = fallback[i]
		case i < len(header):
			names[i] = header[i]
		case cfg.noHeader:
			names[i] = strconv.Itoa(i)
		}
	}
	if len(cfg.names) > 0 {
		if len(cfg.names) < width {
			return nil, fmt.Errorf("%d names given for %d columns", len(cfg.names), width)
		}
		names = cfg.names
	}
	return buildTable(columnNames(names), rows, cfg.infer)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// maxLineSize bounds a single fixed-width line.
const maxLineSize = 1 << 20

// FieldSpec is one fixed-width column: bytes [Start, End) of each line.
// An empty Name takes the header text in that range.
type FieldSpec struct {
	Name  string
	Start int
	End   int
}

// FixedWidth returns a Source reading the fixed-width file at path.
func FixedWidth(path string, specs []FieldSpec, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open fixed-width file: %w", err)
		}
		defer f.Close()
		return ReadFixedWidth(ctx, f, specs, opts...)
	})
}

// ReadFixedWidth slices every line of r by specs and builds a table.
func ReadFixedWidth(ctx context.Context, r io.Reader, specs []FieldSpec, opts ...Option) (*table.Table, error) {
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	cfg := newSettings(opts)

	sc := bufio.NewScanner(Normalize(r))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records [][]string
	for row := 0; sc.Scan(); row++ {
		if err := checkContext(ctx, row); err != nil {
			return nil, err
		}
		line := strings.TrimRight(sc.Text(), "\r")
		rec := make([]string, len(specs))
		for i, spec := range specs {
			rec[i] = slice(line, spec.Start, spec.End)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fixed-width file: %w", err)
	}

	fallback := make([]string, len(specs))
	for i, spec := range specs {
		fallback[i] = spec.Name
	}
	return assemble(records, fallback, cfg)
}

func validateSpecs(specs []FieldSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("fixed-width: no field specs")
	}
	for i, s := range specs {
		if s.Start < 0 || s.End <= s.Start {
			return fmt.Errorf("fixed-width: field %d has invalid range [%d, %d)", i, s.Start, s.End)
		}
	}
	return nil
}

// slice returns line[start:end] clamped to the line length.
func slice(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	return line[start:min(end, len(line))]
}

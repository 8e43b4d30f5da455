package loader

import (
	"context"
	"fmt"
	"slices"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// Map returns a Source building a table from column name to values.
// Values are taken verbatim; no text inference is applied.
func Map(data map[string][]any, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		return FromMap(data, opts...)
	})
}

// FromMap builds a table from data. Columns follow WithColumnOrder when
// given, otherwise sorted key order.
func FromMap(data map[string][]any, opts ...Option) (*table.Table, error) {
	cfg := newSettings(opts)

	order := cfg.columnOrder
	if len(order) == 0 {
		order = make([]string, 0, len(data))
		for name := range data {
			order = append(order, name)
		}
		slices.Sort(order)
	} else if len(order) != len(data) {
		return nil, fmt.Errorf("column order names %d columns, data has %d", len(order), len(data))
	}

	cols := make([]table.Column, 0, len(order))
	for _, name := range order {
		values, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", table.ErrColumnNotFound, name)
		}
		col, err := table.NewColumn(name, values...)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}

// Columns returns a Source producing a table from pre-built columns.
func Columns(cols ...table.Column) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		return table.New(cols...)
	})
}

package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// Excel returns a Source reading one sheet of the workbook at path.
// The first sheet is used unless WithSheet or WithSheetIndex is given.
func Excel(path string, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return readSheet(ctx, f, newSettings(opts))
	})
}

// ExcelReader returns a Source reading a workbook from r.
func ExcelReader(r io.Reader, opts ...Option) Source {
	return SourceFunc(func(ctx context.Context) (*table.Table, error) {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return readSheet(ctx, f, newSettings(opts))
	})
}

func readSheet(ctx context.Context, f *excelize.File, cfg *settings) (*table.Table, error) {
	sheet, err := pickSheet(f, cfg)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var records [][]string
	for row := 0; rows.Next(); row++ {
		if err := checkContext(ctx, row); err != nil {
			return nil, err
		}
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q row %d: %w", sheet, row+1, err)
		}
		records = append(records, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return assemble(records, nil, cfg)
}

func pickSheet(f *excelize.File, cfg *settings) (string, error) {
	if cfg.sheet != "" {
		if idx, err := f.GetSheetIndex(cfg.sheet); err != nil || idx < 0 {
			return "", fmt.Errorf("sheet %q not found", cfg.sheet)
		}
		return cfg.sheet, nil
	}
	sheets := f.GetSheetList()
	if cfg.sheetIndex < 0 || cfg.sheetIndex >= len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d)", cfg.sheetIndex, len(sheets))
	}
	return sheets[cfg.sheetIndex], nil
}

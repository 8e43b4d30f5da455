package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/fileframe"
	"github.com/JonMunkholm/fileframe/internal/loader"
	"github.com/JonMunkholm/fileframe/internal/rules"
)

// addInputFlags registers the flags every file-reading command shares.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("rules", "", "YAML rule file")
	f.String("delimiter", "", `CSV delimiter, "tab" for tabs (default from LOAD_DELIMITER)`)
	f.String("sheet", "", "Excel sheet name (default: first sheet)")
	f.StringSlice("fields", nil, "fixed-width fields as name:start:end, e.g. Id:0:3,Name:3:20")
	f.Bool("no-header", false, "first line is data, not a header")
	f.Bool("no-infer", false, "keep every cell as text")
}

// openFrame registers the rule file on a fresh frame and loads path into
// it. The frame is returned even when the load fails validation, so
// callers can still report on the data that was read.
func (a *app) openFrame(ctx context.Context, path string) (*fileframe.FileFrame, error) {
	ff := fileframe.NewEmpty()

	if rulesPath := a.v.GetString("rules"); rulesPath != "" {
		rs, err := rules.LoadFile(rulesPath)
		if err != nil {
			return nil, err
		}
		if err := rs.Apply(ff); err != nil {
			return nil, err
		}
	}

	src, err := a.source(path)
	if err != nil {
		return nil, err
	}

	a.log().Debug("loading file",
		"path", path,
		"constraints", len(ff.Constraints()),
	)
	return ff, ff.Load(ctx, src)
}

// source picks a loader for path by extension and applies configured
// defaults and flag overrides.
func (a *app) source(path string) (loader.Source, error) {
	format, err := loader.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	opts := []loader.Option{
		loader.WithNullValues(a.cfg.Load.NullMarkers()...),
		loader.WithTypeInference(a.cfg.Load.InferTypes && !a.v.GetBool("no-infer")),
	}
	if a.v.GetBool("no-header") {
		opts = append(opts, loader.WithoutHeader())
	}

	switch format {
	case loader.FormatCSV:
		delim, err := a.delimiter(path)
		if err != nil {
			return nil, err
		}
		return loader.CSV(path, append(opts, loader.WithDelimiter(delim))...), nil
	case loader.FormatFixedWidth:
		specs, err := parseFields(a.v.GetStringSlice("fields"))
		if err != nil {
			return nil, err
		}
		return loader.FixedWidth(path, specs, opts...), nil
	default:
		if sheet := a.v.GetString("sheet"); sheet != "" {
			opts = append(opts, loader.WithSheet(sheet))
		}
		return loader.Excel(path, opts...), nil
	}
}

func (a *app) delimiter(path string) (rune, error) {
	lc := a.cfg.Load
	switch {
	case a.v.GetString("delimiter") != "":
		lc.Delimiter = a.v.GetString("delimiter")
	case strings.EqualFold(filepath.Ext(path), ".tsv"):
		return '\t', nil
	}
	r := lc.DelimiterRune()
	if r == 0 {
		return 0, fmt.Errorf("invalid delimiter %q", lc.Delimiter)
	}
	return r, nil
}

// parseFields parses name:start:end triples. The name may be empty to take
// it from the header line.
func parseFields(raw []string) ([]loader.FieldSpec, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("fixed-width input needs --fields")
	}
	specs := make([]loader.FieldSpec, 0, len(raw))
	for _, f := range raw {
		parts := strings.Split(f, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("field %q: want name:start:end", f)
		}
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid start: %w", f, err)
		}
		end, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid end: %w", f, err)
		}
		specs = append(specs, loader.FieldSpec{Name: parts[0], Start: start, End: end})
	}
	return specs, nil
}

// tableName returns --table, or the file's base name without extension.
func tableName(flag, path string) string {
	if flag != "" {
		return flag
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}


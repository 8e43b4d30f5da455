package loader

import "slices"

// settings collects the options of every loader. Each loader reads the
// fields it understands and ignores the rest.
type settings struct {
	infer inferOptions

	delimiter rune
	comment   rune
	noHeader  bool
	names     []string
	skipRows  int

	sheet      string
	sheetIndex int

	columnOrder []string
}

// Option configures a loader.
type Option func(*settings)

func newSettings(opts []Option) *settings {
	s := &settings{
		infer:     defaultInferOptions(),
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithDelimiter sets the CSV field separator.
func WithDelimiter(r rune) Option {
	return func(s *settings) { s.delimiter = r }
}

// WithComment makes CSV lines starting with r comments.
func WithComment(r rune) Option {
	return func(s *settings) { s.comment = r }
}

// WithoutHeader treats the first row as data. Columns are named by
// position ("0", "1", ...) unless WithNames is given.
func WithoutHeader() Option {
	return func(s *settings) { s.noHeader = true }
}

// WithNames overrides the column names.
func WithNames(names ...string) Option {
	return func(s *settings) { s.names = slices.Clone(names) }
}

// WithSkipRows drops the first n lines before the header.
func WithSkipRows(n int) Option {
	return func(s *settings) { s.skipRows = n }
}

// WithNullValues replaces the set of cell texts read as null.
func WithNullValues(markers ...string) Option {
	return func(s *settings) { s.infer.nullMarkers = markerSet(markers) }
}

// WithTypeInference turns typed columns on or off. With inference off every
// non-null cell is text.
func WithTypeInference(on bool) Option {
	return func(s *settings) { s.infer.inferTypes = on }
}

// WithBoolParsing lets columns of true/false style words become Bool.
func WithBoolParsing(on bool) Option {
	return func(s *settings) { s.infer.parseBools = on }
}

// WithLooseNumbers accepts currency symbols, thousands separators and
// accounting negatives when inferring numbers.
func WithLooseNumbers(on bool) Option {
	return func(s *settings) { s.infer.looseNumbers = on }
}

// WithRawCells keeps cell text exactly as read instead of running CleanCell.
func WithRawCells() Option {
	return func(s *settings) { s.infer.clean = false }
}

// WithSheet selects an Excel sheet by name.
func WithSheet(name string) Option {
	return func(s *settings) { s.sheet = name }
}

// WithSheetIndex selects an Excel sheet by zero-based position.
func WithSheetIndex(i int) Option {
	return func(s *settings) { s.sheetIndex = i }
}

// WithColumnOrder fixes the column order of a map source.
func WithColumnOrder(names ...string) Option {
	return func(s *settings) { s.columnOrder = slices.Clone(names) }
}

package loader

// infer.go turns raw text cells into typed values.
//
// A column is typed as a whole: it becomes Int only when every non-null cell
// parses as an integer, Float when every cell parses as a number, Bool only
// when bool parsing is enabled and every cell is a boolean word, and Text
// otherwise. Integers written with leading zeros ("001") keep the column
// textual so identifiers are not silently rewritten.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// DefaultNullMarkers are the cell texts read as null.
var DefaultNullMarkers = []string{"", "NA", "N/A", "NULL", "null", "NaN", "nan", "None", "#N/A"}

// numericRegex validates a plain number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// inferOptions controls how raw cells become values. Shared by text loaders.
type inferOptions struct {
	nullMarkers  map[string]bool
	inferTypes   bool
	parseBools   bool
	looseNumbers bool
	clean        bool
}

func defaultInferOptions() inferOptions {
	return inferOptions{
		nullMarkers: markerSet(DefaultNullMarkers),
		inferTypes:  true,
		clean:       true,
	}
}

func markerSet(markers []string) map[string]bool {
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m] = true
	}
	return set
}

// inferColumn converts one column of raw cells. present[i] is false for
// cells missing from a short row; those are always null.
func inferColumn(raw []string, present []bool, opts inferOptions) []table.Value {
	cells := make([]string, len(raw))
	null := make([]bool, len(raw))
	for i, s := range raw {
		if opts.clean {
			s = CleanCell(s)
		}
		cells[i] = s
		null[i] = !present[i] || opts.nullMarkers[s]
	}

	out := make([]table.Value, len(raw))
	if opts.inferTypes {
		if convert := pickConverter(cells, null, opts); convert != nil {
			for i, s := range cells {
				if !null[i] {
					out[i] = convert(s)
				}
			}
			return out
		}
	}
	for i, s := range cells {
		if !null[i] {
			out[i] = table.Text(s)
		}
	}
	return out
}

// pickConverter returns the narrowest converter that accepts every
// non-null cell, or nil for text.
func pickConverter(cells []string, null []bool, opts inferOptions) func(string) table.Value {
	isInt, isNum, isBool, seen := true, true, opts.parseBools, false
	for i, s := range cells {
		if null[i] {
			continue
		}
		seen = true
		if isInt && !looksInt(s, opts.looseNumbers) {
			isInt = false
		}
		if isNum {
			if n, ok := ParseNumber(s, opts.looseNumbers); !ok || leadingZero(n) {
				isInt, isNum = false, false
			}
		}
		if isBool {
			if _, ok := ParseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isNum && !isBool {
			return nil
		}
	}
	if !seen {
		return nil
	}

	switch {
	case isInt:
		return func(s string) table.Value {
			n, _ := ParseNumber(s, opts.looseNumbers)
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				f, _ := strconv.ParseFloat(n, 64)
				return table.Float(f)
			}
			return table.Int(i)
		}
	case isNum:
		return func(s string) table.Value {
			n, _ := ParseNumber(s, opts.looseNumbers)
			f, _ := strconv.ParseFloat(n, 64)
			return table.Float(f)
		}
	case isBool:
		return func(s string) table.Value {
			b, _ := ParseBool(s)
			return table.Bool(b)
		}
	}
	return nil
}

func looksInt(s string, loose bool) bool {
	n, ok := ParseNumber(s, loose)
	return ok && !strings.ContainsAny(n, ".eE")
}

// leadingZero reports whether the integer part of n is zero-padded, as in "001".
func leadingZero(n string) bool {
	digits := strings.TrimLeft(n, "+-")
	return len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9'
}

// ParseNumber validates s as a number and returns its canonical text.
// With loose set it also accepts currency symbols, thousands separators and
// accounting negatives such as "(1,234.50)".
func ParseNumber(s string, loose bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if loose {
		negative := false
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			negative = true
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, "€", "") // Euro
		s = strings.ReplaceAll(s, "£", "") // Pound
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if negative {
			s = "-" + s
		}
	}

	if !numericRegex.MatchString(s) {
		return "", false
	}
	return s, true
}

// ParseBool accepts true/false, yes/no, t/f and y/n in any case.
// Digits are not booleans here; "1" and "0" stay numeric.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	return s
}

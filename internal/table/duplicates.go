package table

import (
	"strconv"
	"strings"
)

// Keep selects which members of a duplicate group are left unmarked.
type Keep int

const (
	// KeepFirst marks every occurrence except the first.
	KeepFirst Keep = iota
	// KeepLast marks every occurrence except the last.
	KeepLast
	// KeepNone marks every member of a duplicate group.
	KeepNone
)

// String returns the keep policy name.
func (k Keep) String() string {
	switch k {
	case KeepFirst:
		return "first"
	case KeepLast:
		return "last"
	case KeepNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseKeep parses "first", "last" or "none" (also "false" and "all" for none).
func ParseKeep(s string) (Keep, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "":
		return KeepFirst, true
	case "last":
		return KeepLast, true
	case "none", "false", "all":
		return KeepNone, true
	default:
		return KeepFirst, false
	}
}

// DuplicateOptions tunes duplicate detection.
type DuplicateOptions struct {
	Keep Keep

	// SkipNulls excludes rows with a null in any key column.
	// Such rows are never marked and never collide with each other.
	SkipNulls bool
}

// Duplicated marks rows whose values across cols repeat an earlier (or later,
// depending on keep) row. Nulls compare equal to each other.
func (t *Table) Duplicated(cols []string, keep Keep) ([]bool, error) {
	return t.DuplicatedWith(cols, DuplicateOptions{Keep: keep})
}

// DuplicatedWith is Duplicated with explicit options.
func (t *Table) DuplicatedWith(cols []string, opts DuplicateOptions) ([]bool, error) {
	key, err := t.Columns(cols)
	if err != nil {
		return nil, err
	}

	marks := make([]bool, t.rows)
	groups := make(map[string][]int, t.rows)
	order := make([]string, 0, t.rows)

	var b strings.Builder
	for r := 0; r < t.rows; r++ {
		b.Reset()
		skip := false
		for _, c := range key {
			v := c.Values[r]
			if opts.SkipNulls && v.IsNull() {
				skip = true
				break
			}
			// Components are length-prefixed; cell text may contain any byte.
			k := v.Key()
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		if skip {
			continue
		}
		k := b.String()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	for _, k := range order {
		rows := groups[k]
		if len(rows) < 2 {
			continue
		}
		switch opts.Keep {
		case KeepFirst:
			rows = rows[1:]
		case KeepLast:
			rows = rows[:len(rows)-1]
		}
		for _, r := range rows {
			marks[r] = true
		}
	}
	return marks, nil
}

// FirstDuplicate returns the index of the first row that repeats an earlier
// row across cols, or -1 when every key is distinct.
func (t *Table) FirstDuplicate(cols []string, skipNulls bool) (int, error) {
	marks, err := t.DuplicatedWith(cols, DuplicateOptions{Keep: KeepFirst, SkipNulls: skipNulls})
	if err != nil {
		return -1, err
	}
	for r, dup := range marks {
		if dup {
			return r, nil
		}
	}
	return -1, nil
}

// Duplicates returns the rows marked by Duplicated as a new table.
func (t *Table) Duplicates(cols []string, keep Keep) (*Table, error) {
	marks, err := t.Duplicated(cols, keep)
	if err != nil {
		return nil, err
	}
	var rows []int
	for r, dup := range marks {
		if dup {
			rows = append(rows, r)
		}
	}
	return t.SelectRows(rows), nil
}

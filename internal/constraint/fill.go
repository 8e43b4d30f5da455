package constraint

import "github.com/JonMunkholm/fileframe/internal/table"

// FillMethod propagates neighbouring values into nulls before the default
// value fills whatever remains.
type FillMethod int

const (
	FillValueOnly FillMethod = iota
	ForwardFill
	BackFill
)

// String returns the method name.
func (m FillMethod) String() string {
	switch m {
	case ForwardFill:
		return "ffill"
	case BackFill:
		return "bfill"
	default:
		return "value"
	}
}

// ParseFillMethod accepts "ffill"/"pad"/"forward", "bfill"/"backfill"/"back"
// and "" or "value".
func ParseFillMethod(s string) (FillMethod, bool) {
	switch s {
	case "", "value":
		return FillValueOnly, true
	case "ffill", "pad", "forward":
		return ForwardFill, true
	case "bfill", "backfill", "back":
		return BackFill, true
	default:
		return FillValueOnly, false
	}
}

type fillConfig struct {
	method FillMethod
	limit  int // 0 means unlimited
}

// FillOption tunes how DefaultValue fills nulls.
type FillOption func(*fillConfig)

// WithFillMethod propagates the previous (ForwardFill) or next (BackFill)
// non-null value into nulls first.
func WithFillMethod(m FillMethod) FillOption {
	return func(c *fillConfig) { c.method = m }
}

// WithFillLimit caps how many nulls are filled. With a fill method the cap
// applies to each run of consecutive nulls; otherwise to the whole column.
// Values <= 0 mean no limit.
func WithFillLimit(n int) FillOption {
	return func(c *fillConfig) { c.limit = n }
}

// fillNulls heals vals in place.
func fillNulls(vals []table.Value, fill table.Value, cfg fillConfig) {
	switch cfg.method {
	case ForwardFill:
		propagate(vals, cfg.limit, 0, len(vals), 1)
	case BackFill:
		propagate(vals, cfg.limit, len(vals)-1, -1, -1)
	default:
		filled := 0
		for i, v := range vals {
			if !v.IsNull() {
				continue
			}
			if cfg.limit > 0 && filled >= cfg.limit {
				return
			}
			vals[i] = fill
			filled++
		}
		return
	}

	// Nulls with no neighbour to propagate from take the default value.
	// Runs cut short by the limit stay null.
	if cfg.limit > 0 {
		return
	}
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = fill
		}
	}
}

func propagate(vals []table.Value, limit, start, end, step int) {
	var last table.Value
	run := 0
	for i := start; i != end; i += step {
		if !vals[i].IsNull() {
			last = vals[i]
			run = 0
			continue
		}
		if last.IsNull() {
			continue
		}
		run++
		if limit > 0 && run > limit {
			continue
		}
		vals[i] = last
	}
}

package stock

import (
	"strings"
)

// Selector is the caller's manual serial selection for one line.
// The raw input may be a list or one string separated by commas, semicolons or whitespace.
type Selector []string

// ParseSelector splits a single-string selection.
func ParseSelector(raw string) Selector {
	return Selector(strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	}))
}

// Normalize trims entries and drops blanks.
func (s Selector) Normalize() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Usable returns the serials to claim when the selection names exactly qty distinct units.
// ok is false for an empty or malformed selection, which means FIFO assignment.
func (s Selector) Usable(qty int) (serials []string, ok bool) {
	serials = s.Normalize()
	if len(serials) == 0 || len(serials) != qty {
		return nil, false
	}
	seen := make(map[string]struct{}, len(serials))
	for _, v := range serials {
		key := strings.ToUpper(v)
		if _, dup := seen[key]; dup {
			return nil, false
		}
		seen[key] = struct{}{}
	}
	return serials, true
}

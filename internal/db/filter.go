package db

import (
	"strconv"
	"strings"
)

// NumericRange bounds a NUMERIC field. Min is inclusive; Max is exclusive
// unless InclusiveMax is set.
type NumericRange struct {
	Min          float64
	Max          float64
	InclusiveMax bool
}

// Filter is a conjunction of OR-groups rendered as an FT.SEARCH pre-filter.
// The zero value matches everything.
type Filter struct {
	groups [][]string
}

// NewFilter starts an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// AnyTag requires field to carry one of values. No values adds nothing.
func (f *Filter) AnyTag(field string, values ...string) *Filter {
	if len(values) == 0 {
		return f
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	f.groups = append(f.groups, []string{"@" + field + ":{" + strings.Join(escaped, "|") + "}"})
	return f
}

// AnyRange requires field to fall into one of ranges. No ranges adds nothing.
func (f *Filter) AnyRange(field string, ranges ...NumericRange) *Filter {
	if len(ranges) == 0 {
		return f
	}
	clauses := make([]string, len(ranges))
	for i, r := range ranges {
		hi := "(" + formatNumber(r.Max)
		if r.InclusiveMax {
			hi = formatNumber(r.Max)
		}
		clauses[i] = "@" + field + ":[" + formatNumber(r.Min) + " " + hi + "]"
	}
	f.groups = append(f.groups, clauses)
	return f
}

// IsEmpty reports whether the filter has no clauses.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.groups) == 0
}

// String renders the filter in FT query syntax. Empty filters render as "*".
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "*"
	}
	parts := make([]string, len(f.groups))
	for i, g := range f.groups {
		if len(g) == 1 {
			parts[i] = g[0]
			continue
		}
		parts[i] = "(" + strings.Join(g, " | ") + ")"
	}
	return strings.Join(parts, " ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

package realtime

import (
	"errors"
	"strings"
)

var ErrBadFilter = errors.New(`filter must look like "column=eq.value"`)

// Tables a client may subscribe to.
var Tables = map[string]bool{
	"invitations":       true,
	"chats":             true,
	"messages":          true,
	"projects":          true,
	"project_responses": true,
	"profiles":          true,
}

// Filter is an equality predicate on one record column. The zero Filter matches everything.
type Filter struct {
	Column string
	Value  string
}

func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return Filter{}, ErrBadFilter
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok || val == "" {
		return Filter{}, ErrBadFilter
	}
	return Filter{Column: col, Value: val}, nil
}

func (f Filter) Match(record map[string]string) bool {
	if f.Column == "" {
		return true
	}
	v, ok := record[f.Column]
	return ok && v == f.Value
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

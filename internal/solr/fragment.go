package solr

import (
	"fmt"
	"net/url"
)

// Fragment is an immutable slice of a backend query: parameters, the
// doc-values selectivity hint, and diagnostic notes accumulated while
// building. Builders return fragments; the orchestrator merges them.
// Mutating methods copy, so a fragment handed out never changes.
type Fragment struct {
	params    url.Values
	selective bool
	notes     []string
}

// NewFragment creates an empty fragment.
func NewFragment() Fragment {
	return Fragment{params: url.Values{}}
}

// With returns a copy with values appended under key.
func (f Fragment) With(key string, values ...string) Fragment {
	c := f.clone()
	c.params[key] = append(c.params[key], values...)
	return c
}

// WithSelective returns a copy with the doc-values hint set.
func (f Fragment) WithSelective() Fragment {
	c := f.clone()
	c.selective = true
	return c
}

// WithNote returns a copy with a diagnostic note appended.
func (f Fragment) WithNote(format string, args ...any) Fragment {
	c := f.clone()
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
	return c
}

// Merge combines fragments left to right. Parameter values append, the
// selectivity hint ORs, notes concatenate.
func Merge(frags ...Fragment) Fragment {
	out := NewFragment()
	for _, f := range frags {
		for k, vs := range f.params {
			out.params[k] = append(out.params[k], vs...)
		}
		out.selective = out.selective || f.selective
		out.notes = append(out.notes, f.notes...)
	}
	return out
}

// Params returns a copy of the parameters.
func (f Fragment) Params() url.Values {
	out := url.Values{}
	for k, vs := range f.params {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Get returns the first value of key, empty when unset.
func (f Fragment) Get(key string) string { return f.params.Get(key) }

// Values returns all values of key.
func (f Fragment) Values(key string) []string { return f.params[key] }

// Selective reports whether any builder marked the request selective.
func (f Fragment) Selective() bool { return f.selective }

// Notes returns the accumulated diagnostic notes.
func (f Fragment) Notes() []string { return f.notes }

func (f Fragment) clone() Fragment {
	c := Fragment{
		params:    url.Values{},
		selective: f.selective,
		notes:     append([]string(nil), f.notes...),
	}
	for k, vs := range f.params {
		c.params[k] = append([]string(nil), vs...)
	}
	return c
}

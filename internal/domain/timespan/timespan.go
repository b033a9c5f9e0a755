// Package timespan parses the bracketed time range literal `[L TO R]`
// where each side is `*` (open) or a timestamp.
package timespan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
)

// RangePattern matches the public time range literal. The sides are
// validated lexically only; timestamp parsing happens in Parse.
var RangePattern = regexp.MustCompile(`^\[([^ ]+) TO ([^ ]+)\]$`)

// Accepted timestamp layouts, most specific first. UTC is assumed when
// the layout carries no zone.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Span is a half-open time constraint. A nil bound is open-ended.
type Span struct {
	start *time.Time
	end   *time.Time
}

// Parse reads `[L TO R]`. Both sides `*` yields an empty span, which
// signals "no constraint". A lexical mismatch is ErrMalformedRange; both
// bounds present with end before start is ErrInvalidRange.
func Parse(s string) (Span, error) {
	m := RangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Span{}, fmt.Errorf("%w: %q", domain.ErrMalformedRange, s)
	}

	start, err := parseBound(m[1])
	if err != nil {
		return Span{}, err
	}
	end, err := parseBound(m[2])
	if err != nil {
		return Span{}, err
	}

	if start != nil && end != nil && end.Before(*start) {
		return Span{}, fmt.Errorf("%w: %q", domain.ErrInvalidRange, s)
	}
	return Span{start: start, end: end}, nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "*" {
		return nil, nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: unparseable instant %q", domain.ErrMalformedRange, s)
}

// Start returns the lower bound, nil when open.
func (s Span) Start() *time.Time { return s.start }

// End returns the upper bound, nil when open.
func (s Span) End() *time.Time { return s.end }

// IsEmpty reports whether both bounds are open, i.e. no constraint.
func (s Span) IsEmpty() bool { return s.start == nil && s.end == nil }

// Resolve fills open bounds against a default window ending at now.
// An open start becomes now minus window, an open end becomes now.
func (s Span) Resolve(now time.Time, window time.Duration) (time.Time, time.Time) {
	start := now.Add(-window)
	if s.start != nil {
		start = *s.start
	}
	end := now
	if s.end != nil {
		end = *s.end
	}
	return start, end
}

// String renders the literal form with `*` for open bounds.
func (s Span) String() string {
	return fmt.Sprintf("[%s TO %s]", boundString(s.start), boundString(s.end))
}

func boundString(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}

// Package request holds the validated public search request: the four
// filter constraints plus the per-aggregation parameters.
package request

import (
	"fmt"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/gap"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/geo"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/timespan"
)

// Parameter limits. The transport validates the same bounds up front;
// the constructor is the authority.
const (
	MaxDocsLimit    = 100
	MaxTimeLimit    = 1000
	MaxHeatmapLimit = 10000
	MaxGridLevel    = 100
	MaxFieldLimit   = 1000
	MaxExportLimit  = 10000
)

// Sort selects the document ordering of a search.
type Sort string

// Document sort orders.
const (
	SortScore    Sort = "score"
	SortTime     Sort = "time"
	SortDistance Sort = "distance"
)

// IsValid reports whether the sort is a known order.
func (s Sort) IsValid() bool {
	return s == SortScore || s == SortTime || s == SortDistance
}

// Input carries the raw public parameters before validation. Range
// literals arrive as strings and are parsed by New.
type Input struct {
	QText string
	QUser string
	QTime string
	QGeo  string

	DocsLimit int
	DocsSort  Sort

	TimeLimit  int
	TimeGap    string
	TimeFilter string

	HeatmapLimit     int
	HeatmapGridLevel int
	HeatmapFilter    string
	HeatmapPosSent   bool

	TextLimit int
	UserLimit int
}

// Request is a validated search request. Range literals are parsed once
// here and reused everywhere downstream.
type Request struct {
	text string
	user string
	span timespan.Span
	box  *geo.Rect

	docsLimit int
	docsSort  Sort

	timeLimit  int
	timeGap    gap.Gap
	timeFilter timespan.Span

	hmLimit     int
	hmGridLevel int
	hmFilter    *geo.Rect
	hmPosSent   bool

	textLimit int
	userLimit int
}

// New validates the raw parameters and parses every range literal.
func New(in Input) (Request, error) {
	r := Request{
		text:        in.QText,
		user:        in.QUser,
		docsLimit:   in.DocsLimit,
		docsSort:    in.DocsSort,
		timeLimit:   in.TimeLimit,
		hmLimit:     in.HeatmapLimit,
		hmGridLevel: in.HeatmapGridLevel,
		hmPosSent:   in.HeatmapPosSent,
		textLimit:   in.TextLimit,
		userLimit:   in.UserLimit,
	}

	if err := validateLimits(in); err != nil {
		return Request{}, err
	}

	if r.docsSort == "" {
		r.docsSort = SortScore
	}
	if !r.docsSort.IsValid() {
		return Request{}, fmt.Errorf("unknown sort %q", in.DocsSort)
	}

	if in.QTime != "" {
		span, err := timespan.Parse(in.QTime)
		if err != nil {
			return Request{}, fmt.Errorf("q.time: %w", err)
		}
		r.span = span
	}
	if in.QGeo != "" {
		box, err := geo.Parse(in.QGeo)
		if err != nil {
			return Request{}, fmt.Errorf("q.geo: %w", err)
		}
		r.box = &box
	}
	if in.TimeFilter != "" {
		span, err := timespan.Parse(in.TimeFilter)
		if err != nil {
			return Request{}, fmt.Errorf("a.time.filter: %w", err)
		}
		r.timeFilter = span
	}
	if in.TimeGap != "" {
		g, err := gap.ParseISO8601(in.TimeGap)
		if err != nil {
			return Request{}, fmt.Errorf("a.time.gap: %w", err)
		}
		r.timeGap = g
	}
	if in.HeatmapFilter != "" {
		box, err := geo.Parse(in.HeatmapFilter)
		if err != nil {
			return Request{}, fmt.Errorf("a.hm.filter: %w", err)
		}
		r.hmFilter = &box
	}

	if r.docsSort == SortDistance && r.box == nil {
		return Request{}, domain.ErrMissingGeoForDistanceSort
	}

	return r, nil
}

// NewExport validates the raw parameters of an export. Exports share the
// four filter constraints with search but retrieve documents only, in
// time-descending order, and the limit is mandatory.
func NewExport(in Input) (Request, error) {
	if in.DocsLimit < 1 || in.DocsLimit > MaxExportLimit {
		return Request{}, fmt.Errorf("d.docs.limit must be between 1 and %d, got %d",
			MaxExportLimit, in.DocsLimit)
	}

	r := Request{
		text:      in.QText,
		user:      in.QUser,
		docsLimit: in.DocsLimit,
		docsSort:  SortTime,
	}

	if in.QTime != "" {
		span, err := timespan.Parse(in.QTime)
		if err != nil {
			return Request{}, fmt.Errorf("q.time: %w", err)
		}
		r.span = span
	}
	if in.QGeo != "" {
		box, err := geo.Parse(in.QGeo)
		if err != nil {
			return Request{}, fmt.Errorf("q.geo: %w", err)
		}
		r.box = &box
	}

	return r, nil
}

func validateLimits(in Input) error {
	checks := []struct {
		name string
		val  int
		max  int
	}{
		{"d.docs.limit", in.DocsLimit, MaxDocsLimit},
		{"a.time.limit", in.TimeLimit, MaxTimeLimit},
		{"a.hm.limit", in.HeatmapLimit, MaxHeatmapLimit},
		{"a.hm.gridLevel", in.HeatmapGridLevel, MaxGridLevel},
		{"a.text.limit", in.TextLimit, MaxFieldLimit},
		{"a.user.limit", in.UserLimit, MaxFieldLimit},
	}
	for _, c := range checks {
		if c.val < 0 || c.val > c.max {
			return fmt.Errorf("%s must be between 0 and %d, got %d", c.name, c.max, c.val)
		}
	}
	return nil
}

// Text returns the free-text constraint, empty when absent.
func (r *Request) Text() string { return r.text }

// User returns the exact-match user constraint, empty when absent.
func (r *Request) User() string { return r.user }

// Span returns the parsed q.time constraint.
func (r *Request) Span() timespan.Span { return r.span }

// Box returns the parsed q.geo constraint, nil when absent.
func (r *Request) Box() *geo.Rect { return r.box }

// DocsLimit returns how many documents to return; 0 means none.
func (r *Request) DocsLimit() int { return r.docsLimit }

// DocsSort returns the document ordering.
func (r *Request) DocsSort() Sort { return r.docsSort }

// TimeLimit returns the requested histogram bar limit; 0 disables the facet.
func (r *Request) TimeLimit() int { return r.timeLimit }

// TimeGap returns the explicit histogram gap; zero when it should be computed.
func (r *Request) TimeGap() gap.Gap { return r.timeGap }

// TimeFilter returns the explicit histogram range, empty to inherit q.time.
func (r *Request) TimeFilter() timespan.Span { return r.timeFilter }

// HeatmapLimit returns the soft cell-count limit; 0 disables the facet.
func (r *Request) HeatmapLimit() int { return r.hmLimit }

// HeatmapGridLevel returns the explicit grid level; 0 means derive from the limit.
func (r *Request) HeatmapGridLevel() int { return r.hmGridLevel }

// HeatmapFilter returns the explicit heatmap box, nil to inherit q.geo.
func (r *Request) HeatmapFilter() *geo.Rect { return r.hmFilter }

// HeatmapPosSent reports whether the sentiment-positive heatmap was requested.
func (r *Request) HeatmapPosSent() bool { return r.hmPosSent }

// TextLimit returns the text top-values limit; 0 disables the facet.
func (r *Request) TextLimit() int { return r.textLimit }

// UserLimit returns the user top-values limit; 0 disables the facet.
func (r *Request) UserLimit() int { return r.userLimit }

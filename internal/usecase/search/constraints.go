package search

import (
	"fmt"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

// worldAreaFraction is the selectivity threshold for a geo constraint:
// boxes smaller than this share of the world count as selective.
const worldAreaFraction = 0.05

// Routing hint parameters. Opaque to this layer; the backend uses them
// to prune shard fan-out for the constrained time range.
const (
	routeStartParam = "tr.start"
	routeEndParam   = "tr.end"
)

// isMatchAll reports whether the text constraint is a wildcard-all token.
func isMatchAll(text string) bool {
	return text == "" || text == "*" || text == "*:*"
}

// buildConstraints maps the four public filter constraints onto backend
// filter/query clauses. Each constraint is tagged so aggregations can
// exclude it from their own counts. The selective flag is a performance
// hint toward the doc-values facet execution path, not a correctness rule.
func (s *Service) buildConstraints(req *request.Request) solr.Fragment {
	f := solr.NewFragment()

	if isMatchAll(req.Text()) {
		f = f.With("q", "*:*")
	} else {
		// Relevance query plus a tagged filter clause carrying the same
		// constraint, so the text facet can exclude the filter's effect.
		f = f.With("q", req.Text()).
			With("df", s.schema.Text).
			With("fq", fmt.Sprintf("{!tag=%s df=%s}%s", s.schema.Text, s.schema.Text, req.Text())).
			WithSelective()
	}

	if req.User() != "" {
		f = f.With("fq", fmt.Sprintf("{!field f=%s tag=%s}%s", s.schema.User, s.schema.User, req.User())).
			WithSelective()
	}

	if span := req.Span(); !span.IsEmpty() {
		f = f.With("fq", fmt.Sprintf("{!tag=%s}%s:%s",
			s.schema.Time, s.schema.Time, solrTimeRange(span.Start(), span.End())))
		if span.Start() != nil {
			f = f.With(routeStartParam, span.Start().UTC().Format(time.RFC3339))
		}
		if span.End() != nil {
			f = f.With(routeEndParam, span.End().UTC().Format(time.RFC3339))
		}
	}

	if box := req.Box(); box != nil && !box.IsWorld() {
		f = f.With("fq", fmt.Sprintf("{!tag=%s}%s:%s", s.schema.GeoRPT, s.schema.GeoRPT, box.String()))
		if box.Area() < worldAreaFraction*worldArea() {
			f = f.WithSelective()
		}
	}

	return f
}

func solrTimeRange(start, end *time.Time) string {
	return fmt.Sprintf("[%s TO %s]", solrBound(start), solrBound(end))
}

func solrBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}

func worldArea() float64 {
	return 360 * 180
}

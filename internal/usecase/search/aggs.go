package search

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/gap"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/geo"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

const (
	// defaultTimeWindow backs an unconstrained time histogram.
	defaultTimeWindow = 90 * 24 * time.Hour
	// hardBarCap rejects histogram requests outright.
	hardBarCap = 1000
	// dvBarThreshold forces the doc-values execution path to keep large
	// range facets out of the filter cache.
	dvBarThreshold = 80
	// kmPerDegree converts grid cell sizes for the backend's distance hint.
	kmPerDegree = 111.2
)

// buildDocs sets document retrieval: row count and sort order. A score
// sort without an active text query silently downgrades to time
// descending; that is a documented fallback, not an error.
func (s *Service) buildDocs(req *request.Request) solr.Fragment {
	f := solr.NewFragment().With("rows", strconv.Itoa(req.DocsLimit()))
	if req.DocsLimit() == 0 {
		return f
	}

	sort := req.DocsSort()
	if sort == request.SortScore && isMatchAll(req.Text()) {
		f = f.WithNote("score sort without a text query; falling back to time order")
		sort = request.SortTime
	}

	switch sort {
	case request.SortScore:
		f = f.With("sort", "score desc")
	case request.SortDistance:
		// request validation guarantees a geo box here
		lat, lon := req.Box().Center()
		f = f.With("sort", "geodist() asc").
			With("sfield", s.schema.Geo).
			With("pt", fmt.Sprintf("%v,%v", lat, lon))
	default:
		f = f.With("sort", s.schema.Time+" desc")
	}
	return f
}

// buildTimeFacet assembles the time histogram request. baseSelective is
// the constraint builder's doc-values hint; a large bar count forces the
// same path even without it.
func (s *Service) buildTimeFacet(req *request.Request, now time.Time, baseSelective bool) (solr.Fragment, error) {
	f := solr.NewFragment()
	if req.TimeLimit() == 0 {
		return f, nil
	}

	span := req.TimeFilter()
	if span.IsEmpty() {
		span = req.Span()
	}
	start, end := span.Resolve(now, defaultTimeWindow)
	if end.Before(start) {
		return solr.Fragment{}, fmt.Errorf("%w: %s after %s",
			domain.ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	g := req.TimeGap()
	if g.IsZero() {
		computed, err := gap.ComputeGap(end.Sub(start), req.TimeLimit())
		if err != nil {
			return solr.Fragment{}, err
		}
		g = computed
	}

	bars := gap.Bars(end.Sub(start), g)
	if bars > hardBarCap {
		return solr.Fragment{}, fmt.Errorf("%w: %s over %s yields %.0f bars (max %d)",
			domain.ErrGapTooSmall, g.ToISO8601(), end.Sub(start), bars, hardBarCap)
	}

	field := s.schema.Time
	f = f.With("facet.range", fmt.Sprintf("{!ex=%s}%s", field, field)).
		With("f."+field+".facet.range.start", start.UTC().Format(time.RFC3339)).
		With("f."+field+".facet.range.end", end.UTC().Format(time.RFC3339)).
		With("f."+field+".facet.range.gap", g.ToSolr()).
		// The backend drops empty buckets inconsistently under distributed
		// execution unless mincount is pinned to zero.
		With("f."+field+".facet.mincount", "0")

	switch {
	case baseSelective:
		f = f.With("facet.range.method", "dv")
	case bars > dvBarThreshold:
		f = f.With("facet.range.method", "dv").
			WithNote("time facet: %.0f bars exceeds %d; forcing doc-values method", bars, dvBarThreshold)
	}
	return f, nil
}

// buildHeatmapFacet assembles the heatmap request(s). An explicit grid
// level wins outright; otherwise a target cell side is derived from the
// box and the soft cell-count limit.
func (s *Service) buildHeatmapFacet(req *request.Request) (solr.Fragment, error) {
	f := solr.NewFragment()
	if req.HeatmapLimit() == 0 && req.HeatmapGridLevel() == 0 {
		return f, nil
	}

	box := geo.World
	if req.HeatmapFilter() != nil {
		box = *req.HeatmapFilter()
	} else if req.Box() != nil {
		box = *req.Box()
	}

	// The geo constraint is always excluded so the heatmap shows the
	// unfiltered spatial distribution.
	f = f.With("facet.heatmap", fmt.Sprintf("{!ex=%s}%s", s.schema.GeoRPT, s.schema.GeoRPT)).
		With("facet.heatmap.geom", heatmapGeom(box))

	if level := req.HeatmapGridLevel(); level > 0 {
		f = f.With("facet.heatmap.gridLevel", strconv.Itoa(level))
	} else {
		if box.Area() <= 0 {
			return solr.Fragment{}, fmt.Errorf("%w: %s has no area", domain.ErrDegenerateGeometry, box)
		}
		distErr := HeatmapDistErrKM(box, req.HeatmapLimit())
		f = f.With("facet.heatmap.distErr", strconv.FormatFloat(distErr, 'f', -1, 64))
	}

	if req.HeatmapPosSent() {
		// Same geometry and resolution; the sentiment-positive subset
		// lives in a parallel spatial field.
		f = f.With("facet.heatmap", fmt.Sprintf("{!ex=%s}%s", s.schema.GeoRPT, s.schema.PosSentRPT))
	}
	return f, nil
}

// HeatmapDistErrKM derives the backend's maximum-error hint: the averaged
// box side divided by the square root of the cell budget, doubled because
// grid levels quarter the cell area, then converted to kilometers.
func HeatmapDistErrKM(box geo.Rect, limit int) float64 {
	avgSide := (box.Width() + box.Height()) / 2
	cellDegrees := 2 * avgSide / math.Sqrt(float64(limit))
	return cellDegrees * kmPerDegree
}

func heatmapGeom(box geo.Rect) string {
	return fmt.Sprintf("[\"%v %v\" TO \"%v %v\"]",
		box.MinLon(), box.MinLat(), box.MaxLon(), box.MaxLat())
}

// buildFieldFacets assembles the text and user top-value facets. The
// text facet excludes the text filter's own effect on its counts unless
// configured otherwise; the user facet never excludes its own filter.
func (s *Service) buildFieldFacets(req *request.Request) solr.Fragment {
	f := solr.NewFragment()

	if req.TextLimit() > 0 {
		field := s.schema.Text
		if s.textFacetExcludesQuery {
			f = f.With("facet.field", fmt.Sprintf("{!ex=%s}%s", field, field))
		} else {
			f = f.With("facet.field", field)
		}
		f = f.With("f."+field+".facet.limit", strconv.Itoa(req.TextLimit()))
	}

	if req.UserLimit() > 0 {
		field := s.schema.User
		f = f.With("facet.field", field).
			With("f."+field+".facet.limit", strconv.Itoa(req.UserLimit()))
	}
	return f
}

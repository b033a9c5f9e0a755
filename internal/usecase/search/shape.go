package search

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/gap"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/response"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

// internalFieldPrefix marks engine-internal document metadata that never
// leaves the gateway.
const internalFieldPrefix = "_"

// shape converts the backend's raw response into the public contract.
// Aggregation members appear only when the backend returned the matching
// named structure.
func (s *Service) shape(req *request.Request, raw *solr.Response) *response.Response {
	out := &response.Response{MatchDocs: raw.NumFound}

	if req.DocsLimit() > 0 {
		docs := make([]response.Document, 0, len(raw.Docs))
		for _, d := range raw.Docs {
			docs = append(docs, s.shapeDocument(d))
		}
		out.Docs = &docs
	}

	if rf, ok := raw.FacetRanges[s.schema.Time]; ok {
		out.Time = s.shapeTimeFacet(rf)
	}
	if grid, ok := raw.FacetHeatmaps[s.schema.GeoRPT]; ok {
		out.Heatmap = shapeHeatmap(grid)
	}
	if grid, ok := raw.FacetHeatmaps[s.schema.PosSentRPT]; ok {
		out.HeatmapPosSent = shapeHeatmap(grid)
	}
	if counts, ok := raw.FacetFields[s.schema.Text]; ok {
		out.Text = shapeFacetValues(counts)
	}
	if counts, ok := raw.FacetFields[s.schema.User]; ok {
		out.User = shapeFacetValues(counts)
	}

	out.Timing = s.shapeTiming(raw)
	return out
}

// shapeDocument copies fields in backend order, dropping engine-internal
// metadata and reinterpreting the identifier field.
func (s *Service) shapeDocument(raw solr.NamedList) response.Document {
	var doc response.Document
	for _, e := range raw {
		if strings.HasPrefix(e.Key, internalFieldPrefix) {
			continue
		}
		if e.Key == s.schema.ID {
			doc.Set(e.Key, ReinterpretID(e.Val))
			continue
		}
		doc.Set(e.Key, e.Val)
	}
	return doc
}

// ReinterpretID converts the identifier from its stored signed 64-bit
// form to the unsigned decimal string of the domain identifier.
// The backend has no unsigned type, so -1 really means 2^64-1.
func ReinterpretID(v any) string {
	s := solr.LeafString(v)
	signed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Not a signed decimal; surface as-is rather than lose the value.
		return s
	}
	return strconv.FormatUint(uint64(signed), 10)
}

func (s *Service) shapeTimeFacet(rf solr.RangeFacet) *response.TimeFacet {
	facet := &response.TimeFacet{
		Start:  rf.Start,
		End:    rf.End,
		Counts: make([]response.TimeCount, 0, len(rf.Counts)),
	}
	if g, err := gap.FromSolr(rf.Gap); err == nil {
		facet.Gap = g.ToISO8601()
	} else {
		// Unparseable echoed gap is a backend contract drift; keep the
		// raw form rather than fail the request.
		facet.Gap = rf.Gap
		s.logger.Warn("unparseable echoed gap", zap.String("gap", rf.Gap), zap.Error(err))
	}
	for _, c := range rf.Counts {
		facet.Counts = append(facet.Counts, response.TimeCount{Bin: c.Value, Count: c.Count})
	}
	return facet
}

// shapeHeatmap lifts the backend's named grid structure. The 2-D count
// grid passes through verbatim, nil rows included.
func shapeHeatmap(grid solr.NamedList) *response.Heatmap {
	hm := &response.Heatmap{Projection: response.Projection}
	for _, e := range grid {
		switch e.Key {
		case "gridLevel":
			hm.GridLevel = leafInt(e.Val)
		case "columns":
			hm.Columns = leafInt(e.Val)
		case "rows":
			hm.Rows = leafInt(e.Val)
		case "minX":
			hm.MinX = leafFloat(e.Val)
		case "maxX":
			hm.MaxX = leafFloat(e.Val)
		case "minY":
			hm.MinY = leafFloat(e.Val)
		case "maxY":
			hm.MaxY = leafFloat(e.Val)
		case "counts_ints2D":
			hm.CountsInts2D = shapeGrid(e.Val)
		}
	}
	return hm
}

func shapeGrid(v any) [][]int64 {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	grid := make([][]int64, len(rows))
	for i, r := range rows {
		cells, ok := r.([]any)
		if !ok {
			continue // sparse row stays nil
		}
		row := make([]int64, len(cells))
		for j, c := range cells {
			row[j] = int64(leafInt(c))
		}
		grid[i] = row
	}
	return grid
}

func shapeFacetValues(counts []solr.ValueCount) *[]response.FacetValue {
	values := make([]response.FacetValue, 0, len(counts))
	for _, c := range counts {
		values = append(values, response.FacetValue{Value: c.Value, Count: c.Count})
	}
	return &values
}

// shapeTiming reports the call's wall-clock elapsed time as the tree
// root, with the backend's per-stage breakdown as children. Stages with
// zero elapsed time are pruned.
func (s *Service) shapeTiming(raw *solr.Response) *response.TimingNode {
	root := &response.TimingNode{
		Label:  "QTime",
		Millis: float64(raw.QTimeMillis),
	}
	if raw.Timing == nil {
		return root
	}

	root.Subs = shapeTimingChildren(raw.Timing)

	// The two top-level elapsed figures persistently disagree by a few
	// milliseconds and nobody has explained why; log, never surface.
	if detail, ok := raw.Timing.Get("time"); ok {
		if millis := leafFloat(detail); millis != root.Millis {
			s.logger.Debug("timing totals disagree",
				zap.Float64("qtime_ms", root.Millis),
				zap.Float64("debug_ms", millis))
		}
	}
	return root
}

func shapeTimingChildren(nl solr.NamedList) []response.TimingNode {
	var nodes []response.TimingNode
	for _, e := range nl {
		if e.Key == "time" {
			continue
		}
		child, ok := e.Val.(solr.NamedList)
		if !ok {
			continue
		}
		node := response.TimingNode{Label: e.Key}
		if t, ok := child.Get("time"); ok {
			node.Millis = leafFloat(t)
		}
		// A stage that took 0ms is dropped outright, children and all.
		if node.Millis == 0 {
			continue
		}
		node.Subs = shapeTimingChildren(child)
		nodes = append(nodes, node)
	}
	return nodes
}

func leafInt(v any) int {
	if n, ok := solr.LeafInt64(v); ok {
		return int(n)
	}
	return 0
}

func leafFloat(v any) float64 {
	if f, ok := solr.LeafFloat64(v); ok {
		return f
	}
	return 0
}

// Package response holds the public JSON contract of the gateway.
// Property order is part of the contract: struct field order below and
// the ordered Document type preserve it.
package response

import (
	"github.com/goccy/go-json"
)

// Projection is the coordinate reference system of every heatmap.
const Projection = "EPSG:4326"

// Response is the body of GET /search. Aggregation members are present
// only when the matching aggregation was requested (absence, not empty).
type Response struct {
	MatchDocs      int64         `json:"a.matchDocs"`
	Docs           *[]Document   `json:"d.docs,omitempty"`
	Time           *TimeFacet    `json:"a.time,omitempty"`
	Heatmap        *Heatmap      `json:"a.hm,omitempty"`
	HeatmapPosSent *Heatmap      `json:"a.hm.posSent,omitempty"`
	Text           *[]FacetValue `json:"a.text,omitempty"`
	User           *[]FacetValue `json:"a.user,omitempty"`
	Timing         *TimingNode   `json:"timing,omitempty"`
}

// TimeFacet is the shaped time histogram.
type TimeFacet struct {
	Start  string      `json:"start"`
	End    string      `json:"end"`
	Gap    string      `json:"gap"`
	Counts []TimeCount `json:"counts"`
}

// TimeCount is one histogram bucket, marshalled as a [bin, count] pair.
type TimeCount struct {
	Bin   string
	Count int64
}

// MarshalJSON renders the bucket as a two-element array.
func (c TimeCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Bin, c.Count})
}

// UnmarshalJSON reads the two-element array form.
func (c *TimeCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &c.Bin); err != nil {
			return err
		}
	}
	if len(pair) > 1 {
		if err := json.Unmarshal(pair[1], &c.Count); err != nil {
			return err
		}
	}
	return nil
}

// Heatmap is the shaped 2-D grid facet. The count grid is carried through
// from the backend verbatim, including nil (sparse) rows.
type Heatmap struct {
	GridLevel    int       `json:"gridLevel"`
	Columns      int       `json:"columns"`
	Rows         int       `json:"rows"`
	MinX         float64   `json:"minX"`
	MaxX         float64   `json:"maxX"`
	MinY         float64   `json:"minY"`
	MaxY         float64   `json:"maxY"`
	CountsInts2D [][]int64 `json:"counts_ints2D"`
	Projection   string    `json:"projection"`
}

// FacetValue is one (value, count) pair of a top-values facet.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// TimingNode is one stage of the backend's timing breakdown. Stages that
// took 0ms are pruned during shaping.
type TimingNode struct {
	Label  string       `json:"label"`
	Millis float64      `json:"millis"`
	Subs   []TimingNode `json:"subs,omitempty"`
}

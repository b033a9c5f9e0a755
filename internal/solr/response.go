package solr

import (
	"fmt"
)

// Response is the typed view of a backend select response. Optional
// sections are nil maps / nil slices when the backend omitted them.
type Response struct {
	Status       int
	QTimeMillis  int64
	EchoedParams map[string]string

	NumFound int64
	Docs     []NamedList

	FacetFields   map[string][]ValueCount
	FacetRanges   map[string]RangeFacet
	FacetHeatmaps map[string]NamedList

	Timing NamedList
}

// ValueCount is one (value, count) pair of a field or range facet.
type ValueCount struct {
	Value string
	Count int64
}

// RangeFacet is a raw range facet: bucket counts plus the echoed
// start/end/gap in the backend's own syntax.
type RangeFacet struct {
	Start  string
	End    string
	Gap    string
	Counts []ValueCount
}

// convertResponse lifts the ordered tree of a select response into the
// typed Response. Every lookup treats a missing or mistyped member as
// absent rather than guessing.
func convertResponse(tree any) (*Response, error) {
	root, ok := asNamedList(tree)
	if !ok {
		return nil, fmt.Errorf("response root is %T, not an object", tree)
	}

	resp := &Response{}

	if v, ok := root.Get("responseHeader"); ok {
		if header, ok := asNamedList(v); ok {
			convertHeader(header, resp)
		}
	}
	if v, ok := root.Get("response"); ok {
		if body, ok := asNamedList(v); ok {
			convertBody(body, resp)
		}
	}
	if v, ok := root.Get("facet_counts"); ok {
		if fc, ok := asNamedList(v); ok {
			convertFacetCounts(fc, resp)
		}
	}
	if v, ok := root.Get("debug"); ok {
		if debug, ok := asNamedList(v); ok {
			if t, ok := debug.Get("timing"); ok {
				if timing, ok := asNamedList(t); ok {
					resp.Timing = timing
				}
			}
		}
	}

	return resp, nil
}

func convertHeader(header NamedList, resp *Response) {
	if v, ok := header.Get("status"); ok {
		if n, ok := LeafInt64(v); ok {
			resp.Status = int(n)
		}
	}
	if v, ok := header.Get("QTime"); ok {
		if n, ok := LeafInt64(v); ok {
			resp.QTimeMillis = n
		}
	}
	if v, ok := header.Get("params"); ok {
		if params, ok := asNamedList(v); ok {
			resp.EchoedParams = make(map[string]string, len(params))
			for _, e := range params {
				// multi-valued echoed params keep their first value
				if arr, ok := asArray(e.Val); ok {
					if len(arr) > 0 {
						resp.EchoedParams[e.Key] = LeafString(arr[0])
					}
					continue
				}
				resp.EchoedParams[e.Key] = LeafString(e.Val)
			}
		}
	}
}

func convertBody(body NamedList, resp *Response) {
	if v, ok := body.Get("numFound"); ok {
		if n, ok := LeafInt64(v); ok {
			resp.NumFound = n
		}
	}
	if v, ok := body.Get("docs"); ok {
		if arr, ok := asArray(v); ok {
			resp.Docs = make([]NamedList, 0, len(arr))
			for _, d := range arr {
				if doc, ok := asNamedList(d); ok {
					resp.Docs = append(resp.Docs, doc)
				}
			}
		}
	}
}

func convertFacetCounts(fc NamedList, resp *Response) {
	if v, ok := fc.Get("facet_fields"); ok {
		if fields, ok := asNamedList(v); ok {
			resp.FacetFields = make(map[string][]ValueCount, len(fields))
			for _, e := range fields {
				if flat, ok := asArray(e.Val); ok {
					resp.FacetFields[e.Key] = convertFlatCounts(flat)
				}
			}
		}
	}
	if v, ok := fc.Get("facet_ranges"); ok {
		if ranges, ok := asNamedList(v); ok {
			resp.FacetRanges = make(map[string]RangeFacet, len(ranges))
			for _, e := range ranges {
				if nl, ok := asNamedList(e.Val); ok {
					resp.FacetRanges[e.Key] = convertRangeFacet(nl)
				}
			}
		}
	}
	if v, ok := fc.Get("facet_heatmaps"); ok {
		if hms, ok := asNamedList(v); ok {
			resp.FacetHeatmaps = make(map[string]NamedList, len(hms))
			for _, e := range hms {
				switch grid := e.Val.(type) {
				case NamedList:
					resp.FacetHeatmaps[e.Key] = grid
				case []any:
					// json.nl=flat renders the grid as [k1, v1, k2, v2, ...]
					resp.FacetHeatmaps[e.Key] = flatToNamedList(grid)
				}
			}
		}
	}
}

// convertFlatCounts reads the alternating [value, count, ...] facet form.
func convertFlatCounts(flat []any) []ValueCount {
	out := make([]ValueCount, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		value := LeafString(flat[i])
		count, ok := LeafInt64(flat[i+1])
		if !ok {
			continue
		}
		out = append(out, ValueCount{Value: value, Count: count})
	}
	return out
}

func convertRangeFacet(nl NamedList) RangeFacet {
	rf := RangeFacet{}
	if v, ok := nl.Get("start"); ok {
		rf.Start = LeafString(v)
	}
	if v, ok := nl.Get("end"); ok {
		rf.End = LeafString(v)
	}
	if v, ok := nl.Get("gap"); ok {
		rf.Gap = LeafString(v)
	}
	if v, ok := nl.Get("counts"); ok {
		switch counts := v.(type) {
		case []any:
			rf.Counts = convertFlatCounts(counts)
		case NamedList:
			for _, e := range counts {
				if n, ok := LeafInt64(e.Val); ok {
					rf.Counts = append(rf.Counts, ValueCount{Value: e.Key, Count: n})
				}
			}
		}
	}
	return rf
}

func flatToNamedList(flat []any) NamedList {
	nl := make(NamedList, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		key, ok := asString(flat[i])
		if !ok {
			continue
		}
		nl = append(nl, Entry{Key: key, Val: flat[i+1]})
	}
	return nl
}

// convertError extracts the engine's own failure section, if present.
// Returns code, message, and whether the section existed.
func convertError(tree any) (int, string, bool) {
	root, ok := asNamedList(tree)
	if !ok {
		return 0, "", false
	}
	v, ok := root.Get("error")
	if !ok {
		return 0, "", false
	}
	errNL, ok := asNamedList(v)
	if !ok {
		return 0, "", false
	}
	code := 0
	if c, ok := errNL.Get("code"); ok {
		if n, ok := LeafInt64(c); ok {
			code = int(n)
		}
	}
	msg := ""
	if m, ok := errNL.Get("msg"); ok {
		msg = LeafString(m)
	}
	return code, msg, true
}

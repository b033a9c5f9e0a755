package search

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/geo"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
)

var testNow = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func TestBuildDocs_SortMapping(t *testing.T) {
	s := newTestService()

	f := s.buildDocs(mustRequest(t, request.Input{DocsLimit: 10, QText: "storm"}))
	if f.Get("rows") != "10" || f.Get("sort") != "score desc" {
		t.Errorf("score sort: rows=%q sort=%q", f.Get("rows"), f.Get("sort"))
	}

	f = s.buildDocs(mustRequest(t, request.Input{DocsLimit: 10, DocsSort: request.SortTime}))
	if f.Get("sort") != "created_at desc" {
		t.Errorf("time sort: %q", f.Get("sort"))
	}

	f = s.buildDocs(mustRequest(t, request.Input{
		DocsLimit: 10, DocsSort: request.SortDistance, QGeo: "[0,0 TO 10,20]"}))
	if f.Get("sort") != "geodist() asc" {
		t.Errorf("distance sort: %q", f.Get("sort"))
	}
	if f.Get("sfield") != "coord" {
		t.Errorf("sfield: %q", f.Get("sfield"))
	}
	if f.Get("pt") != "5,10" {
		t.Errorf("pt: %q", f.Get("pt"))
	}
}

func TestBuildDocs_ScoreDowngradeWithoutText(t *testing.T) {
	s := newTestService()
	f := s.buildDocs(mustRequest(t, request.Input{DocsLimit: 10}))

	if f.Get("sort") != "created_at desc" {
		t.Errorf("sort: %q, want time fallback", f.Get("sort"))
	}
	if len(f.Notes()) != 1 || !strings.Contains(f.Notes()[0], "falling back to time order") {
		t.Errorf("notes: %v", f.Notes())
	}
}

func TestBuildDocs_ZeroLimit(t *testing.T) {
	s := newTestService()
	f := s.buildDocs(mustRequest(t, request.Input{}))
	if f.Get("rows") != "0" {
		t.Errorf("rows: %q", f.Get("rows"))
	}
	if f.Get("sort") != "" {
		t.Errorf("zero rows needs no sort, got %q", f.Get("sort"))
	}
}

func TestBuildTimeFacet_ComputedGap(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{
		TimeLimit:  24,
		TimeFilter: "[2020-01-01 TO 2020-01-02]",
	})

	f, err := s.buildTimeFacet(req, testNow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get("facet.range"); got != "{!ex=created_at}created_at" {
		t.Errorf("facet.range: %q", got)
	}
	if got := f.Get("f.created_at.facet.range.start"); got != "2020-01-01T00:00:00Z" {
		t.Errorf("start: %q", got)
	}
	if got := f.Get("f.created_at.facet.range.end"); got != "2020-01-02T00:00:00Z" {
		t.Errorf("end: %q", got)
	}
	if got := f.Get("f.created_at.facet.range.gap"); got != "+1HOUR" {
		t.Errorf("gap: %q", got)
	}
	if got := f.Get("f.created_at.facet.mincount"); got != "0" {
		t.Errorf("mincount: %q", got)
	}
	if f.Get("facet.range.method") != "" {
		t.Errorf("24 bars must not force dv, got %q", f.Get("facet.range.method"))
	}
}

func TestBuildTimeFacet_DefaultWindow(t *testing.T) {
	s := newTestService()
	f, err := s.buildTimeFacet(mustRequest(t, request.Input{TimeLimit: 80}), testNow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := testNow.Add(-defaultTimeWindow).Format(time.RFC3339)
	if got := f.Get("f.created_at.facet.range.start"); got != wantStart {
		t.Errorf("start: %q, want %q", got, wantStart)
	}
	if got := f.Get("f.created_at.facet.range.end"); got != testNow.Format(time.RFC3339) {
		t.Errorf("end: %q", got)
	}
	// 90 days at 80 bars computes a 2-day gap.
	if got := f.Get("f.created_at.facet.range.gap"); got != "+2DAYS" {
		t.Errorf("gap: %q", got)
	}
}

func TestBuildTimeFacet_ExplicitGapTooSmall(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{
		TimeLimit:  100,
		TimeGap:    "PT1S",
		TimeFilter: "[2020-01-01 TO 2020-01-02]",
	})
	_, err := s.buildTimeFacet(req, testNow, false)
	if !errors.Is(err, domain.ErrGapTooSmall) {
		t.Fatalf("expected ErrGapTooSmall, got %v", err)
	}
}

func TestBuildTimeFacet_InvertedResolvedRange(t *testing.T) {
	s := newTestService()
	// Explicit start after "now" with an open end resolving to now.
	req := mustRequest(t, request.Input{
		TimeLimit: 10,
		QTime:     "[2021-01-01 TO *]",
	})
	_, err := s.buildTimeFacet(req, testNow, false)
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestBuildTimeFacet_DocValuesForcing(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{
		TimeLimit:  1000,
		TimeGap:    "PT1H",
		TimeFilter: "[2020-01-01 TO 2020-01-08]", // 168 bars
	})

	f, err := s.buildTimeFacet(req, testNow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Get("facet.range.method") != "dv" {
		t.Error("168 bars must force the doc-values method")
	}
	if len(f.Notes()) != 1 || !strings.Contains(f.Notes()[0], "doc-values") {
		t.Errorf("notes: %v", f.Notes())
	}

	// Already selective: dv without the note.
	f, err = s.buildTimeFacet(req, testNow, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Get("facet.range.method") != "dv" {
		t.Error("selective request must use the doc-values method")
	}
	if len(f.Notes()) != 0 {
		t.Errorf("selective forcing needs no note, got %v", f.Notes())
	}
}

func TestBuildTimeFacet_Disabled(t *testing.T) {
	s := newTestService()
	f, err := s.buildTimeFacet(mustRequest(t, request.Input{}), testNow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Params()) != 0 {
		t.Errorf("expected empty fragment, got %v", f.Params())
	}
}

func TestBuildHeatmapFacet_DistErr(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{HeatmapLimit: 100, HeatmapFilter: "[0,0 TO 45,90]"})

	f, err := s.buildHeatmapFacet(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get("facet.heatmap"); got != "{!ex=coord_rpt}coord_rpt" {
		t.Errorf("facet.heatmap: %q", got)
	}
	if got := f.Get("facet.heatmap.geom"); got != `["0 0" TO "90 45"]` {
		t.Errorf("geom: %q", got)
	}
	// avg side (90+45)/2 = 67.5; cell = 2*67.5/10 = 13.5 deg; 13.5*111.2 km.
	want := 13.5 * 111.2
	got := f.Get("facet.heatmap.distErr")
	if got == "" {
		t.Fatal("missing distErr")
	}
	if math.Abs(HeatmapDistErrKM(mustBox(t, "[0,0 TO 45,90]"), 100)-want) > 1e-9 {
		t.Errorf("distErr: got %s, want %v", got, want)
	}
}

func TestBuildHeatmapFacet_GridLevelWins(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{HeatmapLimit: 100, HeatmapGridLevel: 4})

	f, err := s.buildHeatmapFacet(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Get("facet.heatmap.gridLevel") != "4" {
		t.Errorf("gridLevel: %q", f.Get("facet.heatmap.gridLevel"))
	}
	if f.Get("facet.heatmap.distErr") != "" {
		t.Error("explicit grid level must suppress distErr")
	}
}

func TestBuildHeatmapFacet_DegenerateBox(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{HeatmapLimit: 100, HeatmapFilter: "[10,20 TO 10,20]"})
	_, err := s.buildHeatmapFacet(req)
	if !errors.Is(err, domain.ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestBuildHeatmapFacet_PosSent(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{HeatmapLimit: 100, HeatmapPosSent: true})

	f, err := s.buildHeatmapFacet(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hms := f.Values("facet.heatmap")
	if len(hms) != 2 {
		t.Fatalf("expected two heatmap facets, got %v", hms)
	}
	if hms[1] != "{!ex=coord_rpt}coord_sentiment_pos_rpt" {
		t.Errorf("sentiment facet: %q", hms[1])
	}
}

func TestBuildHeatmapFacet_InheritsQueryBox(t *testing.T) {
	s := newTestService()
	req := mustRequest(t, request.Input{HeatmapLimit: 100, QGeo: "[0,0 TO 10,10]"})

	f, err := s.buildHeatmapFacet(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get("facet.heatmap.geom"); got != `["0 0" TO "10 10"]` {
		t.Errorf("geom: %q", got)
	}
}

func TestBuildHeatmapFacet_Disabled(t *testing.T) {
	s := newTestService()
	f, err := s.buildHeatmapFacet(mustRequest(t, request.Input{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Params()) != 0 {
		t.Errorf("expected empty fragment, got %v", f.Params())
	}
}

func TestBuildFieldFacets(t *testing.T) {
	s := newTestService()
	f := s.buildFieldFacets(mustRequest(t, request.Input{TextLimit: 20, UserLimit: 5}))

	fields := f.Values("facet.field")
	if len(fields) != 2 || fields[0] != "{!ex=text}text" || fields[1] != "user_name" {
		t.Errorf("facet.field: %v", fields)
	}
	if f.Get("f.text.facet.limit") != "20" {
		t.Errorf("text limit: %q", f.Get("f.text.facet.limit"))
	}
	if f.Get("f.user_name.facet.limit") != "5" {
		t.Errorf("user limit: %q", f.Get("f.user_name.facet.limit"))
	}
}

func TestBuildFieldFacets_FilteredTextFacet(t *testing.T) {
	s := newTestService().WithTextFacetFiltered()
	f := s.buildFieldFacets(mustRequest(t, request.Input{TextLimit: 20}))
	if got := f.Values("facet.field"); len(got) != 1 || got[0] != "text" {
		t.Errorf("facet.field: %v", got)
	}
}

func mustBox(t *testing.T, literal string) geo.Rect {
	t.Helper()
	box, err := geo.Parse(literal)
	if err != nil {
		t.Fatalf("parse box: %v", err)
	}
	return box
}

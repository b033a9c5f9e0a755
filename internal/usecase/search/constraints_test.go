package search

import (
	"testing"

	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

func newTestService() *Service {
	return New(&mockBackend{}, solr.DefaultSchema(), zap.NewNop())
}

func mustRequest(t *testing.T, in request.Input) *request.Request {
	t.Helper()
	r, err := request.New(in)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return &r
}

func TestBuildConstraints_MatchAll(t *testing.T) {
	s := newTestService()
	for _, text := range []string{"", "*", "*:*"} {
		f := s.buildConstraints(mustRequest(t, request.Input{QText: text}))
		if f.Get("q") != "*:*" {
			t.Errorf("text %q: q = %q", text, f.Get("q"))
		}
		if len(f.Values("fq")) != 0 {
			t.Errorf("text %q: unexpected fq %v", text, f.Values("fq"))
		}
		if f.Selective() {
			t.Errorf("text %q: match-all must not be selective", text)
		}
	}
}

func TestBuildConstraints_Text(t *testing.T) {
	s := newTestService()
	f := s.buildConstraints(mustRequest(t, request.Input{QText: "storm surge"}))

	if f.Get("q") != "storm surge" {
		t.Errorf("q = %q", f.Get("q"))
	}
	if f.Get("df") != "text" {
		t.Errorf("df = %q", f.Get("df"))
	}
	want := "{!tag=text df=text}storm surge"
	if got := f.Values("fq"); len(got) != 1 || got[0] != want {
		t.Errorf("fq = %v, want [%s]", got, want)
	}
	if !f.Selective() {
		t.Error("text constraint must be selective")
	}
}

func TestBuildConstraints_User(t *testing.T) {
	s := newTestService()
	f := s.buildConstraints(mustRequest(t, request.Input{QUser: "alice"}))

	want := "{!field f=user_name tag=user_name}alice"
	if got := f.Values("fq"); len(got) != 1 || got[0] != want {
		t.Errorf("fq = %v, want [%s]", got, want)
	}
	if !f.Selective() {
		t.Error("user constraint must be selective")
	}
}

func TestBuildConstraints_TimeWithRoutingHints(t *testing.T) {
	s := newTestService()
	f := s.buildConstraints(mustRequest(t, request.Input{QTime: "[2015-01-01 TO 2015-02-01]"}))

	want := "{!tag=created_at}created_at:[2015-01-01T00:00:00Z TO 2015-02-01T00:00:00Z]"
	if got := f.Values("fq"); len(got) != 1 || got[0] != want {
		t.Errorf("fq = %v, want [%s]", got, want)
	}
	if f.Get("tr.start") != "2015-01-01T00:00:00Z" {
		t.Errorf("tr.start = %q", f.Get("tr.start"))
	}
	if f.Get("tr.end") != "2015-02-01T00:00:00Z" {
		t.Errorf("tr.end = %q", f.Get("tr.end"))
	}
	if f.Selective() {
		t.Error("time constraint alone is not selective")
	}
}

func TestBuildConstraints_TimeBothOpen(t *testing.T) {
	s := newTestService()
	f := s.buildConstraints(mustRequest(t, request.Input{QTime: "[* TO *]"}))

	if got := f.Values("fq"); len(got) != 0 {
		t.Errorf("both-open range must emit no fq, got %v", got)
	}
	if f.Get("tr.start") != "" || f.Get("tr.end") != "" {
		t.Errorf("both-open range must emit no routing hints, got start=%q end=%q",
			f.Get("tr.start"), f.Get("tr.end"))
	}
}

func TestBuildConstraints_TimeOpenEnd(t *testing.T) {
	s := newTestService()
	f := s.buildConstraints(mustRequest(t, request.Input{QTime: "[2015-01-01 TO *]"}))

	want := "{!tag=created_at}created_at:[2015-01-01T00:00:00Z TO *]"
	if got := f.Values("fq"); len(got) != 1 || got[0] != want {
		t.Errorf("fq = %v", got)
	}
	if f.Get("tr.end") != "" {
		t.Errorf("open end must emit no tr.end, got %q", f.Get("tr.end"))
	}
}

func TestBuildConstraints_GeoSelectivity(t *testing.T) {
	s := newTestService()

	// Small box: selective.
	f := s.buildConstraints(mustRequest(t, request.Input{QGeo: "[0,0 TO 10,10]"}))
	want := "{!tag=coord_rpt}coord_rpt:[0,0 TO 10,10]"
	if got := f.Values("fq"); len(got) != 1 || got[0] != want {
		t.Errorf("fq = %v", got)
	}
	if !f.Selective() {
		t.Error("small box must be selective")
	}

	// Large box: constrains but is not selective.
	f = s.buildConstraints(mustRequest(t, request.Input{QGeo: "[-80,-170 TO 80,170]"}))
	if len(f.Values("fq")) != 1 {
		t.Errorf("fq = %v", f.Values("fq"))
	}
	if f.Selective() {
		t.Error("near-world box must not be selective")
	}

	// World box: no constraint at all.
	f = s.buildConstraints(mustRequest(t, request.Input{QGeo: "[-90,-180 TO 90,180]"}))
	if len(f.Values("fq")) != 0 {
		t.Errorf("world box must emit no fq, got %v", f.Values("fq"))
	}
}

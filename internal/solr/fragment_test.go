package solr

import "testing"

func TestFragment_Immutability(t *testing.T) {
	base := NewFragment().With("q", "*:*")
	derived := base.With("fq", "user_name:alice").WithSelective().WithNote("note %d", 1)

	if got := base.Get("fq"); got != "" {
		t.Errorf("base gained fq %q", got)
	}
	if base.Selective() {
		t.Error("base gained selectivity")
	}
	if len(base.Notes()) != 0 {
		t.Errorf("base gained notes %v", base.Notes())
	}

	if derived.Get("q") != "*:*" || derived.Get("fq") != "user_name:alice" {
		t.Error("derived lost params")
	}
	if !derived.Selective() {
		t.Error("derived lost selectivity")
	}
	if len(derived.Notes()) != 1 || derived.Notes()[0] != "note 1" {
		t.Errorf("derived notes: %v", derived.Notes())
	}
}

func TestFragment_WithAppends(t *testing.T) {
	f := NewFragment().With("fq", "a").With("fq", "b", "c")
	if got := f.Values("fq"); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("got %v", got)
	}
}

func TestMerge(t *testing.T) {
	a := NewFragment().With("q", "*:*").WithNote("first")
	b := NewFragment().With("fq", "x").WithSelective().WithNote("second")

	m := Merge(a, b)
	if m.Get("q") != "*:*" || m.Get("fq") != "x" {
		t.Error("merge lost params")
	}
	if !m.Selective() {
		t.Error("merge lost selectivity")
	}
	if len(m.Notes()) != 2 {
		t.Errorf("merge notes: %v", m.Notes())
	}
}

func TestFragment_ParamsIsCopy(t *testing.T) {
	f := NewFragment().With("q", "*:*")
	p := f.Params()
	p.Set("q", "changed")
	if f.Get("q") != "*:*" {
		t.Error("Params must return a copy")
	}
}

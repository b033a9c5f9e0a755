package gap

import (
	"errors"
	"testing"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
)

func TestComputeGap(t *testing.T) {
	tests := []struct {
		name       string
		span       time.Duration
		targetBars int
		want       string
	}{
		{"one day in 24 bars", 24 * time.Hour, 24, "PT1H"},
		{"one day in 12 bars", 24 * time.Hour, 12, "PT2H"},
		{"ninety days in 80 bars", 90 * 24 * time.Hour, 80, "P2D"},
		{"one hour in 60 bars", time.Hour, 60, "PT1M"},
		{"ten minutes in 1000 bars", 10 * time.Minute, 1000, "PT1S"},
		{"one year in 12 bars", 365 * 24 * time.Hour, 12, "P2M"},
		{"century falls back to coarsest", 100 * 365 * 24 * time.Hour, 1, "P50Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ComputeGap(tt.span, tt.targetBars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := g.ToISO8601(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeGap_NegativeSpan(t *testing.T) {
	_, err := ComputeGap(-time.Hour, 10)
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestComputeGap_ZeroTarget(t *testing.T) {
	if _, err := ComputeGap(time.Hour, 0); err == nil {
		t.Fatal("expected error for zero target bar count")
	}
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		unit Unit
	}{
		{"P1D", 1, Day},
		{"P2W", 2, Week},
		{"P3M", 3, Month},
		{"P10Y", 10, Year},
		{"PT1H", 1, Hour},
		{"PT30M", 30, Minute},
		{"PT15S", 15, Second},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := ParseISO8601(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.N() != tt.n || g.Unit() != tt.unit {
				t.Errorf("got %d/%d, want %d/%d", g.N(), g.Unit(), tt.n, tt.unit)
			}
			if g.ToISO8601() != tt.in {
				t.Errorf("round trip: got %s, want %s", g.ToISO8601(), tt.in)
			}
		})
	}
}

func TestParseISO8601_Rejects(t *testing.T) {
	for _, in := range []string{"", "P", "1D", "P1D2H", "PT1D", "P1H", "P-1D", "P1.5D", "p1d"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseISO8601(in); !errors.Is(err, domain.ErrMalformedRange) {
				t.Errorf("expected ErrMalformedRange for %q, got %v", in, err)
			}
		})
	}
}

func TestToSolr(t *testing.T) {
	tests := []struct {
		n    int
		unit Unit
		want string
	}{
		{1, Day, "+1DAY"},
		{2, Day, "+2DAYS"},
		{1, Week, "+7DAYS"},
		{2, Week, "+14DAYS"},
		{2, Month, "+2MONTHS"},
		{1, Hour, "+1HOUR"},
		{30, Second, "+30SECONDS"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			g, err := New(tt.n, tt.unit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := g.ToSolr(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromSolr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1DAY", "P1D"},
		{"+7DAYS", "P1W"},
		{"+14DAYS", "P2W"},
		{"+2MONTHS", "P2M"},
		{"+1HOUR", "PT1H"},
		{"+30SECONDS", "PT30S"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := FromSolr(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := g.ToISO8601(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromSolr_Rejects(t *testing.T) {
	for _, in := range []string{"", "1DAY", "+DAY", "+1FORTNIGHT", "+1day"} {
		if _, err := FromSolr(in); !errors.Is(err, domain.ErrMalformedRange) {
			t.Errorf("expected ErrMalformedRange for %q, got %v", in, err)
		}
	}
}

func TestBars(t *testing.T) {
	g, _ := New(1, Hour)
	if bars := Bars(24*time.Hour, g); bars != 24 {
		t.Errorf("got %v bars, want 24", bars)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(0, Day); err == nil {
		t.Error("expected error for zero multiplier")
	}
	if _, err := New(-1, Day); err == nil {
		t.Error("expected error for negative multiplier")
	}
}

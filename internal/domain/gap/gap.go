// Package gap models the calendar bucket width of a time histogram and
// its three representations: the public ISO-8601 subset, the backend's
// date-math syntax, and an approximate duration for bar-count estimates.
package gap

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
)

// Unit is a single calendar granularity. A gap never mixes units.
type Unit int

// Calendar units, finest first.
const (
	Second Unit = iota
	Minute
	Hour
	Day
	Week
	Month
	Year
)

// approx maps units to the durations used for bar-count estimation.
// Months and years are calendar units; the approximation is fine for
// sizing decisions and never reaches the backend.
var approx = map[Unit]time.Duration{
	Second: time.Second,
	Minute: time.Minute,
	Hour:   time.Hour,
	Day:    24 * time.Hour,
	Week:   7 * 24 * time.Hour,
	Month:  30 * 24 * time.Hour,
	Year:   365 * 24 * time.Hour,
}

var solrUnits = map[Unit]string{
	Second: "SECOND",
	Minute: "MINUTE",
	Hour:   "HOUR",
	Day:    "DAY",
	Month:  "MONTH",
	Year:   "YEAR",
}

// Gap is a multiplier of a single calendar unit.
type Gap struct {
	n    int
	unit Unit
}

// New validates and creates a gap.
func New(n int, unit Unit) (Gap, error) {
	if n <= 0 {
		return Gap{}, fmt.Errorf("gap multiplier must be positive, got %d", n)
	}
	if unit < Second || unit > Year {
		return Gap{}, fmt.Errorf("unknown gap unit %d", unit)
	}
	return Gap{n: n, unit: unit}, nil
}

// N returns the multiplier.
func (g Gap) N() int { return g.n }

// Unit returns the calendar unit.
func (g Gap) Unit() Unit { return g.unit }

// IsZero reports whether the gap is unset.
func (g Gap) IsZero() bool { return g.n == 0 }

// Approx returns the estimation duration of the gap.
func (g Gap) Approx() time.Duration {
	return time.Duration(g.n) * approx[g.unit]
}

// ladder is the ascending list of candidate gaps for ComputeGap.
var ladder = []Gap{
	{1, Second}, {2, Second}, {5, Second}, {10, Second}, {15, Second}, {30, Second},
	{1, Minute}, {2, Minute}, {5, Minute}, {10, Minute}, {15, Minute}, {30, Minute},
	{1, Hour}, {2, Hour}, {3, Hour}, {6, Hour}, {12, Hour},
	{1, Day}, {2, Day}, {3, Day},
	{1, Week}, {2, Week},
	{1, Month}, {2, Month}, {3, Month}, {6, Month},
	{1, Year}, {2, Year}, {5, Year}, {10, Year}, {50, Year},
}

// ComputeGap picks the finest ladder entry that keeps span/gap within
// targetBars. Spans beyond the ladder fall back to the coarsest entry.
func ComputeGap(span time.Duration, targetBars int) (Gap, error) {
	if span < 0 {
		return Gap{}, fmt.Errorf("%w: negative span", domain.ErrInvalidRange)
	}
	if targetBars <= 0 {
		return Gap{}, fmt.Errorf("target bar count must be positive, got %d", targetBars)
	}
	for _, g := range ladder {
		if Bars(span, g) <= float64(targetBars) {
			return g, nil
		}
	}
	return ladder[len(ladder)-1], nil
}

// Bars estimates how many buckets the gap produces over span.
func Bars(span time.Duration, g Gap) float64 {
	return span.Seconds() / g.Approx().Seconds()
}

var isoPattern = regexp.MustCompile(`^P(?:(\d+)([YMWD])|T(\d+)([HMS]))$`)

// ParseISO8601 reads the constrained duration subset: a single designator,
// e.g. P1D, P2W, P3M, PT1H, PT30S. Full ISO-8601 mixed durations are rejected.
func ParseISO8601(s string) (Gap, error) {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return Gap{}, fmt.Errorf("%w: duration %q", domain.ErrMalformedRange, s)
	}

	digits, designator := m[1], m[2]
	timePart := false
	if digits == "" {
		digits, designator = m[3], m[4]
		timePart = true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Gap{}, fmt.Errorf("%w: duration %q: %w", domain.ErrMalformedRange, s, err)
	}

	var unit Unit
	switch {
	case !timePart && designator == "Y":
		unit = Year
	case !timePart && designator == "M":
		unit = Month
	case !timePart && designator == "W":
		unit = Week
	case !timePart && designator == "D":
		unit = Day
	case timePart && designator == "H":
		unit = Hour
	case timePart && designator == "M":
		unit = Minute
	default:
		unit = Second
	}
	return New(n, unit)
}

// ToISO8601 renders the public duration form.
func (g Gap) ToISO8601() string {
	switch g.unit {
	case Year:
		return fmt.Sprintf("P%dY", g.n)
	case Month:
		return fmt.Sprintf("P%dM", g.n)
	case Week:
		return fmt.Sprintf("P%dW", g.n)
	case Day:
		return fmt.Sprintf("P%dD", g.n)
	case Hour:
		return fmt.Sprintf("PT%dH", g.n)
	case Minute:
		return fmt.Sprintf("PT%dM", g.n)
	default:
		return fmt.Sprintf("PT%dS", g.n)
	}
}

// ToSolr renders the backend date-math form, e.g. +1DAY, +2MONTHS.
// The backend has no week unit, so weeks are lowered to days.
func (g Gap) ToSolr() string {
	n, unit := g.n, g.unit
	if unit == Week {
		n, unit = n*7, Day
	}
	name := solrUnits[unit]
	if n != 1 {
		name += "S"
	}
	return fmt.Sprintf("+%d%s", n, name)
}

var solrPattern = regexp.MustCompile(`^\+(\d+)(YEAR|MONTH|DAY|HOUR|MINUTE|SECOND)S?$`)

// FromSolr reads the gap the backend echoes in a range facet. Day counts
// divisible by seven collapse back to weeks so echoed gaps match the
// requested public form.
func FromSolr(s string) (Gap, error) {
	m := solrPattern.FindStringSubmatch(s)
	if m == nil {
		return Gap{}, fmt.Errorf("%w: backend gap %q", domain.ErrMalformedRange, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Gap{}, fmt.Errorf("%w: backend gap %q: %w", domain.ErrMalformedRange, s, err)
	}

	var unit Unit
	switch m[2] {
	case "YEAR":
		unit = Year
	case "MONTH":
		unit = Month
	case "DAY":
		unit = Day
	case "HOUR":
		unit = Hour
	case "MINUTE":
		unit = Minute
	default:
		unit = Second
	}
	if unit == Day && n%7 == 0 {
		n, unit = n/7, Week
	}
	return New(n, unit)
}

// Package geo holds the axis-aligned lat/lon rectangle used by geo
// constraints and heatmap aggregations.
package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
)

// RangePattern matches the public geo range literal `[lat,lon TO lat,lon]`.
// The transport layer validates against it before the parser runs.
var RangePattern = regexp.MustCompile(
	`^\[(-?\d+(?:\.\d*)?),(-?\d+(?:\.\d*)?) TO (-?\d+(?:\.\d*)?),(-?\d+(?:\.\d*)?)\]$`)

// Rect is an axis-aligned lat/lon rectangle.
type Rect struct {
	minLat float64
	minLon float64
	maxLat float64
	maxLon float64
}

// World is the whole-world box. A geo constraint equal to it is a no-op.
var World = Rect{minLat: -90, minLon: -180, maxLat: 90, maxLon: 180}

// New validates and creates a rectangle. Bounds must be within the
// geographic domain and min must not exceed max on either axis.
func New(minLat, minLon, maxLat, maxLon float64) (Rect, error) {
	if minLat < -90 || maxLat > 90 || minLon < -180 || maxLon > 180 {
		return Rect{}, fmt.Errorf("box out of bounds [%v,%v TO %v,%v]", minLat, minLon, maxLat, maxLon)
	}
	if minLat > maxLat || minLon > maxLon {
		return Rect{}, fmt.Errorf("%w: [%v,%v TO %v,%v]", domain.ErrInvalidRange, minLat, minLon, maxLat, maxLon)
	}
	return Rect{minLat: minLat, minLon: minLon, maxLat: maxLat, maxLon: maxLon}, nil
}

// Parse reads the `[lat,lon TO lat,lon]` literal. A syntax mismatch past
// the transport's pattern gate is a defect, so it surfaces as ErrMalformedRange.
func Parse(s string) (Rect, error) {
	m := RangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Rect{}, fmt.Errorf("%w: %q", domain.ErrMalformedRange, s)
	}
	vals := make([]float64, 4)
	for i, g := range m[1:] {
		v, err := strconv.ParseFloat(g, 64)
		if err != nil {
			return Rect{}, fmt.Errorf("%w: %q: %w", domain.ErrMalformedRange, s, err)
		}
		vals[i] = v
	}
	return New(vals[0], vals[1], vals[2], vals[3])
}

// MinLat returns the southern bound.
func (r Rect) MinLat() float64 { return r.minLat }

// MinLon returns the western bound.
func (r Rect) MinLon() float64 { return r.minLon }

// MaxLat returns the northern bound.
func (r Rect) MaxLat() float64 { return r.maxLat }

// MaxLon returns the eastern bound.
func (r Rect) MaxLon() float64 { return r.maxLon }

// Width returns the longitudinal extent in degrees.
func (r Rect) Width() float64 { return r.maxLon - r.minLon }

// Height returns the latitudinal extent in degrees.
func (r Rect) Height() float64 { return r.maxLat - r.minLat }

// Area returns the extent in square degrees.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Center returns the midpoint as lat, lon.
func (r Rect) Center() (float64, float64) {
	return (r.minLat + r.maxLat) / 2, (r.minLon + r.maxLon) / 2
}

// IsWorld reports whether the rectangle covers the whole world.
func (r Rect) IsWorld() bool { return r == World }

// String renders the public literal form.
func (r Rect) String() string {
	return fmt.Sprintf("[%s,%s TO %s,%s]",
		trimFloat(r.minLat), trimFloat(r.minLon), trimFloat(r.maxLat), trimFloat(r.maxLon))
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

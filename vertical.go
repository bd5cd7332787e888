/*
Copyright (C) 2019 Regents of the University of Minnesota.
This file is part of Regrid.

Regrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Regrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Regrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package regrid

import (
	"fmt"
	"math"
)

// Base-state atmosphere constants used as defaults for barometric
// vertical-coordinate conversion.
const (
	g   = 9.80665  // m s-2, gravitational acceleration
	rr  = 287.058  // J kg-1 K-1, specific gas constant for dry air
	p00 = 100000.0 // Pa, base-state sea-level pressure
	t00 = 290.0    // K, base-state sea-level temperature
	a00 = 50.0     // K, base-state temperature change per unit ln(pressure)
)

// VerticalType identifies the vertical coordinate convention of a grid.
type VerticalType int

// Supported vertical coordinate conventions. The hydrostatic and
// non-hydrostatic sigma-pressure variants share the base-state barometric
// conversion here; they are kept distinct because grid descriptions
// distinguish them.
const (
	VerticalNone                        VerticalType = iota // single layer, no vertical structure
	VerticalSigmaPressure                                   // hydrostatic sigma-pressure fractions
	VerticalSigmaPressureNonhydrostatic                     // non-hydrostatic sigma-pressure fractions
	VerticalSigmaZ                                          // height fractions of the domain top
	VerticalPressure                                        // Pa
	VerticalHeightASL                                       // m above mean sea level
	VerticalHeightAGL                                       // m above ground
)

// String returns the token used for t in grid descriptions.
func (t VerticalType) String() string {
	switch t {
	case VerticalNone:
		return "none"
	case VerticalSigmaPressure:
		return "sigma-pressure"
	case VerticalSigmaPressureNonhydrostatic:
		return "sigma-pressure-nonhydrostatic"
	case VerticalSigmaZ:
		return "sigma-z"
	case VerticalPressure:
		return "pressure"
	case VerticalHeightASL:
		return "height-asl"
	case VerticalHeightAGL:
		return "height-agl"
	}
	return "unknown"
}

// ParseVerticalType converts a grid-description token to a VerticalType.
func ParseVerticalType(s string) (VerticalType, error) {
	for _, t := range []VerticalType{VerticalNone, VerticalSigmaPressure,
		VerticalSigmaPressureNonhydrostatic, VerticalSigmaZ, VerticalPressure,
		VerticalHeightASL, VerticalHeightAGL} {
		if s == t.String() {
			return t, nil
		}
	}
	return VerticalNone, fmt.Errorf("regrid: unknown vertical coordinate type %q", s)
}

// needsConstants reports whether the type's coordinate conversion uses the
// barometric constants.
func (t VerticalType) needsConstants() bool {
	switch t {
	case VerticalSigmaPressure, VerticalSigmaPressureNonhydrostatic, VerticalPressure:
		return true
	}
	return false
}

// needsTop reports whether the type's coordinate conversion divides by the
// top-of-domain reference value.
func (t VerticalType) needsTop() bool {
	switch t {
	case VerticalSigmaPressure, VerticalSigmaPressureNonhydrostatic, VerticalSigmaZ:
		return true
	}
	return false
}

// VerticalConstants holds the physical constants used when a grid's
// vertical type requires converting elevations to a pressure coordinate.
type VerticalConstants struct {
	Gravity        float64 // m s-2
	GasConstant    float64 // J kg-1 K-1, dry air
	Lapse          float64 // K, base-state temperature change per unit ln(pressure)
	RefTemperature float64 // K, base-state sea-level temperature
	RefPressure    float64 // Pa, base-state sea-level pressure
}

// DefaultVerticalConstants returns the base-state constants used when a
// grid is constructed with zero-value constants.
func DefaultVerticalConstants() VerticalConstants {
	return VerticalConstants{
		Gravity:        g,
		GasConstant:    rr,
		Lapse:          a00,
		RefTemperature: t00,
		RefPressure:    p00,
	}
}

func (c VerticalConstants) valid() error {
	if c.Gravity <= 0 || c.GasConstant <= 0 || c.Lapse < 0 ||
		c.RefTemperature <= 0 || c.RefPressure <= 0 {
		return fmt.Errorf("regrid: vertical constants must be positive (lapse may be zero): %+v", c)
	}
	return nil
}

// pressureAtElevation inverts the base-state hypsometric relation
//
//	z = -(R·A/2g)·ln²(p/p00) - (R·T0/g)·ln(p/p00)
//
// for the pressure (Pa) at elevation z (m above sea level).
func (c VerticalConstants) pressureAtElevation(z float64) float64 {
	qa := 0.5 * c.GasConstant * c.Lapse / c.Gravity
	qb := c.GasConstant * c.RefTemperature / c.Gravity
	var logp float64
	if qa == 0 {
		logp = -z / qb
	} else {
		d := qb*qb - 4*qa*z
		if d < 0 {
			// Above the base-state top the relation has no root; hold the
			// minimum pressure so the caller's layer clamp applies.
			d = 0
		}
		logp = (-qb + math.Sqrt(d)) / (2 * qa)
	}
	return c.RefPressure * math.Exp(logp)
}

// CellZ is the vertical assignment of one elevation: a 1-based layer index
// and the fractional position within that layer.
type CellZ struct {
	Layer int
	Frac  float64
}

// ProjectZ maps elevations (m above mean sea level) to 1-based layer
// indices with intra-layer fractional offsets. Grids without vertical
// structure assign every elevation to layer 1; elevations outside the level
// range clamp to the nearest layer.
func (g *Grid) ProjectZ(elevations []float64) []CellZ {
	out := make([]CellZ, len(elevations))
	for i, z := range elevations {
		out[i] = g.projectZ(z)
	}
	return out
}

func (g *Grid) projectZ(z float64) CellZ {
	if g.vt == VerticalNone {
		return CellZ{Layer: 1}
	}
	return locateLevel(g.levels, g.verticalCoordinate(z))
}

// verticalCoordinate converts an elevation (m above mean sea level) into
// the grid's vertical coordinate space.
func (g *Grid) verticalCoordinate(z float64) float64 {
	switch g.vt {
	case VerticalHeightASL, VerticalHeightAGL:
		// Above-ground heights are referenced to a sea-level surface; the
		// core carries no terrain model.
		return z
	case VerticalSigmaZ:
		return z / g.top
	case VerticalPressure:
		return g.consts.pressureAtElevation(z)
	case VerticalSigmaPressure, VerticalSigmaPressureNonhydrostatic:
		p := g.consts.pressureAtElevation(z)
		return (p - g.top) / (g.consts.RefPressure - g.top)
	}
	return 0
}

// locateLevel finds the 1-based layer whose bounding level values bracket
// coordinate c, plus the fractional position between the bounds. The level
// array may be monotonically increasing or decreasing; out-of-range
// coordinates clamp to the first or last layer.
func locateLevel(levels []float64, c float64) CellZ {
	n := len(levels) - 1
	if n < 1 {
		return CellZ{Layer: 1}
	}
	// s flips comparisons so the search reads as ascending.
	s := 1.0
	if levels[n] < levels[0] {
		s = -1
	}
	if s*c <= s*levels[0] {
		return CellZ{Layer: 1}
	}
	if s*c >= s*levels[n] {
		return CellZ{Layer: n, Frac: 1}
	}
	for k := 1; k <= n; k++ {
		if s*c <= s*levels[k] {
			return CellZ{
				Layer: k,
				Frac:  (c - levels[k-1]) / (levels[k] - levels[k-1]),
			}
		}
	}
	return CellZ{Layer: n, Frac: 1}
}

func validLevels(levels []float64) error {
	if len(levels) < 2 {
		return fmt.Errorf("regrid: vertical levels need at least 2 values; got %d", len(levels))
	}
	asc := levels[len(levels)-1] > levels[0]
	for i := 1; i < len(levels); i++ {
		d := levels[i] - levels[i-1]
		if d == 0 || (d > 0) != asc {
			return fmt.Errorf("regrid: vertical levels are not strictly monotonic at index %d", i)
		}
	}
	return nil
}

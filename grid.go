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

// Package regrid converts geophysical point and swath-footprint
// observations into values on regular grids in projected space. It provides
// conformal map projections with iterative inverses, grids with several
// vertical coordinate conventions, point aggregation under nearest, mean,
// and weighted policies, area-weighted regridding of quadrilateral swath
// footprints via exact polygon clipping, and temporal re-aggregation of
// gridded output into coarser time windows.
package regrid

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/geom"
)

// Version is the version number of this library.
const Version = "0.1.0"

// Grid is a regular grid in the projected plane of its Projector, with an
// optional vertical dimension. A Grid is immutable after construction and
// safe for concurrent use.
type Grid struct {
	proj   Projector
	nx, ny int     // column and row counts
	x0, y0 float64 // west and south grid edges (projected m)
	dx, dy float64 // cell width and height (projected m)

	vt     VerticalType
	nz     int       // layer count
	top    float64   // top-of-domain reference value (Pa or m)
	levels []float64 // nz+1 monotonic level values; nil for VerticalNone
	consts VerticalConstants
}

// NewGrid creates a grid of nx columns by ny rows of dx by dy cells whose
// west and south edges are at (x0,y0) in p's projected plane. The vertical
// structure is given by vt, the top-of-domain reference value (Pa for
// sigma-pressure types, m for sigma-z), and the monotonic level values
// bounding each layer (len(levels) = layers+1; nil for VerticalNone).
// Zero-value constants select DefaultVerticalConstants.
func NewGrid(p Projector, nx, ny int, x0, y0, dx, dy float64, vt VerticalType, top float64, levels []float64, consts VerticalConstants) (*Grid, error) {
	if p == nil {
		return nil, fmt.Errorf("regrid: grid requires a projector")
	}
	if consts == (VerticalConstants{}) {
		consts = DefaultVerticalConstants()
	}
	g := &Grid{
		proj: p,
		nx:   nx, ny: ny,
		x0: x0, y0: y0,
		dx: dx, dy: dy,
		vt:     vt,
		nz:     1,
		top:    top,
		consts: consts,
	}
	if vt != VerticalNone {
		g.nz = len(levels) - 1
		g.levels = append([]float64(nil), levels...)
	}
	if err := g.Invariant(); err != nil {
		return nil, err
	}
	return g, nil
}

// Invariant checks the structural invariants established at construction.
// It returns nil for every Grid produced by NewGrid or Subset.
func (g *Grid) Invariant() error {
	if g.proj == nil {
		return fmt.Errorf("regrid: grid requires a projector")
	}
	if g.nx < 1 || g.ny < 1 {
		return fmt.Errorf("regrid: grid dimensions %d x %d must be at least 1 x 1", g.nx, g.ny)
	}
	if !(g.dx > 0) || !(g.dy > 0) {
		return fmt.Errorf("regrid: cell size %g x %g must be positive", g.dx, g.dy)
	}
	if !finite(g.x0, g.y0, g.dx, g.dy) {
		return fmt.Errorf("regrid: grid geometry must be finite")
	}
	if g.vt == VerticalNone {
		if g.nz != 1 || len(g.levels) != 0 {
			return fmt.Errorf("regrid: a grid without vertical structure must have exactly 1 layer")
		}
		return nil
	}
	if err := validLevels(g.levels); err != nil {
		return err
	}
	if g.nz != len(g.levels)-1 {
		return fmt.Errorf("regrid: layer count %d does not match %d level values", g.nz, len(g.levels))
	}
	if g.vt.needsTop() && !(g.top > 0) {
		return fmt.Errorf("regrid: vertical type %v requires a positive top-of-domain value; got %g", g.vt, g.top)
	}
	if g.vt.needsConstants() {
		if err := g.consts.valid(); err != nil {
			return err
		}
		switch g.vt {
		case VerticalSigmaPressure, VerticalSigmaPressureNonhydrostatic:
			if g.top >= g.consts.RefPressure {
				return fmt.Errorf("regrid: top-of-domain pressure %g Pa must be below the reference pressure %g Pa",
					g.top, g.consts.RefPressure)
			}
		}
	}
	return nil
}

// Equal reports whether g and g2 describe the same grid: identical
// geometry, vertical definition, and projection parameters.
func (g *Grid) Equal(g2 *Grid) bool {
	if g == nil || g2 == nil {
		return g == g2
	}
	if g.nx != g2.nx || g.ny != g2.ny || g.x0 != g2.x0 || g.y0 != g2.y0 ||
		g.dx != g2.dx || g.dy != g2.dy || g.vt != g2.vt || g.nz != g2.nz ||
		g.top != g2.top || g.consts != g2.consts {
		return false
	}
	if len(g.levels) != len(g2.levels) {
		return false
	}
	for i := range g.levels {
		if g.levels[i] != g2.levels[i] {
			return false
		}
	}
	return g.proj.Equal(g2.proj)
}

// Clone returns a deep copy of g. The Projector, being read-only, is
// shared.
func (g *Grid) Clone() *Grid {
	c := *g
	c.levels = append([]float64(nil), g.levels...)
	return &c
}

// Subset derives a grid covering the given 1-based inclusive layer, row,
// and column ranges of g, sharing g's Projector. The level array is sliced
// to the requested layers; g itself is unchanged.
func (g *Grid) Subset(layer1, layer2, row1, row2, col1, col2 int) (*Grid, error) {
	if layer1 < 1 || layer2 > g.nz || layer1 > layer2 {
		return nil, fmt.Errorf("regrid: subset layer range [%d,%d] outside [1,%d]", layer1, layer2, g.nz)
	}
	if row1 < 1 || row2 > g.ny || row1 > row2 {
		return nil, fmt.Errorf("regrid: subset row range [%d,%d] outside [1,%d]", row1, row2, g.ny)
	}
	if col1 < 1 || col2 > g.nx || col1 > col2 {
		return nil, fmt.Errorf("regrid: subset column range [%d,%d] outside [1,%d]", col1, col2, g.nx)
	}
	s := *g
	s.nx = col2 - col1 + 1
	s.ny = row2 - row1 + 1
	s.x0 = g.x0 + float64(col1-1)*g.dx
	s.y0 = g.y0 + float64(row1-1)*g.dy
	s.nz = layer2 - layer1 + 1
	if g.vt != VerticalNone {
		s.levels = append([]float64(nil), g.levels[layer1-1:layer2+1]...)
	}
	return &s, nil
}

// Projector returns the grid's projection.
func (g *Grid) Projector() Projector { return g.proj }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.nx }

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.ny }

// Layers returns the number of vertical layers (1 for grids without
// vertical structure).
func (g *Grid) Layers() int { return g.nz }

// Origin returns the grid's west and south edge coordinates (projected m).
func (g *Grid) Origin() (x0, y0 float64) { return g.x0, g.y0 }

// CellSize returns the cell width and height (projected m).
func (g *Grid) CellSize() (dx, dy float64) { return g.dx, g.dy }

// VerticalType returns the grid's vertical coordinate convention.
func (g *Grid) VerticalType() VerticalType { return g.vt }

// Top returns the top-of-domain reference value.
func (g *Grid) Top() float64 { return g.top }

// Levels returns a copy of the level values bounding each layer.
func (g *Grid) Levels() []float64 { return append([]float64(nil), g.levels...) }

// Constants returns the physical constants used for barometric conversion.
func (g *Grid) Constants() VerticalConstants { return g.consts }

// Bounds returns the grid's extent in projected coordinates.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.x0, Y: g.y0},
		Max: geom.Point{X: g.x0 + float64(g.nx)*g.dx, Y: g.y0 + float64(g.ny)*g.dy},
	}
}

// CellBounds returns the projected extent of the cell at the 1-based
// (row,col) address.
func (g *Grid) CellBounds(row, col int) *geom.Bounds {
	x := g.x0 + float64(col-1)*g.dx
	y := g.y0 + float64(row-1)*g.dy
	return &geom.Bounds{
		Min: geom.Point{X: x, Y: y},
		Max: geom.Point{X: x + g.dx, Y: y + g.dy},
	}
}

// CellPolygon returns the cell at the 1-based (row,col) address as a
// counter-clockwise polygon.
func (g *Grid) CellPolygon(row, col int) geom.Polygon {
	b := g.CellBounds(row, col)
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}}
}

// CellCenter returns the projected center of the cell at the 1-based
// (row,col) address.
func (g *Grid) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: g.x0 + (float64(col)-0.5)*g.dx,
		Y: g.y0 + (float64(row)-0.5)*g.dy,
	}
}

// CellXY is the horizontal assignment of one input coordinate: the
// round-tripped longitude and latitude, the 1-based column and row, the
// fractional position within the cell, and whether the point fell inside
// the grid.
type CellXY struct {
	Lon, Lat     float64
	Col, Row     int
	FracX, FracY float64
	InGrid       bool
}

// ProjectXY projects longitude/latitude pairs (degrees) onto the grid,
// assigning each a 1-based (column,row) cell address. Points outside the
// grid are reported with InGrid false, never as errors. The returned
// coordinates are projected and then unprojected again, giving callers a
// round-trip consistency check on each point.
func (g *Grid) ProjectXY(lons, lats []float64) ([]CellXY, error) {
	if len(lons) != len(lats) {
		return nil, fmt.Errorf("regrid: longitude and latitude counts differ: %d != %d", len(lons), len(lats))
	}
	out := make([]CellXY, len(lons))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	for p := 0; p < nprocs; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(lons); i += nprocs {
				out[i] = g.projectXY(lons[i], lats[i])
			}
		}(p)
	}
	wg.Wait()
	return out, nil
}

func (g *Grid) projectXY(lon, lat float64) CellXY {
	x, y := g.proj.Project(lon, lat)
	// Non-convergence here is best-effort; the projector's
	// IterationFailures counter records it.
	rlon, rlat, _ := g.proj.Unproject(x, y)
	fx := (x - g.x0) / g.dx
	fy := (y - g.y0) / g.dy
	col := int(math.Floor(fx)) + 1
	row := int(math.Floor(fy)) + 1
	return CellXY{
		Lon: rlon, Lat: rlat,
		Col: col, Row: row,
		FracX: fx - math.Floor(fx),
		FracY: fy - math.Floor(fy),
		InGrid: col >= 1 && col <= g.nx && row >= 1 && row <= g.ny,
	}
}

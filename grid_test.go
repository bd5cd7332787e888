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
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

// newTestProjector returns the projection shared by most grid tests: a
// spherical continental-scale Lambert cone whose center maps to (0,0).
func newTestProjector(t *testing.T) *LambertConformalConic {
	t.Helper()
	p, err := NewLambertConformalConic(testRadius, testRadius, 33, 45, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// newTestGrid returns a 4x3 single-layer grid spanning [-500000,500000] x
// [-300000,300000] in projected space.
func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(newTestProjector(t), 4, 3, -500000, -300000, 250000, 200000,
		VerticalNone, 0, nil, VerticalConstants{})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewGridValidation(t *testing.T) {
	p := newTestProjector(t)
	tests := []struct {
		name   string
		p      Projector
		nx, ny int
		x0, y0 float64
		dx, dy float64
		vt     VerticalType
		top    float64
		levels []float64
	}{
		{"nil projector", nil, 4, 3, 0, 0, 1000, 1000, VerticalNone, 0, nil},
		{"zero columns", p, 0, 3, 0, 0, 1000, 1000, VerticalNone, 0, nil},
		{"negative rows", p, 4, -1, 0, 0, 1000, 1000, VerticalNone, 0, nil},
		{"zero cell width", p, 4, 3, 0, 0, 0, 1000, VerticalNone, 0, nil},
		{"negative cell height", p, 4, 3, 0, 0, 1000, -1000, VerticalNone, 0, nil},
		{"NaN origin", p, 4, 3, math.NaN(), 0, 1000, 1000, VerticalNone, 0, nil},
		{"sigma-pressure without levels", p, 4, 3, 0, 0, 1000, 1000, VerticalSigmaPressure, 10000, nil},
		{"single level value", p, 4, 3, 0, 0, 1000, 1000, VerticalSigmaZ, 10000, []float64{0}},
		{"non-monotonic levels", p, 4, 3, 0, 0, 1000, 1000, VerticalSigmaZ, 10000, []float64{0, 0.7, 0.5, 1}},
		{"sigma-z without top", p, 4, 3, 0, 0, 1000, 1000, VerticalSigmaZ, 0, []float64{0, 0.5, 1}},
		{"domain top above reference pressure", p, 4, 3, 0, 0, 1000, 1000, VerticalSigmaPressure, 200000, []float64{1, 0.5, 0}},
	}
	for _, tt := range tests {
		_, err := NewGrid(tt.p, tt.nx, tt.ny, tt.x0, tt.y0, tt.dx, tt.dy, tt.vt, tt.top, tt.levels, VerticalConstants{})
		if err == nil {
			t.Errorf("%s: no error", tt.name)
		}
	}
	// Height layers need no top-of-domain value or constants.
	if _, err := NewGrid(p, 4, 3, 0, 0, 1000, 1000, VerticalHeightAGL, 0, []float64{0, 50, 200}, VerticalConstants{}); err != nil {
		t.Errorf("height-layer grid rejected: %v", err)
	}
}

func TestGridDefaults(t *testing.T) {
	g := newTestGrid(t)
	if g.Layers() != 1 {
		t.Errorf("grid without vertical structure has %d layers", g.Layers())
	}
	if got := g.Constants(); got != DefaultVerticalConstants() {
		t.Errorf("zero-value constants became %+v", got)
	}
	if err := g.Invariant(); err != nil {
		t.Error(err)
	}
}

func TestGridGeometry(t *testing.T) {
	g := newTestGrid(t)
	want := &geom.Bounds{
		Min: geom.Point{X: -500000, Y: -300000},
		Max: geom.Point{X: 500000, Y: 300000},
	}
	if b := g.Bounds(); !reflect.DeepEqual(b, want) {
		t.Errorf("Bounds() = %+v, want %+v", b, want)
	}
	want = &geom.Bounds{
		Min: geom.Point{X: 0, Y: -100000},
		Max: geom.Point{X: 250000, Y: 100000},
	}
	if b := g.CellBounds(2, 3); !reflect.DeepEqual(b, want) {
		t.Errorf("CellBounds(2,3) = %+v, want %+v", b, want)
	}
	if c := g.CellCenter(1, 1); c.X != -375000 || c.Y != -200000 {
		t.Errorf("CellCenter(1,1) = %+v", c)
	}
	poly := g.CellPolygon(1, 1)
	if len(poly) != 1 || len(poly[0]) != 4 {
		t.Fatalf("CellPolygon(1,1) = %+v", poly)
	}
	if a := signedArea(poly[0]); a <= 0 {
		t.Errorf("cell polygon is not counter-clockwise: signed area %g", a)
	}
	if dx, dy := g.CellSize(); dx != 250000 || dy != 200000 {
		t.Errorf("CellSize() = (%g,%g)", dx, dy)
	}
	if x0, y0 := g.Origin(); x0 != -500000 || y0 != -300000 {
		t.Errorf("Origin() = (%g,%g)", x0, y0)
	}
}

func TestProjectXY(t *testing.T) {
	g := newTestGrid(t)
	// The projection center lands on (0,0): the west edge of column 3,
	// halfway up row 2.
	xy, err := g.ProjectXY([]float64{-97, -97, 30}, []float64{40, 60, -40})
	if err != nil {
		t.Fatal(err)
	}
	c := xy[0]
	if !c.InGrid || c.Col != 3 || c.Row != 2 {
		t.Fatalf("projection center assigned to %+v", c)
	}
	if absDifferent(c.FracX, 0, 1.0e-9) || absDifferent(c.FracY, 0.5, 1.0e-9) {
		t.Errorf("projection center cell fractions (%g,%g), want (0,0.5)", c.FracX, c.FracY)
	}
	if absDifferent(c.Lon, -97, roundTripTolerance) || absDifferent(c.Lat, 40, roundTripTolerance) {
		t.Errorf("projection center round-trips to (%g,%g)", c.Lon, c.Lat)
	}
	// Points projecting outside the grid are flagged, not errors.
	if xy[1].InGrid || xy[2].InGrid {
		t.Errorf("out-of-grid points flagged in-grid: %+v, %+v", xy[1], xy[2])
	}
	if _, err := g.ProjectXY([]float64{1}, nil); err == nil {
		t.Error("mismatched coordinate arrays accepted")
	}
}

func TestGridSubset(t *testing.T) {
	p := newTestProjector(t)
	g, err := NewGrid(p, 6, 5, 0, 0, 100000, 100000,
		VerticalSigmaZ, 12000, []float64{0, 0.2, 0.6, 1}, VerticalConstants{})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := g.Subset(2, 3, 2, 4, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Layers() != 2 || sub.Rows() != 3 || sub.Cols() != 3 {
		t.Errorf("subset dimensions %d x %d x %d", sub.Layers(), sub.Rows(), sub.Cols())
	}
	if x0, y0 := sub.Origin(); x0 != 200000 || y0 != 100000 {
		t.Errorf("subset origin (%g,%g)", x0, y0)
	}
	if want := []float64{0.2, 0.6, 1}; !reflect.DeepEqual(sub.Levels(), want) {
		t.Errorf("subset levels %v, want %v", sub.Levels(), want)
	}
	if err := sub.Invariant(); err != nil {
		t.Error(err)
	}
	if sub.Projector() != g.Projector() {
		t.Error("subset does not share its parent's projector")
	}
	// A full-range subset restates the grid.
	full, err := g.Subset(1, g.Layers(), 1, g.Rows(), 1, g.Cols())
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(full) {
		t.Error("full-range subset differs from its parent")
	}
	for _, bad := range [][6]int{
		{0, 1, 1, 5, 1, 6},
		{1, 4, 1, 5, 1, 6},
		{1, 3, 3, 2, 1, 6},
		{1, 3, 1, 5, 1, 7},
	} {
		if _, err := g.Subset(bad[0], bad[1], bad[2], bad[3], bad[4], bad[5]); err == nil {
			t.Errorf("subset range %v accepted", bad)
		}
	}
}

func TestGridEqualClone(t *testing.T) {
	p := newTestProjector(t)
	g, err := NewGrid(p, 6, 5, 0, 0, 100000, 100000,
		VerticalSigmaZ, 12000, []float64{0, 0.2, 0.6, 1}, VerticalConstants{})
	if err != nil {
		t.Fatal(err)
	}
	c := g.Clone()
	if !g.Equal(c) {
		t.Error("clone differs from its source")
	}
	other, err := NewGrid(p, 6, 5, 0, 0, 100000, 100000,
		VerticalSigmaZ, 12000, []float64{0, 0.3, 0.6, 1}, VerticalConstants{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Equal(other) {
		t.Error("grids with different levels are Equal")
	}
	flat := newTestGrid(t)
	if g.Equal(flat) {
		t.Error("grids with different vertical structure are Equal")
	}
	// Equal follows projection parameters, not projector identity.
	p2, err := NewLambertConformalConic(testRadius, testRadius, 33, 45, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := NewGrid(p2, 6, 5, 0, 0, 100000, 100000,
		VerticalSigmaZ, 12000, []float64{0, 0.2, 0.6, 1}, VerticalConstants{})
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(g2) {
		t.Error("grids with equal projection parameters are not Equal")
	}
}

/*
Copyright (C) 2019-2020 Regents of the University of Minnesota.
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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// SwathData holds one pass of quadrilateral swath footprints: parallel
// corner arrays in longitude/latitude degrees, named for the corner each
// holds, plus one value per footprint.
type SwathData struct {
	SW, SE, NW, NE []geom.Point
	Values         []float64
}

func (d *SwathData) check() error {
	if d == nil {
		return fmt.Errorf("regrid: nil swath data")
	}
	n := len(d.Values)
	if len(d.SW) != n || len(d.SE) != n || len(d.NW) != n || len(d.NE) != n {
		return fmt.Errorf("regrid: mismatched swath arrays: %d SW, %d SE, %d NW, %d NE corners for %d values",
			len(d.SW), len(d.SE), len(d.NW), len(d.NE), n)
	}
	return nil
}

// SwathCell is one output cell from a swath regridding pass: the
// unprojected cell-center coordinate, the 1-based cell address, the number
// of contributing footprints, and the aggregated mean.
type SwathCell struct {
	Lon, Lat float64
	Row, Col int
	Count    int
	Mean     float64
}

// RegridSwath rasterizes quadrilateral swath footprints onto the grid,
// assigning each footprint's value to every cell it overlaps in proportion
// to the overlap area. The method must be AggregationWeighted (means divide
// by accumulated area fraction) or AggregationMean (means divide by
// footprint count); cells whose mean falls below minValid are excluded.
// Output is in row-major cell order, in contrast to Regrid's first-touch
// ordering.
func (g *Grid) RegridSwath(method AggregationMethod, minValid float64, data *SwathData) ([]SwathCell, error) {
	switch method {
	case AggregationMean, AggregationWeighted:
	default:
		return nil, fmt.Errorf("regrid: aggregation method %v is not supported for swath regridding", method)
	}
	if err := data.check(); err != nil {
		return nil, err
	}
	n := len(data.Values)
	var acc *cellAccumulator
	if n == 0 {
		acc = newCellAccumulator(1, g.ny, g.nx, false, false, true, false)
	} else {
		// Partition-then-reduce: workers rasterize disjoint contiguous
		// footprint ranges into private accumulators, which then merge
		// sequentially. Accumulation is commutative, and the output
		// ordering below is row-major, so the merge order is not
		// observable.
		nprocs := runtime.GOMAXPROCS(0)
		if nprocs > n {
			nprocs = n
		}
		chunk := (n + nprocs - 1) / nprocs
		accs := make([]*cellAccumulator, nprocs)
		var wg sync.WaitGroup
		for p := 0; p < nprocs; p++ {
			accs[p] = newCellAccumulator(1, g.ny, g.nx, false, false, true, false)
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				lo, hi := p*chunk, (p+1)*chunk
				if hi > n {
					hi = n
				}
				g.rasterizeQuads(accs[p], data, lo, hi)
			}(p)
		}
		wg.Wait()
		acc = accs[0]
		for _, a := range accs[1:] {
			acc.merge(a)
		}
	}
	g.computeCellMeans(method, minValid, acc)
	return g.compactCells(acc), nil
}

// rasterizeQuads rasterizes footprints lo through hi-1 into acc. Each
// worker owns a private accumulator, so no synchronization is needed.
func (g *Grid) rasterizeQuads(acc *cellAccumulator, data *SwathData, lo, hi int) {
	gb := g.Bounds()
	var cl clipper
	var cb geom.Bounds
	for i := lo; i < hi; i++ {
		v := [4]geom.Point{
			projectPoint(g.proj, data.SW[i]),
			projectPoint(g.proj, data.SE[i]),
			projectPoint(g.proj, data.NE[i]),
			projectPoint(g.proj, data.NW[i]),
		}
		if signedArea(v[:]) < 0 {
			// Reverse the ring into counter-clockwise order.
			v[1], v[3] = v[3], v[1]
		}
		area := quadArea(&v)
		if area <= 0 {
			// Degenerate collapsed footprint; filtering it here avoids a
			// zero-over-zero fraction.
			continue
		}
		qb := quadBounds(&v)
		if !qb.Overlaps(gb) {
			continue
		}
		c1, c2 := g.clampCols(qb.Min.X, qb.Max.X)
		r1, r2 := g.clampRows(qb.Min.Y, qb.Max.Y)
		if c1 > c2 || r1 > r2 {
			continue
		}
		if c1 == c2 && r1 == r2 {
			// A footprint falling in a single cell skips the exact-geometry
			// path: for an interior cell the bounding box cannot have been
			// clamped, and a boundary cell qualifies when it contains the
			// whole bounding box.
			interior := c1 > 1 && c1 < g.nx && r1 > 1 && r1 < g.ny
			if interior || boundsInside(qb, g.CellBounds(r1, c1)) {
				acc.addFraction(acc.index(1, r1, c1), 1, data.Values[i])
				continue
			}
		}
		for r := r1; r <= r2; r++ {
			for c := c1; c <= c2; c++ {
				cb.Min = geom.Point{X: g.x0 + float64(c-1)*g.dx, Y: g.y0 + float64(r-1)*g.dy}
				cb.Max = geom.Point{X: cb.Min.X + g.dx, Y: cb.Min.Y + g.dy}
				clipped := cl.clip(v[:], &cb)
				if len(clipped) < 3 {
					continue
				}
				if frac := math.Abs(signedArea(clipped)) / area; frac > 0 {
					acc.addFraction(acc.index(1, r, c), frac, data.Values[i])
				}
			}
		}
	}
}

// computeCellMeans converts each non-empty cell's running sum into a mean,
// dividing by the accumulated weight for weighted passes or by the count
// otherwise, then zeroes the count of cells whose mean falls below minValid
// so that compaction excludes them.
func (g *Grid) computeCellMeans(method AggregationMethod, minValid float64, acc *cellAccumulator) {
	for _, idx := range acc.touched {
		n := acc.count.Elements[idx]
		if n == 0 {
			continue
		}
		var mean float64
		if method == AggregationWeighted {
			w := acc.wsum.Elements[idx]
			if w <= 0 {
				acc.count.Elements[idx] = 0
				continue
			}
			mean = acc.sum.Elements[idx] / w
		} else {
			mean = acc.sum.Elements[idx] / float64(n)
		}
		if mean < minValid {
			acc.count.Elements[idx] = 0
			continue
		}
		acc.sum.Elements[idx] = mean
	}
}

// compactCells walks the full cell array once in row-major order and emits
// a dense record per surviving cell, unprojecting each cell's center back
// to longitude and latitude. Repeated runs over the same accumulator
// produce identical output.
func (g *Grid) compactCells(acc *cellAccumulator) []SwathCell {
	out := make([]SwathCell, 0, len(acc.touched))
	idx := 0
	for r := 1; r <= g.ny; r++ {
		for c := 1; c <= g.nx; c++ {
			if n := acc.count.Elements[idx]; n > 0 {
				ctr := g.CellCenter(r, c)
				// Non-convergence is best-effort; the projector's counter
				// records it.
				lon, lat, _ := g.proj.Unproject(ctr.X, ctr.Y)
				out = append(out, SwathCell{
					Lon: lon, Lat: lat,
					Row: r, Col: c,
					Count: n,
					Mean:  acc.sum.Elements[idx],
				})
			}
			idx++
		}
	}
	return out
}

// clipper clips polygons against axis-aligned rectangles, reusing its
// scratch buffers across calls.
type clipper struct {
	a, b []geom.Point
}

// clip clips poly against bounds by parametric clipping against each of
// the four half-planes in sequence. The result is valid until the next
// call.
func (c *clipper) clip(poly []geom.Point, bounds *geom.Bounds) []geom.Point {
	c.a = clipHalfPlane(c.a[:0], poly, bounds.Min.X, 0, true)
	c.b = clipHalfPlane(c.b[:0], c.a, bounds.Max.X, 0, false)
	c.a = clipHalfPlane(c.a[:0], c.b, bounds.Min.Y, 1, true)
	c.b = clipHalfPlane(c.b[:0], c.a, bounds.Max.Y, 1, false)
	return c.b
}

// clipHalfPlane clips polygon in against a single axis-aligned half-plane,
// appending surviving and crossing vertices to out. axis 0 bounds x, 1
// bounds y; keepGreater selects the side that survives. Edge crossings are
// placed by the parametric position t of the boundary along the edge.
func clipHalfPlane(out, in []geom.Point, bound float64, axis int, keepGreater bool) []geom.Point {
	if len(in) == 0 {
		return out
	}
	s := in[len(in)-1]
	sIn := inHalfPlane(s, bound, axis, keepGreater)
	for _, e := range in {
		eIn := inHalfPlane(e, bound, axis, keepGreater)
		if eIn != sIn {
			var t float64
			if axis == 0 {
				t = (bound - s.X) / (e.X - s.X)
			} else {
				t = (bound - s.Y) / (e.Y - s.Y)
			}
			out = append(out, geom.Point{X: s.X + t*(e.X-s.X), Y: s.Y + t*(e.Y-s.Y)})
		}
		if eIn {
			out = append(out, e)
		}
		s, sIn = e, eIn
	}
	return out
}

func inHalfPlane(p geom.Point, bound float64, axis int, keepGreater bool) bool {
	v := p.X
	if axis == 1 {
		v = p.Y
	}
	if keepGreater {
		return v >= bound
	}
	return v <= bound
}

// signedArea returns the signed shoelace area of a polygon, positive for
// counter-clockwise vertex order.
func signedArea(poly []geom.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var s float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}

// quadArea returns the area of a planar quadrilateral with ordered
// vertices: half the magnitude of the cross product of its two diagonals.
func quadArea(v *[4]geom.Point) float64 {
	d1x, d1y := v[2].X-v[0].X, v[2].Y-v[0].Y
	d2x, d2y := v[3].X-v[1].X, v[3].Y-v[1].Y
	return 0.5 * math.Abs(d1x*d2y-d1y*d2x)
}

// quadBounds returns the axis-aligned bounding box of a quadrilateral.
func quadBounds(v *[4]geom.Point) *geom.Bounds {
	xs := [4]float64{v[0].X, v[1].X, v[2].X, v[3].X}
	ys := [4]float64{v[0].Y, v[1].Y, v[2].Y, v[3].Y}
	return &geom.Bounds{
		Min: geom.Point{X: floats.Min(xs[:]), Y: floats.Min(ys[:])},
		Max: geom.Point{X: floats.Max(xs[:]), Y: floats.Max(ys[:])},
	}
}

// boundsInside reports whether inner lies entirely within outer.
func boundsInside(inner, outer *geom.Bounds) bool {
	return inner.Min.X >= outer.Min.X && inner.Max.X <= outer.Max.X &&
		inner.Min.Y >= outer.Min.Y && inner.Max.Y <= outer.Max.Y
}

func projectPoint(p Projector, pt geom.Point) geom.Point {
	x, y := p.Project(pt.X, pt.Y)
	return geom.Point{X: x, Y: y}
}

// clampCols returns the 1-based column range of cells overlapping the
// projected x range, clamped to the grid.
func (g *Grid) clampCols(xmin, xmax float64) (c1, c2 int) {
	c1 = int(math.Floor((xmin-g.x0)/g.dx)) + 1
	c2 = int(math.Floor((xmax-g.x0)/g.dx)) + 1
	if c1 < 1 {
		c1 = 1
	}
	if c2 > g.nx {
		c2 = g.nx
	}
	return c1, c2
}

// clampRows returns the 1-based row range of cells overlapping the
// projected y range, clamped to the grid.
func (g *Grid) clampRows(ymin, ymax float64) (r1, r2 int) {
	r1 = int(math.Floor((ymin-g.y0)/g.dy)) + 1
	r2 = int(math.Floor((ymax-g.y0)/g.dy)) + 1
	if r1 < 1 {
		r1 = 1
	}
	if r2 > g.ny {
		r2 = g.ny
	}
	return r1, r2
}

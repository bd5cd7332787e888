/*
Copyright (C) 2020 Regents of the University of Minnesota.
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

import "fmt"

// TimeWindow holds the aggregated records of one output time window.
type TimeWindow struct {
	Points []GriddedPoint
}

// AggregateTime re-aggregates a timestep-ordered stream of gridded records
// into coarser time windows. counts gives the number of records in each
// input timestep, in order, and points holds the records themselves,
// concatenated in the same order. Every timestepsPerWindow consecutive
// input timesteps merge into one output window; the last window may cover
// fewer. Within a window, records landing in the same cell average
// together, so a window holding one record per cell restates its input
// exactly. Each window lists its cells in first-touch order.
func (g *Grid) AggregateTime(timestepsPerWindow int, counts []int, points []GriddedPoint) ([]TimeWindow, error) {
	if timestepsPerWindow < 1 {
		return nil, fmt.Errorf("regrid: timesteps per window must be positive: %d", timestepsPerWindow)
	}
	total := 0
	for t, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("regrid: timestep %d has negative record count %d", t, c)
		}
		total += c
	}
	if total != len(points) {
		return nil, fmt.Errorf("regrid: timestep counts sum to %d records but %d were given", total, len(points))
	}
	for i := range points {
		p := &points[i]
		if p.Col < 1 || p.Col > g.nx || p.Row < 1 || p.Row > g.ny || p.Layer < 1 || p.Layer > g.nz {
			return nil, fmt.Errorf("regrid: record %d cell address (%d,%d,%d) outside the %dx%dx%d grid",
				i, p.Layer, p.Row, p.Col, g.nz, g.ny, g.nx)
		}
	}
	nw := (len(counts) + timestepsPerWindow - 1) / timestepsPerWindow
	out := make([]TimeWindow, 0, nw)
	acc := newCellAccumulator(g.nz, g.ny, g.nx, true, true, false, true)
	rec := 0
	for w := 0; w < nw; w++ {
		t2 := (w + 1) * timestepsPerWindow
		if t2 > len(counts) {
			t2 = len(counts)
		}
		for t := w * timestepsPerWindow; t < t2; t++ {
			for k := 0; k < counts[t]; k++ {
				p := &points[rec]
				acc.addRecord(acc.index(p.Layer, p.Row, p.Col), rec, p)
				rec++
			}
		}
		out = append(out, TimeWindow{Points: compactWindow(acc, points)})
		acc.reset()
	}
	return out, nil
}

// compactWindow emits one record per touched cell in first-touch order.
// Values, second values, and elevations divide by the number of
// contributing records; the emitted Count is the sum of the records' own
// counts. The location and note come from the cell's first record.
func compactWindow(acc *cellAccumulator, points []GriddedPoint) []GriddedPoint {
	out := make([]GriddedPoint, 0, len(acc.touched))
	for _, idx := range acc.touched {
		n := acc.count.Elements[idx]
		if n == 0 {
			continue
		}
		src := points[acc.first.Elements[idx]-1]
		fn := float64(n)
		out = append(out, GriddedPoint{
			Lon:       src.Lon,
			Lat:       src.Lat,
			Elevation: acc.esum.Elements[idx] / fn,
			Col:       src.Col,
			Row:       src.Row,
			Layer:     src.Layer,
			Value:     acc.sum.Elements[idx] / fn,
			Value2:    acc.sum2.Elements[idx] / fn,
			Count:     acc.total.Elements[idx],
			Note:      src.Note,
		})
	}
	return out
}

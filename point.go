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

import "fmt"

// AggregationMethod selects how repeated observations landing in the same
// grid cell combine.
type AggregationMethod int

const (
	// AggregationNearest keeps only the first observation to reach each
	// cell.
	AggregationNearest AggregationMethod = iota
	// AggregationMean averages all observations reaching each cell.
	AggregationMean
	// AggregationWeighted averages observations using caller-supplied
	// weights (point passes) or overlap-area fractions (swath passes).
	AggregationWeighted
)

// String returns the token used for m in configuration.
func (m AggregationMethod) String() string {
	switch m {
	case AggregationNearest:
		return "nearest"
	case AggregationMean:
		return "mean"
	case AggregationWeighted:
		return "weighted"
	}
	return "unknown"
}

// ParseAggregationMethod converts a configuration token to an
// AggregationMethod.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	for _, m := range []AggregationMethod{AggregationNearest, AggregationMean, AggregationWeighted} {
		if s == m.String() {
			return m, nil
		}
	}
	return AggregationNearest, fmt.Errorf("regrid: unknown aggregation method %q", s)
}

// PointData holds one pass of point observations as parallel arrays. Lons,
// Lats, and Values are required; the others are optional, with nil meaning
// absent. Weights must be present for AggregationWeighted. Sentinel
// missing values are expected to have been filtered by the reader that
// produced the arrays.
type PointData struct {
	Lons, Lats []float64 // degrees
	Elevations []float64 // m above mean sea level
	Values     []float64
	Values2    []float64 // paired second component for vector quantities
	Weights    []float64
	Notes      []string
}

func (d *PointData) check(method AggregationMethod) error {
	if d == nil {
		return fmt.Errorf("regrid: nil point data")
	}
	n := len(d.Lons)
	if len(d.Lats) != n || len(d.Values) != n {
		return fmt.Errorf("regrid: mismatched point arrays: %d longitudes, %d latitudes, %d values",
			len(d.Lons), len(d.Lats), len(d.Values))
	}
	if d.Elevations != nil && len(d.Elevations) != n {
		return fmt.Errorf("regrid: %d elevations for %d points", len(d.Elevations), n)
	}
	if d.Values2 != nil && len(d.Values2) != n {
		return fmt.Errorf("regrid: %d second values for %d points", len(d.Values2), n)
	}
	if d.Weights != nil && len(d.Weights) != n {
		return fmt.Errorf("regrid: %d weights for %d points", len(d.Weights), n)
	}
	if d.Notes != nil && len(d.Notes) != n {
		return fmt.Errorf("regrid: %d notes for %d points", len(d.Notes), n)
	}
	if method == AggregationWeighted && d.Weights == nil {
		return fmt.Errorf("regrid: aggregation method %v requires weights", method)
	}
	return nil
}

// GriddedPoint is one aggregated output cell from a point regridding pass.
// Lon and Lat are the first contributing point's coordinates after
// projecting onto the grid and unprojecting back, not the raw input
// coordinate. Col, Row, and Layer are the 1-based cell address. Value, and
// Value2 for vector quantities, hold the aggregate; Elevation is the
// aggregated elevation of the contributing points; Count is the number of
// contributing inputs; Note is the first contributing point's note.
type GriddedPoint struct {
	Lon, Lat  float64
	Elevation float64
	Col, Row  int
	Layer     int
	Value     float64
	Value2    float64
	Count     int
	Note      string
}

// Regrid aggregates point observations onto the grid under the given
// method. Points landing outside the grid, or whose value is below
// minValid, are dropped silently. Surviving cells are emitted in
// first-touch order: the order in which each cell's first contributing
// point appears in the input.
func (g *Grid) Regrid(method AggregationMethod, minValid float64, data *PointData) ([]GriddedPoint, error) {
	switch method {
	case AggregationNearest, AggregationMean, AggregationWeighted:
	default:
		return nil, fmt.Errorf("regrid: unknown aggregation method %d", method)
	}
	if err := data.check(method); err != nil {
		return nil, err
	}
	// The trigonometry-heavy projection phase runs in parallel over
	// disjoint input ranges; accumulation then replays the results
	// sequentially in input order, which preserves the exact first-touch
	// emission order and its lowest-input-index tie-break without locking.
	xy, err := g.ProjectXY(data.Lons, data.Lats)
	if err != nil {
		return nil, err
	}
	var zs []CellZ
	if data.Elevations != nil {
		zs = g.ProjectZ(data.Elevations)
	}
	acc := newCellAccumulator(g.nz, g.ny, g.nx,
		data.Values2 != nil, data.Elevations != nil, method == AggregationWeighted, false)
	for i, c := range xy {
		if !c.InGrid || data.Values[i] < minValid {
			continue
		}
		layer := 1
		if zs != nil {
			layer = zs[i].Layer
		}
		var v2, elev, w float64
		if data.Values2 != nil {
			v2 = data.Values2[i]
		}
		if data.Elevations != nil {
			elev = data.Elevations[i]
		}
		if data.Weights != nil {
			w = data.Weights[i]
		}
		acc.addPoint(acc.index(layer, c.Row, c.Col), i, method, data.Values[i], v2, elev, w)
	}
	return g.compactPoints(method, acc, xy, data), nil
}

// compactPoints emits the surviving cells of a point pass in first-touch
// order, taking each cell's representative coordinate and note from its
// first contributing input.
func (g *Grid) compactPoints(method AggregationMethod, acc *cellAccumulator, xy []CellXY, data *PointData) []GriddedPoint {
	out := make([]GriddedPoint, 0, len(acc.touched))
	for _, idx := range acc.touched {
		n := acc.count.Elements[idx]
		if n == 0 {
			continue
		}
		i := acc.first.Elements[idx] - 1
		c := xy[i]
		p := GriddedPoint{
			Lon: c.Lon, Lat: c.Lat,
			Col: c.Col, Row: c.Row,
			Layer: idx/(g.ny*g.nx) + 1,
			Count: n,
		}
		switch method {
		case AggregationWeighted:
			if w := acc.wsum.Elements[idx]; w > 0 {
				p.Value = acc.sum.Elements[idx] / w
				if acc.sum2 != nil {
					p.Value2 = acc.sum2.Elements[idx] / w
				}
				if acc.esum != nil {
					p.Elevation = acc.esum.Elements[idx] / w
				}
			}
		case AggregationMean:
			p.Value = acc.sum.Elements[idx] / float64(n)
			if acc.sum2 != nil {
				p.Value2 = acc.sum2.Elements[idx] / float64(n)
			}
			if acc.esum != nil {
				p.Elevation = acc.esum.Elements[idx] / float64(n)
			}
		default:
			// Nearest: the sums hold the single retained observation.
			p.Value = acc.sum.Elements[idx]
			if acc.sum2 != nil {
				p.Value2 = acc.sum2.Elements[idx]
			}
			if acc.esum != nil {
				p.Elevation = acc.esum.Elements[idx]
			}
		}
		if data.Notes != nil {
			p.Note = data.Notes[i]
		}
		out = append(out, p)
	}
	return out
}

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

import "github.com/ctessum/sparse"

// cellAccumulator holds the running per-cell statistics of one aggregation
// pass over a (layers,rows,cols)-shaped grid. It is scratch state, created
// fresh for each pass and never persisted. The dense layout keeps the
// (layer,row,col)->flat index mapping row-major, which the compaction
// ordering invariants depend on.
type cellAccumulator struct {
	first *sparse.DenseArrayInt // 1 + index of the first input to fill each cell; 0 = empty
	count *sparse.DenseArrayInt // number of contributing inputs per cell
	total *sparse.DenseArrayInt // summed input counts; temporal aggregation only
	sum   *sparse.DenseArray    // running value sum
	sum2  *sparse.DenseArray    // running second-value sum; vector quantities only
	esum  *sparse.DenseArray    // running elevation sum; elevation-bearing passes only
	wsum  *sparse.DenseArray    // running weight sum; weighted passes only

	touched []int // flat indices of non-empty cells, in first-touch order
}

// newCellAccumulator allocates per-cell scratch arrays shaped
// (layers,rows,cols). The optional arrays are allocated only when the pass
// needs them.
func newCellAccumulator(layers, rows, cols int, second, elevation, weight, totals bool) *cellAccumulator {
	a := &cellAccumulator{
		first: sparse.ZerosDenseInt(layers, rows, cols),
		count: sparse.ZerosDenseInt(layers, rows, cols),
		sum:   sparse.ZerosDense(layers, rows, cols),
	}
	if second {
		a.sum2 = sparse.ZerosDense(layers, rows, cols)
	}
	if elevation {
		a.esum = sparse.ZerosDense(layers, rows, cols)
	}
	if weight {
		a.wsum = sparse.ZerosDense(layers, rows, cols)
	}
	if totals {
		a.total = sparse.ZerosDenseInt(layers, rows, cols)
	}
	return a
}

// index converts a 1-based (layer,row,col) cell address to the flat
// row-major index shared by all the accumulator's arrays.
func (a *cellAccumulator) index(layer, row, col int) int {
	return a.sum.Index1d(layer-1, row-1, col-1)
}

// addPoint merges one point observation into the cell at flat index idx.
// inputIndex must increase across calls within a pass; it drives the
// first-touch bookkeeping and its lowest-index-wins tie-break.
func (a *cellAccumulator) addPoint(idx, inputIndex int, method AggregationMethod, v, v2, elev, weight float64) {
	if a.first.Elements[idx] == 0 {
		a.first.Elements[idx] = inputIndex + 1
		a.touched = append(a.touched, idx)
	} else if method == AggregationNearest {
		// Only the first point to reach a cell is retained.
		return
	}
	a.count.Elements[idx]++
	if method == AggregationWeighted {
		a.sum.Elements[idx] += v * weight
		a.wsum.Elements[idx] += weight
		if a.sum2 != nil {
			a.sum2.Elements[idx] += v2 * weight
		}
		if a.esum != nil {
			a.esum.Elements[idx] += elev * weight
		}
		return
	}
	a.sum.Elements[idx] += v
	if a.sum2 != nil {
		a.sum2.Elements[idx] += v2
	}
	if a.esum != nil {
		a.esum.Elements[idx] += elev
	}
}

// addFraction merges an area fraction of a footprint's value into the cell
// at flat index idx.
func (a *cellAccumulator) addFraction(idx int, fraction, value float64) {
	if a.first.Elements[idx] == 0 {
		a.first.Elements[idx] = 1
		a.touched = append(a.touched, idx)
	}
	a.count.Elements[idx]++
	a.sum.Elements[idx] += fraction * value
	a.wsum.Elements[idx] += fraction
}

// addRecord merges an already-gridded record into the cell at flat index
// idx, keeping both the number of contributing records (count) and the sum
// of the records' own counts (total).
func (a *cellAccumulator) addRecord(idx, inputIndex int, p *GriddedPoint) {
	if a.first.Elements[idx] == 0 {
		a.first.Elements[idx] = inputIndex + 1
		a.touched = append(a.touched, idx)
	}
	a.count.Elements[idx]++
	n := p.Count
	if n < 1 {
		n = 1
	}
	a.total.Elements[idx] += n
	a.sum.Elements[idx] += p.Value
	if a.sum2 != nil {
		a.sum2.Elements[idx] += p.Value2
	}
	if a.esum != nil {
		a.esum.Elements[idx] += p.Elevation
	}
}

// merge folds other into a. Sums, counts, and weights add; the first-touch
// index keeps the lowest input index. Cells first touched in other keep
// their relative order after a's existing cells, so merging contiguous
// input partitions in ascending order reproduces the sequential first-touch
// order. Merging is valid only for commutative methods (mean, weighted,
// fraction accumulation), never for nearest.
func (a *cellAccumulator) merge(other *cellAccumulator) {
	for _, idx := range other.touched {
		if a.first.Elements[idx] == 0 {
			a.first.Elements[idx] = other.first.Elements[idx]
			a.touched = append(a.touched, idx)
		} else if other.first.Elements[idx] < a.first.Elements[idx] {
			a.first.Elements[idx] = other.first.Elements[idx]
		}
		a.count.Elements[idx] += other.count.Elements[idx]
		a.sum.Elements[idx] += other.sum.Elements[idx]
		if a.sum2 != nil {
			a.sum2.Elements[idx] += other.sum2.Elements[idx]
		}
		if a.esum != nil {
			a.esum.Elements[idx] += other.esum.Elements[idx]
		}
		if a.wsum != nil {
			a.wsum.Elements[idx] += other.wsum.Elements[idx]
		}
		if a.total != nil {
			a.total.Elements[idx] += other.total.Elements[idx]
		}
	}
}

// reset clears only the touched cells, readying a for reuse by the next
// window of a temporal pass.
func (a *cellAccumulator) reset() {
	for _, idx := range a.touched {
		a.first.Elements[idx] = 0
		a.count.Elements[idx] = 0
		a.sum.Elements[idx] = 0
		if a.sum2 != nil {
			a.sum2.Elements[idx] = 0
		}
		if a.esum != nil {
			a.esum.Elements[idx] = 0
		}
		if a.wsum != nil {
			a.wsum.Elements[idx] = 0
		}
		if a.total != nil {
			a.total.Elements[idx] = 0
		}
	}
	a.touched = a.touched[:0]
}

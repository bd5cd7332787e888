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

package regridutil

import (
	"fmt"
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/regrid"
	"gonum.org/v1/gonum/floats"
)

// logger reports progress and summary statistics to standard error.
var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

// RegridPoints reads point observations from inputFile, aggregates them
// onto the grid described in gridDescFile, and writes one record per
// filled cell to outputFile. Empty or "-" file names mean standard input
// and output.
func RegridPoints(gridDescFile, inputFile, outputFile string, method regrid.AggregationMethod, minValid, missing float64) error {
	g, err := readGridDescFile(gridDescFile)
	if err != nil {
		return err
	}
	r, err := openInput(inputFile)
	if err != nil {
		return err
	}
	data, err := ReadPoints(r, missing)
	r.Close()
	if err != nil {
		return err
	}
	start := time.Now()
	points, err := g.Regrid(method, minValid, data)
	if err != nil {
		return err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	logSummary("regridded points", g, len(data.Lons), values, time.Since(start))
	w, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if err := WritePoints(w, points); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// RegridSwath reads quadrilateral swath footprints from inputFile, spreads
// each footprint value over the grid cells it overlaps in the grid
// described in gridDescFile, and writes one record per touched cell to
// outputFile. Empty or "-" file names mean standard input and output.
func RegridSwath(gridDescFile, inputFile, outputFile string, method regrid.AggregationMethod, minValid, missing float64) error {
	g, err := readGridDescFile(gridDescFile)
	if err != nil {
		return err
	}
	r, err := openInput(inputFile)
	if err != nil {
		return err
	}
	data, err := ReadSwath(r, missing)
	r.Close()
	if err != nil {
		return err
	}
	start := time.Now()
	cells, err := g.RegridSwath(method, minValid, data)
	if err != nil {
		return err
	}
	values := make([]float64, len(cells))
	for i, c := range cells {
		values[i] = c.Mean
	}
	logSummary("regridded swath", g, len(data.Values), values, time.Since(start))
	w, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if err := WriteSwathCells(w, cells); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// AggregateWindows reads timestep blocks of gridded records from
// inputFile, merges every timestepsPerWindow consecutive timesteps on the
// grid described in gridDescFile, and writes the resulting windows to
// outputFile in the same block format, so the output can be aggregated
// again with a longer window. Empty or "-" file names mean standard input
// and output.
func AggregateWindows(gridDescFile, inputFile, outputFile string, timestepsPerWindow int) error {
	g, err := readGridDescFile(gridDescFile)
	if err != nil {
		return err
	}
	r, err := openInput(inputFile)
	if err != nil {
		return err
	}
	counts, points, err := ReadTimesteps(r)
	r.Close()
	if err != nil {
		return err
	}
	start := time.Now()
	windows, err := g.AggregateTime(timestepsPerWindow, counts, points)
	if err != nil {
		return err
	}
	merged := 0
	for _, win := range windows {
		merged += len(win.Points)
	}
	logger.WithFields(logrus.Fields{
		"timesteps": len(counts),
		"records":   len(points),
		"windows":   len(windows),
		"merged":    merged,
		"elapsed":   time.Since(start),
	}).Info("aggregated windows")
	w, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if err := WriteWindows(w, windows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// DescribeGrid reads the grid description in gridDescFile, reports the
// grid geometry, and writes the description back out in normalized form.
// A non-empty subset gives 1-based inclusive layer, row, and column ranges
// to restrict the output grid to; proj4 replaces the output with the
// PROJ.4 string equivalent to the grid projection.
func DescribeGrid(gridDescFile, outputFile string, subset []int, proj4 bool) error {
	g, err := readGridDescFile(gridDescFile)
	if err != nil {
		return err
	}
	if len(subset) != 0 {
		if len(subset) != 6 {
			return fmt.Errorf("regridutil: subset wants 6 values (layer, row, and column ranges) but has %d", len(subset))
		}
		if g, err = g.Subset(subset[0], subset[1], subset[2], subset[3], subset[4], subset[5]); err != nil {
			return err
		}
	}
	b := g.Bounds()
	logger.WithFields(logrus.Fields{
		"cols":     g.Cols(),
		"rows":     g.Rows(),
		"layers":   g.Layers(),
		"vertical": g.VerticalType(),
		"xmin":     b.Min.X,
		"ymin":     b.Min.Y,
		"xmax":     b.Max.X,
		"ymax":     b.Max.Y,
	}).Info("grid")
	w, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if proj4 {
		s, err := Proj4String(g.Projector())
		if err != nil {
			w.Close()
			return err
		}
		fmt.Fprintln(w, s)
	} else if err := WriteGridDesc(w, g); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// logSummary reports the outcome of an aggregation pass: input and output
// sizes, the range of the aggregated values, and any unprojection
// failures accumulated by the grid projection.
func logSummary(msg string, g *regrid.Grid, inputs int, values []float64, elapsed time.Duration) {
	fields := logrus.Fields{
		"inputs":  inputs,
		"cells":   len(values),
		"elapsed": elapsed,
	}
	if len(values) > 0 {
		fields["min"] = stats.StatsMin(values)
		fields["max"] = stats.StatsMax(values)
		fields["mean"] = floats.Sum(values) / float64(len(values))
	}
	if f, ok := g.Projector().(interface{ IterationFailures() uint64 }); ok {
		if n := f.IterationFailures(); n > 0 {
			fields["unprojectFailures"] = n
		}
	}
	logger.WithFields(fields).Info(msg)
}

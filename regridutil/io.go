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
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/regrid"
)

// timestampLayout is the observation time format in point input files.
const timestampLayout = "20060102150405"

// ReadPoints reads whitespace-separated point observations. Each line
// gives longitude, latitude, elevation, a YYYYMMDDHHMMSS timestamp, and an
// observed value, optionally followed by a second value component and an
// aggregation weight; all lines in a file must have the same number of
// columns. Lines whose value (or second value) equals missing are
// dropped. The timestamps become the point notes so that the first
// observation time survives aggregation. Blank lines and lines beginning
// with # are ignored.
func ReadPoints(r io.Reader, missing float64) (*regrid.PointData, error) {
	d := new(regrid.PointData)
	nField := 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if nField == 0 {
			switch len(fields) {
			case 5, 6, 7:
				nField = len(fields)
			default:
				return nil, fmt.Errorf("regridutil: points line %d: want 5, 6, or 7 columns but have %d", lineNo, len(fields))
			}
		} else if len(fields) != nField {
			return nil, fmt.Errorf("regridutil: points line %d: want %d columns as before but have %d", lineNo, nField, len(fields))
		}
		pos, err := parseFloats(fields[:3], 3)
		if err != nil {
			return nil, fmt.Errorf("regridutil: points line %d: %v", lineNo, err)
		}
		ts := fields[3]
		if _, err := time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("regridutil: points line %d: timestamp %q is not YYYYMMDDHHMMSS", lineNo, ts)
		}
		vals, err := parseFloats(fields[4:], nField-4)
		if err != nil {
			return nil, fmt.Errorf("regridutil: points line %d: %v", lineNo, err)
		}
		if vals[0] == missing {
			continue
		}
		if nField >= 6 && vals[1] == missing {
			continue
		}
		d.Lons = append(d.Lons, pos[0])
		d.Lats = append(d.Lats, pos[1])
		d.Elevations = append(d.Elevations, pos[2])
		d.Values = append(d.Values, vals[0])
		if nField >= 6 {
			d.Values2 = append(d.Values2, vals[1])
		}
		if nField == 7 {
			d.Weights = append(d.Weights, vals[2])
		}
		d.Notes = append(d.Notes, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// writePointLine writes one gridded point record in the format read by
// parseGriddedPoint.
func writePointLine(w io.Writer, p regrid.GriddedPoint) {
	note := p.Note
	if note == "" {
		note = "-"
	}
	fmt.Fprintf(w, "%g %g %d %d %d %g %g %g %d %s\n",
		p.Lon, p.Lat, p.Col, p.Row, p.Layer, p.Elevation, p.Value, p.Value2,
		p.Count, note)
}

// parseGriddedPoint converts the whitespace-separated fields of one record
// line to a GriddedPoint. Columns past the tenth belong to the note; a
// note of "-" means empty.
func parseGriddedPoint(fields []string) (regrid.GriddedPoint, error) {
	var p regrid.GriddedPoint
	if len(fields) < 10 {
		return p, fmt.Errorf("want 10 columns but have %d", len(fields))
	}
	v, err := parseFloats([]string{fields[0], fields[1], fields[5], fields[6], fields[7]}, 5)
	if err != nil {
		return p, err
	}
	p.Lon, p.Lat, p.Elevation, p.Value, p.Value2 = v[0], v[1], v[2], v[3], v[4]
	if p.Col, err = strconv.Atoi(fields[2]); err != nil {
		return p, fmt.Errorf("invalid column %q", fields[2])
	}
	if p.Row, err = strconv.Atoi(fields[3]); err != nil {
		return p, fmt.Errorf("invalid row %q", fields[3])
	}
	if p.Layer, err = strconv.Atoi(fields[4]); err != nil {
		return p, fmt.Errorf("invalid layer %q", fields[4])
	}
	if p.Count, err = strconv.Atoi(fields[8]); err != nil {
		return p, fmt.Errorf("invalid count %q", fields[8])
	}
	if note := strings.Join(fields[9:], " "); note != "-" {
		p.Note = note
	}
	return p, nil
}

// WritePoints writes aggregated point records, one line per grid cell.
func WritePoints(w io.Writer, points []regrid.GriddedPoint) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# lon lat col row layer elevation value value2 count note")
	for _, p := range points {
		writePointLine(bw, p)
	}
	return bw.Flush()
}

// ReadSwath reads whitespace-separated swath footprints. Each line gives
// the longitude and latitude of the SW, SE, NW, and NE footprint corners
// followed by the observed value; lines whose value equals missing are
// dropped. Blank lines and lines beginning with # are ignored.
func ReadSwath(r io.Reader, missing float64) (*regrid.SwathData, error) {
	d := new(regrid.SwathData)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := parseFloats(strings.Fields(line), 9)
		if err != nil {
			return nil, fmt.Errorf("regridutil: swath line %d: %v", lineNo, err)
		}
		if v[8] == missing {
			continue
		}
		d.SW = append(d.SW, geom.Point{X: v[0], Y: v[1]})
		d.SE = append(d.SE, geom.Point{X: v[2], Y: v[3]})
		d.NW = append(d.NW, geom.Point{X: v[4], Y: v[5]})
		d.NE = append(d.NE, geom.Point{X: v[6], Y: v[7]})
		d.Values = append(d.Values, v[8])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// WriteSwathCells writes aggregated swath records, one line per grid cell.
func WriteSwathCells(w io.Writer, cells []regrid.SwathCell) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# lon lat row col count mean")
	for _, c := range cells {
		fmt.Fprintf(bw, "%g %g %d %d %d %g\n", c.Lon, c.Lat, c.Row, c.Col, c.Count, c.Mean)
	}
	return bw.Flush()
}

// ReadTimesteps reads gridded point records grouped into timesteps. The
// input is a sequence of blocks, each a line holding the number of records
// in the timestep followed by that many record lines in the WritePoints
// format; a timestep with no observations is a count line of 0. It returns
// the per-timestep record counts and the concatenated records, the form
// AggregateTime takes. Blank lines and lines beginning with # are ignored.
func ReadTimesteps(r io.Reader) ([]int, []regrid.GriddedPoint, error) {
	var counts []int
	var points []regrid.GriddedPoint
	remaining := 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if remaining == 0 {
			if len(fields) != 1 {
				return nil, nil, fmt.Errorf("regridutil: timesteps line %d: want a record count but have %q", lineNo, line)
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 0 {
				return nil, nil, fmt.Errorf("regridutil: timesteps line %d: invalid record count %q", lineNo, fields[0])
			}
			counts = append(counts, n)
			remaining = n
			continue
		}
		p, err := parseGriddedPoint(fields)
		if err != nil {
			return nil, nil, fmt.Errorf("regridutil: timesteps line %d: %v", lineNo, err)
		}
		points = append(points, p)
		remaining--
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if remaining > 0 {
		return nil, nil, fmt.Errorf("regridutil: timestep input ends with %d records still expected", remaining)
	}
	return counts, points, nil
}

// WriteWindows writes aggregation windows as timestep blocks, so that the
// output of one aggregation pass can be aggregated again with a longer
// window.
func WriteWindows(w io.Writer, windows []regrid.TimeWindow) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# per-window blocks: record count, then lon lat col row layer elevation value value2 count note")
	for _, win := range windows {
		fmt.Fprintln(bw, len(win.Points))
		for _, p := range win.Points {
			writePointLine(bw, p)
		}
	}
	return bw.Flush()
}

// openInput opens the named input file, or standard input if path is
// empty or "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(os.ExpandEnv(path))
}

// createOutput creates the named output file, or standard output if path
// is empty or "-".
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(os.ExpandEnv(path))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

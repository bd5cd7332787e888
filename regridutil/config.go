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
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/regrid"
)

const radToDeg = 180 / math.Pi

// orZero replaces the NaN that proj uses for unset parameters with zero.
func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// ProjectorFromProj4 creates a Projector from a PROJ.4 specification such
// as the ones describing WRF and other model grids; for example
// "+proj=lcc +lat_1=33 +lat_2=45 +lat_0=40 +lon_0=-97 +x_0=0 +y_0=0
// +a=6370997 +b=6370997 +to_meter=1". The lcc, stere, and merc projections
// are supported.
func ProjectorFromProj4(projString string) (regrid.Projector, error) {
	sr, err := proj.Parse(projString)
	if err != nil {
		return nil, err
	}
	switch sr.Name {
	case "lcc":
		lat1 := sr.Lat1 * radToDeg
		lat2 := sr.Lat2 * radToDeg
		if math.IsNaN(sr.Lat2) {
			lat2 = lat1
		}
		return regrid.NewLambertConformalConic(sr.A, sr.B, lat1, lat2,
			orZero(sr.Lat0)*radToDeg, orZero(sr.Long0)*radToDeg,
			orZero(sr.X0), orZero(sr.Y0))
	case "stere":
		// The true-scale latitude defaults to the latitude of origin,
		// and takes its hemisphere from it when only lat_0 is southern.
		ts := sr.LatTS
		if math.IsNaN(ts) {
			ts = sr.Lat0
		}
		if math.IsNaN(ts) {
			return nil, fmt.Errorf("regridutil: stereographic projection %q needs lat_ts or lat_0", projString)
		}
		if !math.IsNaN(sr.Lat0) && sr.Lat0 < 0 && ts > 0 {
			ts = -ts
		}
		return regrid.NewStereographic(sr.A, sr.B, ts*radToDeg,
			orZero(sr.Long0)*radToDeg, orZero(sr.X0), orZero(sr.Y0))
	case "merc":
		if !math.IsNaN(sr.LatTS) && sr.LatTS != 0 {
			return nil, fmt.Errorf("regridutil: mercator true-scale latitude in %q is not supported", projString)
		}
		return regrid.NewMercator(sr.A, sr.B, orZero(sr.Long0)*radToDeg,
			orZero(sr.X0), orZero(sr.Y0))
	}
	return nil, fmt.Errorf("regridutil: unsupported projection %q", sr.Name)
}

// Proj4String returns the PROJ.4 specification describing p.
func Proj4String(p regrid.Projector) (string, error) {
	// Parameters are written fixed-point; the exponent sign that %g can
	// produce would read as a PROJ.4 parameter separator.
	switch pp := p.(type) {
	case *regrid.LambertConformalConic:
		lon0, lat0 := pp.Center()
		lat1, lat2 := pp.Tangents()
		a, b := pp.Ellipsoid()
		x0, y0 := pp.FalseOrigin()
		return fmt.Sprintf("+proj=lcc +lat_1=%f +lat_2=%f +lat_0=%f +lon_0=%f "+
			"+x_0=%f +y_0=%f +a=%f +b=%f +to_meter=1",
			lat1, lat2, lat0, lon0, x0, y0, a, b), nil
	case *regrid.Stereographic:
		lon0, lat0 := pp.Center()
		a, b := pp.Ellipsoid()
		x0, y0 := pp.FalseOrigin()
		return fmt.Sprintf("+proj=stere +lat_ts=%f +lat_0=%f +lon_0=%f "+
			"+x_0=%f +y_0=%f +a=%f +b=%f +to_meter=1",
			pp.TrueScaleLatitude(), lat0, lon0, x0, y0, a, b), nil
	case *regrid.Mercator:
		lon0, _ := pp.Center()
		a, b := pp.Ellipsoid()
		x0, y0 := pp.FalseOrigin()
		return fmt.Sprintf("+proj=merc +lon_0=%f +x_0=%f +y_0=%f "+
			"+a=%f +b=%f +to_meter=1", lon0, x0, y0, a, b), nil
	}
	return "", fmt.Errorf("regridutil: no PROJ.4 representation for projection %q", p.Name())
}

// ReadGridDesc reads the textual description of a grid, for example:
//
//	ellipsoid: 6370997 6370997
//	projection: lambert 33 45 40 -97 0 0
//	grid: 444 336 -2736000 -2088000 12000 12000
//	levels: sigma-z 12000 0 0.2 0.6 1
//	constants: 9.80665 287.058 50 290 100000
//
// The projection parameters are the two secant latitudes, latitude and
// longitude of origin, and false easting and northing for lambert; the
// true-scale latitude, central longitude, and false origin for
// stereographic; and the central longitude and false origin for mercator.
// The ellipsoid and projection lines may instead be given as a single
// PROJ.4 line, which carries its own ellipsoid:
//
//	proj4: +proj=lcc +lat_1=33 +lat_2=45 +lat_0=40 +lon_0=-97 +a=6370997 +b=6370997
//
// The grid line gives columns, rows, origin, and cell size in projected
// meters. The levels line gives the vertical coordinate type, the domain
// top, and the level interface values; it and the constants line may be
// omitted for single-layer grids with the default physical constants.
// Blank lines and lines beginning with # are ignored.
func ReadGridDesc(r io.Reader) (*regrid.Grid, error) {
	var (
		haveEllipsoid, haveProj, haveGrid bool
		a, b                              float64
		projName, proj4Str                string
		projParams                        []float64
		nx, ny                            int
		x0, y0, dx, dy                    float64
		vt                                regrid.VerticalType
		top                               float64
		levels                            []float64
		consts                            regrid.VerticalConstants
	)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, ":")
		if i < 0 {
			return nil, fmt.Errorf("regridutil: grid description line %d: %q is not a 'keyword: values' line", lineNo, line)
		}
		key := strings.TrimSpace(line[:i])
		fields := strings.Fields(line[i+1:])
		var err error
		switch key {
		case "ellipsoid":
			if haveEllipsoid {
				return nil, fmt.Errorf("regridutil: grid description line %d: duplicate ellipsoid", lineNo)
			}
			var v []float64
			if v, err = parseFloats(fields, 2); err == nil {
				a, b = v[0], v[1]
				haveEllipsoid = true
			}
		case "projection":
			if haveProj {
				return nil, fmt.Errorf("regridutil: grid description line %d: duplicate projection", lineNo)
			}
			if len(fields) == 0 {
				return nil, fmt.Errorf("regridutil: grid description line %d: projection needs a name", lineNo)
			}
			projName = fields[0]
			var want int
			switch projName {
			case "lambert":
				want = 6
			case "stereographic":
				want = 4
			case "mercator":
				want = 3
			default:
				return nil, fmt.Errorf("regridutil: grid description line %d: unknown projection %q", lineNo, projName)
			}
			if projParams, err = parseFloats(fields[1:], want); err == nil {
				haveProj = true
			}
		case "proj4":
			if haveProj {
				return nil, fmt.Errorf("regridutil: grid description line %d: duplicate projection", lineNo)
			}
			proj4Str = strings.TrimSpace(line[i+1:])
			if proj4Str == "" {
				return nil, fmt.Errorf("regridutil: grid description line %d: proj4 needs a PROJ.4 string", lineNo)
			}
			haveProj = true
		case "grid":
			if haveGrid {
				return nil, fmt.Errorf("regridutil: grid description line %d: duplicate grid", lineNo)
			}
			if len(fields) != 6 {
				return nil, fmt.Errorf("regridutil: grid description line %d: grid needs 6 values but has %d", lineNo, len(fields))
			}
			if nx, err = strconv.Atoi(fields[0]); err == nil {
				ny, err = strconv.Atoi(fields[1])
			}
			if err == nil {
				var v []float64
				if v, err = parseFloats(fields[2:], 4); err == nil {
					x0, y0, dx, dy = v[0], v[1], v[2], v[3]
					haveGrid = true
				}
			}
		case "levels":
			if len(fields) == 0 {
				return nil, fmt.Errorf("regridutil: grid description line %d: levels needs a vertical coordinate type", lineNo)
			}
			if vt, err = regrid.ParseVerticalType(fields[0]); err == nil {
				var v []float64
				if v, err = parseFloats(fields[1:], -1); err == nil && len(v) > 0 {
					top = v[0]
					levels = v[1:]
				}
			}
		case "constants":
			var v []float64
			if v, err = parseFloats(fields, 5); err == nil {
				consts = regrid.VerticalConstants{
					Gravity:        v[0],
					GasConstant:    v[1],
					Lapse:          v[2],
					RefTemperature: v[3],
					RefPressure:    v[4],
				}
			}
		default:
			return nil, fmt.Errorf("regridutil: grid description line %d: unknown keyword %q", lineNo, key)
		}
		if err != nil {
			return nil, fmt.Errorf("regridutil: grid description line %d: %v", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !haveProj {
		return nil, fmt.Errorf("regridutil: grid description is missing the projection or proj4 line")
	}
	if !haveGrid {
		return nil, fmt.Errorf("regridutil: grid description is missing the grid line")
	}
	var p regrid.Projector
	var err error
	if proj4Str != "" {
		if haveEllipsoid {
			return nil, fmt.Errorf("regridutil: grid description has both an ellipsoid line and a proj4 line, which carries its own ellipsoid")
		}
		p, err = ProjectorFromProj4(proj4Str)
	} else {
		if !haveEllipsoid {
			return nil, fmt.Errorf("regridutil: grid description is missing the ellipsoid line")
		}
		switch projName {
		case "lambert":
			p, err = regrid.NewLambertConformalConic(a, b, projParams[0],
				projParams[1], projParams[2], projParams[3], projParams[4], projParams[5])
		case "stereographic":
			p, err = regrid.NewStereographic(a, b, projParams[0], projParams[1],
				projParams[2], projParams[3])
		case "mercator":
			p, err = regrid.NewMercator(a, b, projParams[0], projParams[1], projParams[2])
		}
	}
	if err != nil {
		return nil, err
	}
	return regrid.NewGrid(p, nx, ny, x0, y0, dx, dy, vt, top, levels, consts)
}

// WriteGridDesc writes the textual description of g in the format read by
// ReadGridDesc. Projection angles are written in degrees, so reading the
// result back can differ from g by floating-point rounding.
func WriteGridDesc(w io.Writer, g *regrid.Grid) error {
	var a, b float64
	var projLine string
	switch pp := g.Projector().(type) {
	case *regrid.LambertConformalConic:
		lon0, lat0 := pp.Center()
		lat1, lat2 := pp.Tangents()
		x0, y0 := pp.FalseOrigin()
		a, b = pp.Ellipsoid()
		projLine = fmt.Sprintf("projection: %s %g %g %g %g %g %g\n",
			pp.Name(), lat1, lat2, lat0, lon0, x0, y0)
	case *regrid.Stereographic:
		lon0, _ := pp.Center()
		x0, y0 := pp.FalseOrigin()
		a, b = pp.Ellipsoid()
		projLine = fmt.Sprintf("projection: %s %g %g %g %g\n",
			pp.Name(), pp.TrueScaleLatitude(), lon0, x0, y0)
	case *regrid.Mercator:
		lon0, _ := pp.Center()
		x0, y0 := pp.FalseOrigin()
		a, b = pp.Ellipsoid()
		projLine = fmt.Sprintf("projection: %s %g %g %g\n", pp.Name(), lon0, x0, y0)
	default:
		return fmt.Errorf("regridutil: no grid description format for projection %q", g.Projector().Name())
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "ellipsoid: %g %g\n", a, b)
	buf.WriteString(projLine)
	x0, y0 := g.Origin()
	dx, dy := g.CellSize()
	fmt.Fprintf(&buf, "grid: %d %d %g %g %g %g\n", g.Cols(), g.Rows(), x0, y0, dx, dy)
	fmt.Fprintf(&buf, "levels: %s %g", g.VerticalType(), g.Top())
	for _, l := range g.Levels() {
		fmt.Fprintf(&buf, " %g", l)
	}
	buf.WriteByte('\n')
	c := g.Constants()
	fmt.Fprintf(&buf, "constants: %g %g %g %g %g\n",
		c.Gravity, c.GasConstant, c.Lapse, c.RefTemperature, c.RefPressure)
	_, err := io.WriteString(w, buf.String())
	return err
}

// parseFloats converts fields to numbers, requiring exactly n of them
// unless n is negative.
func parseFloats(fields []string, n int) ([]float64, error) {
	if n >= 0 && len(fields) != n {
		return nil, fmt.Errorf("want %d values but have %d", n, len(fields))
	}
	v := make([]float64, len(fields))
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
	}
	return v, nil
}

// readGridDescFile reads a grid description from the named file.
func readGridDescFile(path string) (*regrid.Grid, error) {
	if path == "" {
		return nil, fmt.Errorf("regridutil: a grid description file must be specified")
	}
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("regridutil: opening grid description: %v", err)
	}
	defer f.Close()
	g, err := ReadGridDesc(f)
	if err != nil {
		return nil, fmt.Errorf("regridutil: reading grid description %s: %v", path, err)
	}
	return g, nil
}

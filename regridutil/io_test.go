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
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/regrid"
)

func TestReadPoints(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		input := `# lon lat elevation timestamp value
-100.5 35.25 100 20200101000000 1.5
-100.25 35.5 250 20200101003000 -9999
-99.75 34.75 0 20200101010000 2.75
`
		d, err := ReadPoints(strings.NewReader(input), -9999)
		if err != nil {
			t.Fatal(err)
		}
		want := &regrid.PointData{
			Lons:       []float64{-100.5, -99.75},
			Lats:       []float64{35.25, 34.75},
			Elevations: []float64{100, 0},
			Values:     []float64{1.5, 2.75},
			Notes:      []string{"20200101000000", "20200101010000"},
		}
		if !reflect.DeepEqual(d, want) {
			t.Errorf("%+v != %+v", d, want)
		}
	})
	t.Run("vector", func(t *testing.T) {
		// A missing value in either component drops the whole line.
		input := `-100.5 35.25 100 20200101000000 1.5 -0.5
-100.25 35.5 0 20200101000000 2 -9999
-99.75 34.75 0 20200101010000 -9999 3
`
		d, err := ReadPoints(strings.NewReader(input), -9999)
		if err != nil {
			t.Fatal(err)
		}
		want := &regrid.PointData{
			Lons:       []float64{-100.5},
			Lats:       []float64{35.25},
			Elevations: []float64{100},
			Values:     []float64{1.5},
			Values2:    []float64{-0.5},
			Notes:      []string{"20200101000000"},
		}
		if !reflect.DeepEqual(d, want) {
			t.Errorf("%+v != %+v", d, want)
		}
	})
	t.Run("weighted", func(t *testing.T) {
		input := `-100.5 35.25 100 20200101000000 1.5 -0.5 2
-99.75 34.75 0 20200101010000 2.5 0.5 1
`
		d, err := ReadPoints(strings.NewReader(input), -9999)
		if err != nil {
			t.Fatal(err)
		}
		want := &regrid.PointData{
			Lons:       []float64{-100.5, -99.75},
			Lats:       []float64{35.25, 34.75},
			Elevations: []float64{100, 0},
			Values:     []float64{1.5, 2.5},
			Values2:    []float64{-0.5, 0.5},
			Weights:    []float64{2, 1},
			Notes:      []string{"20200101000000", "20200101010000"},
		}
		if !reflect.DeepEqual(d, want) {
			t.Errorf("%+v != %+v", d, want)
		}
	})
	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"too few columns", "1 2 3 20200101000000\n"},
			{"too many columns", "1 2 3 20200101000000 4 5 6 7\n"},
			{"inconsistent columns", "1 2 3 20200101000000 4\n1 2 3 20200101000000 4 5\n"},
			{"short timestamp", "1 2 3 202001010000 4\n"},
			{"impossible date", "1 2 3 20200230000000 4\n"},
			{"bad longitude", "east 2 3 20200101000000 4\n"},
		}
		for _, test := range tests {
			if _, err := ReadPoints(strings.NewReader(test.input), -9999); err == nil {
				t.Errorf("%s: want error", test.name)
			}
		}
	})
}

func TestWritePoints(t *testing.T) {
	points := []regrid.GriddedPoint{
		{Lon: -100, Lat: 35, Col: 2, Row: 3, Layer: 1, Elevation: 150,
			Value: 1.5, Value2: -0.25, Count: 4, Note: "20200101000000"},
		{Lon: -99.5, Lat: 34, Col: 1, Row: 1, Layer: 1, Value: 2, Count: 1},
	}
	var buf strings.Builder
	if err := WritePoints(&buf, points); err != nil {
		t.Fatal(err)
	}
	want := `# lon lat col row layer elevation value value2 count note
-100 35 2 3 1 150 1.5 -0.25 4 20200101000000
-99.5 34 1 1 1 0 2 0 1 -
`
	if buf.String() != want {
		t.Errorf("%q != %q", buf.String(), want)
	}
	p, err := parseGriddedPoint(strings.Fields("-99.5 34 1 1 1 0 2 0 1 -"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, points[1]) {
		t.Errorf("%+v != %+v", p, points[1])
	}
}

func TestReadSwath(t *testing.T) {
	input := `# swLon swLat seLon seLat nwLon nwLat neLon neLat value
0 0 10 0 0 10 10 10 5
0 0 10 0 0 10 10 10 -9999
20 0 30 0 20 10 30 10 2.5
`
	d, err := ReadSwath(strings.NewReader(input), -9999)
	if err != nil {
		t.Fatal(err)
	}
	want := &regrid.SwathData{
		SW:     []geom.Point{{X: 0, Y: 0}, {X: 20, Y: 0}},
		SE:     []geom.Point{{X: 10, Y: 0}, {X: 30, Y: 0}},
		NW:     []geom.Point{{X: 0, Y: 10}, {X: 20, Y: 10}},
		NE:     []geom.Point{{X: 10, Y: 10}, {X: 30, Y: 10}},
		Values: []float64{5, 2.5},
	}
	if !reflect.DeepEqual(d, want) {
		t.Errorf("%+v != %+v", d, want)
	}
	for _, bad := range []string{
		"0 0 10 0 0 10 10 10\n",
		"0 0 10 0 0 10 10 10 5 6\n",
		"0 0 10 0 north 10 10 10 5\n",
	} {
		if _, err := ReadSwath(strings.NewReader(bad), -9999); err == nil {
			t.Errorf("%q: want error", bad)
		}
	}
}

func TestWriteSwathCells(t *testing.T) {
	cells := []regrid.SwathCell{
		{Lon: -100, Lat: 35, Row: 1, Col: 2, Count: 3, Mean: 1.25},
	}
	var buf strings.Builder
	if err := WriteSwathCells(&buf, cells); err != nil {
		t.Fatal(err)
	}
	want := `# lon lat row col count mean
-100 35 1 2 3 1.25
`
	if buf.String() != want {
		t.Errorf("%q != %q", buf.String(), want)
	}
}

func TestTimestepsRoundTrip(t *testing.T) {
	windows := []regrid.TimeWindow{
		{Points: []regrid.GriddedPoint{
			{Lon: -100.125, Lat: 35.0625, Col: 3, Row: 2, Layer: 1,
				Elevation: 10.5, Value: 0.001953125, Value2: -42, Count: 7, Note: "site 42"},
			{Lon: -99, Lat: 34, Col: 1, Row: 1, Layer: 2, Value: 2, Count: 1},
		}},
		{},
		{Points: []regrid.GriddedPoint{
			{Lon: -98.5, Lat: 33, Col: 2, Row: 1, Layer: 1, Value: 3, Count: 2,
				Note: "20200101000000"},
		}},
	}
	var buf strings.Builder
	if err := WriteWindows(&buf, windows); err != nil {
		t.Fatal(err)
	}
	counts, points, err := ReadTimesteps(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("%q: %v", buf.String(), err)
	}
	if !reflect.DeepEqual(counts, []int{2, 0, 1}) {
		t.Errorf("counts: %v != %v", counts, []int{2, 0, 1})
	}
	var wantPoints []regrid.GriddedPoint
	for _, win := range windows {
		wantPoints = append(wantPoints, win.Points...)
	}
	if !reflect.DeepEqual(points, wantPoints) {
		t.Errorf("%+v != %+v", points, wantPoints)
	}
}

func TestReadTimestepsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-numeric count", "x\n"},
		{"negative count", "-1\n"},
		{"extra count fields", "2 3\n"},
		{"truncated block", "2\n-100 35 1 1 1 0 1 0 1 -\n"},
		{"short record", "1\n-100 35 1 1 1 0 1 0\n"},
		{"bad column", "1\n-100 35 x 1 1 0 1 0 1 -\n"},
	}
	for _, test := range tests {
		if _, _, err := ReadTimesteps(strings.NewReader(test.input)); err == nil {
			t.Errorf("%s: want error", test.name)
		}
	}
}

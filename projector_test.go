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
	"math"
	"testing"
)

const (
	testTolerance = 1.0e-8

	// Spherical planet radius used by meteorological models, and the GRS80
	// ellipsoid semi-axes.
	testRadius = 6370000.0
	testMajor  = 6378137.0
	testMinor  = 6356752.314140

	// The round-trip guarantee for coordinates away from the poles and the
	// antimeridian, in degrees.
	roundTripTolerance = 1.0e-6
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestAdjustLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{-math.Pi / 2, -math.Pi / 2},
		{math.Pi + 0.1, 0.1 - math.Pi},
		{-math.Pi - 0.1, math.Pi - 0.1},
		{2*math.Pi + 0.3, 0.3},
		{-4 * math.Pi, 0},
	}
	for _, tt := range tests {
		if got := adjustLon(tt.in); absDifferent(got, tt.want, 1.0e-12) {
			t.Errorf("adjustLon(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestNudgeInside(t *testing.T) {
	tests := []struct{ lon, lat, wantLon, wantLat float64 }{
		{0, 0, 0, 0},
		{-97, 40, -97, 40},
		{0, 90, 0, 90 - edgeTol},
		{0, -90, 0, -90 + edgeTol},
		{180, 40, 180 - edgeTol, 40},
		{-180, 40, -180 + edgeTol, 40},
		{180, 90, 180 - edgeTol, 90 - edgeTol},
	}
	for _, tt := range tests {
		lon, lat := nudgeInside(tt.lon, tt.lat)
		if lon != tt.wantLon || lat != tt.wantLat {
			t.Errorf("nudgeInside(%g,%g) = (%g,%g), want (%g,%g)",
				tt.lon, tt.lat, lon, lat, tt.wantLon, tt.wantLat)
		}
	}
}

func TestConformalHelpers(t *testing.T) {
	e := eccentricity(testMajor, testMinor)
	if different(e, 0.08181919, 1.0e-6) {
		t.Errorf("GRS80 eccentricity = %g", e)
	}
	if got := eccentricity(testRadius, testRadius); got != 0 {
		t.Errorf("spherical eccentricity = %g, want 0", got)
	}
	if got := msfn(e, 0, 1); got != 1 {
		t.Errorf("msfn at the equator = %g, want 1", got)
	}
	if got := tsfn(e, 0, 0); got != 1 {
		t.Errorf("tsfn at the equator = %g, want 1", got)
	}
}

func TestPhi2(t *testing.T) {
	// On a sphere the closed form inverts tan(π/4-φ/2) exactly and no
	// iteration runs.
	for lat := -88.0; lat <= 88; lat += 8 {
		phi := lat * deg2rad
		got, ok := phi2(0, math.Tan(0.5*(halfPi-phi)))
		if !ok {
			t.Fatalf("spherical phi2 reported non-convergence at %g°", lat)
		}
		if absDifferent(got, phi, 1.0e-12) {
			t.Errorf("spherical phi2 at %g°: got %g rad, want %g", lat, got, phi)
		}
	}
	// On an ellipsoid the fixed-point iteration inverts tsfn within its
	// convergence tolerance.
	e := eccentricity(testMajor, testMinor)
	for lat := -88.0; lat <= 88; lat += 8 {
		phi := lat * deg2rad
		got, ok := phi2(e, tsfn(e, phi, math.Sin(phi)))
		if !ok {
			t.Fatalf("phi2 did not converge at %g°", lat)
		}
		if absDifferent(got, phi, 1.0e-9) {
			t.Errorf("ellipsoidal phi2 at %g°: got %g rad, want %g", lat, got, phi)
		}
	}
}

func TestStereographicRoundTrip(t *testing.T) {
	north, err := NewStereographic(testRadius, testRadius, 60, -98, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	south, err := NewStereographic(testMajor, testMinor, -71, 10, 20000, -30000)
	if err != nil {
		t.Fatal(err)
	}
	for lat := 2.0; lat <= 88; lat += 4.3 {
		for lon := -178.0; lon <= 178; lon += 11.7 {
			x, y := north.Project(lon, lat)
			if !finite(x, y) {
				t.Fatalf("north aspect (%g,%g) projects to (%g,%g)", lon, lat, x, y)
			}
			rlon, rlat, err := north.Unproject(x, y)
			if err != nil {
				t.Fatal(err)
			}
			if absDifferent(rlon, lon, roundTripTolerance) || absDifferent(rlat, lat, roundTripTolerance) {
				t.Fatalf("north aspect round trip (%g,%g) -> (%g,%g)", lon, lat, rlon, rlat)
			}

			x, y = south.Project(lon, -lat)
			rlon, rlat, err = south.Unproject(x, y)
			if err != nil {
				t.Fatal(err)
			}
			if absDifferent(rlon, lon, roundTripTolerance) || absDifferent(rlat, -lat, roundTripTolerance) {
				t.Fatalf("south aspect round trip (%g,%g) -> (%g,%g)", lon, -lat, rlon, rlat)
			}
		}
	}
}

func TestStereographicScale(t *testing.T) {
	p, err := NewStereographic(testMajor, testMinor, 60, -98, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Scale is true along the true-scale latitude: a short arc of that
	// parallel projects to its ellipsoidal ground length.
	const dlon = 1.0e-4
	x1, y1 := p.Project(-98, 60)
	x2, y2 := p.Project(-98+dlon, 60)
	e := eccentricity(testMajor, testMinor)
	sinl, cosl := math.Sincos(60 * deg2rad)
	want := testMajor * msfn(e, sinl, cosl) * dlon * deg2rad
	if got := math.Hypot(x2-x1, y2-y1); different(got, want, 1.0e-6) {
		t.Errorf("projected arc at the true-scale latitude = %g m, want %g m", got, want)
	}
}

func TestStereographicPole(t *testing.T) {
	p, err := NewStereographic(testRadius, testRadius, 60, -98, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// The pole itself is nudged inside before projecting, so it projects
	// near, but not onto, the projection origin.
	x, y := p.Project(-98, 90)
	if !finite(x, y) {
		t.Fatalf("pole projects to (%g,%g)", x, y)
	}
	_, lat, err := p.Unproject(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if lat > 90 || absDifferent(lat, 90, roundTripTolerance) {
		t.Errorf("pole round trip latitude = %g", lat)
	}
	// The exact projection origin unprojects to the pole.
	lon, lat, err := p.Unproject(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if absDifferent(lon, -98, 1.0e-12) || absDifferent(lat, 90, 1.0e-12) {
		t.Errorf("projection origin unprojects to (%g,%g), want (-98,90)", lon, lat)
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	sphere, err := NewMercator(testRadius, testRadius, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	ellips, err := NewMercator(testMajor, testMinor, -90, 500000, -200000)
	if err != nil {
		t.Fatal(err)
	}
	for lat := -85.0; lat <= 85; lat += 8.5 {
		for lon := -178.0; lon <= 178; lon += 11.7 {
			for _, p := range []*Mercator{sphere, ellips} {
				x, y := p.Project(lon, lat)
				rlon, rlat, err := p.Unproject(x, y)
				if err != nil {
					t.Fatal(err)
				}
				if absDifferent(rlon, lon, roundTripTolerance) || absDifferent(rlat, lat, roundTripTolerance) {
					t.Fatalf("%s round trip (%g,%g) -> (%g,%g)", p.Name(), lon, lat, rlon, rlat)
				}
			}
		}
	}
}

func TestMercatorEquator(t *testing.T) {
	p, err := NewMercator(testMajor, testMinor, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Scale is true along the equator: one degree of longitude projects to
	// one degree of equatorial arc, and the equator lies at zero northing.
	x, y := p.Project(1, 0)
	if absDifferent(x, testMajor*deg2rad, 1.0e-6) {
		t.Errorf("equatorial easting of 1° = %g m, want %g m", x, testMajor*deg2rad)
	}
	if absDifferent(y, 0, 1.0e-6) {
		t.Errorf("equatorial northing = %g m, want 0", y)
	}
}

func TestProjectorEqual(t *testing.T) {
	l1, err := NewLambertConformalConic(testRadius, testRadius, 33, 45, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := NewLambertConformalConic(testRadius, testRadius, 33, 45, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	l3, err := NewLambertConformalConic(testRadius, testRadius, 30, 60, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewStereographic(testRadius, testRadius, 60, -98, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewMercator(testRadius, testRadius, -98, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !l1.Equal(l2) {
		t.Error("identical Lambert projections are not Equal")
	}
	if l1.Equal(l3) {
		t.Error("Lambert projections with different standard parallels are Equal")
	}
	if l1.Equal(s) || s.Equal(m) || m.Equal(l1) {
		t.Error("projections of different families are Equal")
	}
	if l1.Name() != "lambert" || s.Name() != "stereographic" || m.Name() != "mercator" {
		t.Errorf("projection names %q, %q, %q", l1.Name(), s.Name(), m.Name())
	}
}

func TestUnprojectNonConvergence(t *testing.T) {
	p, err := NewLambertConformalConic(testMajor, testMinor, 33, 45, 40, -97, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	x, y := p.Project(-97, 70)
	if n := p.IterationFailures(); n != 0 {
		t.Fatalf("%d iteration failures before any Unproject", n)
	}
	// An eccentricity past the valid range keeps the latitude iteration
	// from settling, making the failure path observable.
	p.e = 1.2
	if _, _, err := p.Unproject(x, y); err != ErrNoConvergence {
		t.Fatalf("want ErrNoConvergence, got %v", err)
	}
	if n := p.IterationFailures(); n != 1 {
		t.Errorf("iteration failures = %d, want 1", n)
	}
	if _, _, err := p.Unproject(x, y); err != ErrNoConvergence {
		t.Fatalf("want ErrNoConvergence, got %v", err)
	}
	if n := p.IterationFailures(); n != 2 {
		t.Errorf("iteration failures = %d, want 2", n)
	}
}

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
	"errors"
	"fmt"
	"math"
)

// A Projector converts geographic coordinates to planar coordinates on a
// conformal map projection and back. Implementations are immutable after
// construction and safe for concurrent use.
type Projector interface {
	// Project converts the given longitude and latitude (degrees) to
	// projected x and y (meters). The result is finite for any longitude
	// in [-180,180] and latitude in [-90,90].
	Project(lon, lat float64) (x, y float64)

	// Unproject converts projected x and y (meters) back to longitude and
	// latitude (degrees), with longitude normalized to [-180,180]. When the
	// latitude iteration fails to converge, Unproject returns the last
	// estimate along with ErrNoConvergence; the estimate remains usable as
	// a best-effort result.
	Unproject(x, y float64) (lon, lat float64, err error)

	// Name returns the token identifying the projection family, as used in
	// grid descriptions.
	Name() string

	// Equal reports whether p2 was constructed from the same parameters.
	Equal(p2 Projector) bool
}

// ErrNoConvergence is returned by Unproject when the iterative latitude
// solve reaches its iteration cap before meeting the convergence tolerance.
var ErrNoConvergence = errors.New("regrid: projection latitude iteration did not converge")

const (
	halfPi  = math.Pi / 2
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	// epsln is the radian-scale tolerance for degenerate-geometry checks.
	epsln = 1.0e-10

	// edgeTol is the degree-scale tolerance within which input coordinates
	// are nudged off the poles and the antimeridian before projecting.
	edgeTol = 1.0e-8

	// phi2MaxIter and phi2Tol bound the fixed-point inversion of the
	// conformal latitude transform.
	phi2MaxIter = 15
	phi2Tol     = 1.0e-10
)

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// adjustLon normalizes a longitude in radians into [-π,π] by repeated
// full-circle adjustment.
func adjustLon(x float64) float64 {
	for x > math.Pi {
		x -= 2 * math.Pi
	}
	for x < -math.Pi {
		x += 2 * math.Pi
	}
	return x
}

// nudgeInside moves a coordinate pair (degrees) lying within tolerance of a
// pole or the antimeridian slightly inward, so that projecting and
// unprojecting recovers the input instead of collapsing it onto the
// projection origin or flipping its sign.
func nudgeInside(lon, lat float64) (float64, float64) {
	if lat > 90-edgeTol {
		lat = 90 - edgeTol
	} else if lat < -90+edgeTol {
		lat = -90 + edgeTol
	}
	if lon > 180-edgeTol {
		lon = 180 - edgeTol
	} else if lon < -180+edgeTol {
		lon = -180 + edgeTol
	}
	return lon, lat
}

// msfn computes the scale ratio m = cosφ / sqrt(1 - e²sin²φ).
func msfn(e, sinphi, cosphi float64) float64 {
	con := e * sinphi
	return cosphi / math.Sqrt(1-con*con)
}

// tsfn computes the conformal latitude ratio
// t = tan(π/4 - φ/2) / ((1 - e sinφ)/(1 + e sinφ))^(e/2),
// which reduces to tan(π/4 - φ/2) on a sphere.
func tsfn(e, phi, sinphi float64) float64 {
	con := e * sinphi
	return math.Tan(0.5*(halfPi-phi)) / math.Pow((1-con)/(1+con), 0.5*e)
}

// phi2 inverts tsfn. It starts from the spherical closed form and refines
// with a bounded fixed-point iteration; the boolean reports whether the
// iteration met the convergence tolerance. On a sphere the closed form is
// exact and no iteration runs.
func phi2(e, ts float64) (float64, bool) {
	phi := halfPi - 2*math.Atan(ts)
	if e == 0 {
		return phi, true
	}
	for i := 0; i < phi2MaxIter; i++ {
		con := e * math.Sin(phi)
		dphi := halfPi - 2*math.Atan(ts*math.Pow((1-con)/(1+con), 0.5*e)) - phi
		phi += dphi
		if math.Abs(dphi) <= phi2Tol {
			return phi, true
		}
	}
	return phi, false
}

// eccentricity converts a semi-axis pair to the first eccentricity,
// which is zero for a sphere.
func eccentricity(a, b float64) float64 {
	r := b / a
	return math.Sqrt(1 - r*r)
}

func validEllipsoid(a, b float64) error {
	if !(a > 0) || !(b > 0) {
		return fmt.Errorf("regrid: ellipsoid semi-axes must be positive; got %g, %g", a, b)
	}
	if b > a {
		return fmt.Errorf("regrid: ellipsoid minor semi-axis %g exceeds major semi-axis %g", b, a)
	}
	return nil
}

// validSecants checks a standard-parallel pair: both latitudes must share a
// sign and have magnitudes within [1°,89°] so the cone geometry cannot
// degenerate.
func validSecants(lat1, lat2 float64) error {
	for _, l := range []float64{lat1, lat2} {
		if m := math.Abs(l); m < 1 || m > 89 {
			return fmt.Errorf("regrid: standard parallel %g° outside ±[1°,89°]", l)
		}
	}
	if sign(lat1) != sign(lat2) {
		return fmt.Errorf("regrid: standard parallels %g° and %g° lie on opposite sides of the equator", lat1, lat2)
	}
	return nil
}

func validCenter(lon, lat float64) error {
	if math.Abs(lat) > 89 {
		return fmt.Errorf("regrid: central latitude %g° outside [-89°,89°]", lat)
	}
	if math.Abs(lon) > 180 {
		return fmt.Errorf("regrid: central longitude %g° outside [-180°,180°]", lon)
	}
	return nil
}

// finite reports whether every value is a usable number.
func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

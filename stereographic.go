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

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Stereographic is a polar stereographic projection in secant form. The
// sign of the true-scale latitude selects the hemisphere: positive centers
// the projection on the north pole, negative on the south pole.
type Stereographic struct {
	iterationFailures uint64

	a, b   float64 // semi-axes (m)
	latT   float64 // true-scale latitude (radians, signed)
	lon0   float64 // central longitude (radians)
	x0, y0 float64 // false easting and northing (m)

	e    float64 // eccentricity
	hemi float64 // +1 north, -1 south
	fs   float64 // radius scale constant a·m(latT)/t(latT) (m)
}

// NewStereographic creates a polar stereographic projection from the given
// ellipsoid semi-axes (meters), true-scale latitude and central longitude
// (degrees), and false easting and northing (meters). The true-scale
// latitude must have magnitude within [1°,89°]; its sign selects the pole.
func NewStereographic(majorSemiaxis, minorSemiaxis, trueScaleLat, centralLon, falseEasting, falseNorthing float64) (*Stereographic, error) {
	if err := validEllipsoid(majorSemiaxis, minorSemiaxis); err != nil {
		return nil, err
	}
	if m := math.Abs(trueScaleLat); m < 1 || m > 89 {
		return nil, fmt.Errorf("regrid: true-scale latitude %g° outside ±[1°,89°]", trueScaleLat)
	}
	if err := validCenter(centralLon, 0); err != nil {
		return nil, err
	}
	s := &Stereographic{
		a:    majorSemiaxis,
		b:    minorSemiaxis,
		latT: trueScaleLat * deg2rad,
		lon0: centralLon * deg2rad,
		x0:   falseEasting,
		y0:   falseNorthing,
		e:    eccentricity(majorSemiaxis, minorSemiaxis),
		hemi: sign(trueScaleLat),
	}
	// Scale constant for the north-pole aspect; the south aspect reuses it
	// through coordinate mirroring.
	latC := math.Abs(s.latT)
	sinC, cosC := math.Sincos(latC)
	s.fs = s.a * msfn(s.e, sinC, cosC) / tsfn(s.e, latC, sinC)
	if !finite(s.fs) || s.fs == 0 {
		return nil, fmt.Errorf("regrid: true-scale latitude %g° produces non-finite projection constants", trueScaleLat)
	}
	return s, nil
}

// Project implements the Projector interface. The south-pole aspect is the
// north-pole projection of the mirrored latitude with the northing axis
// reversed.
func (s *Stereographic) Project(lon, lat float64) (x, y float64) {
	lon, lat = nudgeInside(lon, lat)
	plon, plat := lon*deg2rad, s.hemi*lat*deg2rad
	rho := s.fs * tsfn(s.e, plat, math.Sin(plat))
	theta := adjustLon(plon - s.lon0)
	x = rho*math.Sin(theta) + s.x0
	y = s.hemi*(-rho*math.Cos(theta)) + s.y0
	return x, y
}

// Unproject implements the Projector interface. A point at the projection
// origin (rho == 0) maps exactly to the projection's pole.
func (s *Stereographic) Unproject(x, y float64) (lon, lat float64, err error) {
	dx := x - s.x0
	dy := s.hemi * (y - s.y0)
	rho := math.Sqrt(dx*dx + dy*dy)
	var plat float64
	if rho == 0 {
		plat = halfPi
	} else {
		var ok bool
		plat, ok = phi2(s.e, rho/s.fs)
		if !ok {
			atomic.AddUint64(&s.iterationFailures, 1)
			err = ErrNoConvergence
		}
	}
	var theta float64
	if rho != 0 {
		theta = math.Atan2(dx, -dy)
	}
	plon := adjustLon(theta + s.lon0)
	return plon * rad2deg, s.hemi * plat * rad2deg, err
}

// Name implements the Projector interface.
func (s *Stereographic) Name() string { return "stereographic" }

// Equal implements the Projector interface.
func (s *Stereographic) Equal(p2 Projector) bool {
	o, ok := p2.(*Stereographic)
	if !ok {
		return false
	}
	return s.a == o.a && s.b == o.b && s.latT == o.latT &&
		s.lon0 == o.lon0 && s.x0 == o.x0 && s.y0 == o.y0
}

// IterationFailures returns the number of Unproject calls so far whose
// latitude iteration hit the iteration cap.
func (s *Stereographic) IterationFailures() uint64 {
	return atomic.LoadUint64(&s.iterationFailures)
}

// Center returns the central longitude and the pole latitude (degrees).
func (s *Stereographic) Center() (lon, lat float64) {
	return s.lon0 * rad2deg, s.hemi * 90
}

// TrueScaleLatitude returns the latitude of true scale (degrees).
func (s *Stereographic) TrueScaleLatitude() float64 { return s.latT * rad2deg }

// Ellipsoid returns the major and minor semi-axes (meters).
func (s *Stereographic) Ellipsoid() (major, minor float64) { return s.a, s.b }

// FalseOrigin returns the false easting and northing (meters).
func (s *Stereographic) FalseOrigin() (x, y float64) { return s.x0, s.y0 }

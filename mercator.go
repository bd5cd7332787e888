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
	"math"
	"sync/atomic"
)

// Mercator is a cylindrical conformal projection with true scale at the
// equator.
type Mercator struct {
	iterationFailures uint64

	a, b   float64 // semi-axes (m)
	lon0   float64 // central longitude (radians)
	x0, y0 float64 // false easting and northing (m)

	e float64 // eccentricity
}

// NewMercator creates a Mercator projection from the given ellipsoid
// semi-axes (meters), central longitude (degrees), and false easting and
// northing (meters).
func NewMercator(majorSemiaxis, minorSemiaxis, centralLon, falseEasting, falseNorthing float64) (*Mercator, error) {
	if err := validEllipsoid(majorSemiaxis, minorSemiaxis); err != nil {
		return nil, err
	}
	if err := validCenter(centralLon, 0); err != nil {
		return nil, err
	}
	return &Mercator{
		a:    majorSemiaxis,
		b:    minorSemiaxis,
		lon0: centralLon * deg2rad,
		x0:   falseEasting,
		y0:   falseNorthing,
		e:    eccentricity(majorSemiaxis, minorSemiaxis),
	}, nil
}

// Project implements the Projector interface. The pole nudge keeps the
// northing finite for latitudes at ±90°.
func (m *Mercator) Project(lon, lat float64) (x, y float64) {
	lon, lat = nudgeInside(lon, lat)
	plon, plat := lon*deg2rad, lat*deg2rad
	x = m.a*adjustLon(plon-m.lon0) + m.x0
	y = -m.a*math.Log(tsfn(m.e, plat, math.Sin(plat))) + m.y0
	return x, y
}

// Unproject implements the Projector interface.
func (m *Mercator) Unproject(x, y float64) (lon, lat float64, err error) {
	ts := math.Exp(-(y - m.y0) / m.a)
	plat, ok := phi2(m.e, ts)
	if !ok {
		atomic.AddUint64(&m.iterationFailures, 1)
		err = ErrNoConvergence
	}
	plon := adjustLon(m.lon0 + (x-m.x0)/m.a)
	return plon * rad2deg, plat * rad2deg, err
}

// Name implements the Projector interface.
func (m *Mercator) Name() string { return "mercator" }

// Equal implements the Projector interface.
func (m *Mercator) Equal(p2 Projector) bool {
	o, ok := p2.(*Mercator)
	if !ok {
		return false
	}
	return m.a == o.a && m.b == o.b && m.lon0 == o.lon0 && m.x0 == o.x0 && m.y0 == o.y0
}

// IterationFailures returns the number of Unproject calls so far whose
// latitude iteration hit the iteration cap.
func (m *Mercator) IterationFailures() uint64 {
	return atomic.LoadUint64(&m.iterationFailures)
}

// Center returns the central longitude and latitude (degrees).
func (m *Mercator) Center() (lon, lat float64) { return m.lon0 * rad2deg, 0 }

// Ellipsoid returns the major and minor semi-axes (meters).
func (m *Mercator) Ellipsoid() (major, minor float64) { return m.a, m.b }

// FalseOrigin returns the false easting and northing (meters).
func (m *Mercator) FalseOrigin() (x, y float64) { return m.x0, m.y0 }

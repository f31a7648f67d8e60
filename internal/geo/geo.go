// Package geo provides great-circle math over WGS84 coordinates expressed in
// decimal degrees.  All distances are returned in meters.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// Distance returns the Haversine great-circle distance in meters between two
// coordinate pairs.  Identical inputs yield exactly 0; antipodal points yield
// half the Earth's circumference.  The result is always non-negative.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Clamp against floating error before the square root; a can exceed 1
	// by a few ULPs for near-antipodal points.
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Bearing returns the initial bearing in degrees (0..360, clockwise from
// north) when traveling from the first point to the second.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := toDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

package core

import "math"

// EarthRadiusKm is the mean Earth radius used for simple spherical
// geometry (kilometres).
const EarthRadiusKm = 6371.0

// WGS84 ellipsoid.
const (
	wgs84SemiMajorKm = 6378.137
	wgs84Flattening  = 1 / 298.257223563
)

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// GeodeticToECEF converts WGS84 latitude/longitude (degrees) and height
// above the ellipsoid (km) to ECEF kilometres.
func GeodeticToECEF(latDeg, lonDeg, heightKm float64) Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	e2 := wgs84Flattening * (2 - wgs84Flattening)
	sinLat := math.Sin(lat)
	n := wgs84SemiMajorKm / math.Sqrt(1-e2*sinLat*sinLat)

	return Vec3{
		X: (n + heightKm) * math.Cos(lat) * math.Cos(lon),
		Y: (n + heightKm) * math.Cos(lat) * math.Sin(lon),
		Z: (n*(1-e2) + heightKm) * sinLat,
	}
}

// SubPoint returns the geocentric latitude and longitude (degrees) below an
// ECEF position. Longitude is in [-180, 180].
func SubPoint(v Vec3) (latDeg, lonDeg float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}
	latDeg = math.Asin(v.Z/r) * 180 / math.Pi
	lonDeg = math.Atan2(v.Y, v.X) * 180 / math.Pi
	return latDeg, lonDeg
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	// Vector from observer to target.
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := Vec3{
		X: observer.X / r,
		Y: observer.Y / r,
		Z: observer.Z / r,
	}

	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	// Elevation is measured from local horizon (90° − zenith angle).
	return 90.0 - gammaDeg
}

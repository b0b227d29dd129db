package model

// TypeRegion tags the mission target on the wire.
const TypeRegion = "Region"

// Region is a latitude/longitude box of interest, in degrees.
type Region struct {
	Latitude  QuantitativeValue `json:"latitude"`
	Longitude QuantitativeValue `json:"longitude"`
	Type      string            `json:"@type"`
}

// NewRegion builds a tagged region from its bounds.
func NewRegion(latMin, latMax, lonMin, lonMax float64) Region {
	return Region{
		Latitude:  NewQuantitativeValue(latMin, latMax),
		Longitude: NewQuantitativeValue(lonMin, lonMax),
		Type:      TypeRegion,
	}
}

// Contains reports whether the point lies inside the box. Boxes whose
// longitude minimum exceeds the maximum wrap across the antimeridian.
func (r Region) Contains(latDeg, lonDeg float64) bool {
	if !r.Latitude.Contains(latDeg) {
		return false
	}
	lon := r.Longitude
	if lon.MinValue <= lon.MaxValue {
		return lon.Contains(lonDeg)
	}
	return lonDeg >= lon.MinValue || lonDeg <= lon.MaxValue
}

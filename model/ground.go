package model

const (
	TypeGroundNetwork = "GroundNetwork"
	TypeGroundStation = "GroundStation"
)

// GroundNetwork describes the ground segment alternatives.
type GroundNetwork struct {
	NumberStations int    `json:"numberStations"`
	Type           string `json:"@type"`
}

// GroundStation is a fixed receiving site. Elevation is in metres above the
// reference ellipsoid.
type GroundStation struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation float64  `json:"elevation"`
	CommBand  []string `json:"commBand,omitempty"`
	Type      string   `json:"@type"`
}

// DefaultGroundNetwork is a single-station network.
func DefaultGroundNetwork() GroundNetwork {
	return GroundNetwork{NumberStations: 1, Type: TypeGroundNetwork}
}

// DefaultGroundStation is the X-band station near Fort Collins, Colorado.
func DefaultGroundStation() GroundStation {
	return GroundStation{
		Latitude:  40.5974791834978,
		Longitude: -104.83875274658203,
		Elevation: 1570,
		CommBand:  []string{"X"},
		Type:      TypeGroundStation,
	}
}

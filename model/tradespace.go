package model

import (
	"strconv"
	"time"
)

const (
	TypeTradespaceSearch  = "TradespaceSearch"
	TypeMissionConcept    = "MissionConcept"
	TypeAgency            = "Agency"
	TypeDesignSpace       = "DesignSpace"
	TypeConstellation     = "Constellation"
	TypeOrbit             = "Orbit"
	TypeAnalysisSettings  = "AnalysisSettings"
	TypeAnalysisOutputs   = "AnalysisOutputs"
	DefaultMissionName    = "New Mission (Simple)"
	ConstellationDelta    = "DELTA_HOMOGENEOUS"
	OrbitCircular         = "CIRCULAR"
	AgencyGovernment      = "GOVERNMENT"
	SearchStrategyFullFac = "FF"
)

// Envelope is the body posted to the analysis service.
type Envelope struct {
	Mission any `json:"mission"`
}

// TradespaceSearch is the request document.
type TradespaceSearch struct {
	Mission     MissionConcept   `json:"mission"`
	DesignSpace DesignSpace      `json:"designSpace"`
	Settings    AnalysisSettings `json:"settings"`
	Type        string           `json:"@type"`
}

// Agency owning the mission.
type Agency struct {
	AgencyType string `json:"agencyType"`
	Type       string `json:"@type"`
}

// MissionConcept holds the mission window and target.
type MissionConcept struct {
	Name     string `json:"name"`
	Acronym  string `json:"acronym"`
	Agency   Agency `json:"agency"`
	Start    string `json:"start"`
	Duration string `json:"duration"`
	Target   Region `json:"target"`
	Type     string `json:"@type"`
}

// Orbit parameters of a constellation.
type Orbit struct {
	OrbitType    string   `json:"orbitType"`
	Altitude     Quantity `json:"altitude"`
	Inclination  Quantity `json:"inclination"`
	Eccentricity float64  `json:"eccentricity"`
	Type         string   `json:"@type"`
}

// Constellation is one space segment alternative.
type Constellation struct {
	ConstellationType string   `json:"constellationType"`
	NumberSatellites  Quantity `json:"numberSatellites"`
	NumberPlanes      Quantity `json:"numberPlanes"`
	Orbit             Orbit    `json:"orbit"`
	Type              string   `json:"@type"`
}

// DesignSpace enumerates the alternatives to be evaluated.
type DesignSpace struct {
	SpaceSegment   []Constellation `json:"spaceSegment"`
	Satellites     []Satellite     `json:"satellites"`
	GroundSegment  []GroundNetwork `json:"groundSegment"`
	GroundStations []GroundStation `json:"groundStations"`
	Type           string          `json:"@type"`
}

// AnalysisOutputs selects the files kept by the analysis service.
type AnalysisOutputs struct {
	ObsTimeStep      bool   `json:"obsTimeStep"`
	KeepLowLevelData bool   `json:"keepLowLevelData"`
	Type             string `json:"@type"`
}

// AnalysisSettings controls the search.
type AnalysisSettings struct {
	IncludePropulsion bool            `json:"includePropulsion"`
	Outputs           AnalysisOutputs `json:"outputs"`
	SearchStrategy    string          `json:"searchStrategy"`
	UseCache          bool            `json:"useCache"`
	ProxyMaintenance  bool            `json:"proxyMaintenance"`
	MaxGridSize       int             `json:"maxGridSize"`
	Type              string          `json:"@type"`
}

// DefaultSettings is the fixed settings block sent with every form request.
func DefaultSettings() AnalysisSettings {
	return AnalysisSettings{
		IncludePropulsion: false,
		Outputs: AnalysisOutputs{
			ObsTimeStep:      true,
			KeepLowLevelData: true,
			Type:             TypeAnalysisOutputs,
		},
		SearchStrategy:   SearchStrategyFullFac,
		UseCache:         true,
		ProxyMaintenance: true,
		MaxGridSize:      1000,
		Type:             TypeAnalysisSettings,
	}
}

// NewMissionConcept builds the mission block for a window starting at start
// and lasting the given number of days.
func NewMissionConcept(start time.Time, durationDays float64, target Region) MissionConcept {
	return MissionConcept{
		Name:     DefaultMissionName,
		Acronym:  DefaultMissionName,
		Agency:   Agency{AgencyType: AgencyGovernment, Type: TypeAgency},
		Start:    start.Format(time.RFC3339),
		Duration: FormatDurationDays(durationDays),
		Target:   target,
		Type:     TypeMissionConcept,
	}
}

// FormatDurationDays renders an ISO 8601 duration such as "P0Y0M7D" or
// "P0Y0M1.5D".
func FormatDurationDays(days float64) string {
	return "P0Y0M" + strconv.FormatFloat(days, 'f', -1, 64) + "D"
}

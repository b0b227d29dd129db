package model

// Type tags used by the knowledge base and the analysis service.
const (
	TypeSatellite   = "Satellite"
	TypeInstrument  = "Basic Sensor"
	TypeOrientation = "Orientation"
	TypeFieldOfView = "FieldOfView"
)

// Orientation of an instrument relative to the spacecraft body.
type Orientation struct {
	ID            string   `json:"@id,omitempty"`
	Convention    string   `json:"convention,omitempty"`
	SideLookAngle *float64 `json:"sideLookAngle,omitempty"`
	Type          string   `json:"@type"`
}

// FieldOfView of an instrument, in degrees.
type FieldOfView struct {
	ID                    string   `json:"@id,omitempty"`
	SensorGeometry        string   `json:"sensorGeometry,omitempty"`
	AlongTrackFieldOfView *float64 `json:"alongTrackFieldOfView,omitempty"`
	CrossTrackFieldOfView *float64 `json:"crossTrackFieldOfView,omitempty"`
	Type                  string   `json:"@type"`
}

// RectangularFieldOfView returns a square rectangular field of view of the
// given width.
func RectangularFieldOfView(deg float64) FieldOfView {
	return FieldOfView{
		SensorGeometry:        "RECTANGULAR",
		AlongTrackFieldOfView: Float(deg),
		CrossTrackFieldOfView: Float(deg),
		Type:                  TypeFieldOfView,
	}
}

// Instrument is a payload template. Pointer fields are omitted when the
// knowledge base record does not carry them.
type Instrument struct {
	ID                 string       `json:"@id,omitempty"`
	Name               string       `json:"name,omitempty"`
	Acronym            string       `json:"acronym,omitempty"`
	Mass               *float64     `json:"mass,omitempty"`
	Volume             *float64     `json:"volume,omitempty"`
	Power              *float64     `json:"power,omitempty"`
	Orientation        *Orientation `json:"orientation,omitempty"`
	FieldOfView        *FieldOfView `json:"fieldOfView,omitempty"`
	DataRate           *float64     `json:"dataRate,omitempty"`
	BitsPerPixel       *float64     `json:"bitsPerPixel,omitempty"`
	TechReadinessLevel *float64     `json:"techReadinessLevel,omitempty"`
	MountType          string       `json:"mountType,omitempty"`
	Type               string       `json:"@type"`
}

// Clone returns a deep copy.
func (in Instrument) Clone() Instrument {
	out := in
	out.Mass = cloneFloat(in.Mass)
	out.Volume = cloneFloat(in.Volume)
	out.Power = cloneFloat(in.Power)
	out.DataRate = cloneFloat(in.DataRate)
	out.BitsPerPixel = cloneFloat(in.BitsPerPixel)
	out.TechReadinessLevel = cloneFloat(in.TechReadinessLevel)
	if in.Orientation != nil {
		o := *in.Orientation
		o.SideLookAngle = cloneFloat(in.Orientation.SideLookAngle)
		out.Orientation = &o
	}
	if in.FieldOfView != nil {
		f := *in.FieldOfView
		f.AlongTrackFieldOfView = cloneFloat(in.FieldOfView.AlongTrackFieldOfView)
		f.CrossTrackFieldOfView = cloneFloat(in.FieldOfView.CrossTrackFieldOfView)
		out.FieldOfView = &f
	}
	return out
}

// WithFieldOfView returns a deep copy whose field of view is overlaid with
// fov. The template's @id is kept unless fov carries its own.
func (in Instrument) WithFieldOfView(fov FieldOfView) Instrument {
	out := in.Clone()
	if fov.ID == "" && in.FieldOfView != nil {
		fov.ID = in.FieldOfView.ID
	}
	out.FieldOfView = &fov
	return out
}

// Satellite is a spacecraft template.
type Satellite struct {
	ID                 string       `json:"@id,omitempty"`
	Name               string       `json:"name,omitempty"`
	Acronym            string       `json:"acronym,omitempty"`
	Mass               *float64     `json:"mass,omitempty"`
	DryMass            *float64     `json:"dryMass,omitempty"`
	Volume             *float64     `json:"volume,omitempty"`
	Power              *float64     `json:"power,omitempty"`
	CommBand           []string     `json:"commBand,omitempty"`
	TechReadinessLevel *float64     `json:"techReadinessLevel,omitempty"`
	IsGroundCommand    *bool        `json:"isGroundCommand,omitempty"`
	IsSpare            *bool        `json:"isSpare,omitempty"`
	PropellantType     string       `json:"propellantType,omitempty"`
	StabilizationType  string       `json:"stabilizationType,omitempty"`
	Payload            []Instrument `json:"payload,omitempty"`
	Type               string       `json:"@type"`
}

// Clone returns a deep copy.
func (s Satellite) Clone() Satellite {
	out := s
	out.Mass = cloneFloat(s.Mass)
	out.DryMass = cloneFloat(s.DryMass)
	out.Volume = cloneFloat(s.Volume)
	out.Power = cloneFloat(s.Power)
	out.TechReadinessLevel = cloneFloat(s.TechReadinessLevel)
	out.IsGroundCommand = cloneBool(s.IsGroundCommand)
	out.IsSpare = cloneBool(s.IsSpare)
	if s.CommBand != nil {
		out.CommBand = append([]string(nil), s.CommBand...)
	}
	if s.Payload != nil {
		out.Payload = make([]Instrument, len(s.Payload))
		for i, p := range s.Payload {
			out.Payload[i] = p.Clone()
		}
	}
	return out
}

// DefaultSatellite is the built-in template used when no satellite is
// selected. It describes Landsat 8.
func DefaultSatellite() Satellite {
	return Satellite{
		Name:               "Landsat 8",
		Acronym:            "Landsat 8",
		Mass:               Float(2750),
		DryMass:            Float(2750),
		Volume:             Float(43.2),
		Power:              Float(1550),
		CommBand:           []string{"X"},
		TechReadinessLevel: Float(9),
		IsGroundCommand:    Bool(true),
		IsSpare:            Bool(false),
		PropellantType:     "MONO_PROP",
		StabilizationType:  "AXIS_3",
		Type:               TypeSatellite,
	}
}

// DefaultInstrument is the built-in template used when no instrument is
// selected. It describes the Operational Land Imager.
func DefaultInstrument() Instrument {
	return Instrument{
		Name:    "Operational Land Imager",
		Acronym: "OLI",
		Mass:    Float(236),
		Volume:  Float(0.261),
		Power:   Float(380),
		Orientation: &Orientation{
			Convention:    "SIDE_LOOK",
			SideLookAngle: Float(0),
			Type:          TypeOrientation,
		},
		FieldOfView: &FieldOfView{
			SensorGeometry:        "RECTANGULAR",
			AlongTrackFieldOfView: Float(0.0081),
			CrossTrackFieldOfView: Float(15),
			Type:                  TypeFieldOfView,
		},
		DataRate:           Float(384),
		BitsPerPixel:       Float(12),
		TechReadinessLevel: Float(9),
		MountType:          "BODY",
		Type:               TypeInstrument,
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

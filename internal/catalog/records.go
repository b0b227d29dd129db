package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/signalsfoundry/tradespace-search/model"
)

// listResponse is the body of a /<Type>/list lookup.
type listResponse struct {
	Graph []listEntry `json:"@graph"`
}

type listEntry struct {
	ID   string `json:"@id"`
	Name string `json:"tatckb:name"`
}

type ref struct {
	ID string `json:"@id"`
}

type satelliteRecord struct {
	ID                 string     `json:"@id"`
	Name               string     `json:"tatckb:name"`
	Acronym            string     `json:"tatckb:acronym"`
	Mass               number     `json:"tatckb:mass"`
	DryMass            number     `json:"tatckb:dryMass"`
	Volume             number     `json:"tatckb:volume"`
	Power              number     `json:"tatckb:power"`
	CommBand           stringList `json:"tatckb:commBand"`
	TechReadinessLevel number     `json:"tatckb:techReadinessLevel"`
	IsGroundCommand    flag       `json:"tatckb:isGroundCommand"`
	IsSpare            flag       `json:"tatckb:isSpare"`
	PropellantType     string     `json:"tatckb:propellantType"`
	StabilizationType  string     `json:"tatckb:stabilizationType"`
	Payload            []ref      `json:"tatckb:payload"`
}

type orientationRecord struct {
	ID            string `json:"@id"`
	Convention    string `json:"tatckb:convention"`
	SideLookAngle number `json:"tatckb:sideLookAngle"`
}

type fieldOfViewRecord struct {
	ID                    string `json:"@id"`
	SensorGeometry        string `json:"tatckb:sensorGeometry"`
	AlongTrackFieldOfView number `json:"tatckb:alongTrackFieldOfView"`
	CrossTrackFieldOfView number `json:"tatckb:crossTrackFieldOfView"`
}

type instrumentRecord struct {
	ID                 string              `json:"@id"`
	Name               string              `json:"tatckb:name"`
	Acronym            string              `json:"tatckb:acronym"`
	Mass               number              `json:"tatckb:mass"`
	Volume             number              `json:"tatckb:volume"`
	Power              number              `json:"tatckb:power"`
	Orientation        []orientationRecord `json:"tatckb:orientation"`
	FieldOfView        []fieldOfViewRecord `json:"tatckb:fieldOfView"`
	DataRate           number              `json:"tatckb:dataRate"`
	BitsPerPixel       number              `json:"tatckb:bitsPerPixel"`
	TechReadinessLevel number              `json:"tatckb:techReadinessLevel"`
	MountType          string              `json:"tatckb:mountType"`
}

func (r satelliteRecord) toModel() model.Satellite {
	return model.Satellite{
		ID:                 r.ID,
		Name:               r.Name,
		Acronym:            r.Acronym,
		Mass:               r.Mass.ptr(),
		DryMass:            r.DryMass.ptr(),
		Volume:             r.Volume.ptr(),
		Power:              r.Power.ptr(),
		CommBand:           []string(r.CommBand),
		TechReadinessLevel: r.TechReadinessLevel.ptr(),
		IsGroundCommand:    r.IsGroundCommand.ptr(),
		IsSpare:            r.IsSpare.ptr(),
		PropellantType:     r.PropellantType,
		StabilizationType:  r.StabilizationType,
		Type:               model.TypeSatellite,
	}
}

func (r satelliteRecord) payloadID() string {
	if len(r.Payload) == 0 {
		return ""
	}
	return r.Payload[0].ID
}

func (r instrumentRecord) toModel() (model.Instrument, error) {
	if len(r.Orientation) == 0 {
		return model.Instrument{}, fmt.Errorf("%w: instrument %q has no orientation", ErrMalformedRecord, r.ID)
	}
	if len(r.FieldOfView) == 0 {
		return model.Instrument{}, fmt.Errorf("%w: instrument %q has no field of view", ErrMalformedRecord, r.ID)
	}
	o, f := r.Orientation[0], r.FieldOfView[0]

	return model.Instrument{
		ID:      r.ID,
		Name:    r.Name,
		Acronym: r.Acronym,
		Mass:    r.Mass.ptr(),
		Volume:  r.Volume.ptr(),
		Power:   r.Power.ptr(),
		Orientation: &model.Orientation{
			ID:            o.ID,
			Convention:    o.Convention,
			SideLookAngle: o.SideLookAngle.ptr(),
			Type:          model.TypeOrientation,
		},
		FieldOfView: &model.FieldOfView{
			ID:                    f.ID,
			SensorGeometry:        f.SensorGeometry,
			AlongTrackFieldOfView: f.AlongTrackFieldOfView.ptr(),
			CrossTrackFieldOfView: f.CrossTrackFieldOfView.ptr(),
			Type:                  model.TypeFieldOfView,
		},
		DataRate:           r.DataRate.ptr(),
		BitsPerPixel:       r.BitsPerPixel.ptr(),
		TechReadinessLevel: r.TechReadinessLevel.ptr(),
		MountType:          r.MountType,
		Type:               model.TypeInstrument,
	}, nil
}

// number accepts a JSON number or a numeric string. Absent, null and
// unreadable values stay unset, so the field is omitted.
type number struct {
	set bool
	v   float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		n.set, n.v = true, v
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		n.set, n.v = true, v
	}
	return nil
}

func (n number) ptr() *float64 {
	if !n.set {
		return nil
	}
	return model.Float(n.v)
}

// flag accepts a JSON boolean or "true"/"false". Anything else stays unset.
type flag struct {
	set bool
	v   bool
}

func (f *flag) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		f.set, f.v = true, v
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		f.set, f.v = true, v
	}
	return nil
}

func (f flag) ptr() *bool {
	if !f.set {
		return nil
	}
	return model.Bool(f.v)
}

// stringList accepts either a single string or an array of strings. Other
// shapes leave it empty.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = stringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err == nil {
		*l = items
	}
	return nil
}

func isNull(b []byte) bool { return bytes.Equal(bytes.TrimSpace(b), []byte("null")) }

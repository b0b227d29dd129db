package form

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/tradespace-search/core"
	"github.com/signalsfoundry/tradespace-search/kb"
)

// Form holds the widgets of the simple tradespace form.
type Form struct {
	MissionStart time.Time
	Duration     *LinkedInput

	LatitudeMin  *Input
	LatitudeMax  *Input
	LongitudeMin *Input
	LongitudeMax *Input

	ConstellationSize *MinMaxRange
	OrbitalPlanes     *MinMaxRange
	Altitude          *MinMaxRange
	Inclination       *MinMaxRange
	FieldOfView       *MinMaxRange

	Satellite  *Select
	Instrument *Select
}

// New builds a form with its initial widget values. The mission starts on
// the UTC day of now. store supplies the select options and lookup drives the
// satellite to instrument follow-up; either may be nil.
func New(now time.Time, store *kb.KnowledgeBase, lookup PayloadLookup) *Form {
	f := &Form{
		MissionStart: startOfDay(now),
		Duration:     NewLinkedInput("missionDuration", 7, NewUnitLabel("days")),

		LatitudeMin:  NewInput("missionLatitudeMin", 35),
		LatitudeMax:  NewInput("missionLatitudeMax", 45),
		LongitudeMin: NewInput("missionLongitudeMin", -115),
		LongitudeMax: NewInput("missionLongitudeMax", -100),

		ConstellationSize: NewMinMaxRange("constellationSize", 1, 1, 1, "alternatives"),
		OrbitalPlanes:     NewMinMaxRange("orbitalPlanes", 1, 1, 1, "alternatives"),
		Altitude:          NewMinMaxRange("orbitalAltitude", 500, 800, 2, "alternatives"),
		Inclination:       NewMinMaxRange("orbitalInclination", 98, 98, 1, "alternatives"),
		FieldOfView:       NewMinMaxRange("instrumentFieldOfView", 15, 15, 1, "alternatives"),

		Satellite:  NewSelect(kb.KindSatellite, store),
		Instrument: NewSelect(kb.KindInstrument, store),
	}
	LinkTemplateSelects(f.Satellite, f.Instrument, lookup)
	return f
}

// Input snapshots the current widget values for assembly.
func (f *Form) Input() core.FormInput {
	return core.FormInput{
		MissionStart:      f.MissionStart,
		DurationDays:      f.Duration.Value(),
		LatitudeMin:       f.LatitudeMin.Value(),
		LatitudeMax:       f.LatitudeMax.Value(),
		LongitudeMin:      f.LongitudeMin.Value(),
		LongitudeMax:      f.LongitudeMax.Value(),
		ConstellationSize: f.ConstellationSize.RangeInput(),
		OrbitalPlanes:     f.OrbitalPlanes.RangeInput(),
		Altitude:          f.Altitude.RangeInput(),
		Inclination:       f.Inclination.RangeInput(),
		FieldOfView:       f.FieldOfView.RangeInput(),
		SatelliteID:       f.Satellite.Value(),
		InstrumentID:      f.Instrument.Value(),
	}
}

// Values is a set of form edits, typically read from a YAML file. Unset
// fields keep the current widget value.
type Values struct {
	MissionStart string   `yaml:"missionStart,omitempty"`
	DurationDays *float64 `yaml:"durationDays,omitempty"`

	Target *TargetValues `yaml:"target,omitempty"`

	ConstellationSize *RangeValues `yaml:"constellationSize,omitempty"`
	OrbitalPlanes     *RangeValues `yaml:"orbitalPlanes,omitempty"`
	Altitude          *RangeValues `yaml:"altitude,omitempty"`
	Inclination       *RangeValues `yaml:"inclination,omitempty"`
	FieldOfView       *RangeValues `yaml:"fieldOfView,omitempty"`

	Satellite  *string `yaml:"satellite,omitempty"`
	Instrument *string `yaml:"instrument,omitempty"`
}

// TargetValues bounds the mission target region.
type TargetValues struct {
	LatitudeMin  *float64 `yaml:"latitudeMin,omitempty"`
	LatitudeMax  *float64 `yaml:"latitudeMax,omitempty"`
	LongitudeMin *float64 `yaml:"longitudeMin,omitempty"`
	LongitudeMax *float64 `yaml:"longitudeMax,omitempty"`
}

// RangeValues edits one min/max/count triple.
type RangeValues struct {
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
	Count *int     `yaml:"count,omitempty"`
}

// ParseValues decodes a YAML form file. Unknown keys are rejected.
func ParseValues(r io.Reader) (Values, error) {
	var v Values
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return Values{}, fmt.Errorf("decode form values: %w", err)
	}
	return v, nil
}

// LoadValues reads a YAML form file from disk.
func LoadValues(path string) (Values, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("read form values %s: %w", path, err)
	}
	return ParseValues(bytes.NewReader(raw))
}

// Apply replays v onto the widgets as a sequence of user edits, so the same
// cascades run as when editing by hand: bounds first, then the count, then
// the satellite followed by the instrument.
func (f *Form) Apply(ctx context.Context, v Values) error {
	if s := strings.TrimSpace(v.MissionStart); s != "" {
		start, err := ParseMissionStart(s)
		if err != nil {
			return err
		}
		f.MissionStart = start
	}
	if v.DurationDays != nil {
		f.Duration.Number.Change(*v.DurationDays)
	}
	if t := v.Target; t != nil {
		changeIf(f.LatitudeMin, t.LatitudeMin)
		changeIf(f.LatitudeMax, t.LatitudeMax)
		changeIf(f.LongitudeMin, t.LongitudeMin)
		changeIf(f.LongitudeMax, t.LongitudeMax)
	}

	for _, r := range []struct {
		widget *MinMaxRange
		values *RangeValues
	}{
		{f.ConstellationSize, v.ConstellationSize},
		{f.OrbitalPlanes, v.OrbitalPlanes},
		{f.Altitude, v.Altitude},
		{f.Inclination, v.Inclination},
		{f.FieldOfView, v.FieldOfView},
	} {
		if r.values == nil {
			continue
		}
		changeIf(r.widget.Min, r.values.Min)
		changeIf(r.widget.Max, r.values.Max)
		if r.values.Count != nil {
			r.widget.Count.Number.Change(float64(*r.values.Count))
		}
	}

	if v.Satellite != nil {
		if err := f.Satellite.Change(ctx, strings.TrimSpace(*v.Satellite)); err != nil {
			return err
		}
	}
	if v.Instrument != nil {
		if err := f.Instrument.Change(ctx, strings.TrimSpace(*v.Instrument)); err != nil {
			return err
		}
	}
	return nil
}

// ParseMissionStart accepts a calendar date (2006-01-02) or an RFC 3339
// timestamp.
func ParseMissionStart(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("mission start %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func changeIf(in *Input, v *float64) {
	if v != nil {
		in.Change(*v)
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

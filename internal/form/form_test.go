package form

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/tradespace-search/core"
	"github.com/signalsfoundry/tradespace-search/kb"
)

func TestLinkedInputStaysInSync(t *testing.T) {
	l := NewLinkedInput("missionDuration", 7, NewUnitLabel("days"))

	l.Range.Change(12)
	assert.Equal(t, 12.0, l.Number.Value())
	assert.Equal(t, 12.0, l.Range.Value())

	l.Number.Change(3)
	assert.Equal(t, 3.0, l.Number.Value())
	assert.Equal(t, 3.0, l.Range.Value())
}

func TestLinkedInputRangeCascadesOnce(t *testing.T) {
	l := NewLinkedInput("x", 1)
	numberChanges := 0
	l.Number.OnChange(func(*Input) { numberChanges++ })

	l.Range.Change(5)
	assert.Equal(t, 1, numberChanges)

	// no write and no cascade when the values already agree
	l.Range.Change(5)
	assert.Equal(t, 1, numberChanges)
}

func TestUnitLabelPluralization(t *testing.T) {
	days := NewUnitLabel("days")
	l := NewLinkedInput("missionDuration", 7, days)
	assert.Equal(t, "days", days.Text())

	l.Number.Change(1)
	assert.Equal(t, "day", days.Text())
	l.Number.Change(1)
	assert.Equal(t, "day", days.Text(), "stripping is not repeated")

	l.Range.Change(2)
	assert.Equal(t, "days", days.Text())
	l.Number.Change(3)
	assert.Equal(t, "days", days.Text(), "suffix is not doubled")

	l.Number.Change(0)
	assert.Equal(t, "days", days.Text(), "values below one leave the label alone")
	l.Number.Change(1)
	l.Number.Change(0.5)
	assert.Equal(t, "day", days.Text())
}

func TestMinMaxRangeCountFollowsBounds(t *testing.T) {
	m := NewMinMaxRange("orbitalAltitude", 500, 800, 3, "alternatives")

	m.Max.Change(500)
	assert.Equal(t, 1, m.Steps(), "equal bounds collapse the count")
	assert.Equal(t, 1.0, m.Count.Range.Value())
	assert.Equal(t, "alternative", m.Count.Labels[0].Text())

	m.Max.Change(700)
	assert.Equal(t, 2, m.Steps(), "separating the bounds restores two alternatives")
	assert.Equal(t, "alternatives", m.Count.Labels[0].Text())

	m.Count.Number.Change(5)
	m.Min.Change(550)
	assert.Equal(t, 5, m.Steps(), "a count above one is kept")
}

func TestMinMaxRangeFractionalCountIsTruncated(t *testing.T) {
	m := NewMinMaxRange("orbitalAltitude", 500, 800, 2, "alternatives")
	m.Count.Number.Change(2.5)
	assert.Equal(t, 2, m.Steps())
	assert.Equal(t, 2, m.RangeInput().Steps)
}

func TestFractionalDurationIsKept(t *testing.T) {
	f := New(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC), nil, nil)
	f.Duration.Number.Change(1.5)
	assert.Equal(t, 1.5, f.Input().DurationDays)
}

func TestMinMaxRangeMinAboveMaxRaisesMax(t *testing.T) {
	m := NewMinMaxRange("orbitalAltitude", 500, 800, 3, "alternatives")
	maxChanges, minChanges := 0, 0
	m.Max.OnChange(func(*Input) { maxChanges++ })
	m.Min.OnChange(func(*Input) { minChanges++ })

	m.Min.Change(900)
	assert.Equal(t, 900.0, m.Max.Value())
	assert.Equal(t, 1, maxChanges, "max change handler fires exactly once")
	assert.Equal(t, 1, minChanges, "min is not bounced back")
	assert.Equal(t, 1, m.Steps())
}

func TestMinMaxRangeMaxBelowMinLowersMin(t *testing.T) {
	m := NewMinMaxRange("orbitalInclination", 30, 98, 2, "alternatives")
	minChanges := 0
	m.Min.OnChange(func(*Input) { minChanges++ })

	m.Max.Change(20)
	assert.Equal(t, 20.0, m.Min.Value())
	assert.Equal(t, 1, minChanges)
	assert.Equal(t, core.RangeInput{Min: 20, Max: 20, Steps: 1}, m.RangeInput())
}

type fakeLookup struct {
	payloads map[string]string
	err      error
	calls    []string
}

func (f *fakeLookup) PayloadInstrumentID(_ context.Context, id string) (string, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return "", f.err
	}
	return f.payloads[id], nil
}

func TestSatelliteSelectDrivesInstrument(t *testing.T) {
	ctx := context.Background()
	lookup := &fakeLookup{payloads: map[string]string{"sat-l8": "inst-oli"}}
	f := New(time.Now(), nil, lookup)

	require.NoError(t, f.Satellite.Change(ctx, "sat-l8"))
	assert.Equal(t, "inst-oli", f.Instrument.Value())

	require.NoError(t, f.Satellite.Change(ctx, "sat-empty"))
	assert.Equal(t, "", f.Instrument.Value(), "no payload selects the default instrument")

	require.NoError(t, f.Instrument.Change(ctx, "inst-x"))
	require.NoError(t, f.Satellite.Change(ctx, ""))
	assert.Equal(t, "", f.Instrument.Value())
	assert.Equal(t, []string{"sat-l8", "sat-empty"}, lookup.calls, "clearing does not look anything up")
}

func TestSatelliteSelectLookupFailure(t *testing.T) {
	boom := errors.New("boom")
	f := New(time.Now(), nil, &fakeLookup{err: boom})
	err := f.Satellite.Change(context.Background(), "sat-l8")
	assert.True(t, errors.Is(err, boom))
}

func TestSelectRejectsUnknownOption(t *testing.T) {
	store := kb.NewKnowledgeBase()
	require.NoError(t, store.SetOptions(kb.KindInstrument, []kb.Option{{ID: "inst-oli", Name: "OLI"}}))
	f := New(time.Now(), store, nil)

	err := f.Instrument.Change(context.Background(), "inst-nope")
	assert.True(t, errors.Is(err, ErrUnknownOption))
	require.NoError(t, f.Instrument.Change(context.Background(), "inst-oli"))
	assert.Len(t, f.Instrument.Options(), 1)

	// satellites are not loaded, so any id is accepted
	require.NoError(t, f.Satellite.Change(context.Background(), "sat-any"))
}

const valuesYAML = `
missionStart: "2026-03-01"
durationDays: 1
target:
  latitudeMin: 30
  latitudeMax: 45
  longitudeMin: -110
  longitudeMax: -100
constellationSize: {min: 2, max: 6, count: 3}
altitude: {min: 900, max: 1200, count: 4}
inclination: {min: 60, max: 60}
fieldOfView: {min: 10, max: 20, count: 3}
satellite: sat-l8
`

func TestApplyValues(t *testing.T) {
	v, err := ParseValues(strings.NewReader(valuesYAML))
	require.NoError(t, err)

	f := New(time.Date(2020, 1, 1, 15, 0, 0, 0, time.UTC), nil, &fakeLookup{payloads: map[string]string{"sat-l8": "inst-oli"}})
	require.NoError(t, f.Apply(context.Background(), v))
	assert.Equal(t, "day", f.Duration.Labels[0].Text())

	in := f.Input()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), in.MissionStart)
	assert.Equal(t, 1.0, in.DurationDays)
	assert.Equal(t, 30.0, in.LatitudeMin)
	assert.Equal(t, -100.0, in.LongitudeMax)
	assert.Equal(t, core.RangeInput{Min: 2, Max: 6, Steps: 3}, in.ConstellationSize)
	assert.Equal(t, core.RangeInput{Min: 1, Max: 1, Steps: 1}, in.OrbitalPlanes)
	assert.Equal(t, core.RangeInput{Min: 900, Max: 1200, Steps: 4}, in.Altitude)
	assert.Equal(t, core.RangeInput{Min: 60, Max: 60, Steps: 1}, in.Inclination)
	assert.Equal(t, core.RangeInput{Min: 10, Max: 20, Steps: 3}, in.FieldOfView)
	assert.Equal(t, "sat-l8", in.SatelliteID)
	assert.Equal(t, "inst-oli", in.InstrumentID)
}

func TestAppliedFormBuildsFieldOfViewVariants(t *testing.T) {
	v, err := ParseValues(strings.NewReader(valuesYAML))
	require.NoError(t, err)
	f := New(time.Now(), nil, nil)
	require.NoError(t, f.Apply(context.Background(), v))

	in := f.Input()
	in.SatelliteID, in.InstrumentID = "", ""
	doc, err := core.NewAssembler(nil, nil).Build(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, doc.DesignSpace.Satellites, 3)
	for i, want := range []float64{10, 15, 20} {
		assert.Equal(t, want, *doc.DesignSpace.Satellites[i].Payload[0].FieldOfView.CrossTrackFieldOfView)
	}
}

func TestParseValuesRejectsUnknownKeys(t *testing.T) {
	_, err := ParseValues(strings.NewReader("altitude: {min: 1, maximum: 2}\n"))
	require.Error(t, err)
}

func TestParseValuesEmpty(t *testing.T) {
	v, err := ParseValues(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Values{}, v)
}

func TestParseMissionStart(t *testing.T) {
	got, err := ParseMissionStart("2026-03-01T06:30:00-07:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC)))

	_, err = ParseMissionStart("March 1st")
	require.Error(t, err)
}

package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/tradespace-search/internal/logging"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
	"github.com/signalsfoundry/tradespace-search/model"
)

// FormInput is the numeric content of the simple form at submission time.
type FormInput struct {
	MissionStart time.Time
	DurationDays float64

	LatitudeMin, LatitudeMax   float64
	LongitudeMin, LongitudeMax float64

	ConstellationSize RangeInput
	OrbitalPlanes     RangeInput
	Altitude          RangeInput
	Inclination       RangeInput
	FieldOfView       RangeInput

	// SatelliteID and InstrumentID select catalog templates; empty means the
	// built-in default.
	SatelliteID  string
	InstrumentID string
}

// Target returns the mission target region.
func (in FormInput) Target() model.Region {
	return model.NewRegion(in.LatitudeMin, in.LatitudeMax, in.LongitudeMin, in.LongitudeMax)
}

// TemplateSource fetches catalog templates by identifier.
type TemplateSource interface {
	GetSatellite(ctx context.Context, id string) (model.Satellite, error)
	GetInstrument(ctx context.Context, id string) (model.Instrument, error)
}

// Assembler maps form input onto a TradespaceSearch document.
type Assembler struct {
	templates TemplateSource
	log       logging.Logger
}

// NewAssembler constructs an assembler. A nil source restricts it to the
// built-in templates.
func NewAssembler(templates TemplateSource, log logging.Logger) *Assembler {
	if log == nil {
		log = logging.Noop()
	}
	return &Assembler{templates: templates, log: log}
}

// SatelliteTemplate resolves the satellite template for id.
func (a *Assembler) SatelliteTemplate(ctx context.Context, id string) (model.Satellite, error) {
	if id == "" {
		return model.DefaultSatellite(), nil
	}
	if a.templates == nil {
		return model.Satellite{}, fmt.Errorf("no catalog configured for satellite %q", id)
	}
	sat, err := a.templates.GetSatellite(ctx, id)
	if err != nil {
		return model.Satellite{}, fmt.Errorf("satellite template %q: %w", id, err)
	}
	return sat, nil
}

// InstrumentTemplate resolves the instrument template for id.
func (a *Assembler) InstrumentTemplate(ctx context.Context, id string) (model.Instrument, error) {
	if id == "" {
		return model.DefaultInstrument(), nil
	}
	if a.templates == nil {
		return model.Instrument{}, fmt.Errorf("no catalog configured for instrument %q", id)
	}
	inst, err := a.templates.GetInstrument(ctx, id)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("instrument template %q: %w", id, err)
	}
	return inst, nil
}

// Build resolves both templates and assembles the request document.
func (a *Assembler) Build(ctx context.Context, in FormInput) (*model.TradespaceSearch, error) {
	ctx, span := observability.StartSpan(ctx, "tradespace.assemble",
		attribute.String("satellite_id", in.SatelliteID),
		attribute.String("instrument_id", in.InstrumentID),
	)
	defer span.End()

	sat, err := a.SatelliteTemplate(ctx, in.SatelliteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "satellite template")
		return nil, err
	}
	inst, err := a.InstrumentTemplate(ctx, in.InstrumentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "instrument template")
		return nil, err
	}

	doc, err := Assemble(in, sat, inst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assemble")
		return nil, err
	}
	span.SetAttributes(attribute.Int("variants", len(doc.DesignSpace.Satellites)))

	a.log.Debug(ctx, "assembled tradespace search",
		logging.String("satellite", sat.Name),
		logging.String("instrument", inst.Name),
		logging.Int("variants", len(doc.DesignSpace.Satellites)),
	)
	return doc, nil
}

// Assemble builds the document from already resolved templates.
func Assemble(in FormInput, sat model.Satellite, inst model.Instrument) (*model.TradespaceSearch, error) {
	variants, err := SatelliteVariants(sat, inst, in.FieldOfView)
	if err != nil {
		return nil, fmt.Errorf("field of view: %w", err)
	}
	constellation, err := buildConstellation(in)
	if err != nil {
		return nil, err
	}

	return &model.TradespaceSearch{
		Mission: model.NewMissionConcept(in.MissionStart, in.DurationDays, in.Target()),
		DesignSpace: model.DesignSpace{
			SpaceSegment:   []model.Constellation{constellation},
			Satellites:     variants,
			GroundSegment:  []model.GroundNetwork{model.DefaultGroundNetwork()},
			GroundStations: []model.GroundStation{model.DefaultGroundStation()},
			Type:           model.TypeDesignSpace,
		},
		Settings: model.DefaultSettings(),
		Type:     model.TypeTradespaceSearch,
	}, nil
}

// SatelliteVariants returns one satellite per field-of-view value. Each is a
// deep copy of sat carrying a single payload: a copy of inst with its field of
// view replaced.
func SatelliteVariants(sat model.Satellite, inst model.Instrument, fov RangeInput) ([]model.Satellite, error) {
	values, err := ListQuantitativeRange(fov)
	if err != nil {
		return nil, err
	}
	out := make([]model.Satellite, 0, len(values))
	for _, v := range values {
		variant := sat.Clone()
		variant.Payload = []model.Instrument{inst.WithFieldOfView(model.RectangularFieldOfView(v))}
		out = append(out, variant)
	}
	return out, nil
}

func buildConstellation(in FormInput) (model.Constellation, error) {
	size, err := FormatQuantitativeRange(in.ConstellationSize)
	if err != nil {
		return model.Constellation{}, fmt.Errorf("constellation size: %w", err)
	}
	planes, err := FormatQuantitativeRange(in.OrbitalPlanes)
	if err != nil {
		return model.Constellation{}, fmt.Errorf("orbital planes: %w", err)
	}
	altitude, err := FormatQuantitativeRange(in.Altitude)
	if err != nil {
		return model.Constellation{}, fmt.Errorf("orbital altitude: %w", err)
	}
	inclination, err := FormatQuantitativeRange(in.Inclination)
	if err != nil {
		return model.Constellation{}, fmt.Errorf("orbital inclination: %w", err)
	}

	return model.Constellation{
		ConstellationType: model.ConstellationDelta,
		NumberSatellites:  size,
		NumberPlanes:      planes,
		Orbit: model.Orbit{
			OrbitType:    model.OrbitCircular,
			Altitude:     altitude,
			Inclination:  inclination,
			Eccentricity: 0,
			Type:         model.TypeOrbit,
		},
		Type: model.TypeConstellation,
	}, nil
}

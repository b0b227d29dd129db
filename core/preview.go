package core

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/tradespace-search/internal/logging"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
	"github.com/signalsfoundry/tradespace-search/model"
	"github.com/signalsfoundry/tradespace-search/timectrl"
)

// DesignPoint is one constellation alternative of the design space.
type DesignPoint struct {
	Satellites     int
	Planes         int
	AltitudeKm     float64
	InclinationDeg float64
}

func (p DesignPoint) String() string {
	return fmt.Sprintf("%d sats / %d planes @ %.0f km, %.1f°", p.Satellites, p.Planes, p.AltitudeKm, p.InclinationDeg)
}

// DesignPoints enumerates every combination of constellation size, plane
// count, altitude and inclination. Counts are rounded to integers.
func DesignPoints(in FormInput) ([]DesignPoint, error) {
	sizes, err := ListQuantitativeRange(in.ConstellationSize)
	if err != nil {
		return nil, fmt.Errorf("constellation size: %w", err)
	}
	planes, err := ListQuantitativeRange(in.OrbitalPlanes)
	if err != nil {
		return nil, fmt.Errorf("orbital planes: %w", err)
	}
	altitudes, err := ListQuantitativeRange(in.Altitude)
	if err != nil {
		return nil, fmt.Errorf("orbital altitude: %w", err)
	}
	inclinations, err := ListQuantitativeRange(in.Inclination)
	if err != nil {
		return nil, fmt.Errorf("orbital inclination: %w", err)
	}

	points := make([]DesignPoint, 0, len(sizes)*len(planes)*len(altitudes)*len(inclinations))
	for _, t := range sizes {
		for _, p := range planes {
			for _, h := range altitudes {
				for _, i := range inclinations {
					points = append(points, DesignPoint{
						Satellites:     int(math.Round(t)),
						Planes:         int(math.Round(p)),
						AltitudeKm:     h,
						InclinationDeg: i,
					})
				}
			}
		}
	}
	return points, nil
}

// PreviewOptions tunes the orbit preview.
type PreviewOptions struct {
	// Step is the sampling interval. Default one minute.
	Step time.Duration
	// Window caps the propagated span. Default one day; never longer than
	// the mission.
	Window time.Duration
	// MinElevationDeg is the ground station contact threshold. Nil means 10;
	// zero counts contact down to the horizon.
	MinElevationDeg *float64
	// Phasing is the Walker inter-plane phasing factor f. Default 1.
	Phasing int
	// Workers bounds concurrent evaluations. Default GOMAXPROCS.
	Workers int
}

func (o PreviewOptions) withDefaults() PreviewOptions {
	if o.Step <= 0 {
		o.Step = time.Minute
	}
	if o.Window <= 0 {
		o.Window = 24 * time.Hour
	}
	if o.MinElevationDeg == nil {
		o.MinElevationDeg = model.Float(10)
	}
	if o.Phasing <= 0 {
		o.Phasing = 1
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// PreviewResult summarises one design point over the sampled window.
type PreviewResult struct {
	Point DesignPoint
	// Skipped explains why the point was not propagated.
	Skipped string

	Period  time.Duration
	Samples int
	// TargetSamples counts samples with at least one sub-satellite point
	// inside the mission target.
	TargetSamples int
	// ContactSamples counts samples with at least one satellite above the
	// elevation threshold of the ground station.
	ContactSamples int
	// MinSlantRangeKm is the closest station to satellite distance seen
	// while in contact, or 0 without contact.
	MinSlantRangeKm float64
}

// TargetShare is the fraction of samples over the target.
func (r PreviewResult) TargetShare() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.TargetSamples) / float64(r.Samples)
}

// ContactShare is the fraction of samples in ground station contact.
func (r PreviewResult) ContactShare() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.ContactSamples) / float64(r.Samples)
}

// Preview propagates synthetic Walker constellations for every design point
// of in and reports target and ground station visibility. Results keep the
// order of DesignPoints. It never changes the request.
func Preview(ctx context.Context, in FormInput, opts PreviewOptions, log logging.Logger) ([]PreviewResult, error) {
	if log == nil {
		log = logging.Noop()
	}
	opts = opts.withDefaults()
	points, err := DesignPoints(in)
	if err != nil {
		return nil, err
	}

	window := opts.Window
	if mission := time.Duration(in.DurationDays * float64(24*time.Hour)); mission > 0 && mission < window {
		window = mission
	}
	station := model.DefaultGroundStation()
	stationECEF := GeodeticToECEF(station.Latitude, station.Longitude, station.Elevation/1000)
	target := in.Target()

	ctx, span := observability.StartSpan(ctx, "tradespace.preview",
		attribute.Int("design_points", len(points)),
		attribute.String("window", window.String()),
	)
	defer span.End()

	results := make([]PreviewResult, len(points))
	errs := make([]error, len(points))
	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	for i, p := range points {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = previewPoint(ctx, p, in.MissionStart, window, opts, target, stationECEF)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("preview %s: %w", points[i], err)
		}
	}
	log.Debug(ctx, "orbit preview complete",
		logging.Int("design_points", len(points)),
		logging.String("window", window.String()),
	)
	return results, nil
}

func previewPoint(ctx context.Context, p DesignPoint, start time.Time, window time.Duration, opts PreviewOptions, target model.Region, station Vec3) (PreviewResult, error) {
	res := PreviewResult{Point: p, Period: PeriodOf(p.AltitudeKm)}

	orbits, err := WalkerDelta(p.Satellites, p.Planes, opts.Phasing, p.AltitudeKm, p.InclinationDeg)
	if err != nil {
		res.Skipped = err.Error()
		return res, nil
	}
	if p.AltitudeKm <= 0 {
		res.Skipped = "altitude must be positive"
		return res, nil
	}

	props := make([]*Propagator, len(orbits))
	for i, o := range orbits {
		props[i] = NewPropagator(o.TLE(i+1, start))
	}

	clock := timectrl.NewTimeController(start, opts.Step, timectrl.Accelerated)
	clock.AddListener(func(now time.Time) {
		res.Samples++
		overTarget, inContact := false, false
		for _, prop := range props {
			pos := prop.PositionECEF(now)
			lat, lon := SubPoint(pos)
			if !overTarget && target.Contains(lat, lon) {
				overTarget = true
			}
			if ElevationDegrees(station, pos) >= *opts.MinElevationDeg {
				inContact = true
				if d := station.DistanceTo(pos); res.MinSlantRangeKm == 0 || d < res.MinSlantRangeKm {
					res.MinSlantRangeKm = d
				}
			}
		}
		if overTarget {
			res.TargetSamples++
		}
		if inContact {
			res.ContactSamples++
		}
	})
	if err := clock.Run(ctx, window); err != nil {
		return PreviewResult{}, err
	}
	return res, nil
}

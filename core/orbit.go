package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// WGS72 constants matching the propagator's gravity model.
const (
	wgs72RadiusKm = 6378.135
	wgs72MuKm3S2  = 398600.8
)

// CircularOrbit describes one satellite of a Walker pattern.
type CircularOrbit struct {
	AltitudeKm     float64
	InclinationDeg float64
	RAANDeg        float64
	MeanAnomalyDeg float64
}

// PeriodOf returns the Keplerian period of a circular orbit at altitudeKm.
func PeriodOf(altitudeKm float64) time.Duration {
	a := wgs72RadiusKm + altitudeKm
	seconds := 2 * math.Pi * math.Sqrt(a*a*a/wgs72MuKm3S2)
	return time.Duration(seconds * float64(time.Second))
}

// WalkerDelta lays out t satellites in p equally spaced planes with
// inter-plane phasing f (the i:t/p/f notation). t must be a multiple of p.
func WalkerDelta(t, p, f int, altitudeKm, inclinationDeg float64) ([]CircularOrbit, error) {
	if t < 1 || p < 1 {
		return nil, fmt.Errorf("walker pattern needs at least one satellite and one plane (got %d/%d)", t, p)
	}
	if t%p != 0 {
		return nil, fmt.Errorf("walker pattern: %d satellites do not divide into %d planes", t, p)
	}
	perPlane := t / p
	orbits := make([]CircularOrbit, 0, t)
	for plane := 0; plane < p; plane++ {
		raan := 360 * float64(plane) / float64(p)
		for slot := 0; slot < perPlane; slot++ {
			anomaly := 360*float64(slot)/float64(perPlane) + 360*float64(f*plane)/float64(t)
			orbits = append(orbits, CircularOrbit{
				AltitudeKm:     altitudeKm,
				InclinationDeg: inclinationDeg,
				RAANDeg:        math.Mod(raan, 360),
				MeanAnomalyDeg: math.Mod(anomaly, 360),
			})
		}
	}
	return orbits, nil
}

// TLE renders the orbit as a two-line element set with the given catalog
// number and epoch. Drag terms are zero.
func (o CircularOrbit) TLE(catalogNumber int, epoch time.Time) (line1, line2 string) {
	epoch = epoch.UTC()
	dayOfYear := float64(epoch.YearDay()) +
		(float64(epoch.Hour())*3600+float64(epoch.Minute())*60+float64(epoch.Second()))/86400
	meanMotion := 86400 / PeriodOf(o.AltitudeKm).Seconds()

	line1 = fmt.Sprintf("1 %05dU %-8s %02d%012.8f  .00000000  00000-0  00000-0 0  999",
		catalogNumber%100000, "", epoch.Year()%100, dayOfYear)
	line2 = fmt.Sprintf("2 %05d %8.4f %8.4f 0000000 %8.4f %8.4f %11.8f%5d",
		catalogNumber%100000, o.InclinationDeg, o.RAANDeg, 0.0, o.MeanAnomalyDeg, meanMotion, 0)
	return line1 + tleChecksum(line1), line2 + tleChecksum(line2)
}

func tleChecksum(line string) string {
	sum := 0
	for _, r := range line {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return fmt.Sprintf("%d", sum%10)
}

// Propagator computes ECEF positions of one satellite with SGP4.
type Propagator struct {
	sat satellite.Satellite
}

// NewPropagator parses a two-line element set.
func NewPropagator(line1, line2 string) *Propagator {
	return &Propagator{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}
}

// PositionECEF propagates to t and returns the ECEF position in kilometres.
func (p *Propagator) PositionECEF(t time.Time) Vec3 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)
	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}

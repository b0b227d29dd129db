package core

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestPeriodOf(t *testing.T) {
	got := PeriodOf(700).Minutes()
	if math.Abs(got-98.8) > 0.3 {
		t.Fatalf("PeriodOf(700) = %.2f min, want ~98.8", got)
	}
	if geo := PeriodOf(35786).Hours(); math.Abs(geo-23.93) > 0.05 {
		t.Fatalf("PeriodOf(GEO) = %.3f h, want ~23.93", geo)
	}
}

func TestWalkerDeltaLayout(t *testing.T) {
	orbits, err := WalkerDelta(6, 3, 1, 700, 98)
	if err != nil {
		t.Fatalf("WalkerDelta: %v", err)
	}
	if len(orbits) != 6 {
		t.Fatalf("got %d orbits, want 6", len(orbits))
	}
	wantRAAN := []float64{0, 0, 120, 120, 240, 240}
	wantMA := []float64{0, 180, 60, 240, 120, 300}
	for i, o := range orbits {
		if math.Abs(o.RAANDeg-wantRAAN[i]) > 1e-9 || math.Abs(o.MeanAnomalyDeg-wantMA[i]) > 1e-9 {
			t.Fatalf("orbit %d = raan %.1f ma %.1f, want %.1f/%.1f", i, o.RAANDeg, o.MeanAnomalyDeg, wantRAAN[i], wantMA[i])
		}
	}

	if _, err := WalkerDelta(5, 2, 1, 700, 98); err == nil {
		t.Fatalf("expected error for satellites not divisible by planes")
	}
	if _, err := WalkerDelta(0, 1, 1, 700, 98); err == nil {
		t.Fatalf("expected error for empty constellation")
	}
}

func TestCircularOrbitTLEFormat(t *testing.T) {
	o := CircularOrbit{AltitudeKm: 700, InclinationDeg: 98.2, RAANDeg: 120, MeanAnomalyDeg: 45}
	epoch := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	l1, l2 := o.TLE(7, epoch)

	if len(l1) != 69 || len(l2) != 69 {
		t.Fatalf("line lengths = %d/%d, want 69", len(l1), len(l2))
	}
	if !strings.HasPrefix(l1, "1 00007U") || !strings.HasPrefix(l2, "2 00007") {
		t.Fatalf("unexpected prefixes:\n%s\n%s", l1, l2)
	}
	if got := l1[18:32]; got != "26060.50000000" {
		t.Fatalf("epoch field = %q, want 26060.50000000", got)
	}
	if got := strings.TrimSpace(l2[8:16]); got != "98.2000" {
		t.Fatalf("inclination field = %q", got)
	}
	if got := l2[26:33]; got != "0000000" {
		t.Fatalf("eccentricity field = %q", got)
	}
	for _, l := range []string{l1, l2} {
		if want := tleChecksum(l[:68]); l[68:] != want {
			t.Fatalf("checksum of %q = %s, want %s", l, l[68:], want)
		}
	}
}

func TestTLEChecksumCountsMinus(t *testing.T) {
	if got := tleChecksum("1-2-3"); got != "8" {
		t.Fatalf("tleChecksum = %s, want 8", got)
	}
}

func TestPropagatorHoldsAltitude(t *testing.T) {
	epoch := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	o := CircularOrbit{AltitudeKm: 700, InclinationDeg: 98}
	p := NewPropagator(o.TLE(1, epoch))

	prev := Vec3{}
	for i := 0; i < 6; i++ {
		now := epoch.Add(time.Duration(i) * 17 * time.Minute)
		pos := p.PositionECEF(now)
		if r := pos.Norm(); math.Abs(r-(wgs72RadiusKm+700)) > 50 {
			t.Fatalf("radius at %v = %.1f km, want ~%.1f", now, r, wgs72RadiusKm+700)
		}
		if i > 0 && pos.DistanceTo(prev) < 1 {
			t.Fatalf("satellite did not move between samples")
		}
		prev = pos
	}
}

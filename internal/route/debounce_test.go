package route

import (
	"testing"
	"time"

	"courier/internal/domain"
)

func TestRerouteDebouncer_FirstOffRouteFixAlwaysTriggers(t *testing.T) {
	t.Parallel()

	d := NewRerouteDebouncer(DefaultDebounceConfig())
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	if !d.ShouldTrigger(domain.Point{Lat: 14.60, Lng: 120.98}, now) {
		t.Fatal("first off-route fix should trigger a reroute")
	}
}

func TestRerouteDebouncer_SuppressesRapidRepeats(t *testing.T) {
	t.Parallel()

	d := NewRerouteDebouncer(DebounceConfig{MinInterval: 30 * time.Second, MinMovedMeters: 100})
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	fix := domain.Point{Lat: 14.60, Lng: 120.98}

	if !d.ShouldTrigger(fix, now) {
		t.Fatal("first fix should trigger")
	}

	// Same position, two seconds later: suppressed.
	if d.ShouldTrigger(fix, now.Add(2*time.Second)) {
		t.Error("repeat fix within interval and distance should be suppressed")
	}

	// Interval elapsed: re-triggers.
	if !d.ShouldTrigger(fix, now.Add(31*time.Second)) {
		t.Error("fix after the minimum interval should trigger again")
	}
}

func TestRerouteDebouncer_RetriggersAfterMovingFarEnough(t *testing.T) {
	t.Parallel()

	d := NewRerouteDebouncer(DebounceConfig{MinInterval: time.Hour, MinMovedMeters: 100})
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	if !d.ShouldTrigger(domain.Point{Lat: 14.6000, Lng: 120.9800}, now) {
		t.Fatal("first fix should trigger")
	}

	// ~30 m north: still suppressed.
	if d.ShouldTrigger(domain.Point{Lat: 14.6003, Lng: 120.9800}, now.Add(time.Second)) {
		t.Error("30m of movement should not re-trigger with a 100m threshold")
	}

	// ~550 m north: far enough to re-trigger even inside the interval.
	if !d.ShouldTrigger(domain.Point{Lat: 14.6050, Lng: 120.9800}, now.Add(2*time.Second)) {
		t.Error("550m of movement should re-trigger")
	}
}

func TestRerouteDebouncer_ResetRearms(t *testing.T) {
	t.Parallel()

	d := NewRerouteDebouncer(DebounceConfig{MinInterval: time.Hour, MinMovedMeters: 1e6})
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	fix := domain.Point{Lat: 14.60, Lng: 120.98}

	if !d.ShouldTrigger(fix, now) {
		t.Fatal("first fix should trigger")
	}
	if d.ShouldTrigger(fix, now.Add(time.Second)) {
		t.Fatal("second fix should be suppressed")
	}

	d.Reset()

	if !d.ShouldTrigger(fix, now.Add(2*time.Second)) {
		t.Error("fix after Reset should trigger like a first fix")
	}
}

package route

import (
	"sync"
	"time"

	"courier/internal/domain"
)

// DebounceConfig controls how often an off-route condition may re-trigger a
// reroute. A reroute fires again only after MinInterval has elapsed since the
// last trigger, or once the fix has moved MinMovedMeters from the fix that
// caused it.
type DebounceConfig struct {
	MinInterval    time.Duration
	MinMovedMeters float64
}

// DefaultDebounceConfig returns the default reroute debounce settings.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		MinInterval:    30 * time.Second,
		MinMovedMeters: 100,
	}
}

// RerouteDebouncer suppresses repeated reroute triggers while a driver is
// continuously off-route. Position fixes can arrive at sensor frequency, so
// it is safe for concurrent use.
type RerouteDebouncer struct {
	cfg DebounceConfig

	mu      sync.Mutex
	fired   bool
	lastAt  time.Time
	lastFix domain.Point
}

// NewRerouteDebouncer creates a debouncer with the given config. Zero config
// values fall back to defaults.
func NewRerouteDebouncer(cfg DebounceConfig) *RerouteDebouncer {
	def := DefaultDebounceConfig()
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.MinMovedMeters <= 0 {
		cfg.MinMovedMeters = def.MinMovedMeters
	}
	return &RerouteDebouncer{cfg: cfg}
}

// ShouldTrigger reports whether an off-route fix at now warrants a reroute,
// recording the trigger when it does. The first off-route fix always
// triggers.
func (d *RerouteDebouncer) ShouldTrigger(fix domain.Point, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.fired ||
		now.Sub(d.lastAt) >= d.cfg.MinInterval ||
		DistanceMeters(fix, d.lastFix) >= d.cfg.MinMovedMeters {
		d.fired = true
		d.lastAt = now
		d.lastFix = fix
		return true
	}

	return false
}

// Reset clears trigger history, re-arming the debouncer. Called when the
// driver returns to the route or the delivery reaches a terminal state.
func (d *RerouteDebouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fired = false
	d.lastAt = time.Time{}
	d.lastFix = domain.Point{}
}

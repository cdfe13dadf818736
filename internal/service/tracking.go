package service

import (
	"context"
	"sync"
	"time"

	"courier/internal/domain"
	"courier/internal/redis"
	"courier/internal/route"
)

// RouteProvider plans the route geometry for a delivery leg. Geometry is
// regenerated wholesale on reroute; there is no incremental-update contract.
type RouteProvider interface {
	PlanRoute(ctx context.Context, from, to domain.Point) (domain.RouteGeometry, error)
}

// TrackingConfig holds the tunables of the position-fix path.
type TrackingConfig struct {
	OffRouteThresholdMeters float64
	Debounce                route.DebounceConfig
}

// DefaultTrackingConfig returns the default tracking settings.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		OffRouteThresholdMeters: 50,
		Debounce:                route.DefaultDebounceConfig(),
	}
}

// trackingSession is the per-delivery route state. Geometry is replaced
// wholesale on reroute; lastTimestamp rejects stale and duplicate fixes.
type trackingSession struct {
	mu            sync.Mutex
	driverID      string
	destination   domain.Point
	geometry      domain.RouteGeometry
	debouncer     *route.RerouteDebouncer
	lastTimestamp int64
}

// TrackingService consumes the position-fix stream for active deliveries:
// it records driver presence, snaps fixes onto the planned route, classifies
// adherence, and debounces reroute triggers.
type TrackingService struct {
	locationStore redis.LocationStoreInterface
	routes        RouteProvider
	notifier      *NotificationService
	cfg           TrackingConfig

	mu       sync.Mutex
	sessions map[string]*trackingSession
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	locationStore redis.LocationStoreInterface,
	routes RouteProvider,
	notifier *NotificationService,
	cfg TrackingConfig,
) *TrackingService {
	if cfg.OffRouteThresholdMeters <= 0 {
		cfg.OffRouteThresholdMeters = DefaultTrackingConfig().OffRouteThresholdMeters
	}
	return &TrackingService{
		locationStore: locationStore,
		routes:        routes,
		notifier:      notifier,
		cfg:           cfg,
		sessions:      make(map[string]*trackingSession),
	}
}

// StartSession begins tracking a delivery leg. The destination depends on
// where the driver is in the lifecycle: pickup until the package is
// collected, drop-off after. A failed route plan starts the session with
// empty geometry; fixes then snap to themselves until a reroute succeeds.
func (s *TrackingService) StartSession(ctx context.Context, delivery *domain.Delivery) error {
	if delivery == nil || delivery.ID == "" {
		return ErrInvalidDeliveryID
	}
	if delivery.Status.IsTerminal() {
		return ErrDeliveryTerminal
	}

	from := domain.Point{Lat: delivery.PickupLat, Lng: delivery.PickupLng}
	to := domain.Point{Lat: delivery.DeliveryLat, Lng: delivery.DeliveryLng}
	if stop := delivery.CurrentStop(); stop != nil {
		to = domain.Point{Lat: stop.Lat, Lng: stop.Lng}
	}

	var geom domain.RouteGeometry
	if s.routes != nil {
		if planned, err := s.routes.PlanRoute(ctx, from, to); err == nil {
			geom = planned
		}
	}

	session := &trackingSession{
		driverID:    delivery.DriverID,
		destination: to,
		geometry:    geom,
		debouncer:   route.NewRerouteDebouncer(s.cfg.Debounce),
	}

	s.mu.Lock()
	s.sessions[delivery.ID] = session
	s.mu.Unlock()

	return nil
}

// TrackingUpdate is the result of processing one position fix.
type TrackingUpdate struct {
	DeliveryID string
	Snapped    domain.Point
	OffRoute   bool
	Rerouted   bool
	// Stale marks a duplicate or out-of-order fix that was acknowledged and
	// skipped. Stale fixes are normal operation, never errors.
	Stale bool
}

// ProcessFix handles one fix from the position stream. It is safe to call
// inline at sensor frequency: route math is pure, and reroutes are debounced.
func (s *TrackingService) ProcessFix(ctx context.Context, deliveryID string, fix domain.PositionFix) (*TrackingUpdate, error) {
	if deliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if !isValidLatitude(fix.Lat) || !isValidLongitude(fix.Lng) {
		return nil, ErrInvalidLocation
	}

	s.mu.Lock()
	session, ok := s.sessions[deliveryID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoRouteSession
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// The fix stream only guarantees roughly non-decreasing timestamps.
	// Older or repeated fixes are acknowledged without processing.
	if fix.Timestamp != 0 && fix.Timestamp <= session.lastTimestamp {
		return &TrackingUpdate{DeliveryID: deliveryID, Snapped: fix.Point(), Stale: true}, nil
	}
	session.lastTimestamp = fix.Timestamp

	if s.locationStore != nil && session.driverID != "" {
		_ = s.locationStore.UpdatePosition(ctx, session.driverID, fix.Lat, fix.Lng)
	}

	point := fix.Point()
	snapped := route.SnapToRoute(point, session.geometry)
	offRoute := len(session.geometry) > 0 &&
		route.DistanceMeters(point, snapped) > s.cfg.OffRouteThresholdMeters

	update := &TrackingUpdate{
		DeliveryID: deliveryID,
		Snapped:    snapped,
		OffRoute:   offRoute,
	}

	if !offRoute {
		session.debouncer.Reset()
		return update, nil
	}

	if !session.debouncer.ShouldTrigger(point, time.Now()) {
		return update, nil
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyOffRoute(ctx, deliveryID, session.driverID, point)
	}

	if s.routes != nil {
		if geom, err := s.routes.PlanRoute(ctx, point, session.destination); err == nil {
			session.geometry = geom
			update.Rerouted = true
		}
	}

	return update, nil
}

// ReplaceGeometry swaps the session's planned path wholesale and re-arms the
// reroute debouncer. Used when the routing collaborator pushes a fresher plan
// than the one captured at session start.
func (s *TrackingService) ReplaceGeometry(deliveryID string, geom domain.RouteGeometry) error {
	s.mu.Lock()
	session, ok := s.sessions[deliveryID]
	s.mu.Unlock()
	if !ok {
		return ErrNoRouteSession
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.geometry = geom
	session.debouncer.Reset()
	return nil
}

// ArrivedAtDestination reports whether the fix is within radiusMeters of the
// session's destination.
func (s *TrackingService) ArrivedAtDestination(deliveryID string, fix domain.PositionFix, radiusMeters float64) bool {
	s.mu.Lock()
	session, ok := s.sessions[deliveryID]
	s.mu.Unlock()
	if !ok {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return route.DistanceMeters(fix.Point(), session.destination) <= radiusMeters
}

// EndSession tears down tracking state for a delivery. Called when the
// delivery reaches a terminal state or the driver logs out; no background
// work may reference the delivery afterwards.
func (s *TrackingService) EndSession(deliveryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, deliveryID)
}

// HasSession reports whether a tracking session exists for the delivery.
func (s *TrackingService) HasSession(deliveryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[deliveryID]
	return ok
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

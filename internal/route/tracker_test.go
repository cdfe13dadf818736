package route

import (
	"math"
	"testing"

	"courier/internal/domain"
)

func TestSnapToRoute_EmptyGeometryReturnsInput(t *testing.T) {
	t.Parallel()

	p := domain.Point{Lat: 14.5995, Lng: 120.9842}
	if got := SnapToRoute(p, nil); got != p {
		t.Errorf("SnapToRoute(p, nil) = %+v, want input unchanged", got)
	}
	if got := SnapToRoute(p, domain.RouteGeometry{}); got != p {
		t.Errorf("SnapToRoute(p, empty) = %+v, want input unchanged", got)
	}
}

func TestSnapToRoute_SingleVertexSnapsEverything(t *testing.T) {
	t.Parallel()

	geom := domain.RouteGeometry{{Lat: 5, Lng: 5}}
	got := SnapToRoute(domain.Point{Lat: -40, Lng: 170}, geom)
	if got != geom[0] {
		t.Errorf("SnapToRoute = %+v, want the single vertex %+v", got, geom[0])
	}
}

func TestSnapToRoute_PerpendicularProjection(t *testing.T) {
	t.Parallel()

	// Horizontal segment from (0,0) to (10,0) in (lng,lat) terms; the point
	// (5,5) projects straight down to (5,0).
	geom := domain.RouteGeometry{
		{Lng: 0, Lat: 0},
		{Lng: 10, Lat: 0},
	}
	got := SnapToRoute(domain.Point{Lng: 5, Lat: 5}, geom)
	want := domain.Point{Lng: 5, Lat: 0}
	if got != want {
		t.Errorf("SnapToRoute = %+v, want %+v", got, want)
	}
}

func TestSnapToRoute_ClampsToSegmentEndpoints(t *testing.T) {
	t.Parallel()

	geom := domain.RouteGeometry{
		{Lng: 0, Lat: 0},
		{Lng: 10, Lat: 0},
	}

	// Beyond either end of the segment, t clamps to the endpoint.
	if got := SnapToRoute(domain.Point{Lng: -3, Lat: 2}, geom); got != (domain.Point{Lng: 0, Lat: 0}) {
		t.Errorf("before start: got %+v, want start vertex", got)
	}
	if got := SnapToRoute(domain.Point{Lng: 14, Lat: -1}, geom); got != (domain.Point{Lng: 10, Lat: 0}) {
		t.Errorf("past end: got %+v, want end vertex", got)
	}
}

func TestSnapToRoute_DuplicateConsecutiveVertices(t *testing.T) {
	t.Parallel()

	// A zero-length segment must not divide by zero; it degrades to the
	// shared vertex, which here is also the nearest candidate.
	geom := domain.RouteGeometry{
		{Lng: 0, Lat: 0},
		{Lng: 3, Lat: 3},
		{Lng: 3, Lat: 3},
		{Lng: 6, Lat: 0},
	}
	got := SnapToRoute(domain.Point{Lng: 3, Lat: 4}, geom)
	want := domain.Point{Lng: 3, Lat: 3}
	if got != want {
		t.Errorf("SnapToRoute = %+v, want %+v", got, want)
	}
}

func TestSnapToRoute_PicksNearestSegment(t *testing.T) {
	t.Parallel()

	// An L-shaped route; a point near the second leg must snap to it.
	geom := domain.RouteGeometry{
		{Lng: 0, Lat: 0},
		{Lng: 10, Lat: 0},
		{Lng: 10, Lat: 10},
	}
	got := SnapToRoute(domain.Point{Lng: 9, Lat: 8}, geom)
	want := domain.Point{Lng: 10, Lat: 8}
	if got != want {
		t.Errorf("SnapToRoute = %+v, want %+v", got, want)
	}
}

func TestDistanceMeters_IdenticalPointsAreZero(t *testing.T) {
	t.Parallel()

	p := domain.Point{Lat: 14.5995, Lng: 120.9842}
	if got := DistanceMeters(p, p); got != 0 {
		t.Errorf("DistanceMeters(p, p) = %v, want 0", got)
	}
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	t.Parallel()

	// One degree of latitude is about 111.19 km on a 6371 km sphere.
	a := domain.Point{Lat: 0, Lng: 0}
	b := domain.Point{Lat: 1, Lng: 0}
	got := DistanceMeters(a, b)
	want := 111194.9
	if math.Abs(got-want) > 50 {
		t.Errorf("DistanceMeters = %.1f, want about %.1f", got, want)
	}
}

func TestDistanceMeters_IsSymmetric(t *testing.T) {
	t.Parallel()

	a := domain.Point{Lat: 14.5995, Lng: 120.9842}
	b := domain.Point{Lat: 14.6091, Lng: 121.0223}
	if d1, d2 := DistanceMeters(a, b), DistanceMeters(b, a); d1 != d2 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestIsOffRoute(t *testing.T) {
	t.Parallel()

	// Roughly north-south route through Manila.
	geom := domain.RouteGeometry{
		{Lat: 14.5900, Lng: 120.9842},
		{Lat: 14.6100, Lng: 120.9842},
	}

	// A fix exactly on the segment is never off-route.
	onRoute := domain.Point{Lat: 14.6000, Lng: 120.9842}
	if IsOffRoute(onRoute, geom, 50) {
		t.Error("fix on the segment classified off-route")
	}

	// About 0.002 degrees of longitude east of the route is roughly 215 m at
	// this latitude, well past a 50 m threshold.
	offRoute := domain.Point{Lat: 14.6000, Lng: 120.9862}
	if !IsOffRoute(offRoute, geom, 50) {
		t.Error("fix ~200m from the route classified on-route with 50m threshold")
	}
	if IsOffRoute(offRoute, geom, 500) {
		t.Error("fix ~200m from the route classified off-route with 500m threshold")
	}
}

func TestIsOffRoute_EmptyGeometryNeverOffRoute(t *testing.T) {
	t.Parallel()

	if IsOffRoute(domain.Point{Lat: 1, Lng: 1}, nil, 0) {
		t.Error("empty geometry must never classify as off-route")
	}
}

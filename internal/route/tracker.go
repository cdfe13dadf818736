// Package route snaps raw position fixes onto a planned route polyline and
// classifies route adherence. All functions are pure and never fail:
// degenerate geometry degrades to a defined fallback so the tracking path
// cannot interrupt navigation.
package route

import (
	"math"

	"courier/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// SnapToRoute returns the closest point on the route polyline to p.
//
// Empty geometry returns p unchanged (nothing to snap to); a single-vertex
// route snaps everything to that vertex. Candidates across segments are
// ranked by planar squared distance in coordinate space, which is only valid
// for relative ordering over short distances, never for thresholds. Ties
// resolve to the earliest segment.
func SnapToRoute(p domain.Point, geom domain.RouteGeometry) domain.Point {
	if len(geom) == 0 {
		return p
	}
	if len(geom) == 1 {
		return geom[0]
	}

	best := geom[0]
	bestDist := math.Inf(1)

	for i := 0; i < len(geom)-1; i++ {
		candidate := closestOnSegment(p, geom[i], geom[i+1])
		d := planarSq(p, candidate)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}

	return best
}

// closestOnSegment projects p onto the closed segment [a, b]. A zero-length
// segment (duplicate consecutive vertices) degrades to a.
func closestOnSegment(p, a, b domain.Point) domain.Point {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng

	lenSq := dLat*dLat + dLng*dLng
	if lenSq == 0 {
		return a
	}

	t := ((p.Lat-a.Lat)*dLat + (p.Lng-a.Lng)*dLng) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return domain.Point{
		Lat: a.Lat + t*dLat,
		Lng: a.Lng + t*dLng,
	}
}

// planarSq is the squared Euclidean distance in degree space.
func planarSq(a, b domain.Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}

// DistanceMeters returns the haversine great-circle distance between two
// points. This is the only distance used for threshold decisions: planar
// degrees are not comparable across latitudes.
func DistanceMeters(a, b domain.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// IsOffRoute reports whether the fix lies farther than thresholdMeters from
// its snapped point on the route. An empty geometry never classifies as
// off-route because the fix snaps to itself.
func IsOffRoute(fix domain.Point, geom domain.RouteGeometry, thresholdMeters float64) bool {
	return DistanceMeters(fix, SnapToRoute(fix, geom)) > thresholdMeters
}

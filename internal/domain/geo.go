package domain

// Point is a geographic coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// PositionFix is one timestamped GPS sample from the position collaborator.
// Fixes may arrive duplicated or slightly out of order; consumers tolerate
// both without error.
type PositionFix struct {
	Lat       float64
	Lng       float64
	Timestamp int64 // unix milliseconds
}

// Point returns the fix's coordinate without the timestamp.
func (f PositionFix) Point() Point {
	return Point{Lat: f.Lat, Lng: f.Lng}
}

// RouteGeometry is the planned path for a delivery leg as an ordered vertex
// sequence. It is immutable once computed and replaced wholesale on reroute.
// An empty geometry is valid and means "no planned path yet".
type RouteGeometry []Point

// RouteFromLonLatPairs builds a geometry from the provider's wire shape,
// an ordered [[lon, lat], ...] list.
func RouteFromLonLatPairs(pairs [][]float64) RouteGeometry {
	geom := make(RouteGeometry, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		geom = append(geom, Point{Lng: p[0], Lat: p[1]})
	}
	return geom
}

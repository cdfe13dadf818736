package route

import (
	"context"

	"courier/internal/domain"
)

// StraightLinePlanner plans a direct two-vertex route between the endpoints.
// It stands in for an external routing engine; snapping and off-route
// classification work against whatever geometry the planner returns.
type StraightLinePlanner struct{}

// NewStraightLinePlanner creates a new StraightLinePlanner.
func NewStraightLinePlanner() *StraightLinePlanner {
	return &StraightLinePlanner{}
}

// PlanRoute returns the segment from -> to.
func (p *StraightLinePlanner) PlanRoute(ctx context.Context, from, to domain.Point) (domain.RouteGeometry, error) {
	return domain.RouteGeometry{from, to}, nil
}

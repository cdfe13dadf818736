package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/domain"
	"courier/internal/service"
	"courier/internal/status"
)

// DeliveryHandler handles HTTP requests for deliveries.
type DeliveryHandler struct {
	transitionService *service.TransitionService
	trackingService   *service.TrackingService
	statementService  *service.StatementService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(
	transitionService *service.TransitionService,
	trackingService *service.TrackingService,
	statementService *service.StatementService,
) *DeliveryHandler {
	return &DeliveryHandler{
		transitionService: transitionService,
		trackingService:   trackingService,
		statementService:  statementService,
	}
}

// DeliveryResponse is the HTTP response for delivery reads.
type DeliveryResponse struct {
	DeliveryID       string  `json:"delivery_id"`
	DriverID         string  `json:"driver_id,omitempty"`
	Status           string  `json:"status"`
	ActionLabel      string  `json:"action_label,omitempty"`
	PickupLat        float64 `json:"pickup_latitude"`
	PickupLng        float64 `json:"pickup_longitude"`
	DeliveryLat      float64 `json:"delivery_latitude"`
	DeliveryLng      float64 `json:"delivery_longitude"`
	TotalPrice       float64 `json:"total_price"`
	PaymentMethod    string  `json:"payment_method"`
	IsMultiStop      bool    `json:"is_multi_stop"`
	TotalStops       int     `json:"total_stops,omitempty"`
	CurrentStopIndex int     `json:"current_stop_index,omitempty"`
	CreatedAt        string  `json:"created_at"`
	CompletedAt      string  `json:"completed_at,omitempty"`
}

// GetDelivery handles GET /v1/deliveries/:id
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	delivery, err := h.transitionService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDeliveryResponse(delivery))
}

// TransitionRequest is the HTTP request body for a status transition.
// target_status carries the canonical wire value, which makes the request
// naturally idempotent.
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
}

// TransitionResponse is the HTTP response for a transition.
type TransitionResponse struct {
	DeliveryID  string `json:"delivery_id"`
	Status      string `json:"status"`
	ActionLabel string `json:"action_label,omitempty"`
	Attempts    int    `json:"attempts"`
}

// Transition handles POST /v1/deliveries/:id/transition
func (h *DeliveryHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidDeliveryID)
		return
	}

	target, diag := status.Normalize(req.TargetStatus)
	if diag != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "unknown target status: " + req.TargetStatus})
		return
	}

	result, err := h.transitionService.Transition(c.Request.Context(), service.TransitionRequest{
		DeliveryID: c.Param("id"),
		Target:     target,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TransitionResponse{
		DeliveryID:  result.DeliveryID,
		Status:      status.WireValue(result.Confirmed),
		ActionLabel: result.ActionLabel,
		Attempts:    result.Attempts,
	})
}

// ProofRequest is the HTTP request body for a proof-of-delivery submission.
type ProofRequest struct {
	StopIndex     *int   `json:"stop_index"`
	PhotoURL      string `json:"photo_url"`
	SignatureURL  string `json:"signature_url"`
	RecipientName string `json:"recipient_name"`
	Note          string `json:"note"`
	CompletedAt   string `json:"completed_at"`
}

// SubmitProof handles POST /v1/deliveries/:id/proof
func (h *DeliveryHandler) SubmitProof(c *gin.Context) {
	var req ProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrProofIncomplete)
		return
	}

	stopIndex := -1
	if req.StopIndex != nil {
		stopIndex = *req.StopIndex
	}

	proof := &domain.ProofOfDelivery{
		DeliveryID:    c.Param("id"),
		StopIndex:     stopIndex,
		PhotoURL:      req.PhotoURL,
		SignatureURL:  req.SignatureURL,
		RecipientName: req.RecipientName,
		Note:          req.Note,
	}
	if req.CompletedAt != "" {
		if t, err := time.Parse(time.RFC3339, req.CompletedAt); err == nil {
			proof.CompletedAt = t
		}
	}

	if err := h.transitionService.SubmitProof(c.Request.Context(), proof); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"delivery_id": proof.DeliveryID})
}

// PositionFixRequest is the HTTP request body for a position fix.
type PositionFixRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Timestamp int64   `json:"timestamp"`
}

// TrackingResponse is the HTTP response for a processed fix.
type TrackingResponse struct {
	DeliveryID string  `json:"delivery_id"`
	SnappedLat float64 `json:"snapped_latitude"`
	SnappedLng float64 `json:"snapped_longitude"`
	OffRoute   bool    `json:"off_route"`
	Rerouted   bool    `json:"rerouted"`
	Stale      bool    `json:"stale,omitempty"`
}

// PostPosition handles POST /v1/deliveries/:id/position
func (h *DeliveryHandler) PostPosition(c *gin.Context) {
	var req PositionFixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	update, err := h.trackingService.ProcessFix(c.Request.Context(), c.Param("id"), domain.PositionFix{
		Lat:       req.Latitude,
		Lng:       req.Longitude,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TrackingResponse{
		DeliveryID: update.DeliveryID,
		SnappedLat: update.Snapped.Lat,
		SnappedLng: update.Snapped.Lng,
		OffRoute:   update.OffRoute,
		Rerouted:   update.Rerouted,
		Stale:      update.Stale,
	})
}

// StartTrackingRequest optionally carries provider geometry as ordered
// [lon, lat] pairs. Without it the session plans its own route.
type StartTrackingRequest struct {
	Geometry [][]float64 `json:"geometry"`
}

// StartTracking handles POST /v1/deliveries/:id/tracking
func (h *DeliveryHandler) StartTracking(c *gin.Context) {
	delivery, err := h.transitionService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.trackingService.StartSession(c.Request.Context(), delivery); err != nil {
		respondError(c, err)
		return
	}

	var req StartTrackingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err == nil && len(req.Geometry) > 0 {
			_ = h.trackingService.ReplaceGeometry(delivery.ID, domain.RouteFromLonLatPairs(req.Geometry))
		}
	}

	respondJSON(c, http.StatusOK, gin.H{"delivery_id": delivery.ID, "tracking": true})
}

// StatementResponse is the HTTP response for an earnings statement.
type StatementResponse struct {
	StatementID      string  `json:"statement_id"`
	DeliveryID       string  `json:"delivery_id"`
	DriverID         string  `json:"driver_id"`
	TotalPrice       float64 `json:"total_price"`
	CommissionRate   float64 `json:"commission_rate"`
	RateFromFallback bool    `json:"rate_from_fallback"`
	DriverEarnings   float64 `json:"driver_earnings"`
	CashCollected    bool    `json:"cash_collected"`
}

// GenerateStatement handles POST /v1/deliveries/:id/statement
func (h *DeliveryHandler) GenerateStatement(c *gin.Context) {
	delivery, err := h.transitionService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	statement, err := h.statementService.GenerateStatement(c.Request.Context(), delivery)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, StatementResponse{
		StatementID:      statement.ID,
		DeliveryID:       statement.DeliveryID,
		DriverID:         statement.DriverID,
		TotalPrice:       statement.TotalPrice,
		CommissionRate:   statement.CommissionRate,
		RateFromFallback: statement.RateFromFallback,
		DriverEarnings:   statement.DriverEarnings,
		CashCollected:    statement.CashCollected,
	})
}

func toDeliveryResponse(d *domain.Delivery) DeliveryResponse {
	resp := DeliveryResponse{
		DeliveryID:       d.ID,
		DriverID:         d.DriverID,
		Status:           status.WireValue(d.Status),
		ActionLabel:      status.ActionLabel(d.Status),
		PickupLat:        d.PickupLat,
		PickupLng:        d.PickupLng,
		DeliveryLat:      d.DeliveryLat,
		DeliveryLng:      d.DeliveryLng,
		TotalPrice:       d.TotalPrice,
		PaymentMethod:    string(d.PaymentMethod),
		IsMultiStop:      d.IsMultiStop,
		TotalStops:       d.TotalStops,
		CurrentStopIndex: d.CurrentStopIndex,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	if !d.CompletedAt.IsZero() {
		resp.CompletedAt = d.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

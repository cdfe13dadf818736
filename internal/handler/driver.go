package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courier/internal/domain"
	"courier/internal/repository"
	"courier/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	driverRepo    repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		driverRepo:    driverRepo,
	}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Vehicle string `json:"vehicle"`
}

// DriverResponse is the HTTP response for driver operations.
type DriverResponse struct {
	DriverID string `json:"driver_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
	Vehicle  string `json:"vehicle"`
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	vehicle := domain.VehicleType(req.Vehicle)
	if vehicle == "" {
		vehicle = domain.VehicleMotorcycle
	}

	driver := &domain.Driver{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Phone:   req.Phone,
		Status:  domain.DriverStatusOffline,
		Vehicle: vehicle,
	}

	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdatePositionRequest is the HTTP request body for a presence update.
type UpdatePositionRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// UpdatePosition handles POST /v1/drivers/:id/position
func (h *DriverHandler) UpdatePosition(c *gin.Context) {
	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	err := h.driverService.UpdatePosition(c.Request.Context(), service.UpdatePositionRequest{
		DriverID: c.Param("id"),
		Lat:      req.Latitude,
		Lng:      req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": c.Param("id"), "status": "ONLINE"})
}

// NearbyDrivers handles GET /v1/drivers/nearby
func (h *DriverHandler) NearbyDrivers(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}
	radiusKm, _ := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)

	positions, err := h.driverService.FindNearbyDrivers(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"drivers": positions, "count": len(positions)})
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	if err := h.driverService.SetDriverOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": c.Param("id"), "status": "OFFLINE"})
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		DriverID: d.ID,
		Name:     d.Name,
		Phone:    d.Phone,
		Status:   string(d.Status),
		Vehicle:  string(d.Vehicle),
	}
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/service"
)

// RemittanceHandler handles HTTP requests for cash balances and remittances.
type RemittanceHandler struct {
	remittanceService *service.RemittanceService
}

// NewRemittanceHandler creates a new RemittanceHandler.
func NewRemittanceHandler(remittanceService *service.RemittanceService) *RemittanceHandler {
	return &RemittanceHandler{remittanceService: remittanceService}
}

// BalanceResponse is the HTTP response for a balance summary.
type BalanceResponse struct {
	DriverID          string  `json:"driver_id"`
	CurrentBalance    float64 `json:"current_balance"`
	PendingRemittance float64 `json:"pending_remittance"`
	NextRemittanceDue string  `json:"next_remittance_due"`
	Overdue           bool    `json:"overdue"`
	HoursUntilDue     int     `json:"hours_until_due"`
	MinutesUntilDue   int     `json:"minutes_until_due"`
}

// GetBalance handles GET /v1/drivers/:id/balance
func (h *RemittanceHandler) GetBalance(c *gin.Context) {
	summary, err := h.remittanceService.GetBalanceSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		DriverID:          summary.Balance.DriverID,
		CurrentBalance:    summary.Balance.CurrentBalance,
		PendingRemittance: summary.Balance.PendingRemittance,
		NextRemittanceDue: summary.Balance.NextRemittanceDue.Format(time.RFC3339),
		Overdue:           summary.Overdue,
		HoursUntilDue:     summary.HoursUntilDue,
		MinutesUntilDue:   summary.MinutesUntilDue,
	})
}

// RemittanceResponse is the HTTP response for one remittance batch. Status
// is the effective display status; stored_status is what the store holds.
type RemittanceResponse struct {
	RemittanceID   string  `json:"remittance_id"`
	DriverID       string  `json:"driver_id"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	StoredStatus   string  `json:"stored_status"`
	TransactionRef string  `json:"transaction_ref,omitempty"`
	FailureReason  string  `json:"failure_reason,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// ListRemittances handles GET /v1/drivers/:id/remittances
func (h *RemittanceHandler) ListRemittances(c *gin.Context) {
	views, err := h.remittanceService.ListRemittances(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]RemittanceResponse, 0, len(views))
	for _, v := range views {
		responses = append(responses, RemittanceResponse{
			RemittanceID:   v.Remittance.ID,
			DriverID:       v.Remittance.DriverID,
			Amount:         v.Remittance.Amount,
			Status:         string(v.Effective),
			StoredStatus:   string(v.Remittance.Status),
			TransactionRef: v.Remittance.TransactionRef,
			FailureReason:  v.Remittance.FailureReason,
			CreatedAt:      v.Remittance.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, responses)
}

// CreateRemittanceRequest is the HTTP request body for opening a batch.
type CreateRemittanceRequest struct {
	Amount     float64  `json:"amount" binding:"required"`
	EarningIDs []string `json:"earning_ids"`
}

// CreateRemittance handles POST /v1/drivers/:id/remittances
func (h *RemittanceHandler) CreateRemittance(c *gin.Context) {
	var req CreateRemittanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidAmount)
		return
	}

	rem, err := h.remittanceService.CreateRemittance(c.Request.Context(), service.CreateRemittanceRequest{
		DriverID:   c.Param("id"),
		Amount:     req.Amount,
		EarningIDs: req.EarningIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RemittanceResponse{
		RemittanceID: rem.ID,
		DriverID:     rem.DriverID,
		Amount:       rem.Amount,
		Status:       string(rem.Status),
		StoredStatus: string(rem.Status),
		CreatedAt:    rem.CreatedAt.Format(time.RFC3339),
	})
}

// SettleRemittance handles POST /v1/remittances/:id/settle
func (h *RemittanceHandler) SettleRemittance(c *gin.Context) {
	rem, err := h.remittanceService.ProcessRemittance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RemittanceResponse{
		RemittanceID:   rem.ID,
		DriverID:       rem.DriverID,
		Amount:         rem.Amount,
		Status:         string(rem.Status),
		StoredStatus:   string(rem.Status),
		TransactionRef: rem.TransactionRef,
		FailureReason:  rem.FailureReason,
		CreatedAt:      rem.CreatedAt.Format(time.RFC3339),
	})
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"courier/internal/domain"
	"courier/internal/status"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationStatusChanged     NotificationType = "STATUS_CHANGED"
	NotificationOffRoute          NotificationType = "OFF_ROUTE"
	NotificationRemittanceDue     NotificationType = "REMITTANCE_DUE"
	NotificationRemittanceSettled NotificationType = "REMITTANCE_SETTLED"
	NotificationRemittanceFailed  NotificationType = "REMITTANCE_FAILED"
	NotificationStatementReady    NotificationType = "STATEMENT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Push/SMS transports are
// external collaborators; this sender logs and returns.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyStatusChanged notifies the driver that a transition was confirmed.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, delivery *domain.Delivery, from, to domain.DeliveryStatus) error {
	notification := Notification{
		Type:        NotificationStatusChanged,
		RecipientID: delivery.DriverID,
		Title:       "Delivery Updated",
		Message:     fmt.Sprintf("Delivery %s is now %s", delivery.ID, to),
		Data: map[string]interface{}{
			"delivery_id": delivery.ID,
			"from":        string(from),
			"to":          string(to),
			"next_action": status.ActionLabel(to),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyOffRoute notifies that a driver has left the planned route.
func (s *NotificationService) NotifyOffRoute(ctx context.Context, deliveryID, driverID string, at domain.Point) error {
	notification := Notification{
		Type:        NotificationOffRoute,
		RecipientID: driverID,
		Title:       "Off Route",
		Message:     "You appear to be off the planned route. Recalculating.",
		Data: map[string]interface{}{
			"delivery_id": deliveryID,
			"lat":         at.Lat,
			"lng":         at.Lng,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRemittanceDue reminds the driver of a pending cash remittance.
func (s *NotificationService) NotifyRemittanceDue(ctx context.Context, driverID string, amount float64) error {
	notification := Notification{
		Type:        NotificationRemittanceDue,
		RecipientID: driverID,
		Title:       "Remittance Due",
		Message:     fmt.Sprintf("You have %.2f in collected cash due for remittance", amount),
		Data: map[string]interface{}{
			"amount": amount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRemittanceSettled notifies the driver of a completed settlement.
func (s *NotificationService) NotifyRemittanceSettled(ctx context.Context, rem *domain.CashRemittance) error {
	notification := Notification{
		Type:        NotificationRemittanceSettled,
		RecipientID: rem.DriverID,
		Title:       "Remittance Settled",
		Message:     fmt.Sprintf("Remittance of %.2f was settled", rem.Amount),
		Data: map[string]interface{}{
			"remittance_id":   rem.ID,
			"amount":          rem.Amount,
			"transaction_ref": rem.TransactionRef,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRemittanceFailed notifies the driver of a failed settlement.
func (s *NotificationService) NotifyRemittanceFailed(ctx context.Context, rem *domain.CashRemittance) error {
	notification := Notification{
		Type:        NotificationRemittanceFailed,
		RecipientID: rem.DriverID,
		Title:       "Remittance Failed",
		Message:     fmt.Sprintf("Remittance of %.2f failed: %s", rem.Amount, rem.FailureReason),
		Data: map[string]interface{}{
			"remittance_id": rem.ID,
			"amount":        rem.Amount,
			"reason":        rem.FailureReason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyStatementReady notifies the driver that an earnings statement is
// available.
func (s *NotificationService) NotifyStatementReady(ctx context.Context, statement *EarningsStatement) error {
	notification := Notification{
		Type:        NotificationStatementReady,
		RecipientID: statement.DriverID,
		Title:       "Earnings Ready",
		Message:     fmt.Sprintf("You earned %.2f on delivery %s", statement.DriverEarnings, statement.DeliveryID),
		Data: map[string]interface{}{
			"statement_id":  statement.ID,
			"delivery_id":   statement.DeliveryID,
			"earnings":      statement.DriverEarnings,
			"rate":          statement.CommissionRate,
			"rate_fallback": statement.RateFromFallback,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// ReportDiagnostic logs a recoverable normalization finding for
// observability. Diagnostics are informational and never sent to the driver.
func (s *NotificationService) ReportDiagnostic(ctx context.Context, deliveryID string, diag *status.Diagnostic) {
	if diag == nil {
		return
	}
	log.Printf("[DIAGNOSTIC] kind=%s delivery=%s raw=%q", diag.Kind, deliveryID, diag.Raw)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}

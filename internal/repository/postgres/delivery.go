package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"courier/internal/domain"
	"courier/internal/repository"
)

// DeliveryRepository is a PostgreSQL implementation of
// repository.DeliveryRepository.
type DeliveryRepository struct {
	q Querier
}

// NewDeliveryRepository creates a new PostgreSQL delivery repository.
func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{q: db}
}

// NewDeliveryRepositoryWithTx creates a delivery repository using a transaction.
func NewDeliveryRepositoryWithTx(tx *sql.Tx) *DeliveryRepository {
	return &DeliveryRepository{q: tx}
}

// total_amount superseded total_price in a later store revision; older rows
// only carry total_price. Prefer total_amount when present.
const deliveryColumns = `
	id, COALESCE(driver_id, ''), COALESCE(status, ''),
	pickup_latitude, pickup_longitude, delivery_latitude, delivery_longitude,
	COALESCE(pickup_contact_name, ''), COALESCE(pickup_contact_phone, ''),
	COALESCE(dropoff_contact_name, ''), COALESCE(dropoff_contact_phone, ''),
	COALESCE(package_description, ''), COALESCE(package_weight_kg, 0),
	COALESCE(total_amount, total_price, 0), COALESCE(delivery_fee, 0), COALESCE(service_fee, 0),
	COALESCE(payment_method, ''),
	is_multi_stop, COALESCE(total_stops, 0), COALESCE(current_stop_index, 0),
	created_at, updated_at, completed_at`

// GetByID retrieves a delivery by ID, including its stops when multi-stop.
func (r *DeliveryRepository) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	query := `SELECT` + deliveryColumns + ` FROM deliveries WHERE id = $1`

	d, err := r.scanDelivery(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if d.IsMultiStop {
		if d.Stops, err = r.loadStops(ctx, d.ID); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// GetActiveByDriverID retrieves the driver's current non-terminal delivery.
func (r *DeliveryRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Delivery, error) {
	query := `SELECT` + deliveryColumns + `
		FROM deliveries
		WHERE driver_id = $1 AND status NOT IN ('delivered', 'cancelled', 'failed')
		ORDER BY created_at DESC
		LIMIT 1`

	d, err := r.scanDelivery(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		return nil, err
	}

	if d.IsMultiStop {
		if d.Stops, err = r.loadStops(ctx, d.ID); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// ListByDriverID retrieves a driver's deliveries, newest first.
func (r *DeliveryRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + deliveryColumns + `
		FROM deliveries
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.q.QueryContext(ctx, query, driverID, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		d, err := r.scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, classify(rows.Err())
}

// UpdateStatus writes a canonical wire status for a delivery.
func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id string, status domain.DeliveryStatus, updatedAt time.Time) error {
	query := `UPDATE deliveries
		SET status = $1,
		    updated_at = $2,
		    completed_at = CASE WHEN $1 = 'delivered' THEN $2 ELSE completed_at END
		WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, string(status), updatedAt, id)
	if err != nil {
		return classify(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStopStatus writes a per-stop status and advances current_stop_index
// when the stop completes.
func (r *DeliveryRepository) UpdateStopStatus(ctx context.Context, deliveryID string, stopIndex int, status domain.StopStatus) error {
	query := `UPDATE delivery_stops SET status = $1 WHERE delivery_id = $2 AND stop_index = $3`

	result, err := r.q.ExecContext(ctx, query, string(status), deliveryID, stopIndex)
	if err != nil {
		return classify(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if status == domain.StopStatusCompleted {
		advance := `UPDATE deliveries
			SET current_stop_index = LEAST(current_stop_index + 1, total_stops - 1)
			WHERE id = $1 AND is_multi_stop`
		if _, err := r.q.ExecContext(ctx, advance, deliveryID); err != nil {
			return classify(err)
		}
	}
	return nil
}

// SubmitProof persists a proof-of-delivery payload.
func (r *DeliveryRepository) SubmitProof(ctx context.Context, proof *domain.ProofOfDelivery) error {
	query := `INSERT INTO delivery_proofs
		(delivery_id, stop_index, photo_url, signature_url, recipient_name, note, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.ExecContext(ctx, query,
		proof.DeliveryID,
		proof.StopIndex,
		proof.PhotoURL,
		proof.SignatureURL,
		proof.RecipientName,
		proof.Note,
		proof.CompletedAt,
	)
	return classify(err)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DeliveryRepository) scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var (
		d           domain.Delivery
		rawPayment  string
		completedAt sql.NullTime
	)

	err := row.Scan(
		&d.ID,
		&d.DriverID,
		&d.RawStatus,
		&d.PickupLat,
		&d.PickupLng,
		&d.DeliveryLat,
		&d.DeliveryLng,
		&d.PickupContactName,
		&d.PickupContactPhone,
		&d.DropoffContactName,
		&d.DropoffContactPhone,
		&d.PackageDescription,
		&d.PackageWeightKg,
		&d.TotalPrice,
		&d.DeliveryFee,
		&d.ServiceFee,
		&rawPayment,
		&d.IsMultiStop,
		&d.TotalStops,
		&d.CurrentStopIndex,
		&d.CreatedAt,
		&d.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify(err)
	}

	d.PaymentMethod = parsePaymentMethod(rawPayment)
	if completedAt.Valid {
		d.CompletedAt = completedAt.Time
	}

	return &d, nil
}

func (r *DeliveryRepository) loadStops(ctx context.Context, deliveryID string) ([]domain.DeliveryStop, error) {
	query := `SELECT stop_index, role, COALESCE(status, 'pending'),
			latitude, longitude, COALESCE(proof_url, ''), COALESCE(proof_note, '')
		FROM delivery_stops
		WHERE delivery_id = $1
		ORDER BY stop_index`

	rows, err := r.q.QueryContext(ctx, query, deliveryID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var stops []domain.DeliveryStop
	for rows.Next() {
		stop := domain.DeliveryStop{DeliveryID: deliveryID}
		var role, status string
		if err := rows.Scan(&stop.Index, &role, &status, &stop.Lat, &stop.Lng, &stop.ProofURL, &stop.ProofNote); err != nil {
			return nil, classify(err)
		}
		stop.Role = domain.StopRole(role)
		stop.Status = domain.StopStatus(status)
		stops = append(stops, stop)
	}
	return stops, classify(rows.Err())
}

// parsePaymentMethod collapses the store's payment_method vocabulary to the
// two-valued domain the remittance flow cares about. Anything not
// recognizably cash is card: only cash requires remittance.
func parsePaymentMethod(raw string) domain.PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash", "cod", "cash_on_delivery":
		return domain.PaymentMethodCash
	default:
		return domain.PaymentMethodCard
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"courier/internal/domain"
	"courier/internal/repository"
)

// BalanceRepository is a PostgreSQL implementation of
// repository.BalanceRepository.
type BalanceRepository struct {
	q Querier
}

// NewBalanceRepository creates a new PostgreSQL balance repository.
func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{q: db}
}

// NewBalanceRepositoryWithTx creates a balance repository using a transaction.
func NewBalanceRepositoryWithTx(tx *sql.Tx) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

// GetByDriverID retrieves the driver's cash balance.
func (r *BalanceRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.CashBalance, error) {
	query := `SELECT driver_id, current_balance, pending_remittance,
			last_remittance_date, next_remittance_due, updated_at
		FROM cash_balances WHERE driver_id = $1`

	var b domain.CashBalance
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(
		&b.DriverID,
		&b.CurrentBalance,
		&b.PendingRemittance,
		&b.LastRemittanceDate,
		&b.NextRemittanceDue,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify(err)
	}
	return &b, nil
}

// ApplyCashCollection adds a collected cash amount to the driver's balance
// and pending remittance.
func (r *BalanceRepository) ApplyCashCollection(ctx context.Context, driverID string, amount float64, at time.Time) error {
	query := `UPDATE cash_balances
		SET current_balance = current_balance + $1,
		    pending_remittance = pending_remittance + $1,
		    updated_at = $2
		WHERE driver_id = $3`

	result, err := r.q.ExecContext(ctx, query, amount, at, driverID)
	if err != nil {
		return classify(err)
	}
	return requireRow(result)
}

// MarkRemitted clears a settled amount and advances the remittance window.
// next_remittance_due stays strictly after last_remittance_date.
func (r *BalanceRepository) MarkRemitted(ctx context.Context, driverID string, amount float64, at, nextDue time.Time) error {
	query := `UPDATE cash_balances
		SET current_balance = GREATEST(current_balance - $1, 0),
		    pending_remittance = GREATEST(pending_remittance - $1, 0),
		    last_remittance_date = $2,
		    next_remittance_due = $3,
		    updated_at = $2
		WHERE driver_id = $4`

	result, err := r.q.ExecContext(ctx, query, amount, at, nextDue, driverID)
	if err != nil {
		return classify(err)
	}
	return requireRow(result)
}

// RemittanceRepository is a PostgreSQL implementation of
// repository.RemittanceRepository.
type RemittanceRepository struct {
	q Querier
}

// NewRemittanceRepository creates a new PostgreSQL remittance repository.
func NewRemittanceRepository(db *sql.DB) *RemittanceRepository {
	return &RemittanceRepository{q: db}
}

// NewRemittanceRepositoryWithTx creates a remittance repository using a transaction.
func NewRemittanceRepositoryWithTx(tx *sql.Tx) *RemittanceRepository {
	return &RemittanceRepository{q: tx}
}

// Create persists a new remittance batch.
func (r *RemittanceRepository) Create(ctx context.Context, rem *domain.CashRemittance) error {
	query := `INSERT INTO cash_remittances
		(id, driver_id, amount, status, earning_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query,
		rem.ID,
		rem.DriverID,
		rem.Amount,
		string(rem.Status),
		pq.Array(rem.EarningIDs),
		rem.CreatedAt,
	)
	return classify(err)
}

// GetByID retrieves a remittance batch by ID.
func (r *RemittanceRepository) GetByID(ctx context.Context, id string) (*domain.CashRemittance, error) {
	query := `SELECT id, driver_id, amount, status,
			COALESCE(transaction_ref, ''), COALESCE(failure_reason, ''),
			earning_ids, created_at, processed_at, completed_at
		FROM cash_remittances WHERE id = $1`

	return r.scanRemittance(r.q.QueryRowContext(ctx, query, id))
}

// ListByDriverID retrieves a driver's remittance batches, newest first.
func (r *RemittanceRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.CashRemittance, error) {
	query := `SELECT id, driver_id, amount, status,
			COALESCE(transaction_ref, ''), COALESCE(failure_reason, ''),
			earning_ids, created_at, processed_at, completed_at
		FROM cash_remittances
		WHERE driver_id = $1
		ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var remittances []*domain.CashRemittance
	for rows.Next() {
		rem, err := r.scanRemittance(rows)
		if err != nil {
			return nil, err
		}
		remittances = append(remittances, rem)
	}
	return remittances, classify(rows.Err())
}

// MarkProcessing moves a pending batch to processing.
func (r *RemittanceRepository) MarkProcessing(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE cash_remittances
		SET status = 'processing', processed_at = $1
		WHERE id = $2 AND status = 'pending'`

	result, err := r.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(result)
}

// MarkCompleted records a successful settlement.
func (r *RemittanceRepository) MarkCompleted(ctx context.Context, id, transactionRef string, at time.Time) error {
	query := `UPDATE cash_remittances
		SET status = 'completed', transaction_ref = $1, completed_at = $2
		WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, transactionRef, at, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(result)
}

// MarkFailed records a failed settlement.
func (r *RemittanceRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	query := `UPDATE cash_remittances
		SET status = 'failed', failure_reason = $1, completed_at = $2
		WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, reason, at, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(result)
}

func (r *RemittanceRepository) scanRemittance(row rowScanner) (*domain.CashRemittance, error) {
	var (
		rem         domain.CashRemittance
		status      string
		earningIDs  pq.StringArray
		processedAt sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&rem.ID,
		&rem.DriverID,
		&rem.Amount,
		&status,
		&rem.TransactionRef,
		&rem.FailureReason,
		&earningIDs,
		&rem.CreatedAt,
		&processedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify(err)
	}

	rem.Status = domain.RemittanceStatus(status)
	rem.EarningIDs = earningIDs
	if processedAt.Valid {
		rem.ProcessedAt = processedAt.Time
	}
	if completedAt.Valid {
		rem.CompletedAt = completedAt.Time
	}
	return &rem, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements boost.Repository using PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new pending transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *boost.Transaction) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO boost_transactions
		 (id, listing_id, package_id, phone_number, network, status,
		  expires_at, gateway_ref, failure_reason, created_at, updated_at, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.ListingID, t.PackageID, t.PhoneNumber, string(t.Network), string(t.Status),
		t.ExpiresAt, t.GatewayRef, t.FailureReason, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert boost transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*boost.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT id, listing_id, package_id, phone_number, network, status,
		        expires_at, gateway_ref, failure_reason, created_at, updated_at, completed_at
		 FROM boost_transactions WHERE id = $1`, id))
}

// TransitionFromPending atomically moves a still-pending transaction to a
// terminal status. The WHERE clause is the whole concurrency story: the
// update only lands if the row is still pending, so of any number of
// concurrent reconcilers exactly one sees RowsAffected() == 1.
func (r *TransactionRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, to boost.Status, gatewayRef, failureReason *string) (bool, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE boost_transactions
		 SET status = $2,
		     gateway_ref = COALESCE($3, gateway_ref),
		     failure_reason = $4,
		     updated_at = NOW(),
		     completed_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, string(to), gatewayRef, failureReason,
	)
	if err != nil {
		return false, fmt.Errorf("transition boost transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetGatewayRef records the gateway reference on a pending transaction.
func (r *TransactionRepository) SetGatewayRef(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE boost_transactions
		 SET gateway_ref = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, ref,
	)
	if err != nil {
		return fmt.Errorf("set gateway ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already terminal; the winner's gateway ref stands.
		return nil
	}
	return nil
}

// ListStalePending returns pending transactions whose window closed
// before the given instant, oldest first.
func (r *TransactionRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*boost.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, listing_id, package_id, phone_number, network, status,
		        expires_at, gateway_ref, failure_reason, created_at, updated_at, completed_at
		 FROM boost_transactions
		 WHERE status = 'pending' AND expires_at < $1
		 ORDER BY expires_at ASC
		 LIMIT $2`, before, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []*boost.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// scanTransaction scans a transaction from any source implementing the scanner interface.
func (r *TransactionRepository) scanTransaction(s scanner) (*boost.Transaction, error) {
	t := &boost.Transaction{}
	var network, status string
	err := s.Scan(
		&t.ID, &t.ListingID, &t.PackageID, &t.PhoneNumber, &network, &status,
		&t.ExpiresAt, &t.GatewayRef, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan boost transaction: %w", err)
	}
	t.Network = boost.Network(network)
	t.Status = boost.Status(status)
	return t, nil
}

package repository

import (
	"context"
	"fmt"

	"oddsmatch/database"
	"oddsmatch/domain/entities"
)

// BalanceHistoryRepository implements interfaces.BalanceHistoryRepository on PostgreSQL
type BalanceHistoryRepository struct {
	q queryable
}

// NewBalanceHistoryRepository creates a new balance history repository
func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

// newBalanceHistoryRepositoryWithTx creates a new balance history repository with a transaction
func newBalanceHistoryRepositoryWithTx(tx queryable) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	query := `
		INSERT INTO balance_history
		(account, balance_before, balance_after, change_amount, transaction_type, bet_uuid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		history.Account,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		history.BetUUID,
		history.CreatedAt,
	).Scan(&history.ID)
	if err != nil {
		return fmt.Errorf("failed to record balance history for %s: %w", history.Account, err)
	}
	return nil
}

// GetByAccount returns the most recent balance history for an account, newest first.
// A non-positive limit returns everything.
func (r *BalanceHistoryRepository) GetByAccount(ctx context.Context, name string, limit int) ([]*entities.BalanceHistory, error) {
	query := `
		SELECT id, account, balance_before, balance_after, change_amount,
		       transaction_type, bet_uuid, created_at
		FROM balance_history
		WHERE account = $1
		ORDER BY id DESC
	`
	args := []any{name}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	var histories []*entities.BalanceHistory
	for rows.Next() {
		var h entities.BalanceHistory
		err := rows.Scan(
			&h.ID,
			&h.Account,
			&h.BalanceBefore,
			&h.BalanceAfter,
			&h.ChangeAmount,
			&h.TransactionType,
			&h.BetUUID,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		h.CreatedAt = h.CreatedAt.UTC()
		histories = append(histories, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance history: %w", err)
	}
	return histories, nil
}

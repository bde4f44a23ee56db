package repository

import (
	"context"
	"fmt"

	"oddsmatch/database"

	"github.com/google/uuid"
)

// BetUUIDHistoryRepository implements interfaces.BetUUIDHistoryRepository on PostgreSQL
type BetUUIDHistoryRepository struct {
	q queryable
}

// NewBetUUIDHistoryRepository creates a new bet UUID history repository
func NewBetUUIDHistoryRepository(db *database.DB) *BetUUIDHistoryRepository {
	return &BetUUIDHistoryRepository{q: db.Pool}
}

// newBetUUIDHistoryRepositoryWithTx creates a new bet UUID history repository with a transaction
func newBetUUIDHistoryRepositoryWithTx(tx queryable) *BetUUIDHistoryRepository {
	return &BetUUIDHistoryRepository{q: tx}
}

// Exists reports whether the UUID was used before
func (r *BetUUIDHistoryRepository) Exists(ctx context.Context, betUUID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bet_uuid_history WHERE uuid = $1)`, betUUID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bet uuid %s: %w", betUUID, err)
	}
	return exists, nil
}

// Add records a UUID as used
func (r *BetUUIDHistoryRepository) Add(ctx context.Context, betUUID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `INSERT INTO bet_uuid_history (uuid) VALUES ($1) ON CONFLICT DO NOTHING`, betUUID); err != nil {
		return fmt.Errorf("failed to record bet uuid %s: %w", betUUID, err)
	}
	return nil
}

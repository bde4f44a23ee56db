package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"oddsmatch/database"
	"oddsmatch/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PendingBetRepository implements interfaces.PendingBetRepository on PostgreSQL.
// The wincase is kept as JSONB with a text key column for the matching index.
type PendingBetRepository struct {
	q queryable
}

// NewPendingBetRepository creates a new pending bet repository
func NewPendingBetRepository(db *database.DB) *PendingBetRepository {
	return &PendingBetRepository{q: db.Pool}
}

// newPendingBetRepositoryWithTx creates a new pending bet repository with a transaction
func newPendingBetRepositoryWithTx(tx queryable) *PendingBetRepository {
	return &PendingBetRepository{q: tx}
}

const pendingBetColumns = `uuid, game_uuid, market_kind, better, wincase, odds_numerator, odds_denominator,
	stake, created, live, sequence`

// Create stores a new pending bet
func (r *PendingBetRepository) Create(ctx context.Context, bet *entities.PendingBet) error {
	wincaseJSON, err := json.Marshal(bet.Data.Wincase)
	if err != nil {
		return fmt.Errorf("failed to marshal wincase: %w", err)
	}

	query := `
		INSERT INTO pending_bets (uuid, game_uuid, market_kind, better, wincase, wincase_key,
			odds_numerator, odds_denominator, stake, created, live, sequence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.q.Exec(ctx, query,
		bet.Data.UUID,
		bet.GameUUID,
		bet.MarketKind,
		bet.Data.Better,
		wincaseJSON,
		bet.Data.Wincase.Key(),
		int64(bet.Data.Odds.Numerator),
		int64(bet.Data.Odds.Denominator),
		bet.Data.Stake,
		bet.Data.Created,
		bet.Data.Live,
		int64(bet.Data.Sequence),
	)
	if err != nil {
		return fmt.Errorf("failed to create pending bet %s: %w", bet.Data.UUID, err)
	}
	return nil
}

// Update stores the remaining stake; the other fields never change
func (r *PendingBetRepository) Update(ctx context.Context, bet *entities.PendingBet) error {
	result, err := r.q.Exec(ctx, `UPDATE pending_bets SET stake = $2 WHERE uuid = $1`, bet.Data.UUID, bet.Data.Stake)
	if err != nil {
		return fmt.Errorf("failed to update pending bet %s: %w", bet.Data.UUID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update pending bet %s: %w", bet.Data.UUID, entities.ErrNotFound)
	}
	return nil
}

// Remove deletes the pending bet
func (r *PendingBetRepository) Remove(ctx context.Context, betUUID uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM pending_bets WHERE uuid = $1`, betUUID)
	if err != nil {
		return fmt.Errorf("failed to remove pending bet %s: %w", betUUID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to remove pending bet %s: %w", betUUID, entities.ErrNotFound)
	}
	return nil
}

// GetByUUID retrieves a pending bet, returning nil when it does not exist
func (r *PendingBetRepository) GetByUUID(ctx context.Context, betUUID uuid.UUID) (*entities.PendingBet, error) {
	query := `SELECT ` + pendingBetColumns + ` FROM pending_bets WHERE uuid = $1`

	bet, err := scanPendingBet(r.q.QueryRow(ctx, query, betUUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bet %s: %w", betUUID, err)
	}
	return bet, nil
}

// GetByGame returns all pending bets of a game in creation order
func (r *PendingBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.PendingBet, error) {
	query := `
		SELECT ` + pendingBetColumns + `
		FROM pending_bets
		WHERE game_uuid = $1
		ORDER BY sequence
	`
	return r.queryBets(ctx, query, gameUUID)
}

// GetByGameWincase returns the pending bets on one wincase in creation order
func (r *PendingBetRepository) GetByGameWincase(ctx context.Context, gameUUID uuid.UUID, wincase entities.Wincase) ([]*entities.PendingBet, error) {
	query := `
		SELECT ` + pendingBetColumns + `
		FROM pending_bets
		WHERE game_uuid = $1 AND wincase_key = $2
		ORDER BY sequence
	`
	return r.queryBets(ctx, query, gameUUID, wincase.Key())
}

func (r *PendingBetRepository) queryBets(ctx context.Context, query string, args ...any) ([]*entities.PendingBet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending bets: %w", err)
	}
	defer rows.Close()

	var bets []*entities.PendingBet
	for rows.Next() {
		bet, err := scanPendingBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending bets: %w", err)
	}
	return bets, nil
}

func scanPendingBet(row pgx.Row) (*entities.PendingBet, error) {
	var (
		bet         entities.PendingBet
		wincaseJSON []byte
		numerator   int64
		denominator int64
		sequence    int64
	)
	err := row.Scan(
		&bet.Data.UUID,
		&bet.GameUUID,
		&bet.MarketKind,
		&bet.Data.Better,
		&wincaseJSON,
		&numerator,
		&denominator,
		&bet.Data.Stake,
		&bet.Data.Created,
		&bet.Data.Live,
		&sequence,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(wincaseJSON, &bet.Data.Wincase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wincase: %w", err)
	}
	bet.Data.Odds = entities.Odds{Numerator: uint32(numerator), Denominator: uint32(denominator)}
	bet.Data.Sequence = uint64(sequence)
	bet.Data.Created = bet.Data.Created.UTC()
	return &bet, nil
}

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

// MatchedBetRepository implements interfaces.MatchedBetRepository on PostgreSQL
type MatchedBetRepository struct {
	q queryable
}

// NewMatchedBetRepository creates a new matched bet repository
func NewMatchedBetRepository(db *database.DB) *MatchedBetRepository {
	return &MatchedBetRepository{q: db.Pool}
}

// newMatchedBetRepositoryWithTx creates a new matched bet repository with a transaction
func newMatchedBetRepositoryWithTx(tx queryable) *MatchedBetRepository {
	return &MatchedBetRepository{q: tx}
}

// Create stores a matched bet under its pre-assigned ID
func (r *MatchedBetRepository) Create(ctx context.Context, bet *entities.MatchedBet) error {
	bet1, err := json.Marshal(bet.Bet1)
	if err != nil {
		return fmt.Errorf("failed to marshal bet1 data: %w", err)
	}
	bet2, err := json.Marshal(bet.Bet2)
	if err != nil {
		return fmt.Errorf("failed to marshal bet2 data: %w", err)
	}

	query := `
		INSERT INTO matched_bets (id, game_uuid, market_kind, bet1_data, bet2_data, created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.q.Exec(ctx, query, bet.ID, bet.GameUUID, bet.MarketKind, bet1, bet2, bet.Created); err != nil {
		return fmt.Errorf("failed to create matched bet %d: %w", bet.ID, err)
	}
	return nil
}

// Remove deletes the matched bet
func (r *MatchedBetRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM matched_bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove matched bet %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to remove matched bet %d: %w", id, entities.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a matched bet, returning nil when it does not exist
func (r *MatchedBetRepository) GetByID(ctx context.Context, id int64) (*entities.MatchedBet, error) {
	query := `
		SELECT id, game_uuid, market_kind, bet1_data, bet2_data, created
		FROM matched_bets
		WHERE id = $1
	`
	bet, err := scanMatchedBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matched bet %d: %w", id, err)
	}
	return bet, nil
}

// GetByGame returns the matched bets of a game ordered by ID
func (r *MatchedBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.MatchedBet, error) {
	query := `
		SELECT id, game_uuid, market_kind, bet1_data, bet2_data, created
		FROM matched_bets
		WHERE game_uuid = $1
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, gameUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matched bets: %w", err)
	}
	defer rows.Close()

	var bets []*entities.MatchedBet
	for rows.Next() {
		bet, err := scanMatchedBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matched bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matched bets: %w", err)
	}
	return bets, nil
}

func scanMatchedBet(row pgx.Row) (*entities.MatchedBet, error) {
	var (
		bet        entities.MatchedBet
		bet1, bet2 []byte
	)
	if err := row.Scan(&bet.ID, &bet.GameUUID, &bet.MarketKind, &bet1, &bet2, &bet.Created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bet1, &bet.Bet1); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet1 data: %w", err)
	}
	if err := json.Unmarshal(bet2, &bet.Bet2); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet2 data: %w", err)
	}
	bet.Created = bet.Created.UTC()
	return &bet, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oddsmatch/database"
	"oddsmatch/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GameRepository implements interfaces.GameRepository on PostgreSQL
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

const gameColumns = `uuid, moderator, sport, name, markets, status, start_time, auto_resolve_delay_sec,
	auto_resolve_time, bets_resolve_time, last_update, results, created`

// Create stores a new game
func (r *GameRepository) Create(ctx context.Context, game *entities.Game) error {
	markets, results, err := marshalGameSets(game)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.q.Exec(ctx, query,
		game.UUID,
		game.Moderator,
		game.Sport,
		game.Name,
		markets,
		game.Status,
		game.StartTime,
		int64(game.AutoResolveDelaySec),
		game.AutoResolveTime,
		game.BetsResolveTime,
		game.LastUpdate,
		results,
		game.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.UUID, err)
	}
	return nil
}

// Update replaces the stored game
func (r *GameRepository) Update(ctx context.Context, game *entities.Game) error {
	markets, results, err := marshalGameSets(game)
	if err != nil {
		return err
	}

	query := `
		UPDATE games
		SET markets = $2, status = $3, start_time = $4, auto_resolve_time = $5,
		    bets_resolve_time = $6, last_update = $7, results = $8
		WHERE uuid = $1
	`
	result, err := r.q.Exec(ctx, query,
		game.UUID,
		markets,
		game.Status,
		game.StartTime,
		game.AutoResolveTime,
		game.BetsResolveTime,
		game.LastUpdate,
		results,
	)
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", game.UUID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update game %s: %w", game.UUID, entities.ErrNotFound)
	}
	return nil
}

// Remove deletes the game
func (r *GameRepository) Remove(ctx context.Context, gameUUID uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM games WHERE uuid = $1`, gameUUID)
	if err != nil {
		return fmt.Errorf("failed to remove game %s: %w", gameUUID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to remove game %s: %w", gameUUID, entities.ErrNotFound)
	}
	return nil
}

// GetByUUID retrieves a game, returning nil when it does not exist
func (r *GameRepository) GetByUUID(ctx context.Context, gameUUID uuid.UUID) (*entities.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE uuid = $1`

	game, err := scanGame(r.q.QueryRow(ctx, query, gameUUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameUUID, err)
	}
	return game, nil
}

// GetAll returns every game ordered by UUID
func (r *GameRepository) GetAll(ctx context.Context) ([]*entities.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY uuid`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*entities.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

func marshalGameSets(game *entities.Game) ([]byte, []byte, error) {
	markets := game.Markets
	if markets == nil {
		markets = []entities.Market{}
	}
	marketsJSON, err := json.Marshal(markets)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal markets: %w", err)
	}

	results := game.Results
	if results == nil {
		results = []entities.Wincase{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	return marketsJSON, resultsJSON, nil
}

func scanGame(row pgx.Row) (*entities.Game, error) {
	var (
		game        entities.Game
		delaySec    int64
		marketsJSON []byte
		resultsJSON []byte
		resolveTime *time.Time
	)
	err := row.Scan(
		&game.UUID,
		&game.Moderator,
		&game.Sport,
		&game.Name,
		&marketsJSON,
		&game.Status,
		&game.StartTime,
		&delaySec,
		&game.AutoResolveTime,
		&resolveTime,
		&game.LastUpdate,
		&resultsJSON,
		&game.Created,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(marketsJSON, &game.Markets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal markets: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &game.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	if len(game.Results) == 0 {
		game.Results = nil
	}

	game.AutoResolveDelaySec = uint32(delaySec)
	game.StartTime = game.StartTime.UTC()
	game.AutoResolveTime = game.AutoResolveTime.UTC()
	game.LastUpdate = game.LastUpdate.UTC()
	game.Created = game.Created.UTC()
	if resolveTime != nil {
		t := resolveTime.UTC()
		game.BetsResolveTime = &t
	}
	return &game, nil
}

package repository

import (
	"context"
	"fmt"

	"oddsmatch/database"
	"oddsmatch/domain/entities"
)

// GlobalPropertiesRepository implements interfaces.GlobalPropertiesRepository
// over the singleton global_properties row
type GlobalPropertiesRepository struct {
	q queryable
}

// NewGlobalPropertiesRepository creates a new global properties repository
func NewGlobalPropertiesRepository(db *database.DB) *GlobalPropertiesRepository {
	return &GlobalPropertiesRepository{q: db.Pool}
}

// newGlobalPropertiesRepositoryWithTx creates a new global properties repository with a transaction
func newGlobalPropertiesRepositoryWithTx(tx queryable) *GlobalPropertiesRepository {
	return &GlobalPropertiesRepository{q: tx}
}

// Get returns the current properties, creating the row when missing
func (r *GlobalPropertiesRepository) Get(ctx context.Context) (*entities.GlobalProperties, error) {
	if _, err := r.q.Exec(ctx, `INSERT INTO global_properties (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return nil, fmt.Errorf("failed to ensure global properties: %w", err)
	}

	query := `
		SELECT head_block_num, head_block_time, last_bet_sequence, last_matched_bet_id,
		       pending_bets_volume, matched_bets_volume
		FROM global_properties
		WHERE id = 1
	`
	var (
		props    entities.GlobalProperties
		blockNum int64
		sequence int64
	)
	err := r.q.QueryRow(ctx, query).Scan(
		&blockNum,
		&props.HeadBlockTime,
		&sequence,
		&props.LastMatchedBetID,
		&props.Stats.PendingBetsVolume,
		&props.Stats.MatchedBetsVolume,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get global properties: %w", err)
	}

	props.HeadBlockNum = uint64(blockNum)
	props.LastBetSequence = uint64(sequence)
	props.HeadBlockTime = props.HeadBlockTime.UTC()
	return &props, nil
}

// Update persists the properties
func (r *GlobalPropertiesRepository) Update(ctx context.Context, props *entities.GlobalProperties) error {
	query := `
		UPDATE global_properties
		SET head_block_num = $1, head_block_time = $2, last_bet_sequence = $3,
		    last_matched_bet_id = $4, pending_bets_volume = $5, matched_bets_volume = $6
		WHERE id = 1
	`
	result, err := r.q.Exec(ctx, query,
		int64(props.HeadBlockNum),
		props.HeadBlockTime,
		int64(props.LastBetSequence),
		props.LastMatchedBetID,
		props.Stats.PendingBetsVolume,
		props.Stats.MatchedBetsVolume,
	)
	if err != nil {
		return fmt.Errorf("failed to update global properties: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update global properties: %w", entities.ErrNotFound)
	}
	return nil
}

package services

import (
	"context"
	"fmt"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"
)

// adjustStats moves the pending and matched volume counters by the given deltas
func adjustStats(ctx context.Context, propsRepo interfaces.GlobalPropertiesRepository, pendingDelta, matchedDelta int64) error {
	props, err := propsRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get global properties: %w", err)
	}

	props.Stats.PendingBetsVolume, err = applyDelta(props.Stats.PendingBetsVolume, pendingDelta)
	if err != nil {
		return fmt.Errorf("failed to adjust pending volume: %w", err)
	}
	props.Stats.MatchedBetsVolume, err = applyDelta(props.Stats.MatchedBetsVolume, matchedDelta)
	if err != nil {
		return fmt.Errorf("failed to adjust matched volume: %w", err)
	}

	if err := propsRepo.Update(ctx, props); err != nil {
		return fmt.Errorf("failed to update global properties: %w", err)
	}
	return nil
}

func applyDelta(value, delta int64) (int64, error) {
	if delta >= 0 {
		return entities.AddStake(value, delta)
	}
	return entities.SubStake(value, -delta)
}

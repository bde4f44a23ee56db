package services

import (
	"context"
	"fmt"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	"oddsmatch/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	pendingRepo    interfaces.PendingBetRepository
	matchedRepo    interfaces.MatchedBetRepository
	propsRepo      interfaces.GlobalPropertiesRepository
	ledger         interfaces.Ledger
	eventPublisher interfaces.EventPublisher
}

// NewBettingService creates a new betting service
func NewBettingService(pendingRepo interfaces.PendingBetRepository, matchedRepo interfaces.MatchedBetRepository, propsRepo interfaces.GlobalPropertiesRepository, ledger interfaces.Ledger, eventPublisher interfaces.EventPublisher) interfaces.BettingService {
	return &bettingService{
		pendingRepo:    pendingRepo,
		matchedRepo:    matchedRepo,
		propsRepo:      propsRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// CancelPendingBet refunds the unmatched stake and removes the bet
func (s *bettingService) CancelPendingBet(ctx context.Context, bet *entities.PendingBet, source entities.CancelSource) error {
	if err := s.pendingRepo.Remove(ctx, bet.Data.UUID); err != nil {
		return fmt.Errorf("failed to remove pending bet: %w", err)
	}

	betUUID := bet.Data.UUID
	if err := s.ledger.Credit(ctx, bet.Data.Better, bet.Data.Stake, entities.TransactionTypeBetRefund, &betUUID); err != nil {
		return fmt.Errorf("failed to refund pending bet: %w", err)
	}
	if err := adjustStats(ctx, s.propsRepo, -bet.Data.Stake, 0); err != nil {
		return err
	}

	if err := s.eventPublisher.Publish(events.BetCancelledEvent{
		GameUUID: bet.GameUUID.String(),
		BetUUID:  bet.Data.UUID.String(),
		Better:   bet.Data.Better,
		Kind:     entities.BetKindPending,
		Source:   source,
		Stake:    bet.Data.Stake,
	}); err != nil {
		return fmt.Errorf("failed to publish bet cancelled event: %w", err)
	}

	log.WithFields(log.Fields{
		"game":   bet.GameUUID,
		"bet":    bet.Data.UUID,
		"better": bet.Data.Better,
		"stake":  bet.Data.Stake,
		"source": source,
	}).Debug("Cancelled pending bet")
	return nil
}

// CancelPendingBets cancels the game's pending bets accepted by filter, in creation order
func (s *bettingService) CancelPendingBets(ctx context.Context, gameUUID uuid.UUID, source entities.CancelSource, filter func(*entities.PendingBet) bool) error {
	bets, err := s.pendingRepo.GetByGame(ctx, gameUUID)
	if err != nil {
		return fmt.Errorf("failed to get pending bets: %w", err)
	}

	for _, bet := range bets {
		if filter != nil && !filter(bet) {
			continue
		}
		if err := s.CancelPendingBet(ctx, bet, source); err != nil {
			return err
		}
	}
	return nil
}

// CancelMatchedBets refunds each side its own matched stake and removes the matched bets
func (s *bettingService) CancelMatchedBets(ctx context.Context, gameUUID uuid.UUID, source entities.CancelSource, filter func(*entities.MatchedBet) bool) error {
	bets, err := s.matchedRepo.GetByGame(ctx, gameUUID)
	if err != nil {
		return fmt.Errorf("failed to get matched bets: %w", err)
	}

	for _, bet := range bets {
		if filter != nil && !filter(bet) {
			continue
		}

		total, err := bet.TotalStake()
		if err != nil {
			return fmt.Errorf("failed to total matched bet %d: %w", bet.ID, err)
		}
		if err := s.matchedRepo.Remove(ctx, bet.ID); err != nil {
			return fmt.Errorf("failed to remove matched bet: %w", err)
		}

		for _, side := range []entities.BetData{bet.Bet1, bet.Bet2} {
			sideUUID := side.UUID
			if err := s.ledger.Credit(ctx, side.Better, side.Stake, entities.TransactionTypeBetRefund, &sideUUID); err != nil {
				return fmt.Errorf("failed to refund matched bet side: %w", err)
			}
			if err := s.eventPublisher.Publish(events.BetCancelledEvent{
				GameUUID:     bet.GameUUID.String(),
				BetUUID:      side.UUID.String(),
				Better:       side.Better,
				Kind:         entities.BetKindMatched,
				Source:       source,
				Stake:        side.Stake,
				MatchedBetID: bet.ID,
			}); err != nil {
				return fmt.Errorf("failed to publish bet cancelled event: %w", err)
			}
		}

		if err := adjustStats(ctx, s.propsRepo, 0, -total); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"game":       bet.GameUUID,
			"matchedBet": bet.ID,
			"stake1":     bet.Bet1.Stake,
			"stake2":     bet.Bet2.Stake,
			"source":     source,
		}).Debug("Cancelled matched bet")
	}
	return nil
}

// CancelBetterPendingBets cancels pending bets on behalf of their owner.
// Every UUID is checked before any bet is touched.
func (s *bettingService) CancelBetterPendingBets(ctx context.Context, better string, betUUIDs []uuid.UUID) error {
	if len(betUUIDs) == 0 {
		return entities.NewValidationError("bet uuid list cannot be empty")
	}

	seen := make(map[uuid.UUID]bool, len(betUUIDs))
	bets := make([]*entities.PendingBet, 0, len(betUUIDs))
	for _, id := range betUUIDs {
		if seen[id] {
			return entities.NewValidationError("bet %s listed twice", id)
		}
		seen[id] = true

		bet, err := s.pendingRepo.GetByUUID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get pending bet: %w", err)
		}
		if bet == nil {
			return fmt.Errorf("%w: pending bet %s", entities.ErrNotFound, id)
		}
		if bet.Data.Better != better {
			return fmt.Errorf("%w: bet %s does not belong to %s", entities.ErrUnauthorized, id, better)
		}
		bets = append(bets, bet)
	}

	for _, bet := range bets {
		if err := s.CancelPendingBet(ctx, bet, entities.CancelSourceBetter); err != nil {
			return err
		}
	}
	return nil
}

// RestorePendingBets unwinds every matched bet of the game into pending stake.
// A side whose pending bet still exists gets the stake added in place; otherwise
// the pending bet is recreated with its original terms and creation order.
func (s *bettingService) RestorePendingBets(ctx context.Context, gameUUID uuid.UUID) error {
	bets, err := s.matchedRepo.GetByGame(ctx, gameUUID)
	if err != nil {
		return fmt.Errorf("failed to get matched bets: %w", err)
	}

	for _, bet := range bets {
		total, err := bet.TotalStake()
		if err != nil {
			return fmt.Errorf("failed to total matched bet %d: %w", bet.ID, err)
		}
		if err := s.matchedRepo.Remove(ctx, bet.ID); err != nil {
			return fmt.Errorf("failed to remove matched bet: %w", err)
		}
		if err := adjustStats(ctx, s.propsRepo, total, -total); err != nil {
			return err
		}

		for _, side := range []entities.BetData{bet.Bet1, bet.Bet2} {
			if err := s.restoreSide(ctx, bet.GameUUID, bet.MarketKind, side); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *bettingService) restoreSide(ctx context.Context, gameUUID uuid.UUID, kind entities.MarketKind, side entities.BetData) error {
	existing, err := s.pendingRepo.GetByUUID(ctx, side.UUID)
	if err != nil {
		return fmt.Errorf("failed to get pending bet: %w", err)
	}

	if existing != nil {
		oldStake := existing.Data.Stake
		newStake, err := entities.AddStake(oldStake, side.Stake)
		if err != nil {
			return fmt.Errorf("failed to restore stake of bet %s: %w", side.UUID, err)
		}
		existing.Data.Stake = newStake
		if err := s.pendingRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update pending bet: %w", err)
		}
		return s.publish(events.BetUpdatedEvent{
			GameUUID: gameUUID.String(),
			BetUUID:  side.UUID.String(),
			Better:   side.Better,
			OldStake: oldStake,
			NewStake: newStake,
		})
	}

	restored := &entities.PendingBet{
		GameUUID:   gameUUID,
		MarketKind: kind,
		Data:       side,
	}
	if err := s.pendingRepo.Create(ctx, restored); err != nil {
		return fmt.Errorf("failed to recreate pending bet: %w", err)
	}
	return s.publish(events.BetRestoredEvent{
		GameUUID: gameUUID.String(),
		BetUUID:  side.UUID.String(),
		Better:   side.Better,
		Stake:    side.Stake,
	})
}

// Stats returns the current pending and matched volumes
func (s *bettingService) Stats(ctx context.Context) (entities.BettingStats, error) {
	props, err := s.propsRepo.Get(ctx)
	if err != nil {
		return entities.BettingStats{}, fmt.Errorf("failed to get global properties: %w", err)
	}
	return props.Stats, nil
}

func (s *bettingService) publish(event events.Event) error {
	if err := s.eventPublisher.Publish(event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type(), err)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type schedulerService struct {
	gameRepo       interfaces.GameRepository
	betting        interfaces.BettingService
	settlement     interfaces.SettlementService
	eventPublisher interfaces.EventPublisher
}

// NewSchedulerService creates the per-block lifecycle driver
func NewSchedulerService(gameRepo interfaces.GameRepository, betting interfaces.BettingService, settlement interfaces.SettlementService, eventPublisher interfaces.EventPublisher) interfaces.SchedulerService {
	return &schedulerService{
		gameRepo:       gameRepo,
		betting:        betting,
		settlement:     settlement,
		eventPublisher: eventPublisher,
	}
}

// ProcessBlock runs the three block-time checks in order, each over all games by UUID:
// start due games, auto-resolve games past their deadline, settle finished games.
func (s *schedulerService) ProcessBlock(ctx context.Context, blockTime time.Time) error {
	if err := s.startGames(ctx, blockTime); err != nil {
		return err
	}
	if err := s.autoResolveGames(ctx, blockTime); err != nil {
		return err
	}
	return s.resolveGames(ctx, blockTime)
}

func (s *schedulerService) startGames(ctx context.Context, blockTime time.Time) error {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get games: %w", err)
	}

	for _, game := range games {
		if game.Status != entities.GameStatusCreated || blockTime.Before(game.StartTime) {
			continue
		}

		game.Status = entities.GameStatusStarted
		if err := publishStatusChange(s.eventPublisher, game, entities.GameStatusCreated); err != nil {
			return err
		}

		if err := s.betting.CancelPendingBets(ctx, game.UUID, entities.CancelSourceGameStarted, func(b *entities.PendingBet) bool {
			return !b.Data.Live
		}); err != nil {
			return fmt.Errorf("failed to cancel non-live bets of game %s: %w", game.UUID, err)
		}

		if err := s.gameRepo.Update(ctx, game); err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		log.WithFields(log.Fields{
			"game":      game.UUID,
			"blockTime": blockTime,
		}).Info("Game started")
	}
	return nil
}

func (s *schedulerService) autoResolveGames(ctx context.Context, blockTime time.Time) error {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get games: %w", err)
	}

	for _, game := range games {
		if !game.IsActive() || blockTime.Before(game.AutoResolveTime) {
			continue
		}
		if err := cancelGame(ctx, s.gameRepo, s.betting, s.eventPublisher, game, entities.CancelSourceAutoResolved); err != nil {
			return fmt.Errorf("failed to auto-resolve game %s: %w", game.UUID, err)
		}
	}
	return nil
}

func (s *schedulerService) resolveGames(ctx context.Context, blockTime time.Time) error {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get games: %w", err)
	}

	for _, game := range games {
		if game.Status != entities.GameStatusFinished || game.BetsResolveTime == nil || blockTime.Before(*game.BetsResolveTime) {
			continue
		}
		if err := s.settlement.Resolve(ctx, game); err != nil {
			return fmt.Errorf("failed to resolve game %s: %w", game.UUID, err)
		}
	}
	return nil
}

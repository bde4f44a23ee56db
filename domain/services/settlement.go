package services

import (
	"context"
	"fmt"

	"oddsmatch/config"
	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	"oddsmatch/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	gameRepo        interfaces.GameRepository
	matchedRepo     interfaces.MatchedBetRepository
	propsRepo       interfaces.GlobalPropertiesRepository
	betting         interfaces.BettingService
	ledger          interfaces.Ledger
	eventPublisher  interfaces.EventPublisher
	thresholdFactor int32
}

// NewSettlementService creates the settlement service
func NewSettlementService(gameRepo interfaces.GameRepository, matchedRepo interfaces.MatchedBetRepository, propsRepo interfaces.GlobalPropertiesRepository, betting interfaces.BettingService, ledger interfaces.Ledger, eventPublisher interfaces.EventPublisher) interfaces.SettlementService {
	return &settlementService{
		gameRepo:        gameRepo,
		matchedRepo:     matchedRepo,
		propsRepo:       propsRepo,
		betting:         betting,
		ledger:          ledger,
		eventPublisher:  eventPublisher,
		thresholdFactor: config.Get().BettingThresholdFactor,
	}
}

// Resolve pays every matched bet of the game against its results and removes the game.
// The side whose wincase won collects both stakes. A pair that can push and has
// no declared winner refunds each side. Anything else is ErrConsistency.
func (s *settlementService) Resolve(ctx context.Context, game *entities.Game) error {
	bets, err := s.matchedRepo.GetByGame(ctx, game.UUID)
	if err != nil {
		return fmt.Errorf("failed to get matched bets: %w", err)
	}

	var paid, pushed int
	for _, bet := range bets {
		outcome, err := s.resolveBet(ctx, game, bet)
		if err != nil {
			return err
		}
		if outcome == events.ResolveOutcomeWin {
			paid++
		} else {
			pushed++
		}
	}

	// Pending bets are refunded when results are first posted; anything left is returned too
	if err := s.betting.CancelPendingBets(ctx, game.UUID, entities.CancelSourceGameFinished, nil); err != nil {
		return fmt.Errorf("failed to cancel pending bets: %w", err)
	}

	old := game.Status
	game.Status = entities.GameStatusResolved
	if err := publishStatusChange(s.eventPublisher, game, old); err != nil {
		return err
	}
	if err := s.gameRepo.Remove(ctx, game.UUID); err != nil {
		return fmt.Errorf("failed to remove game: %w", err)
	}

	log.WithFields(log.Fields{
		"game":   game.UUID,
		"paid":   paid,
		"pushed": pushed,
	}).Info("Game resolved")
	return nil
}

func (s *settlementService) resolveBet(ctx context.Context, game *entities.Game, bet *entities.MatchedBet) (events.ResolveOutcome, error) {
	total, err := bet.TotalStake()
	if err != nil {
		return "", fmt.Errorf("failed to total matched bet %d: %w", bet.ID, err)
	}

	won1 := game.HasResult(bet.Bet1.Wincase)
	won2 := game.HasResult(bet.Bet2.Wincase)

	var outcome events.ResolveOutcome
	switch {
	case won1 && !won2:
		outcome = events.ResolveOutcomeWin
		err = s.payWinner(ctx, game, bet, bet.Bet1, total)
	case won2 && !won1:
		outcome = events.ResolveOutcomeWin
		err = s.payWinner(ctx, game, bet, bet.Bet2, total)
	case !won1 && !won2 && bet.Bet1.Wincase.HasThirdState(s.thresholdFactor):
		outcome = events.ResolveOutcomePush
		err = s.refundPush(ctx, game, bet)
	default:
		return "", fmt.Errorf("%w: matched bet %d (%s vs %s) cannot be resolved against results %v",
			entities.ErrConsistency, bet.ID, bet.Bet1.Wincase, bet.Bet2.Wincase, game.Results)
	}
	if err != nil {
		return "", err
	}

	if err := s.matchedRepo.Remove(ctx, bet.ID); err != nil {
		return "", fmt.Errorf("failed to remove matched bet: %w", err)
	}
	if err := adjustStats(ctx, s.propsRepo, 0, -total); err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *settlementService) payWinner(ctx context.Context, game *entities.Game, bet *entities.MatchedBet, winner entities.BetData, total int64) error {
	winnerUUID := winner.UUID
	if err := s.ledger.Credit(ctx, winner.Better, total, entities.TransactionTypeBetWin, &winnerUUID); err != nil {
		return fmt.Errorf("failed to pay winner of matched bet %d: %w", bet.ID, err)
	}
	if err := s.eventPublisher.Publish(events.BetResolvedEvent{
		GameUUID:     game.UUID.String(),
		MatchedBetID: bet.ID,
		Outcome:      events.ResolveOutcomeWin,
		Winner:       winner.Better,
		WinnerBet:    winner.UUID.String(),
		Payout:       total,
	}); err != nil {
		return fmt.Errorf("failed to publish bet resolved event: %w", err)
	}
	return nil
}

func (s *settlementService) refundPush(ctx context.Context, game *entities.Game, bet *entities.MatchedBet) error {
	for _, side := range []entities.BetData{bet.Bet1, bet.Bet2} {
		sideUUID := side.UUID
		if err := s.ledger.Credit(ctx, side.Better, side.Stake, entities.TransactionTypeBetPush, &sideUUID); err != nil {
			return fmt.Errorf("failed to refund pushed matched bet %d: %w", bet.ID, err)
		}
	}
	if err := s.eventPublisher.Publish(events.BetResolvedEvent{
		GameUUID:     game.UUID.String(),
		MatchedBetID: bet.ID,
		Outcome:      events.ResolveOutcomePush,
		Payout:       0,
	}); err != nil {
		return fmt.Errorf("failed to publish bet resolved event: %w", err)
	}
	return nil
}

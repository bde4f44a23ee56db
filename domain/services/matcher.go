package services

import (
	"context"
	"fmt"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	"oddsmatch/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type matchingService struct {
	pendingRepo    interfaces.PendingBetRepository
	matchedRepo    interfaces.MatchedBetRepository
	propsRepo      interfaces.GlobalPropertiesRepository
	eventPublisher interfaces.EventPublisher
}

// NewMatchingService creates the matching engine
func NewMatchingService(pendingRepo interfaces.PendingBetRepository, matchedRepo interfaces.MatchedBetRepository, propsRepo interfaces.GlobalPropertiesRepository, eventPublisher interfaces.EventPublisher) interfaces.MatchingService {
	return &matchingService{
		pendingRepo:    pendingRepo,
		matchedRepo:    matchedRepo,
		propsRepo:      propsRepo,
		eventPublisher: eventPublisher,
	}
}

// Match scans pending bets on the opposite wincase oldest first and fills the
// incoming bet against each eligible one until its stake is exhausted. Any
// residual is stored as a pending bet. The incoming stake must already be
// counted in the pending volume.
func (s *matchingService) Match(ctx context.Context, bet *entities.PendingBet, now time.Time) ([]uuid.UUID, error) {
	if bet.Data.Stake <= 0 {
		return nil, nil
	}

	opposite := bet.Data.Wincase.CreateOpposite()
	candidates, err := s.pendingRepo.GetByGameWincase(ctx, bet.GameUUID, opposite)
	if err != nil {
		return nil, fmt.Errorf("failed to get opposite pending bets: %w", err)
	}

	var consumed []uuid.UUID
	for _, candidate := range candidates {
		if bet.Data.Stake == 0 {
			break
		}
		if candidate.Data.Better == bet.Data.Better {
			continue
		}
		if !bet.Data.Odds.IsComplementary(candidate.Data.Odds) {
			continue
		}

		stakes, err := CalculateMatchedStakes(bet.Data, candidate.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to match bet %s with %s: %w", bet.Data.UUID, candidate.Data.UUID, err)
		}
		if stakes.IsZero() {
			continue
		}

		fullyConsumed, err := s.fill(ctx, bet, candidate, stakes, now)
		if err != nil {
			return nil, err
		}
		if fullyConsumed {
			consumed = append(consumed, candidate.Data.UUID)
		}
	}

	if bet.Data.Stake > 0 {
		if err := s.pendingRepo.Create(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to store pending bet: %w", err)
		}
	}

	return consumed, nil
}

// fill records one match and deducts both sides; it reports whether the candidate was used up
func (s *matchingService) fill(ctx context.Context, bet, candidate *entities.PendingBet, stakes MatchedStakes, now time.Time) (bool, error) {
	incomingRest, err := entities.SubStake(bet.Data.Stake, stakes.Incoming)
	if err != nil {
		return false, fmt.Errorf("failed to deduct incoming stake: %w", err)
	}
	candidateRest, err := entities.SubStake(candidate.Data.Stake, stakes.Candidate)
	if err != nil {
		return false, fmt.Errorf("failed to deduct candidate stake: %w", err)
	}
	total, err := entities.AddStake(stakes.Incoming, stakes.Candidate)
	if err != nil {
		return false, fmt.Errorf("failed to total matched stake: %w", err)
	}

	props, err := s.propsRepo.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get global properties: %w", err)
	}
	props.LastMatchedBetID++
	if err := s.propsRepo.Update(ctx, props); err != nil {
		return false, fmt.Errorf("failed to update global properties: %w", err)
	}

	matched := &entities.MatchedBet{
		ID:         props.LastMatchedBetID,
		GameUUID:   bet.GameUUID,
		MarketKind: bet.MarketKind,
		Bet1:       candidate.Data,
		Bet2:       bet.Data,
		Created:    now,
	}
	matched.Bet1.Stake = stakes.Candidate
	matched.Bet2.Stake = stakes.Incoming

	if err := s.matchedRepo.Create(ctx, matched); err != nil {
		return false, fmt.Errorf("failed to create matched bet: %w", err)
	}
	if err := adjustStats(ctx, s.propsRepo, -total, total); err != nil {
		return false, err
	}

	bet.Data.Stake = incomingRest
	candidate.Data.Stake = candidateRest

	if err := s.eventPublisher.Publish(events.BetMatchedEvent{
		GameUUID:      matched.GameUUID.String(),
		Bet1UUID:      matched.Bet1.UUID.String(),
		Bet2UUID:      matched.Bet2.UUID.String(),
		Better1:       matched.Bet1.Better,
		Better2:       matched.Bet2.Better,
		MatchedStake1: matched.Bet1.Stake,
		MatchedStake2: matched.Bet2.Stake,
		MatchedBetID:  matched.ID,
	}); err != nil {
		return false, fmt.Errorf("failed to publish bet matched event: %w", err)
	}

	log.WithFields(log.Fields{
		"game":       matched.GameUUID,
		"matchedBet": matched.ID,
		"bet1":       matched.Bet1.UUID,
		"bet2":       matched.Bet2.UUID,
		"stake1":     matched.Bet1.Stake,
		"stake2":     matched.Bet2.Stake,
	}).Debug("Matched bets")

	if candidateRest > 0 {
		if err := s.pendingRepo.Update(ctx, candidate); err != nil {
			return false, fmt.Errorf("failed to update pending bet: %w", err)
		}
		return false, nil
	}

	if err := s.pendingRepo.Remove(ctx, candidate.Data.UUID); err != nil {
		return false, fmt.Errorf("failed to remove consumed pending bet: %w", err)
	}
	if err := s.eventPublisher.Publish(events.BetCancelledEvent{
		GameUUID:     candidate.GameUUID.String(),
		BetUUID:      candidate.Data.UUID.String(),
		Better:       candidate.Data.Better,
		Kind:         entities.BetKindFullyConsumed,
		Source:       entities.CancelSourceMatched,
		MatchedBetID: matched.ID,
	}); err != nil {
		return false, fmt.Errorf("failed to publish bet cancelled event: %w", err)
	}
	return true, nil
}

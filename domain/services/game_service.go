package services

import (
	"context"
	"fmt"
	"time"

	"oddsmatch/config"
	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	"oddsmatch/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type gameService struct {
	gameRepo        interfaces.GameRepository
	pendingRepo     interfaces.PendingBetRepository
	uuidHistoryRepo interfaces.BetUUIDHistoryRepository
	propsRepo       interfaces.GlobalPropertiesRepository
	catalog         interfaces.CatalogService
	betting         interfaces.BettingService
	matcher         interfaces.MatchingService
	ledger          interfaces.Ledger
	eventPublisher  interfaces.EventPublisher
	config          *config.Config
}

// NewGameService creates the game lifecycle service
func NewGameService(
	gameRepo interfaces.GameRepository,
	pendingRepo interfaces.PendingBetRepository,
	uuidHistoryRepo interfaces.BetUUIDHistoryRepository,
	propsRepo interfaces.GlobalPropertiesRepository,
	catalog interfaces.CatalogService,
	betting interfaces.BettingService,
	matcher interfaces.MatchingService,
	ledger interfaces.Ledger,
	eventPublisher interfaces.EventPublisher,
) interfaces.GameService {
	return &gameService{
		gameRepo:        gameRepo,
		pendingRepo:     pendingRepo,
		uuidHistoryRepo: uuidHistoryRepo,
		propsRepo:       propsRepo,
		catalog:         catalog,
		betting:         betting,
		matcher:         matcher,
		ledger:          ledger,
		eventPublisher:  eventPublisher,
		config:          config.Get(),
	}
}

// CreateGame validates and stores a new game in the created state
func (s *gameService) CreateGame(ctx context.Context, req entities.CreateGameRequest, now time.Time) (*entities.Game, error) {
	if err := s.checkModerator(req.Moderator); err != nil {
		return nil, err
	}
	if req.UUID == uuid.Nil {
		return nil, entities.NewValidationError("game uuid is required")
	}
	if req.Name == "" {
		return nil, entities.NewValidationError("game name cannot be empty")
	}
	if !req.StartTime.After(now) {
		return nil, entities.NewValidationError("game should start after head block time %s", now.Format(time.RFC3339))
	}
	if err := s.validateMarketUpdate(req.Sport, req.Markets); err != nil {
		return nil, err
	}

	existing, err := s.gameRepo.GetByUUID(ctx, req.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check game: %w", err)
	}
	if existing != nil {
		return nil, entities.NewValidationError("game with uuid %s already exists", req.UUID)
	}

	delay := req.AutoResolveDelaySec
	if delay == 0 {
		delay = s.config.DefaultAutoResolveDelaySec
	}

	game := &entities.Game{
		UUID:                req.UUID,
		Moderator:           req.Moderator,
		Sport:               req.Sport,
		Name:                req.Name,
		Markets:             entities.CloneMarkets(req.Markets),
		Status:              entities.GameStatusCreated,
		StartTime:           req.StartTime,
		AutoResolveDelaySec: delay,
		LastUpdate:          now,
		Created:             now,
	}
	game.AutoResolveTime = game.StartTime.Add(game.AutoResolveDelay())

	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	if err := publishStatusChange(s.eventPublisher, game, ""); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game":            game.UUID,
		"name":            game.Name,
		"sport":           game.Sport,
		"markets":         len(game.Markets),
		"startTime":       game.StartTime,
		"autoResolveTime": game.AutoResolveTime,
	}).Info("Game created")
	return game, nil
}

// CancelGame refunds every bet of a game that has not finished and removes it
func (s *gameService) CancelGame(ctx context.Context, moderator string, gameUUID uuid.UUID, now time.Time) error {
	game, err := s.getActiveGame(ctx, moderator, gameUUID)
	if err != nil {
		return err
	}
	return cancelGame(ctx, s.gameRepo, s.betting, s.eventPublisher, game, entities.CancelSourceGameCancelled)
}

// UpdateGameMarkets replaces the market set and refunds bets on markets that were dropped
func (s *gameService) UpdateGameMarkets(ctx context.Context, moderator string, gameUUID uuid.UUID, markets []entities.Market, now time.Time) error {
	game, err := s.getActiveGame(ctx, moderator, gameUUID)
	if err != nil {
		return err
	}
	if err := s.validateMarketUpdate(game.Sport, markets); err != nil {
		return err
	}

	dropped := func(w entities.Wincase) bool {
		_, ok := entities.FindMarket(markets, w)
		return !ok
	}

	if err := s.betting.CancelPendingBets(ctx, game.UUID, entities.CancelSourceMarketUpdated, func(b *entities.PendingBet) bool {
		return dropped(b.Data.Wincase)
	}); err != nil {
		return fmt.Errorf("failed to cancel pending bets of removed markets: %w", err)
	}
	if err := s.betting.CancelMatchedBets(ctx, game.UUID, entities.CancelSourceMarketUpdated, func(b *entities.MatchedBet) bool {
		return dropped(b.Bet1.Wincase) || dropped(b.Bet2.Wincase)
	}); err != nil {
		return fmt.Errorf("failed to cancel matched bets of removed markets: %w", err)
	}

	game.Markets = entities.CloneMarkets(markets)
	game.LastUpdate = now
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	log.WithFields(log.Fields{
		"game":    game.UUID,
		"markets": len(game.Markets),
	}).Info("Game markets updated")
	return nil
}

// UpdateGameStartTime moves the start time. A started game returns to created
// and all of its matched bets are unwound into pending stake.
func (s *gameService) UpdateGameStartTime(ctx context.Context, moderator string, gameUUID uuid.UUID, startTime time.Time, now time.Time) error {
	game, err := s.getActiveGame(ctx, moderator, gameUUID)
	if err != nil {
		return err
	}
	if !startTime.After(now) {
		return entities.NewValidationError("game should start after head block time %s", now.Format(time.RFC3339))
	}

	if game.Status == entities.GameStatusStarted {
		if err := s.betting.RestorePendingBets(ctx, game.UUID); err != nil {
			return fmt.Errorf("failed to restore pending bets: %w", err)
		}
		old := game.Status
		game.Status = entities.GameStatusCreated
		if err := publishStatusChange(s.eventPublisher, game, old); err != nil {
			return err
		}
	}

	game.StartTime = startTime
	game.AutoResolveTime = startTime.Add(game.AutoResolveDelay())
	game.LastUpdate = now
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	log.WithFields(log.Fields{
		"game":            game.UUID,
		"startTime":       game.StartTime,
		"autoResolveTime": game.AutoResolveTime,
		"status":          game.Status,
	}).Info("Game start time updated")
	return nil
}

// PostGameResults merges declared winners into the game results. The first
// posting finishes the game, refunds pending bets and fixes the settlement time.
func (s *gameService) PostGameResults(ctx context.Context, moderator string, gameUUID uuid.UUID, wincases []entities.Wincase, now time.Time) error {
	if err := s.checkModerator(moderator); err != nil {
		return err
	}
	game, err := s.getGame(ctx, gameUUID)
	if err != nil {
		return err
	}
	if !game.IsActive() && game.Status != entities.GameStatusFinished {
		return entities.NewValidationError("cannot post results for %s game %s", game.Status, game.UUID)
	}
	if err := s.catalog.ValidateMarkets(game.Markets); err != nil {
		return err
	}
	if err := s.catalog.ValidateResults(game, wincases); err != nil {
		return err
	}

	if game.BetsResolveTime == nil {
		if err := s.betting.CancelPendingBets(ctx, game.UUID, entities.CancelSourceGameFinished, nil); err != nil {
			return fmt.Errorf("failed to cancel pending bets: %w", err)
		}
		resolveTime := now.Add(s.config.ResolveDelay())
		game.BetsResolveTime = &resolveTime
	}
	if game.Status != entities.GameStatusFinished {
		old := game.Status
		game.Status = entities.GameStatusFinished
		if err := publishStatusChange(s.eventPublisher, game, old); err != nil {
			return err
		}
	}

	game.AddResults(wincases)
	game.LastUpdate = now
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	log.WithFields(log.Fields{
		"game":            game.UUID,
		"results":         len(game.Results),
		"betsResolveTime": *game.BetsResolveTime,
	}).Info("Game results posted")
	return nil
}

// PostBet debits the stake, records the bet and hands it to the matching engine
func (s *gameService) PostBet(ctx context.Context, req entities.PostBetRequest, now time.Time) error {
	if req.Better == "" {
		return entities.NewValidationError("better is required")
	}
	if req.UUID == uuid.Nil {
		return entities.NewValidationError("bet uuid is required")
	}
	if err := req.Odds.Validate(); err != nil {
		return err
	}
	if req.Stake < s.config.MinBetStake {
		return entities.NewValidationError("stake %d is below the minimum of %d", req.Stake, s.config.MinBetStake)
	}

	used, err := s.uuidHistoryRepo.Exists(ctx, req.UUID)
	if err != nil {
		return fmt.Errorf("failed to check bet uuid: %w", err)
	}
	if used {
		return entities.NewValidationError("bet uuid %s was already used", req.UUID)
	}

	game, err := s.getGame(ctx, req.GameUUID)
	if err != nil {
		return err
	}
	switch {
	case !game.IsActive():
		return entities.NewValidationError("cannot bet on %s game %s", game.Status, game.UUID)
	case game.Status == entities.GameStatusStarted && !req.Live:
		return entities.NewValidationError("cannot create non-live bet after game was started")
	}

	if err := s.catalog.ValidateMarkets(game.Markets); err != nil {
		return err
	}
	market, ok := game.FindMarket(req.Wincase)
	if !ok {
		return entities.NewValidationError("wincase %s doesn't belong to game markets", req.Wincase)
	}
	if err := s.catalog.ValidateWincase(req.Wincase, market.Kind); err != nil {
		return err
	}

	betUUID := req.UUID
	if err := s.ledger.Debit(ctx, req.Better, req.Stake, entities.TransactionTypeBetPlaced, &betUUID); err != nil {
		return fmt.Errorf("failed to debit stake: %w", err)
	}
	if err := s.uuidHistoryRepo.Add(ctx, req.UUID); err != nil {
		return fmt.Errorf("failed to record bet uuid: %w", err)
	}

	props, err := s.propsRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get global properties: %w", err)
	}
	sequence := props.NextBetSequence()
	if err := s.propsRepo.Update(ctx, props); err != nil {
		return fmt.Errorf("failed to update global properties: %w", err)
	}
	if err := adjustStats(ctx, s.propsRepo, req.Stake, 0); err != nil {
		return err
	}

	bet := &entities.PendingBet{
		GameUUID:   game.UUID,
		MarketKind: market.Kind,
		Data: entities.BetData{
			UUID:     req.UUID,
			Better:   req.Better,
			Wincase:  req.Wincase,
			Odds:     req.Odds,
			Stake:    req.Stake,
			Created:  now,
			Live:     req.Live,
			Sequence: sequence,
		},
	}

	if err := s.eventPublisher.Publish(events.BetPlacedEvent{
		GameUUID: game.UUID.String(),
		BetUUID:  req.UUID.String(),
		Better:   req.Better,
		Wincase:  req.Wincase,
		Odds:     req.Odds.String(),
		Stake:    req.Stake,
		Live:     req.Live,
	}); err != nil {
		return fmt.Errorf("failed to publish bet placed event: %w", err)
	}

	consumed, err := s.matcher.Match(ctx, bet, now)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"game":          game.UUID,
		"bet":           req.UUID,
		"better":        req.Better,
		"wincase":       req.Wincase.String(),
		"odds":          req.Odds.String(),
		"stake":         req.Stake,
		"residual":      bet.Data.Stake,
		"consumedCount": len(consumed),
	}).Debug("Bet posted")
	return nil
}

func (s *gameService) checkModerator(moderator string) error {
	if !s.config.IsModerator(moderator) {
		return fmt.Errorf("%w: %q is not the betting moderator", entities.ErrUnauthorized, moderator)
	}
	return nil
}

func (s *gameService) getGame(ctx context.Context, gameUUID uuid.UUID) (*entities.Game, error) {
	game, err := s.gameRepo.GetByUUID(ctx, gameUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %s", entities.ErrNotFound, gameUUID)
	}
	return game, nil
}

// getActiveGame loads a created or started game after checking moderator authority
func (s *gameService) getActiveGame(ctx context.Context, moderator string, gameUUID uuid.UUID) (*entities.Game, error) {
	if err := s.checkModerator(moderator); err != nil {
		return nil, err
	}
	game, err := s.getGame(ctx, gameUUID)
	if err != nil {
		return nil, err
	}
	if !game.IsActive() {
		return nil, entities.NewValidationError("game %s is %s", game.UUID, game.Status)
	}
	return game, nil
}

// validateMarketUpdate checks each market against the sport. An empty list is
// accepted here; bets and results require a non-empty market set.
func (s *gameService) validateMarketUpdate(sport entities.Sport, markets []entities.Market) error {
	if err := s.catalog.ValidateGame(sport, markets); err != nil {
		return err
	}
	for _, m := range markets {
		if err := s.catalog.ValidateMarket(m); err != nil {
			return err
		}
	}
	return nil
}

// cancelGame refunds all pending and matched bets, then removes the game
func cancelGame(ctx context.Context, gameRepo interfaces.GameRepository, betting interfaces.BettingService, publisher interfaces.EventPublisher, game *entities.Game, source entities.CancelSource) error {
	if err := betting.CancelPendingBets(ctx, game.UUID, source, nil); err != nil {
		return fmt.Errorf("failed to cancel pending bets: %w", err)
	}
	if err := betting.CancelMatchedBets(ctx, game.UUID, source, nil); err != nil {
		return fmt.Errorf("failed to cancel matched bets: %w", err)
	}

	old := game.Status
	game.Status = entities.GameStatusCancelled
	if err := publishStatusChange(publisher, game, old); err != nil {
		return err
	}
	if err := gameRepo.Remove(ctx, game.UUID); err != nil {
		return fmt.Errorf("failed to remove game: %w", err)
	}

	log.WithFields(log.Fields{
		"game":   game.UUID,
		"source": source,
	}).Info("Game cancelled")
	return nil
}

func publishStatusChange(publisher interfaces.EventPublisher, game *entities.Game, old entities.GameStatus) error {
	if err := publisher.Publish(events.GameStatusChangedEvent{
		GameUUID:  game.UUID.String(),
		OldStatus: old,
		NewStatus: game.Status,
	}); err != nil {
		return fmt.Errorf("failed to publish game status event: %w", err)
	}
	return nil
}

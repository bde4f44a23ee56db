package interfaces

import (
	"context"
	"time"

	"oddsmatch/domain/entities"

	"github.com/google/uuid"
)

// CatalogService validates markets, wincases and results against the wincase taxonomy
type CatalogService interface {
	// ValidateGame fails unless every market kind is allowed for the sport
	ValidateGame(sport entities.Sport, markets []entities.Market) error

	// ValidateMarkets fails on an empty list or any invalid market
	ValidateMarkets(markets []entities.Market) error

	// ValidateMarket checks pairing and kind consistency of one market
	ValidateMarket(market entities.Market) error

	// ValidateWincase checks the wincase kind and threshold rules
	ValidateWincase(wincase entities.Wincase, kind entities.MarketKind) error

	// ValidateResults checks declared winners against the game markets
	ValidateResults(game *entities.Game, results []entities.Wincase) error
}

// Ledger moves funds between betters and the engine
type Ledger interface {
	// Debit withdraws amount from the account
	Debit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error

	// Credit deposits amount to the account, creating it when missing
	Credit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error

	// Balance returns the account balance, zero for unknown accounts
	Balance(ctx context.Context, account string) (int64, error)
}

// MatchingService pairs an incoming bet with opposite pending bets
type MatchingService interface {
	// Match consumes stake from eligible candidates and persists any residual.
	// It returns the UUIDs of pending bets that were fully consumed.
	Match(ctx context.Context, bet *entities.PendingBet, now time.Time) ([]uuid.UUID, error)
}

// BettingService manages pending and matched bets outside of matching
type BettingService interface {
	// CancelPendingBet refunds and removes one pending bet
	CancelPendingBet(ctx context.Context, bet *entities.PendingBet, source entities.CancelSource) error

	// CancelPendingBets refunds and removes pending bets selected by filter
	CancelPendingBets(ctx context.Context, gameUUID uuid.UUID, source entities.CancelSource, filter func(*entities.PendingBet) bool) error

	// CancelMatchedBets refunds each side of the matched bets selected by filter
	CancelMatchedBets(ctx context.Context, gameUUID uuid.UUID, source entities.CancelSource, filter func(*entities.MatchedBet) bool) error

	// CancelBetterPendingBets cancels the listed pending bets owned by better
	CancelBetterPendingBets(ctx context.Context, better string, betUUIDs []uuid.UUID) error

	// RestorePendingBets unwinds every matched bet of a game back into pending bets
	RestorePendingBets(ctx context.Context, gameUUID uuid.UUID) error

	// Stats returns the current pending and matched volumes
	Stats(ctx context.Context) (entities.BettingStats, error)
}

// GameService implements moderator and better commands against games
type GameService interface {
	CreateGame(ctx context.Context, req entities.CreateGameRequest, now time.Time) (*entities.Game, error)
	CancelGame(ctx context.Context, moderator string, gameUUID uuid.UUID, now time.Time) error
	UpdateGameMarkets(ctx context.Context, moderator string, gameUUID uuid.UUID, markets []entities.Market, now time.Time) error
	UpdateGameStartTime(ctx context.Context, moderator string, gameUUID uuid.UUID, startTime time.Time, now time.Time) error
	PostGameResults(ctx context.Context, moderator string, gameUUID uuid.UUID, wincases []entities.Wincase, now time.Time) error
	PostBet(ctx context.Context, req entities.PostBetRequest, now time.Time) error
}

// SettlementService pays out matched bets of a finished game
type SettlementService interface {
	// Resolve settles every matched bet of the game and removes it
	Resolve(ctx context.Context, game *entities.Game) error
}

// SchedulerService applies block-time driven transitions
type SchedulerService interface {
	// ProcessBlock runs start, auto-resolve and settlement checks for blockTime
	ProcessBlock(ctx context.Context, blockTime time.Time) error
}

package interfaces

import (
	"context"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"

	"github.com/google/uuid"
)

// GameRepository defines the interface for game data access
type GameRepository interface {
	// Create stores a new game
	Create(ctx context.Context, game *entities.Game) error

	// Update replaces the stored game with the same UUID
	Update(ctx context.Context, game *entities.Game) error

	// Remove deletes the game
	Remove(ctx context.Context, gameUUID uuid.UUID) error

	// GetByUUID retrieves a game, returning nil when it does not exist
	GetByUUID(ctx context.Context, gameUUID uuid.UUID) (*entities.Game, error)

	// GetAll returns every stored game ordered by UUID
	GetAll(ctx context.Context) ([]*entities.Game, error)
}

// PendingBetRepository defines the interface for unmatched bet storage.
// Every list is returned in creation order (BetData.Sequence ascending).
type PendingBetRepository interface {
	// Create stores a new pending bet
	Create(ctx context.Context, bet *entities.PendingBet) error

	// Update replaces the stored pending bet with the same bet UUID
	Update(ctx context.Context, bet *entities.PendingBet) error

	// Remove deletes the pending bet
	Remove(ctx context.Context, betUUID uuid.UUID) error

	// GetByUUID retrieves a pending bet, returning nil when it does not exist
	GetByUUID(ctx context.Context, betUUID uuid.UUID) (*entities.PendingBet, error)

	// GetByGame returns all pending bets of a game
	GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.PendingBet, error)

	// GetByGameWincase returns the pending bets of a game on a single wincase
	GetByGameWincase(ctx context.Context, gameUUID uuid.UUID, wincase entities.Wincase) ([]*entities.PendingBet, error)
}

// MatchedBetRepository defines the interface for matched bet storage.
// Lists are ordered by matched bet ID.
type MatchedBetRepository interface {
	// Create stores a new matched bet; the ID must already be assigned
	Create(ctx context.Context, bet *entities.MatchedBet) error

	// Remove deletes the matched bet
	Remove(ctx context.Context, id int64) error

	// GetByID retrieves a matched bet, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.MatchedBet, error)

	// GetByGame returns all matched bets of a game
	GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.MatchedBet, error)
}

// AccountRepository defines the interface for ledger account data access
type AccountRepository interface {
	// GetByName retrieves an account, returning nil when it does not exist
	GetByName(ctx context.Context, name string) (*entities.Account, error)

	// Create creates a new account with the given balance
	Create(ctx context.Context, name string, initialBalance int64) (*entities.Account, error)

	// UpdateBalance sets an account balance
	UpdateBalance(ctx context.Context, name string, newBalance int64) error

	// GetAll returns all accounts ordered by name
	GetAll(ctx context.Context) ([]*entities.Account, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAccount returns the most recent balance history for an account, newest first
	GetByAccount(ctx context.Context, name string, limit int) ([]*entities.BalanceHistory, error)
}

// BetUUIDHistoryRepository remembers every bet UUID ever accepted
type BetUUIDHistoryRepository interface {
	// Exists reports whether the UUID was used before
	Exists(ctx context.Context, betUUID uuid.UUID) (bool, error)

	// Add records a UUID as used
	Add(ctx context.Context, betUUID uuid.UUID) error
}

// GlobalPropertiesRepository stores the singleton chain-wide betting state
type GlobalPropertiesRepository interface {
	// Get returns the current properties, creating defaults if none are stored
	Get(ctx context.Context) (*entities.GlobalProperties, error)

	// Update persists the properties
	Update(ctx context.Context, props *entities.GlobalProperties) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

package interfaces

import "context"

// UnitOfWork defines the interface for transactional repository operations.
// Everything done through its repositories and EventBus is applied on Commit
// and dropped on Rollback.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and discards queued events
	Rollback() error

	// Repository getters
	GameRepository() GameRepository
	PendingBetRepository() PendingBetRepository
	MatchedBetRepository() MatchedBetRepository
	AccountRepository() AccountRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	BetUUIDHistoryRepository() BetUUIDHistoryRepository
	GlobalPropertiesRepository() GlobalPropertiesRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"oddsmatch/database"
	"oddsmatch/domain/interfaces"
	"oddsmatch/events"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface over one pgx transaction
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	gameRepo        interfaces.GameRepository
	pendingBetRepo  interfaces.PendingBetRepository
	matchedBetRepo  interfaces.MatchedBetRepository
	accountRepo     interfaces.AccountRepository
	balanceHistRepo interfaces.BalanceHistoryRepository
	uuidHistoryRepo interfaces.BetUUIDHistoryRepository
	propsRepo       interfaces.GlobalPropertiesRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) interfaces.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() interfaces.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.gameRepo = newGameRepositoryWithTx(tx)
	u.pendingBetRepo = newPendingBetRepositoryWithTx(tx)
	u.matchedBetRepo = newMatchedBetRepositoryWithTx(tx)
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.balanceHistRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.uuidHistoryRepo = newBetUUIDHistoryRepositoryWithTx(tx)
	u.propsRepo = newGlobalPropertiesRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes queued events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if err := u.transactionalBus.Flush(u.ctx); err != nil {
		log.WithError(err).Error("Failed to flush events after commit")
	}
	return nil
}

// Rollback rolls back the transaction and discards queued events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil
	u.transactionalBus.Discard()
	return nil
}

func (u *unitOfWork) mustBegin() {
	if u.gameRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
}

// GameRepository returns the game repository for this unit of work
func (u *unitOfWork) GameRepository() interfaces.GameRepository {
	u.mustBegin()
	return u.gameRepo
}

// PendingBetRepository returns the pending bet repository for this unit of work
func (u *unitOfWork) PendingBetRepository() interfaces.PendingBetRepository {
	u.mustBegin()
	return u.pendingBetRepo
}

// MatchedBetRepository returns the matched bet repository for this unit of work
func (u *unitOfWork) MatchedBetRepository() interfaces.MatchedBetRepository {
	u.mustBegin()
	return u.matchedBetRepo
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	u.mustBegin()
	return u.accountRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	u.mustBegin()
	return u.balanceHistRepo
}

// BetUUIDHistoryRepository returns the bet UUID history repository for this unit of work
func (u *unitOfWork) BetUUIDHistoryRepository() interfaces.BetUUIDHistoryRepository {
	u.mustBegin()
	return u.uuidHistoryRepo
}

// GlobalPropertiesRepository returns the global properties repository for this unit of work
func (u *unitOfWork) GlobalPropertiesRepository() interfaces.GlobalPropertiesRepository {
	u.mustBegin()
	return u.propsRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalBus
}

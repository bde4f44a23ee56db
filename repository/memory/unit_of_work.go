package memory

import (
	"context"
	"fmt"

	"oddsmatch/domain/interfaces"
	"oddsmatch/events"

	log "github.com/sirupsen/logrus"
)

// UnitOfWork implements interfaces.UnitOfWork over a private state clone
type UnitOfWork struct {
	store *Store
	bus   *events.Bus

	st    *state
	txBus *events.TransactionalBus
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(store *Store, bus *events.Bus) interfaces.UnitOfWork {
	return &UnitOfWork{store: store, bus: bus}
}

// Begin starts a new transaction
func (uow *UnitOfWork) Begin(ctx context.Context) error {
	if uow.st != nil {
		return fmt.Errorf("transaction already started")
	}
	uow.st = uow.store.snapshot()
	uow.txBus = events.NewTransactionalBus(uow.bus)
	return nil
}

// Commit publishes the working state and flushes queued events
func (uow *UnitOfWork) Commit() error {
	if uow.st == nil {
		return fmt.Errorf("no transaction to commit")
	}
	uow.store.commit(uow.st)
	uow.st = nil

	if err := uow.txBus.Flush(context.Background()); err != nil {
		log.WithError(err).Error("Failed to flush events after commit")
	}
	return nil
}

// Rollback drops the working state and queued events
func (uow *UnitOfWork) Rollback() error {
	if uow.st == nil {
		return nil
	}
	uow.st = nil
	uow.txBus.Discard()
	return nil
}

func (uow *UnitOfWork) GameRepository() interfaces.GameRepository {
	return &GameRepository{st: uow.st}
}

func (uow *UnitOfWork) PendingBetRepository() interfaces.PendingBetRepository {
	return &PendingBetRepository{st: uow.st}
}

func (uow *UnitOfWork) MatchedBetRepository() interfaces.MatchedBetRepository {
	return &MatchedBetRepository{st: uow.st}
}

func (uow *UnitOfWork) AccountRepository() interfaces.AccountRepository {
	return &AccountRepository{st: uow.st}
}

func (uow *UnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return &BalanceHistoryRepository{st: uow.st}
}

func (uow *UnitOfWork) BetUUIDHistoryRepository() interfaces.BetUUIDHistoryRepository {
	return &BetUUIDHistoryRepository{st: uow.st}
}

func (uow *UnitOfWork) GlobalPropertiesRepository() interfaces.GlobalPropertiesRepository {
	return &GlobalPropertiesRepository{st: uow.st}
}

func (uow *UnitOfWork) EventBus() interfaces.EventPublisher {
	return uow.txBus
}

// UnitOfWorkFactory creates memory units of work sharing one store
type UnitOfWorkFactory struct {
	store *Store
	bus   *events.Bus
}

// NewUnitOfWorkFactory creates a new factory
func NewUnitOfWorkFactory(store *Store, bus *events.Bus) interfaces.UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store, bus: bus}
}

// Create creates a new UnitOfWork instance
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return NewUnitOfWork(f.store, f.bus)
}

package application

import (
	"context"
	"fmt"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"

	"github.com/google/uuid"
)

// GameSnapshot is a read-only view of a game and its open bets
type GameSnapshot struct {
	Game    *entities.Game
	Pending []*entities.PendingBet
	Matched []*entities.MatchedBet
}

// QueryService answers read-only questions about the engine state.
// Every query runs in a unit of work that is rolled back.
type QueryService struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewQueryService creates a new query service
func NewQueryService(uowFactory interfaces.UnitOfWorkFactory) *QueryService {
	return &QueryService{uowFactory: uowFactory}
}

func (q *QueryService) read(ctx context.Context, fn func(uow interfaces.UnitOfWork) error) error {
	uow := q.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()
	return fn(uow)
}

// Game returns the game with its pending and matched bets, nil when unknown
func (q *QueryService) Game(ctx context.Context, gameUUID uuid.UUID) (*GameSnapshot, error) {
	var snapshot *GameSnapshot
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		game, err := uow.GameRepository().GetByUUID(ctx, gameUUID)
		if err != nil || game == nil {
			return err
		}
		pending, err := uow.PendingBetRepository().GetByGame(ctx, gameUUID)
		if err != nil {
			return err
		}
		matched, err := uow.MatchedBetRepository().GetByGame(ctx, gameUUID)
		if err != nil {
			return err
		}
		snapshot = &GameSnapshot{Game: game, Pending: pending, Matched: matched}
		return nil
	})
	return snapshot, err
}

// Games returns every game ordered by UUID
func (q *QueryService) Games(ctx context.Context) ([]*entities.Game, error) {
	var games []*entities.Game
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		games, err = uow.GameRepository().GetAll(ctx)
		return err
	})
	return games, err
}

// Account returns an account, nil when unknown
func (q *QueryService) Account(ctx context.Context, name string) (*entities.Account, error) {
	var account *entities.Account
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		account, err = uow.AccountRepository().GetByName(ctx, name)
		return err
	})
	return account, err
}

// Accounts returns every account ordered by name
func (q *QueryService) Accounts(ctx context.Context) ([]*entities.Account, error) {
	var accounts []*entities.Account
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		accounts, err = uow.AccountRepository().GetAll(ctx)
		return err
	})
	return accounts, err
}

// BalanceHistory returns the latest balance changes of an account, newest first
func (q *QueryService) BalanceHistory(ctx context.Context, name string, limit int) ([]*entities.BalanceHistory, error) {
	var history []*entities.BalanceHistory
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		history, err = uow.BalanceHistoryRepository().GetByAccount(ctx, name, limit)
		return err
	})
	return history, err
}

// Properties returns the head block and betting stats
func (q *QueryService) Properties(ctx context.Context) (*entities.GlobalProperties, error) {
	var props *entities.GlobalProperties
	err := q.read(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		props, err = uow.GlobalPropertiesRepository().Get(ctx)
		return err
	})
	return props, err
}

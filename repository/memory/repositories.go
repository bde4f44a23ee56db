package memory

import (
	"context"
	"fmt"
	"math"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"

	"github.com/google/uuid"
)

// GameRepository implements interfaces.GameRepository over a state version
type GameRepository struct {
	st *state
}

var _ interfaces.GameRepository = (*GameRepository)(nil)

func (r *GameRepository) Create(ctx context.Context, game *entities.Game) error {
	if _, ok := r.st.games.Get(&entities.Game{UUID: game.UUID}); ok {
		return fmt.Errorf("failed to create game: game %s already exists", game.UUID)
	}
	r.st.games.ReplaceOrInsert(game.Clone())
	return nil
}

func (r *GameRepository) Update(ctx context.Context, game *entities.Game) error {
	if _, ok := r.st.games.Get(&entities.Game{UUID: game.UUID}); !ok {
		return fmt.Errorf("failed to update game: %w", entities.ErrNotFound)
	}
	r.st.games.ReplaceOrInsert(game.Clone())
	return nil
}

func (r *GameRepository) Remove(ctx context.Context, gameUUID uuid.UUID) error {
	if _, ok := r.st.games.Delete(&entities.Game{UUID: gameUUID}); !ok {
		return fmt.Errorf("failed to remove game: %w", entities.ErrNotFound)
	}
	return nil
}

func (r *GameRepository) GetByUUID(ctx context.Context, gameUUID uuid.UUID) (*entities.Game, error) {
	game, ok := r.st.games.Get(&entities.Game{UUID: gameUUID})
	if !ok {
		return nil, nil
	}
	return game.Clone(), nil
}

func (r *GameRepository) GetAll(ctx context.Context) ([]*entities.Game, error) {
	games := make([]*entities.Game, 0, r.st.games.Len())
	r.st.games.Ascend(func(g *entities.Game) bool {
		games = append(games, g.Clone())
		return true
	})
	return games, nil
}

// PendingBetRepository implements interfaces.PendingBetRepository.
// A bet's game, wincase and sequence never change, so updates replace the
// item in place in every index.
type PendingBetRepository struct {
	st *state
}

var _ interfaces.PendingBetRepository = (*PendingBetRepository)(nil)

func pendingKey(betUUID uuid.UUID) *entities.PendingBet {
	return &entities.PendingBet{Data: entities.BetData{UUID: betUUID}}
}

func (r *PendingBetRepository) Create(ctx context.Context, bet *entities.PendingBet) error {
	if _, ok := r.st.pendingByUUID.Get(bet); ok {
		return fmt.Errorf("failed to create pending bet: bet %s already exists", bet.Data.UUID)
	}
	if _, ok := r.st.pendingByGame.Get(bet); ok {
		return fmt.Errorf("failed to create pending bet: sequence %d already used", bet.Data.Sequence)
	}
	r.insert(bet.Clone())
	return nil
}

func (r *PendingBetRepository) Update(ctx context.Context, bet *entities.PendingBet) error {
	stored, ok := r.st.pendingByUUID.Get(bet)
	if !ok {
		return fmt.Errorf("failed to update pending bet: %w", entities.ErrNotFound)
	}
	if stored.GameUUID != bet.GameUUID || stored.Data.Wincase != bet.Data.Wincase || stored.Data.Sequence != bet.Data.Sequence {
		return fmt.Errorf("failed to update pending bet %s: %w: immutable fields changed", bet.Data.UUID, entities.ErrConsistency)
	}
	r.insert(bet.Clone())
	return nil
}

func (r *PendingBetRepository) insert(bet *entities.PendingBet) {
	r.st.pendingByUUID.ReplaceOrInsert(bet)
	r.st.pendingByGame.ReplaceOrInsert(bet)
	r.st.pendingByWincase.ReplaceOrInsert(bet)
}

func (r *PendingBetRepository) Remove(ctx context.Context, betUUID uuid.UUID) error {
	stored, ok := r.st.pendingByUUID.Delete(pendingKey(betUUID))
	if !ok {
		return fmt.Errorf("failed to remove pending bet: %w", entities.ErrNotFound)
	}
	r.st.pendingByGame.Delete(stored)
	r.st.pendingByWincase.Delete(stored)
	return nil
}

func (r *PendingBetRepository) GetByUUID(ctx context.Context, betUUID uuid.UUID) (*entities.PendingBet, error) {
	bet, ok := r.st.pendingByUUID.Get(pendingKey(betUUID))
	if !ok {
		return nil, nil
	}
	return bet.Clone(), nil
}

func (r *PendingBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.PendingBet, error) {
	var bets []*entities.PendingBet
	pivot := &entities.PendingBet{GameUUID: gameUUID}
	r.st.pendingByGame.AscendGreaterOrEqual(pivot, func(b *entities.PendingBet) bool {
		if b.GameUUID != gameUUID {
			return false
		}
		bets = append(bets, b.Clone())
		return true
	})
	return bets, nil
}

func (r *PendingBetRepository) GetByGameWincase(ctx context.Context, gameUUID uuid.UUID, wincase entities.Wincase) ([]*entities.PendingBet, error) {
	var bets []*entities.PendingBet
	pivot := &entities.PendingBet{GameUUID: gameUUID, Data: entities.BetData{Wincase: wincase}}
	r.st.pendingByWincase.AscendGreaterOrEqual(pivot, func(b *entities.PendingBet) bool {
		if b.GameUUID != gameUUID || b.Data.Wincase != wincase {
			return false
		}
		bets = append(bets, b.Clone())
		return true
	})
	return bets, nil
}

// MatchedBetRepository implements interfaces.MatchedBetRepository
type MatchedBetRepository struct {
	st *state
}

var _ interfaces.MatchedBetRepository = (*MatchedBetRepository)(nil)

func (r *MatchedBetRepository) Create(ctx context.Context, bet *entities.MatchedBet) error {
	if _, ok := r.st.matchedByID.Get(bet); ok {
		return fmt.Errorf("failed to create matched bet: id %d already exists", bet.ID)
	}
	stored := bet.Clone()
	r.st.matchedByID.ReplaceOrInsert(stored)
	r.st.matchedByGame.ReplaceOrInsert(stored)
	return nil
}

func (r *MatchedBetRepository) Remove(ctx context.Context, id int64) error {
	stored, ok := r.st.matchedByID.Delete(&entities.MatchedBet{ID: id})
	if !ok {
		return fmt.Errorf("failed to remove matched bet: %w", entities.ErrNotFound)
	}
	r.st.matchedByGame.Delete(stored)
	return nil
}

func (r *MatchedBetRepository) GetByID(ctx context.Context, id int64) (*entities.MatchedBet, error) {
	bet, ok := r.st.matchedByID.Get(&entities.MatchedBet{ID: id})
	if !ok {
		return nil, nil
	}
	return bet.Clone(), nil
}

func (r *MatchedBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.MatchedBet, error) {
	var bets []*entities.MatchedBet
	pivot := &entities.MatchedBet{GameUUID: gameUUID, ID: math.MinInt64}
	r.st.matchedByGame.AscendGreaterOrEqual(pivot, func(b *entities.MatchedBet) bool {
		if b.GameUUID != gameUUID {
			return false
		}
		bets = append(bets, b.Clone())
		return true
	})
	return bets, nil
}

// AccountRepository implements interfaces.AccountRepository.
// Timestamps come from the head block time so replays stay identical.
type AccountRepository struct {
	st *state
}

var _ interfaces.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) GetByName(ctx context.Context, name string) (*entities.Account, error) {
	account, ok := r.st.accounts.Get(&entities.Account{Name: name})
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *AccountRepository) Create(ctx context.Context, name string, initialBalance int64) (*entities.Account, error) {
	if _, ok := r.st.accounts.Get(&entities.Account{Name: name}); ok {
		return nil, fmt.Errorf("failed to create account: account %s already exists", name)
	}
	if initialBalance < 0 {
		return nil, fmt.Errorf("failed to create account: negative balance %d", initialBalance)
	}
	account := &entities.Account{
		Name:      name,
		Balance:   initialBalance,
		CreatedAt: r.st.props.HeadBlockTime,
		UpdatedAt: r.st.props.HeadBlockTime,
	}
	r.st.accounts.ReplaceOrInsert(account)
	clone := *account
	return &clone, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, name string, newBalance int64) error {
	account, ok := r.st.accounts.Get(&entities.Account{Name: name})
	if !ok {
		return fmt.Errorf("failed to update balance: account %s: %w", name, entities.ErrNotFound)
	}
	if newBalance < 0 {
		return fmt.Errorf("failed to update balance: negative balance %d for %s", newBalance, name)
	}
	updated := *account
	updated.Balance = newBalance
	updated.UpdatedAt = r.st.props.HeadBlockTime
	r.st.accounts.ReplaceOrInsert(&updated)
	return nil
}

func (r *AccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	accounts := make([]*entities.Account, 0, r.st.accounts.Len())
	r.st.accounts.Ascend(func(a *entities.Account) bool {
		clone := *a
		accounts = append(accounts, &clone)
		return true
	})
	return accounts, nil
}

// BalanceHistoryRepository implements interfaces.BalanceHistoryRepository
type BalanceHistoryRepository struct {
	st *state
}

var _ interfaces.BalanceHistoryRepository = (*BalanceHistoryRepository)(nil)

func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	r.st.lastHistoryID++
	history.ID = r.st.lastHistoryID
	stored := *history
	r.st.balanceHistory = append(r.st.balanceHistory, &stored)
	return nil
}

func (r *BalanceHistoryRepository) GetByAccount(ctx context.Context, name string, limit int) ([]*entities.BalanceHistory, error) {
	var out []*entities.BalanceHistory
	for i := len(r.st.balanceHistory) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		h := r.st.balanceHistory[i]
		if h.Account != name {
			continue
		}
		clone := *h
		out = append(out, &clone)
	}
	return out, nil
}

// BetUUIDHistoryRepository implements interfaces.BetUUIDHistoryRepository
type BetUUIDHistoryRepository struct {
	st *state
}

var _ interfaces.BetUUIDHistoryRepository = (*BetUUIDHistoryRepository)(nil)

func (r *BetUUIDHistoryRepository) Exists(ctx context.Context, betUUID uuid.UUID) (bool, error) {
	return r.st.uuidHistory.Has(betUUID), nil
}

func (r *BetUUIDHistoryRepository) Add(ctx context.Context, betUUID uuid.UUID) error {
	r.st.uuidHistory.ReplaceOrInsert(betUUID)
	return nil
}

// GlobalPropertiesRepository implements interfaces.GlobalPropertiesRepository
type GlobalPropertiesRepository struct {
	st *state
}

var _ interfaces.GlobalPropertiesRepository = (*GlobalPropertiesRepository)(nil)

func (r *GlobalPropertiesRepository) Get(ctx context.Context) (*entities.GlobalProperties, error) {
	props := r.st.props
	return &props, nil
}

func (r *GlobalPropertiesRepository) Update(ctx context.Context, props *entities.GlobalProperties) error {
	r.st.props = *props
	return nil
}

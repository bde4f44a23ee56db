package services

import (
	"context"
	"testing"
	"time"

	"oddsmatch/config"
	"oddsmatch/domain/entities"
	domainevents "oddsmatch/domain/events"
	"oddsmatch/domain/interfaces"
	"oddsmatch/events"
	"oddsmatch/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testModerator = "moderator"

// testTx is one unit of work with services bound to it
type testTx struct {
	Ctx context.Context
	UoW interfaces.UnitOfWork
	*Registry
}

// testEngine drives the services over an in-memory store the way the command
// processor does: one unit of work per operation, rolled back on error
type testEngine struct {
	t         *testing.T
	store     *memory.Store
	bus       *events.Bus
	now       time.Time
	delivered []domainevents.Event
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	e := &testEngine{
		t:     t,
		store: memory.NewStore(),
		bus:   events.NewBus(),
		now:   time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	e.bus.SubscribeAll(func(ctx context.Context, ev domainevents.Event) {
		e.delivered = append(e.delivered, ev)
	})
	return e
}

func (e *testEngine) exec(fn func(tx *testTx) error) error {
	e.t.Helper()
	ctx := context.Background()
	uow := memory.NewUnitOfWork(e.store, e.bus)
	require.NoError(e.t, uow.Begin(ctx))

	tx := &testTx{Ctx: ctx, UoW: uow, Registry: NewRegistry(uow, e.now)}
	if err := fn(tx); err != nil {
		require.NoError(e.t, uow.Rollback())
		return err
	}
	require.NoError(e.t, uow.Commit())
	return nil
}

func (e *testEngine) view(fn func(tx *testTx)) {
	e.t.Helper()
	ctx := context.Background()
	uow := memory.NewUnitOfWork(e.store, nil)
	require.NoError(e.t, uow.Begin(ctx))
	defer uow.Rollback()
	fn(&testTx{Ctx: ctx, UoW: uow, Registry: NewRegistry(uow, e.now)})
}

func (e *testEngine) fund(account string, amount int64) {
	e.t.Helper()
	require.NoError(e.t, e.exec(func(tx *testTx) error {
		return tx.Ledger.Credit(tx.Ctx, account, amount, entities.TransactionTypeInitial, nil)
	}))
}

func (e *testEngine) createGame(req entities.CreateGameRequest) uuid.UUID {
	e.t.Helper()
	if req.UUID == uuid.Nil {
		req.UUID = uuid.New()
	}
	if req.Moderator == "" {
		req.Moderator = testModerator
	}
	if req.Sport == "" {
		req.Sport = entities.SportSoccer
	}
	if req.Name == "" {
		req.Name = "Home vs Away"
	}
	if req.StartTime.IsZero() {
		req.StartTime = e.now.Add(time.Hour)
	}
	require.NoError(e.t, e.exec(func(tx *testTx) error {
		_, err := tx.Games.CreateGame(tx.Ctx, req, e.now)
		return err
	}))
	return req.UUID
}

func (e *testEngine) postBet(game uuid.UUID, better string, w entities.Wincase, odds entities.Odds, stake int64, live bool) (uuid.UUID, error) {
	e.t.Helper()
	id := uuid.New()
	err := e.exec(func(tx *testTx) error {
		return tx.Games.PostBet(tx.Ctx, entities.PostBetRequest{
			UUID:     id,
			GameUUID: game,
			Better:   better,
			Wincase:  w,
			Odds:     odds,
			Stake:    stake,
			Live:     live,
		}, e.now)
	})
	return id, err
}

func (e *testEngine) mustPostBet(game uuid.UUID, better string, w entities.Wincase, odds entities.Odds, stake int64, live bool) uuid.UUID {
	e.t.Helper()
	id, err := e.postBet(game, better, w, odds, stake, live)
	require.NoError(e.t, err)
	return id
}

// advanceTo moves head block time and runs the block-time checks
func (e *testEngine) advanceTo(blockTime time.Time) {
	e.t.Helper()
	e.now = blockTime
	require.NoError(e.t, e.exec(func(tx *testTx) error {
		return tx.Scheduler.ProcessBlock(tx.Ctx, blockTime)
	}))
}

func (e *testEngine) balance(account string) int64 {
	e.t.Helper()
	var balance int64
	e.view(func(tx *testTx) {
		var err error
		balance, err = tx.Ledger.Balance(tx.Ctx, account)
		require.NoError(e.t, err)
	})
	return balance
}

func (e *testEngine) game(id uuid.UUID) *entities.Game {
	e.t.Helper()
	var game *entities.Game
	e.view(func(tx *testTx) {
		var err error
		game, err = tx.UoW.GameRepository().GetByUUID(tx.Ctx, id)
		require.NoError(e.t, err)
	})
	return game
}

func (e *testEngine) pending(game uuid.UUID) []*entities.PendingBet {
	e.t.Helper()
	var bets []*entities.PendingBet
	e.view(func(tx *testTx) {
		var err error
		bets, err = tx.UoW.PendingBetRepository().GetByGame(tx.Ctx, game)
		require.NoError(e.t, err)
	})
	return bets
}

func (e *testEngine) matched(game uuid.UUID) []*entities.MatchedBet {
	e.t.Helper()
	var bets []*entities.MatchedBet
	e.view(func(tx *testTx) {
		var err error
		bets, err = tx.UoW.MatchedBetRepository().GetByGame(tx.Ctx, game)
		require.NoError(e.t, err)
	})
	return bets
}

func (e *testEngine) stats() entities.BettingStats {
	e.t.Helper()
	var stats entities.BettingStats
	e.view(func(tx *testTx) {
		var err error
		stats, err = tx.Betting.Stats(tx.Ctx)
		require.NoError(e.t, err)
	})
	return stats
}

func (e *testEngine) eventsOf(eventType domainevents.EventType) []domainevents.Event {
	var out []domainevents.Event
	for _, ev := range e.delivered {
		if ev.Type() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func totalOver(threshold int32) entities.Wincase {
	return entities.Wincase{Type: entities.WincaseTotalOver, Threshold: threshold}
}

func totalUnder(threshold int32) entities.Wincase {
	return entities.Wincase{Type: entities.WincaseTotalUnder, Threshold: threshold}
}

func totalMarket(thresholds ...int32) entities.Market {
	m := entities.Market{Kind: entities.MarketKindTotal}
	for _, th := range thresholds {
		m.Wincases = append(m.Wincases, entities.NewWincasePair(totalOver(th)))
	}
	return m
}

func resultMarket() entities.Market {
	return entities.Market{
		Kind: entities.MarketKindResult,
		Wincases: []entities.WincasePair{
			entities.NewWincasePair(entities.Wincase{Type: entities.WincaseResultHomeYes}),
			entities.NewWincasePair(entities.Wincase{Type: entities.WincaseResultDrawYes}),
			entities.NewWincasePair(entities.Wincase{Type: entities.WincaseResultAwayYes}),
		},
	}
}

func odds(n, d uint32) entities.Odds {
	return entities.Odds{Numerator: n, Denominator: d}
}

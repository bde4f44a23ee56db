package services

import (
	"testing"
	"time"

	"oddsmatch/domain/entities"
	domainevents "oddsmatch/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialFillAgainstOlderBet(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)

	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	bet1 := e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	bet2 := e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 10, false)

	matched := e.matched(game)
	require.Len(t, matched, 1)
	assert.Equal(t, bet1, matched[0].Bet1.UUID)
	assert.Equal(t, int64(10), matched[0].Bet1.Stake)
	assert.Equal(t, bet2, matched[0].Bet2.UUID)
	assert.Equal(t, int64(5), matched[0].Bet2.Stake)
	assert.Equal(t, int64(1), matched[0].ID)

	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, bet2, pending[0].Data.UUID)
	assert.Equal(t, int64(5), pending[0].Data.Stake)

	assert.Equal(t, int64(90), e.balance("alice"))
	assert.Equal(t, int64(90), e.balance("bob"))
	assert.Equal(t, entities.BettingStats{PendingBetsVolume: 5, MatchedBetsVolume: 15}, e.stats())

	matchedEvents := e.eventsOf(domainevents.EventTypeBetMatched)
	require.Len(t, matchedEvents, 1)
	assert.Equal(t, int64(10), matchedEvents[0].(domainevents.BetMatchedEvent).MatchedStake1)

	cancelled := e.eventsOf(domainevents.EventTypeBetCancelled)
	require.Len(t, cancelled, 1)
	consumed := cancelled[0].(domainevents.BetCancelledEvent)
	assert.True(t, consumed.IsFill())
	assert.Equal(t, bet1.String(), consumed.BetUUID)
	assert.Equal(t, int64(1), consumed.MatchedBetID)
}

func TestMatchingScansOldestFirst(t *testing.T) {
	e := newTestEngine(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		e.fund(name, 100)
	}
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1500)}})

	first := e.mustPostBet(game, "alice", totalOver(1500), odds(3, 1), 10, false)
	second := e.mustPostBet(game, "bob", totalOver(1500), odds(3, 1), 10, false)
	e.mustPostBet(game, "carol", totalUnder(1500), odds(1, 3), 30, false)

	matched := e.matched(game)
	require.Len(t, matched, 2)
	assert.Equal(t, first, matched[0].Bet1.UUID)
	assert.Equal(t, int64(10), matched[0].Bet1.Stake)
	assert.Equal(t, int64(20), matched[0].Bet2.Stake)
	assert.Equal(t, second, matched[1].Bet1.UUID)
	assert.Equal(t, int64(5), matched[1].Bet1.Stake)
	assert.Equal(t, int64(10), matched[1].Bet2.Stake)
	assert.Equal(t, int64(70), e.balance("carol"))

	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].Data.UUID)
	assert.Equal(t, int64(5), pending[0].Data.Stake)
}

func TestNoMatchCases(t *testing.T) {
	tests := []struct {
		name         string
		secondBetter string
		secondOdds   entities.Odds
	}{
		{name: "same better", secondBetter: "alice", secondOdds: odds(2, 3)},
		{name: "odds not complementary", secondBetter: "bob", secondOdds: odds(3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.fund("alice", 100)
			e.fund("bob", 100)
			game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

			e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
			e.mustPostBet(game, tt.secondBetter, totalUnder(1000), tt.secondOdds, 10, false)

			assert.Empty(t, e.matched(game))
			assert.Len(t, e.pending(game), 2)
			assert.Equal(t, entities.BettingStats{PendingBetsVolume: 20}, e.stats())
		})
	}
}

func TestMarketRemovalRefundsEveryBet(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 20, false)
	require.Len(t, e.matched(game), 1)
	require.Len(t, e.pending(game), 1)

	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.UpdateGameMarkets(tx.Ctx, testModerator, game, nil, e.now)
	}))

	assert.Empty(t, e.pending(game))
	assert.Empty(t, e.matched(game))
	assert.Equal(t, int64(100), e.balance("alice"))
	assert.Equal(t, int64(100), e.balance("bob"))
	assert.Equal(t, entities.BettingStats{}, e.stats())

	stored := e.game(game)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Markets)
	assert.Equal(t, entities.GameStatusCreated, stored.Status)

	for _, ev := range e.eventsOf(domainevents.EventTypeBetCancelled) {
		c := ev.(domainevents.BetCancelledEvent)
		if c.IsFill() {
			continue
		}
		assert.Equal(t, entities.CancelSourceMarketUpdated, c.Source)
	}

	_, err := e.postBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestMarketUpdateKeepsBetsOnRetainedMarkets(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000), resultMarket()}})

	kept := e.mustPostBet(game, "alice", entities.Wincase{Type: entities.WincaseResultHomeYes}, odds(2, 1), 10, false)
	e.mustPostBet(game, "bob", totalOver(1000), odds(2, 1), 30, false)

	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.UpdateGameMarkets(tx.Ctx, testModerator, game, []entities.Market{resultMarket()}, e.now)
	}))

	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, kept, pending[0].Data.UUID)
	assert.Equal(t, int64(90), e.balance("alice"))
	assert.Equal(t, int64(100), e.balance("bob"))
}

func TestAutoResolveRefundsEverything(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)

	start := e.now.Add(time.Hour)
	game := e.createGame(entities.CreateGameRequest{
		Markets:             []entities.Market{totalMarket(1000)},
		StartTime:           start,
		AutoResolveDelaySec: 600,
	})
	assert.Equal(t, start.Add(10*time.Minute), e.game(game).AutoResolveTime)

	e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, true)
	e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 20, true)

	e.advanceTo(start)
	require.NotNil(t, e.game(game))
	assert.Equal(t, entities.GameStatusStarted, e.game(game).Status)

	e.advanceTo(start.Add(10 * time.Minute))

	assert.Nil(t, e.game(game))
	assert.Empty(t, e.pending(game))
	assert.Empty(t, e.matched(game))
	assert.Equal(t, int64(100), e.balance("alice"))
	assert.Equal(t, int64(100), e.balance("bob"))
	assert.Equal(t, entities.BettingStats{}, e.stats())

	var sources []entities.CancelSource
	for _, ev := range e.eventsOf(domainevents.EventTypeBetCancelled) {
		if c := ev.(domainevents.BetCancelledEvent); !c.IsFill() {
			sources = append(sources, c.Source)
		}
	}
	assert.NotEmpty(t, sources)
	for _, s := range sources {
		assert.Equal(t, entities.CancelSourceAutoResolved, s)
	}
}

func TestRepeatedResultPostings(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000, 1500)}})
	e.mustPostBet(game, "alice", totalOver(1500), odds(2, 1), 10, false)

	firstCall := e.now
	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.PostGameResults(tx.Ctx, testModerator, game, []entities.Wincase{totalOver(1500)}, e.now)
	}))

	first := e.game(game)
	require.NotNil(t, first.BetsResolveTime)
	assert.Equal(t, entities.GameStatusFinished, first.Status)
	assert.Equal(t, firstCall.Add(time.Hour), *first.BetsResolveTime)
	assert.Empty(t, e.pending(game))
	assert.Equal(t, int64(100), e.balance("alice"))

	e.now = e.now.Add(10 * time.Minute)
	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.PostGameResults(tx.Ctx, testModerator, game, []entities.Wincase{totalOver(1000)}, e.now)
	}))

	second := e.game(game)
	assert.Equal(t, *first.BetsResolveTime, *second.BetsResolveTime)
	assert.Equal(t, e.now, second.LastUpdate)
	assert.Equal(t, []entities.Wincase{totalOver(1000), totalOver(1500)}, second.Results)

	t.Run("contradicting result rejected", func(t *testing.T) {
		err := e.exec(func(tx *testTx) error {
			return tx.Games.PostGameResults(tx.Ctx, testModerator, game, []entities.Wincase{totalUnder(1500)}, e.now)
		})
		assert.ErrorIs(t, err, entities.ErrValidation)
	})

	t.Run("settled once resolve time is reached", func(t *testing.T) {
		e.advanceTo(*first.BetsResolveTime)
		assert.Nil(t, e.game(game))
	})
}

func TestGameStartRefundsNonLiveBets(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 1000)
	e.fund("bob", 1000)

	start := e.now.Add(time.Hour)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}, StartTime: start})

	e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 100, false)
	live := e.mustPostBet(game, "bob", totalOver(1000), odds(3, 2), 100, true)
	assert.Equal(t, int64(900), e.balance("alice"))

	e.advanceTo(start)

	assert.Equal(t, int64(1000), e.balance("alice"))
	assert.Equal(t, int64(900), e.balance("bob"))
	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, live, pending[0].Data.UUID)
	assert.Equal(t, int64(100), pending[0].Data.Stake)

	t.Run("non-live bets rejected after start", func(t *testing.T) {
		_, err := e.postBet(game, "alice", totalUnder(1000), odds(3, 1), 10, false)
		assert.ErrorIs(t, err, entities.ErrValidation)
	})

	t.Run("live bets accepted after start", func(t *testing.T) {
		_, err := e.postBet(game, "alice", totalUnder(1000), odds(3, 1), 10, true)
		assert.NoError(t, err)
	})
}

func TestOverflowAbortsWholeOperation(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100_000_000_000_000_000)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	resting := e.mustPostBet(game, "alice", totalOver(1000), odds(1001, 1000), 10, false)
	statsBefore := e.stats()
	delivered := len(e.delivered)

	_, err := e.postBet(game, "bob", totalUnder(1000), odds(1000, 1001), 100_000_000_000_000_000, false)
	require.ErrorIs(t, err, entities.ErrOverflow)

	assert.Equal(t, int64(100_000_000_000_000_000), e.balance("bob"))
	assert.Empty(t, e.matched(game))
	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, resting, pending[0].Data.UUID)
	assert.Equal(t, int64(10), pending[0].Data.Stake)
	assert.Equal(t, statsBefore, e.stats())
	assert.Len(t, e.delivered, delivered)
}

func TestStartTimeChangeRestoresMatchedBets(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)

	start := e.now.Add(time.Hour)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}, StartTime: start})

	aliceBet := e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, true)
	bobBet := e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 20, true)
	e.advanceTo(start)
	require.Equal(t, entities.GameStatusStarted, e.game(game).Status)

	newStart := e.now.Add(2 * time.Hour)
	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.UpdateGameStartTime(tx.Ctx, testModerator, game, newStart, e.now)
	}))

	stored := e.game(game)
	assert.Equal(t, entities.GameStatusCreated, stored.Status)
	assert.Equal(t, newStart, stored.StartTime)
	assert.Equal(t, newStart.Add(24*time.Hour), stored.AutoResolveTime)

	assert.Empty(t, e.matched(game))
	pending := e.pending(game)
	require.Len(t, pending, 2)
	assert.Equal(t, aliceBet, pending[0].Data.UUID)
	assert.Equal(t, int64(10), pending[0].Data.Stake)
	assert.Equal(t, bobBet, pending[1].Data.UUID)
	assert.Equal(t, int64(20), pending[1].Data.Stake)

	assert.Equal(t, entities.BettingStats{PendingBetsVolume: 30}, e.stats())
	assert.Len(t, e.eventsOf(domainevents.EventTypeBetRestored), 1)
	assert.Len(t, e.eventsOf(domainevents.EventTypeBetUpdated), 1)
}

func TestSettlement(t *testing.T) {
	t.Run("winner collects both stakes", func(t *testing.T) {
		e := newTestEngine(t)
		e.fund("alice", 100)
		e.fund("bob", 100)
		game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1500)}})

		e.mustPostBet(game, "alice", totalOver(1500), odds(3, 2), 10, false)
		e.mustPostBet(game, "bob", totalUnder(1500), odds(2, 3), 10, false)

		require.NoError(t, e.exec(func(tx *testTx) error {
			return tx.Games.PostGameResults(tx.Ctx, testModerator, game, []entities.Wincase{totalOver(1500)}, e.now)
		}))
		// bob's unmatched 5 is returned with the first results
		assert.Equal(t, int64(95), e.balance("bob"))

		e.advanceTo(e.now.Add(time.Hour))

		assert.Nil(t, e.game(game))
		assert.Empty(t, e.matched(game))
		assert.Equal(t, int64(105), e.balance("alice"))
		assert.Equal(t, int64(95), e.balance("bob"))
		assert.Equal(t, entities.BettingStats{}, e.stats())

		resolved := e.eventsOf(domainevents.EventTypeBetResolved)
		require.Len(t, resolved, 1)
		r := resolved[0].(domainevents.BetResolvedEvent)
		assert.Equal(t, domainevents.ResolveOutcomeWin, r.Outcome)
		assert.Equal(t, "alice", r.Winner)
		assert.Equal(t, int64(15), r.Payout)
	})

	t.Run("whole threshold without result pushes", func(t *testing.T) {
		e := newTestEngine(t)
		e.fund("alice", 100)
		e.fund("bob", 100)
		game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000, 1500)}})

		e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
		e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 10, false)

		require.NoError(t, e.exec(func(tx *testTx) error {
			return tx.Games.PostGameResults(tx.Ctx, testModerator, game, []entities.Wincase{totalUnder(1500)}, e.now)
		}))
		e.advanceTo(e.now.Add(time.Hour))

		assert.Nil(t, e.game(game))
		assert.Equal(t, int64(100), e.balance("alice"))
		assert.Equal(t, int64(100), e.balance("bob"))

		resolved := e.eventsOf(domainevents.EventTypeBetResolved)
		require.Len(t, resolved, 1)
		assert.Equal(t, domainevents.ResolveOutcomePush, resolved[0].(domainevents.BetResolvedEvent).Outcome)
	})

	t.Run("unresolvable matched bet is a consistency error", func(t *testing.T) {
		e := newTestEngine(t)
		e.fund("alice", 100)
		e.fund("bob", 100)
		game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1500)}})

		e.mustPostBet(game, "alice", totalOver(1500), odds(2, 1), 10, false)
		e.mustPostBet(game, "bob", totalUnder(1500), odds(1, 2), 10, false)
		require.Len(t, e.matched(game), 1)

		err := e.exec(func(tx *testTx) error {
			g, err := tx.UoW.GameRepository().GetByUUID(tx.Ctx, game)
			if err != nil {
				return err
			}
			return tx.Settlement.Resolve(tx.Ctx, g)
		})
		assert.ErrorIs(t, err, entities.ErrConsistency)
		assert.NotNil(t, e.game(game))
		assert.Len(t, e.matched(game), 1)
	})
}

func TestCancelGameRefundsAndRemoves(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	e.mustPostBet(game, "bob", totalUnder(1000), odds(2, 3), 20, false)

	t.Run("only the moderator may cancel", func(t *testing.T) {
		err := e.exec(func(tx *testTx) error {
			return tx.Games.CancelGame(tx.Ctx, "mallory", game, e.now)
		})
		assert.ErrorIs(t, err, entities.ErrUnauthorized)
	})

	require.NoError(t, e.exec(func(tx *testTx) error {
		return tx.Games.CancelGame(tx.Ctx, testModerator, game, e.now)
	}))

	assert.Nil(t, e.game(game))
	assert.Empty(t, e.pending(game))
	assert.Empty(t, e.matched(game))
	assert.Equal(t, int64(100), e.balance("alice"))
	assert.Equal(t, int64(100), e.balance("bob"))

	statuses := e.eventsOf(domainevents.EventTypeGameStatusChanged)
	last := statuses[len(statuses)-1].(domainevents.GameStatusChangedEvent)
	assert.Equal(t, entities.GameStatusCancelled, last.NewStatus)
}

func TestCancelBetterPendingBets(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	e.fund("bob", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	aliceBet := e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	bobBet := e.mustPostBet(game, "bob", totalOver(1000), odds(3, 2), 10, false)

	cancel := func(better string, ids []uuid.UUID) error {
		return e.exec(func(tx *testTx) error {
			return tx.Betting.CancelBetterPendingBets(tx.Ctx, better, ids)
		})
	}

	tests := []struct {
		name    string
		ids     []uuid.UUID
		wantErr error
	}{
		{name: "empty list", wantErr: entities.ErrValidation},
		{name: "duplicate", ids: []uuid.UUID{aliceBet, aliceBet}, wantErr: entities.ErrValidation},
		{name: "unknown bet", ids: []uuid.UUID{uuid.New()}, wantErr: entities.ErrNotFound},
		{name: "someone else's bet", ids: []uuid.UUID{aliceBet, bobBet}, wantErr: entities.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cancel("alice", tt.ids)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, e.pending(game), 2)
			assert.Equal(t, int64(90), e.balance("alice"))
		})
	}

	require.NoError(t, cancel("alice", []uuid.UUID{aliceBet}))
	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, bobBet, pending[0].Data.UUID)
	assert.Equal(t, int64(100), e.balance("alice"))
	assert.Equal(t, entities.BettingStats{PendingBetsVolume: 10}, e.stats())
}

func TestZeroStakeMatchLeavesBookUntouched(t *testing.T) {
	e := newTestEngine(t)
	e.fund("alice", 100)
	game := e.createGame(entities.CreateGameRequest{Markets: []entities.Market{totalMarket(1000)}})

	candidate := e.mustPostBet(game, "alice", totalOver(1000), odds(3, 2), 10, false)
	before := e.stats()
	delivered := len(e.delivered)

	incoming := &entities.PendingBet{
		GameUUID:   game,
		MarketKind: entities.MarketKindTotal,
		Data: entities.BetData{
			UUID:    uuid.New(),
			Better:  "bob",
			Wincase: totalUnder(1000),
			Odds:    odds(2, 3),
			Stake:   0,
			Created: e.now,
		},
	}
	require.NoError(t, e.exec(func(tx *testTx) error {
		consumed, err := tx.Matcher.Match(tx.Ctx, incoming, e.now)
		assert.Empty(t, consumed)
		return err
	}))

	assert.Empty(t, e.matched(game))
	pending := e.pending(game)
	require.Len(t, pending, 1)
	assert.Equal(t, candidate, pending[0].Data.UUID)
	assert.Equal(t, int64(10), pending[0].Data.Stake)
	assert.Equal(t, before, e.stats())
	assert.Len(t, e.delivered, delivered)
}

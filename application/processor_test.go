package application

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"oddsmatch/config"
	"oddsmatch/domain/entities"
	domainevents "oddsmatch/domain/events"
	"oddsmatch/events"
	"oddsmatch/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var genesisTime = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

// processorFixture runs a command processor over an in-memory store
type processorFixture struct {
	t         *testing.T
	ctx       context.Context
	processor *CommandProcessor
	queries   *QueryService
	delivered []domainevents.Event
}

func newProcessorFixture(t *testing.T, balances map[string]int64) *processorFixture {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	f := &processorFixture{t: t, ctx: context.Background()}
	bus := events.NewBus()
	bus.SubscribeAll(func(ctx context.Context, ev domainevents.Event) {
		f.delivered = append(f.delivered, ev)
	})
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(), bus)
	f.processor = NewCommandProcessor(factory)
	f.queries = NewQueryService(factory)

	require.NoError(t, SeedBalances(f.ctx, factory, balances))
	return f
}

func (f *processorFixture) apply(cmd Command) {
	f.t.Helper()
	require.NoError(f.t, f.processor.Apply(f.ctx, cmd))
}

func (f *processorFixture) balance(name string) int64 {
	f.t.Helper()
	account, err := f.queries.Account(f.ctx, name)
	require.NoError(f.t, err)
	if account == nil {
		return 0
	}
	return account.Balance
}

func over1000() entities.Wincase {
	return entities.Wincase{Type: entities.WincaseTotalOver, Threshold: 1000}
}

func totalMarket() []entities.Market {
	return []entities.Market{{
		Kind:     entities.MarketKindTotal,
		Wincases: []entities.WincasePair{entities.NewWincasePair(over1000())},
	}}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr string
	}{
		{
			name:  "block",
			input: `{"type":"block","payload":{"time":"2030-01-01T12:00:00Z"}}`,
			want:  &BlockCommand{Time: genesisTime},
		},
		{
			name:  "cancel pending bets",
			input: `{"type":"cancel_pending_bets","payload":{"better":"alice","bet_uuids":["00000000-0000-0000-0000-000000000001"]}}`,
			want: &CancelPendingBetsCommand{
				Better:   "alice",
				BetUUIDs: []uuid.UUID{uuid.MustParse("00000000-0000-0000-0000-000000000001")},
			},
		},
		{
			name:    "unknown type",
			input:   `{"type":"transfer","payload":{}}`,
			wantErr: "unknown command type",
		},
		{
			name:    "missing payload",
			input:   `{"type":"block"}`,
			wantErr: "has no payload",
		},
		{
			name:    "not json",
			input:   `block`,
			wantErr: "failed to unmarshal command envelope",
		},
		{
			name:    "bad payload",
			input:   `{"type":"post_bet","payload":{"stake":"ten"}}`,
			wantErr: "failed to unmarshal post_bet payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	original := &PostBetCommand{UUID: uuid.New(), GameUUID: uuid.New(), Better: "alice", Wincase: over1000(), Odds: "3/2", Stake: 10}
	data, err := EncodeCommand(original)
	require.NoError(t, err)

	decoded, err := DecodeCommand(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestCommandProcessor_GameLifecycle(t *testing.T) {
	f := newProcessorFixture(t, map[string]int64{"alice": 100, "bob": 100})
	game := uuid.New()

	f.apply(BlockCommand{Time: genesisTime})
	f.apply(CreateGameCommand{
		UUID:      game,
		Moderator: "moderator",
		Sport:     entities.SportSoccer,
		Name:      "home vs away",
		Markets:   totalMarket(),
		StartTime: genesisTime.Add(time.Hour),
	})
	f.apply(PostBetCommand{UUID: uuid.New(), GameUUID: game, Better: "alice", Wincase: over1000(), Odds: "3/2", Stake: 10})
	f.apply(PostBetCommand{UUID: uuid.New(), GameUUID: game, Better: "bob", Wincase: over1000().CreateOpposite(), Odds: "2/3", Stake: 10})

	snapshot, err := f.queries.Game(f.ctx, game)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Len(t, snapshot.Matched, 1)
	require.Len(t, snapshot.Pending, 1)
	assert.Equal(t, int64(5), snapshot.Pending[0].Data.Stake)

	// Start refunds bob's unmatched remainder
	f.apply(BlockCommand{Time: genesisTime.Add(time.Hour)})
	assert.Equal(t, int64(95), f.balance("bob"))

	f.apply(PostGameResultsCommand{Moderator: "moderator", GameUUID: game, Wincases: []entities.Wincase{over1000()}})
	f.apply(BlockCommand{Time: genesisTime.Add(2 * time.Hour)})

	assert.Equal(t, int64(105), f.balance("alice"))
	assert.Equal(t, int64(95), f.balance("bob"))

	// Resolved games leave the store
	snapshot, err = f.queries.Game(f.ctx, game)
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	var statuses []entities.GameStatus
	for _, ev := range f.delivered {
		if changed, ok := ev.(domainevents.GameStatusChangedEvent); ok {
			statuses = append(statuses, changed.NewStatus)
		}
	}
	assert.Equal(t, []entities.GameStatus{
		entities.GameStatusCreated,
		entities.GameStatusStarted,
		entities.GameStatusFinished,
		entities.GameStatusResolved,
	}, statuses)

	props, err := f.queries.Properties(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), props.HeadBlockNum)
	assert.Equal(t, entities.BettingStats{}, props.Stats)
}

func TestCommandProcessor_RejectedCommandLeavesNoTrace(t *testing.T) {
	f := newProcessorFixture(t, map[string]int64{"alice": 5})
	game := uuid.New()

	f.apply(BlockCommand{Time: genesisTime})
	f.apply(CreateGameCommand{UUID: game, Moderator: "moderator", Sport: entities.SportSoccer, Name: "g", Markets: totalMarket(), StartTime: genesisTime.Add(time.Hour)})
	delivered := len(f.delivered)

	err := f.processor.Apply(f.ctx, PostBetCommand{UUID: uuid.New(), GameUUID: game, Better: "alice", Wincase: over1000(), Odds: "3/2", Stake: 10})
	require.Error(t, err)
	assert.False(t, IsFatal(err))

	assert.Equal(t, int64(5), f.balance("alice"))
	assert.Len(t, f.delivered, delivered)

	err = f.processor.Apply(f.ctx, CreateGameCommand{UUID: uuid.New(), Moderator: "mallory", Sport: entities.SportSoccer, Name: "g", Markets: totalMarket(), StartTime: genesisTime.Add(time.Hour)})
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	err = f.processor.Apply(f.ctx, PostBetCommand{UUID: uuid.New(), GameUUID: game, Better: "alice", Wincase: over1000(), Odds: "three", Stake: 1})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestCommandProcessor_BlockTimeNeverDecreases(t *testing.T) {
	f := newProcessorFixture(t, nil)

	f.apply(BlockCommand{Time: genesisTime})
	f.apply(BlockCommand{Time: genesisTime})

	err := f.processor.Apply(f.ctx, BlockCommand{Time: genesisTime.Add(-time.Second)})
	assert.ErrorIs(t, err, entities.ErrValidation)

	props, err := f.queries.Properties(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), props.HeadBlockNum)
	assert.True(t, genesisTime.Equal(props.HeadBlockTime))
}

func TestCommandProcessor_HandleMessage(t *testing.T) {
	f := newProcessorFixture(t, nil)

	assert.Error(t, f.processor.HandleMessage(f.ctx, []byte(`{"type":"nope","payload":{}}`)))

	// Rejected commands are acknowledged
	assert.NoError(t, f.processor.HandleMessage(f.ctx, []byte(`{"type":"cancel_game","payload":{"moderator":"moderator","game_uuid":"00000000-0000-0000-0000-000000000001"}}`)))
	assert.NoError(t, f.processor.HandleMessage(f.ctx, []byte(`{"type":"block","payload":{"time":"2030-01-01T12:00:00Z"}}`)))

	props, err := f.queries.Properties(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), props.HeadBlockNum)
}

func TestSeedBalances(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	ctx := context.Background()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(), events.NewBus())
	queries := NewQueryService(factory)

	balances := map[string]int64{"carol": 30, "alice": 10, "bob": 0}
	require.NoError(t, SeedBalances(ctx, factory, balances))
	// Seeding again never credits existing accounts twice
	require.NoError(t, SeedBalances(ctx, factory, balances))

	accounts, err := queries.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Name)
	assert.Equal(t, int64(10), accounts[0].Balance)
	assert.Equal(t, "carol", accounts[1].Name)

	history, err := queries.BalanceHistory(ctx, "carol", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.TransactionTypeInitial, history[0].TransactionType)
}

// commandLog renders a command log with a busy order book for replay tests
func commandLog(t *testing.T) string {
	t.Helper()
	game := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cancelled := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	commands := []Command{
		BlockCommand{Time: genesisTime},
		CreateGameCommand{UUID: game, Moderator: "moderator", Sport: entities.SportSoccer, Name: "g", Markets: totalMarket(), StartTime: genesisTime.Add(time.Hour)},
		CreateGameCommand{UUID: cancelled, Moderator: "moderator", Sport: entities.SportHockey, Name: "c", Markets: totalMarket(), StartTime: genesisTime.Add(time.Hour)},
	}
	for i := 0; i < 12; i++ {
		better := []string{"alice", "bob", "carol"}[i%3]
		w := over1000()
		odds := "3/2"
		if i%2 == 1 {
			w = w.CreateOpposite()
			odds = "2/3"
		}
		target := game
		if i%4 == 3 {
			target = cancelled
		}
		commands = append(commands, PostBetCommand{
			UUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("bet-%d", i))),
			GameUUID: target,
			Better:   better,
			Wincase:  w,
			Odds:     odds,
			Stake:    int64(7 + i),
			Live:     i%5 == 0,
		})
	}
	commands = append(commands,
		CancelGameCommand{Moderator: "moderator", GameUUID: cancelled},
		PostBetCommand{UUID: uuid.New(), GameUUID: game, Better: "dave", Wincase: over1000(), Odds: "3/2", Stake: 10},
		BlockCommand{Time: genesisTime.Add(time.Hour)},
		PostGameResultsCommand{Moderator: "moderator", GameUUID: game, Wincases: []entities.Wincase{over1000().CreateOpposite()}},
		BlockCommand{Time: genesisTime.Add(3 * time.Hour)},
	)

	var b strings.Builder
	b.WriteString("# replay fixture\n")
	for _, cmd := range commands {
		data, err := EncodeCommand(cmd)
		require.NoError(t, err)
		b.Write(data)
		b.WriteString("\n\n")
	}
	return b.String()
}

type engineDump struct {
	Accounts []*entities.Account
	History  map[string][]*entities.BalanceHistory
	Games    []*entities.Game
	Props    *entities.GlobalProperties
	Events   []domainevents.Event
}

func replayIntoFreshStore(t *testing.T, log string) (ReplayResult, engineDump) {
	t.Helper()
	f := newProcessorFixture(t, map[string]int64{"alice": 1000, "bob": 1000, "carol": 1000})

	result, err := Replay(f.ctx, f.processor, strings.NewReader(log))
	require.NoError(t, err)

	dump := engineDump{History: map[string][]*entities.BalanceHistory{}, Events: f.delivered}
	dump.Accounts, err = f.queries.Accounts(f.ctx)
	require.NoError(t, err)
	for _, account := range dump.Accounts {
		dump.History[account.Name], err = f.queries.BalanceHistory(f.ctx, account.Name, 0)
		require.NoError(t, err)
	}
	dump.Games, err = f.queries.Games(f.ctx)
	require.NoError(t, err)
	dump.Props, err = f.queries.Properties(f.ctx)
	require.NoError(t, err)
	return result, dump
}

func TestReplayIsDeterministic(t *testing.T) {
	log := commandLog(t)

	firstResult, first := replayIntoFreshStore(t, log)
	secondResult, second := replayIntoFreshStore(t, log)

	assert.Equal(t, firstResult, secondResult)
	// dave has no funds so his bet is the only rejection
	assert.Equal(t, 1, firstResult.Rejected)
	assert.Equal(t, first, second)

	var total int64
	for _, account := range first.Accounts {
		total += account.Balance
	}
	assert.Equal(t, int64(3000), total)
	assert.Equal(t, entities.BettingStats{}, first.Props.Stats)
}

func TestReplayStopsOnMalformedLine(t *testing.T) {
	f := newProcessorFixture(t, nil)

	input := `{"type":"block","payload":{"time":"2030-01-01T12:00:00Z"}}
not a command
{"type":"block","payload":{"time":"2030-01-01T13:00:00Z"}}
`
	result, err := Replay(f.ctx, f.processor, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, ReplayResult{Applied: 1}, result)
}

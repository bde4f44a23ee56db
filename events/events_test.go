package events

import (
	"context"
	"testing"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests the flow from TransactionalBus to the main Bus
func TestEventDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var received []events.BalanceChangeEvent
	mainBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if balanceEvent, ok := event.(events.BalanceChangeEvent); ok {
			received = append(received, balanceEvent)
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := events.BalanceChangeEvent{
		Account:         "alice",
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: entities.TransactionTypeBetWin,
		ChangeAmount:    500,
	}

	require.NoError(t, transactionalBus.Publish(testEvent))
	assert.Empty(t, received, "events must not be delivered before flush")

	require.NoError(t, transactionalBus.Flush(context.Background()))
	require.Len(t, received, 1)
	assert.Equal(t, testEvent, received[0])
}

// TestMultipleEventsDeliveredInOrder tests that flush preserves publish order
func TestMultipleEventsDeliveredInOrder(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var order []events.EventType
	mainBus.SubscribeAll(func(ctx context.Context, event events.Event) {
		order = append(order, event.Type())
	})

	published := []events.Event{
		events.BetPlacedEvent{BetUUID: "a"},
		events.BetMatchedEvent{MatchedBetID: 1},
		events.BetCancelledEvent{BetUUID: "b", Kind: entities.BetKindFullyConsumed},
	}
	for _, e := range published {
		require.NoError(t, transactionalBus.Publish(e))
	}
	require.NoError(t, transactionalBus.Flush(context.Background()))

	assert.Equal(t, []events.EventType{
		events.EventTypeBetPlaced,
		events.EventTypeBetMatched,
		events.EventTypeBetCancelled,
	}, order)
	assert.Empty(t, transactionalBus.Pending())
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	delivered := false
	mainBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		delivered = true
	})

	require.NoError(t, transactionalBus.Publish(events.BalanceChangeEvent{Account: "alice", ChangeAmount: 500}))
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	assert.False(t, delivered, "event was received despite being discarded")
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(events.EventTypeBetMatched, func(ctx context.Context, event events.Event) {
		panic("boom")
	})
	bus.Subscribe(events.EventTypeBetMatched, func(ctx context.Context, event events.Event) {
		called = true
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), events.BetMatchedEvent{MatchedBetID: 7})
	})
	assert.True(t, called, "handlers after a panicking one still run")
}

func TestFullyConsumedIsFill(t *testing.T) {
	assert.True(t, events.BetCancelledEvent{Kind: entities.BetKindFullyConsumed}.IsFill())
	assert.False(t, events.BetCancelledEvent{Kind: entities.BetKindPending}.IsFill())
}

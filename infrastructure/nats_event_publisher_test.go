package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	eventbus "oddsmatch/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMessagePublisher is a mock implementation of MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestNATSEventPublisher_Envelope(t *testing.T) {
	mockPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(mockPublisher, NewEventSubjectMapper())
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	var published []byte
	mockPublisher.On("Publish", mock.Anything, "betting.bet.matched", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).([]byte)
		}).
		Return(nil)

	event := events.BetMatchedEvent{
		GameUUID:      "game",
		Bet1UUID:      "bet1",
		Bet2UUID:      "bet2",
		MatchedStake1: 10,
		MatchedStake2: 5,
		MatchedBetID:  1,
	}
	require.NoError(t, publisher.Publish(event))
	mockPublisher.AssertExpectations(t)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(published, &envelope))
	assert.Equal(t, "bet_matched", envelope.EventType)
	assert.Equal(t, "oddsmatch", envelope.SourceService)
	assert.NotEmpty(t, envelope.EventID)
	assert.True(t, fixed.Equal(envelope.Timestamp))

	var payload events.BetMatchedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	mockPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(mockPublisher, NewEventSubjectMapper())
	mockPublisher.On("Publish", mock.Anything, "betting.balance_changed", mock.Anything).
		Return(errors.New("no responders"))

	err := publisher.Publish(events.BalanceChangeEvent{Account: "alice", TransactionType: entities.TransactionTypeBetPlaced})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestNATSEventPublisher_AttachForwardsBusEvents(t *testing.T) {
	mockPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(mockPublisher, NewEventSubjectMapper())
	bus := eventbus.NewBus()
	publisher.Attach(bus)

	mockPublisher.On("Publish", mock.Anything, "betting.game.status_changed", mock.Anything).Return(nil).Once()
	mockPublisher.On("Publish", mock.Anything, "betting.bet.cancelled", mock.Anything).Return(errors.New("down")).Once()

	bus.Emit(context.Background(), events.GameStatusChangedEvent{GameUUID: "g", NewStatus: entities.GameStatusStarted})
	// A failed publish is logged, never propagated to the engine
	bus.Emit(context.Background(), events.BetCancelledEvent{GameUUID: "g", Kind: entities.BetKindPending})

	mockPublisher.AssertExpectations(t)
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.BalanceChangeEvent{}, "betting.balance_changed"},
		{events.BetPlacedEvent{}, "betting.bet.placed"},
		{events.BetMatchedEvent{}, "betting.bet.matched"},
		{events.BetCancelledEvent{}, "betting.bet.cancelled"},
		{events.BetUpdatedEvent{}, "betting.bet.updated"},
		{events.BetRestoredEvent{}, "betting.bet.restored"},
		{events.BetResolvedEvent{}, "betting.bet.resolved"},
		{events.GameStatusChangedEvent{}, "betting.game.status_changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
			assert.Contains(t, mapper.GetAllSubjects(), tt.subject)
		})
	}

	assert.Equal(t, events.EventType("other.subject"), mapper.MapSubjectToEventType("other.subject"))
	assert.IsIncreasing(t, mapper.GetAllSubjects())
}

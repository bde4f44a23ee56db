package events

import (
	"oddsmatch/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeBetPlaced         EventType = "bet_placed"
	EventTypeBetMatched        EventType = "bet_matched"
	EventTypeBetCancelled      EventType = "bet_cancelled"
	EventTypeBetUpdated        EventType = "bet_updated"
	EventTypeBetRestored       EventType = "bet_restored"
	EventTypeBetResolved       EventType = "bet_resolved"
	EventTypeGameStatusChanged EventType = "game_status_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Account         string                   `json:"account"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetPlacedEvent is emitted when a bet is accepted, before matching
type BetPlacedEvent struct {
	GameUUID string           `json:"game_uuid"`
	BetUUID  string           `json:"bet_uuid"`
	Better   string           `json:"better"`
	Wincase  entities.Wincase `json:"wincase"`
	Odds     string           `json:"odds"`
	Stake    int64            `json:"stake"`
	Live     bool             `json:"live"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetMatchedEvent is emitted for every matched bet created
type BetMatchedEvent struct {
	GameUUID      string `json:"game_uuid"`
	Bet1UUID      string `json:"bet1_uuid"`
	Bet2UUID      string `json:"bet2_uuid"`
	Better1       string `json:"better1"`
	Better2       string `json:"better2"`
	MatchedStake1 int64  `json:"matched_stake1"`
	MatchedStake2 int64  `json:"matched_stake2"`
	MatchedBetID  int64  `json:"matched_bet_id"`
}

func (e BetMatchedEvent) Type() EventType {
	return EventTypeBetMatched
}

// BetCancelledEvent is emitted when a bet leaves the engine without settlement.
// Kind fully_consumed keeps the historical name for a pending bet whose stake was
// entirely matched: it was filled, not refunded, and Stake is zero.
type BetCancelledEvent struct {
	GameUUID     string                `json:"game_uuid"`
	BetUUID      string                `json:"bet_uuid"`
	Better       string                `json:"better"`
	Kind         entities.BetKind      `json:"kind"`
	Source       entities.CancelSource `json:"source"`
	Stake        int64                 `json:"stake"`
	MatchedBetID int64                 `json:"matched_bet_id,omitempty"`
}

func (e BetCancelledEvent) Type() EventType {
	return EventTypeBetCancelled
}

// IsFill reports whether the event marks full consumption rather than a refund
func (e BetCancelledEvent) IsFill() bool {
	return e.Kind == entities.BetKindFullyConsumed
}

// BetUpdatedEvent is emitted when an unwound matched stake is added back to a pending bet in place
type BetUpdatedEvent struct {
	GameUUID string `json:"game_uuid"`
	BetUUID  string `json:"bet_uuid"`
	Better   string `json:"better"`
	OldStake int64  `json:"old_stake"`
	NewStake int64  `json:"new_stake"`
}

func (e BetUpdatedEvent) Type() EventType {
	return EventTypeBetUpdated
}

// BetRestoredEvent is emitted when an unwound matched stake recreates a pending bet
type BetRestoredEvent struct {
	GameUUID string `json:"game_uuid"`
	BetUUID  string `json:"bet_uuid"`
	Better   string `json:"better"`
	Stake    int64  `json:"stake"`
}

func (e BetRestoredEvent) Type() EventType {
	return EventTypeBetRestored
}

// ResolveOutcome describes how a matched bet was settled
type ResolveOutcome string

const (
	ResolveOutcomeWin  ResolveOutcome = "win"
	ResolveOutcomePush ResolveOutcome = "push"
)

// BetResolvedEvent is emitted per matched bet at settlement
type BetResolvedEvent struct {
	GameUUID     string         `json:"game_uuid"`
	MatchedBetID int64          `json:"matched_bet_id"`
	Outcome      ResolveOutcome `json:"outcome"`
	Winner       string         `json:"winner,omitempty"`
	WinnerBet    string         `json:"winner_bet,omitempty"`
	Payout       int64          `json:"payout"`
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// GameStatusChangedEvent represents a game lifecycle transition
type GameStatusChangedEvent struct {
	GameUUID  string              `json:"game_uuid"`
	OldStatus entities.GameStatus `json:"old_status"`
	NewStatus entities.GameStatus `json:"new_status"`
}

func (e GameStatusChangedEvent) Type() EventType {
	return EventTypeGameStatusChanged
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

// BetData is the identity and terms of one side of a wager.
// For a pending bet Stake is the unmatched remainder; inside a matched bet
// it is the amount that side contributed to the match.
type BetData struct {
	UUID     uuid.UUID `json:"uuid"`
	Better   string    `json:"better"`
	Wincase  Wincase   `json:"wincase"`
	Odds     Odds      `json:"odds"`
	Stake    int64     `json:"stake"`
	Created  time.Time `json:"created"`
	Live     bool      `json:"live"`
	Sequence uint64    `json:"sequence"`
}

// PendingBet is an unmatched or partially matched bet waiting for a counterparty
type PendingBet struct {
	GameUUID   uuid.UUID  `json:"game_uuid"`
	MarketKind MarketKind `json:"market_kind"`
	Data       BetData    `json:"data"`
}

// Clone returns a copy of the pending bet
func (b *PendingBet) Clone() *PendingBet {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// MatchedBet records two bets that fund each other. Bet1 is the side that was
// already pending, Bet2 the incoming one.
type MatchedBet struct {
	ID         int64      `json:"id"`
	GameUUID   uuid.UUID  `json:"game_uuid"`
	MarketKind MarketKind `json:"market_kind"`
	Bet1       BetData    `json:"bet1_data"`
	Bet2       BetData    `json:"bet2_data"`
	Created    time.Time  `json:"created"`
}

// Clone returns a copy of the matched bet
func (b *MatchedBet) Clone() *MatchedBet {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// TotalStake is the pot the winning side collects
func (b *MatchedBet) TotalStake() (int64, error) {
	return AddStake(b.Bet1.Stake, b.Bet2.Stake)
}

// BetKind tells which store a cancelled bet came from
type BetKind string

const (
	BetKindPending       BetKind = "pending"
	BetKindMatched       BetKind = "matched"
	BetKindFullyConsumed BetKind = "fully_consumed"
)

// CancelSource names what triggered a refund
type CancelSource string

const (
	CancelSourceBetter        CancelSource = "better"
	CancelSourceGameCancelled CancelSource = "game_cancelled"
	CancelSourceMarketUpdated CancelSource = "market_updated"
	CancelSourceGameStarted   CancelSource = "game_started"
	CancelSourceAutoResolved  CancelSource = "auto_resolved"
	CancelSourceGameFinished  CancelSource = "game_finished"
	CancelSourceMatched       CancelSource = "matched"
)

// BettingStats tracks the total stake currently held by the engine
type BettingStats struct {
	PendingBetsVolume int64 `json:"pending_bets_volume"`
	MatchedBetsVolume int64 `json:"matched_bets_volume"`
}

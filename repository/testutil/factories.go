package testutil

import (
	"time"

	"oddsmatch/domain/entities"

	"github.com/google/uuid"
)

// FixedTime is the block time used by repository fixtures
var FixedTime = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

// CreateTestGame creates a created-state soccer game offering a total market
func CreateTestGame(thresholds ...int32) *entities.Game {
	market := entities.Market{Kind: entities.MarketKindTotal}
	for _, threshold := range thresholds {
		market.Wincases = append(market.Wincases, entities.NewWincasePair(entities.Wincase{
			Type:      entities.WincaseTotalOver,
			Threshold: threshold,
		}))
	}
	start := FixedTime.Add(time.Hour)
	return &entities.Game{
		UUID:                uuid.New(),
		Moderator:           "moderator",
		Sport:               entities.SportSoccer,
		Name:                "home vs away",
		Markets:             []entities.Market{market},
		Status:              entities.GameStatusCreated,
		StartTime:           start,
		AutoResolveDelaySec: 3600,
		AutoResolveTime:     start.Add(time.Hour),
		LastUpdate:          FixedTime,
		Created:             FixedTime,
	}
}

// CreateTestBetData creates one side of a bet on total over the threshold
func CreateTestBetData(better string, threshold int32, stake int64, sequence uint64) entities.BetData {
	return entities.BetData{
		UUID:     uuid.New(),
		Better:   better,
		Wincase:  entities.Wincase{Type: entities.WincaseTotalOver, Threshold: threshold},
		Odds:     entities.Odds{Numerator: 2, Denominator: 1},
		Stake:    stake,
		Created:  FixedTime,
		Sequence: sequence,
	}
}

// CreateTestPendingBet creates a pending bet on the game
func CreateTestPendingBet(game *entities.Game, better string, stake int64, sequence uint64) *entities.PendingBet {
	return &entities.PendingBet{
		GameUUID:   game.UUID,
		MarketKind: entities.MarketKindTotal,
		Data:       CreateTestBetData(better, 1000, stake, sequence),
	}
}

// CreateTestMatchedBet creates a matched bet whose second side backs the opposite wincase
func CreateTestMatchedBet(game *entities.Game, id int64) *entities.MatchedBet {
	bet1 := CreateTestBetData("alice", 1000, 10, uint64(2*id))
	bet2 := CreateTestBetData("bob", 1000, 5, uint64(2*id+1))
	bet2.Wincase = bet1.Wincase.CreateOpposite()
	bet2.Odds = bet1.Odds.Inverted()
	return &entities.MatchedBet{
		ID:         id,
		GameUUID:   game.UUID,
		MarketKind: entities.MarketKindTotal,
		Bet1:       bet1,
		Bet2:       bet2,
		Created:    FixedTime,
	}
}

// CreateTestBalanceHistory creates a balance history entry for a stake debit
func CreateTestBalanceHistory(account string, before, change int64) *entities.BalanceHistory {
	betUUID := uuid.New().String()
	return &entities.BalanceHistory{
		Account:         account,
		BalanceBefore:   before,
		BalanceAfter:    before + change,
		ChangeAmount:    change,
		TransactionType: entities.TransactionTypeBetPlaced,
		BetUUID:         &betUUID,
		CreatedAt:       FixedTime,
	}
}

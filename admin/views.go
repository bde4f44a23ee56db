package admin

import (
	"time"

	"oddsmatch/application"
	"oddsmatch/domain/entities"

	"github.com/google/uuid"
)

type oddsView struct {
	Fraction string `json:"fraction"`
	Decimal  string `json:"decimal"`
}

func newOddsView(odds entities.Odds) oddsView {
	return oddsView{Fraction: odds.String(), Decimal: odds.Decimal().StringFixed(4)}
}

type betView struct {
	UUID     uuid.UUID        `json:"uuid"`
	Better   string           `json:"better"`
	Wincase  string           `json:"wincase"`
	Odds     oddsView         `json:"odds"`
	Stake    int64            `json:"stake"`
	Live     bool             `json:"live"`
	Created  time.Time        `json:"created"`
	Raw      entities.Wincase `json:"raw_wincase"`
	Sequence uint64           `json:"sequence"`
}

func newBetView(data entities.BetData) betView {
	return betView{
		UUID:     data.UUID,
		Better:   data.Better,
		Wincase:  data.Wincase.String(),
		Odds:     newOddsView(data.Odds),
		Stake:    data.Stake,
		Live:     data.Live,
		Created:  data.Created,
		Raw:      data.Wincase,
		Sequence: data.Sequence,
	}
}

type matchedView struct {
	ID   int64   `json:"id"`
	Bet1 betView `json:"bet1"`
	Bet2 betView `json:"bet2"`
}

type gameView struct {
	*entities.Game
	Pending []betView     `json:"pending_bets"`
	Matched []matchedView `json:"matched_bets"`
}

func newGameView(snapshot *application.GameSnapshot) gameView {
	view := gameView{
		Game:    snapshot.Game,
		Pending: make([]betView, 0, len(snapshot.Pending)),
		Matched: make([]matchedView, 0, len(snapshot.Matched)),
	}
	for _, bet := range snapshot.Pending {
		view.Pending = append(view.Pending, newBetView(bet.Data))
	}
	for _, bet := range snapshot.Matched {
		view.Matched = append(view.Matched, matchedView{
			ID:   bet.ID,
			Bet1: newBetView(bet.Bet1),
			Bet2: newBetView(bet.Bet2),
		})
	}
	return view
}

type accountView struct {
	*entities.Account
	History []*entities.BalanceHistory `json:"history"`
}

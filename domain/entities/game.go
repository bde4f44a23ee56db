package entities

import (
	"time"

	"github.com/google/uuid"
)

// Sport determines which market kinds a game may offer
type Sport string

const (
	SportSoccer Sport = "soccer"
	SportHockey Sport = "hockey"
)

// sportMarkets is the read-only table of market kinds allowed per sport
var sportMarkets = map[Sport]map[MarketKind]bool{
	SportSoccer: {
		MarketKindResult:       true,
		MarketKindRound:        true,
		MarketKindHandicap:     true,
		MarketKindCorrectScore: true,
		MarketKindGoal:         true,
		MarketKindTotal:        true,
	},
	SportHockey: {
		MarketKindResult:       true,
		MarketKindRound:        true,
		MarketKindHandicap:     true,
		MarketKindCorrectScore: true,
		MarketKindGoal:         true,
		MarketKindTotal:        true,
	},
}

// IsValid reports whether the sport is known
func (s Sport) IsValid() bool {
	_, ok := sportMarkets[s]
	return ok
}

// AllowsMarket reports whether the sport offers markets of the given kind
func (s Sport) AllowsMarket(kind MarketKind) bool {
	return sportMarkets[s][kind]
}

// GameStatus represents where a game is in its lifecycle
type GameStatus string

const (
	GameStatusCreated   GameStatus = "created"
	GameStatusStarted   GameStatus = "started"
	GameStatusFinished  GameStatus = "finished"
	GameStatusResolved  GameStatus = "resolved"
	GameStatusCancelled GameStatus = "cancelled"
)

// Game is a moderated event with a set of markets that bets are placed against
type Game struct {
	UUID                uuid.UUID  `json:"uuid"`
	Moderator           string     `json:"moderator"`
	Sport               Sport      `json:"sport"`
	Name                string     `json:"name"`
	Markets             []Market   `json:"markets"`
	Status              GameStatus `json:"status"`
	StartTime           time.Time  `json:"start_time"`
	AutoResolveDelaySec uint32     `json:"auto_resolve_delay_sec"`
	AutoResolveTime     time.Time  `json:"auto_resolve_time"`
	BetsResolveTime     *time.Time `json:"bets_resolve_time,omitempty"`
	LastUpdate          time.Time  `json:"last_update"`
	Results             []Wincase  `json:"results"`
	Created             time.Time  `json:"created"`
}

// Clone returns a deep copy so stored games are never aliased by callers
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	clone := *g
	clone.Markets = CloneMarkets(g.Markets)
	if g.Results != nil {
		clone.Results = make([]Wincase, len(g.Results))
		copy(clone.Results, g.Results)
	}
	if g.BetsResolveTime != nil {
		t := *g.BetsResolveTime
		clone.BetsResolveTime = &t
	}
	return &clone
}

// IsActive reports whether bets and moderator commands may still change the game
func (g *Game) IsActive() bool {
	return g.Status == GameStatusCreated || g.Status == GameStatusStarted
}

// AutoResolveDelay returns the configured delay as a duration
func (g *Game) AutoResolveDelay() time.Duration {
	return time.Duration(g.AutoResolveDelaySec) * time.Second
}

// FindMarket returns the game market offering w
func (g *Game) FindMarket(w Wincase) (Market, bool) {
	return FindMarket(g.Markets, w)
}

// HasResult reports whether w was declared a winning wincase
func (g *Game) HasResult(w Wincase) bool {
	for _, r := range g.Results {
		if r == w {
			return true
		}
	}
	return false
}

// AddResults merges wincases into the result set, keeping it sorted and unique
func (g *Game) AddResults(wincases []Wincase) {
	for _, w := range wincases {
		if !g.HasResult(w) {
			g.Results = append(g.Results, w)
		}
	}
	SortWincases(g.Results)
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

// CreateGameRequest carries the moderator supplied fields of a new game
type CreateGameRequest struct {
	UUID                uuid.UUID `json:"uuid"`
	Moderator           string    `json:"moderator"`
	Sport               Sport     `json:"sport"`
	Name                string    `json:"name"`
	Markets             []Market  `json:"markets"`
	StartTime           time.Time `json:"start_time"`
	AutoResolveDelaySec uint32    `json:"auto_resolve_delay_sec"`
}

// PostBetRequest carries a better's bet on a game
type PostBetRequest struct {
	UUID     uuid.UUID `json:"uuid"`
	GameUUID uuid.UUID `json:"game_uuid"`
	Better   string    `json:"better"`
	Wincase  Wincase   `json:"wincase"`
	Odds     Odds      `json:"odds"`
	Stake    int64     `json:"stake"`
	Live     bool      `json:"live"`
}

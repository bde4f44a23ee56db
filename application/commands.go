package application

import (
	"encoding/json"
	"fmt"
	"time"

	"oddsmatch/domain/entities"

	"github.com/google/uuid"
)

// CommandType names a command in the wire envelope
type CommandType string

const (
	CommandCreateGame          CommandType = "create_game"
	CommandPostBet             CommandType = "post_bet"
	CommandCancelPendingBets   CommandType = "cancel_pending_bets"
	CommandCancelGame          CommandType = "cancel_game"
	CommandUpdateGameMarkets   CommandType = "update_game_markets"
	CommandUpdateGameStartTime CommandType = "update_game_start_time"
	CommandPostGameResults     CommandType = "post_game_results"
	CommandBlock               CommandType = "block"
)

// Envelope is the wire form of every command
type Envelope struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Command is a decoded command ready for the processor
type Command interface {
	CommandType() CommandType
}

type CreateGameCommand struct {
	UUID                uuid.UUID         `json:"uuid"`
	Moderator           string            `json:"moderator"`
	Sport               entities.Sport    `json:"sport"`
	Name                string            `json:"name"`
	Markets             []entities.Market `json:"markets"`
	StartTime           time.Time         `json:"start_time"`
	AutoResolveDelaySec uint32            `json:"auto_resolve_delay_sec"`
}

func (CreateGameCommand) CommandType() CommandType { return CommandCreateGame }

// PostBetCommand carries odds in "n/d" form
type PostBetCommand struct {
	UUID     uuid.UUID        `json:"uuid"`
	GameUUID uuid.UUID        `json:"game_uuid"`
	Better   string           `json:"better"`
	Wincase  entities.Wincase `json:"wincase"`
	Odds     string           `json:"odds"`
	Stake    int64            `json:"stake"`
	Live     bool             `json:"live"`
}

func (PostBetCommand) CommandType() CommandType { return CommandPostBet }

type CancelPendingBetsCommand struct {
	Better   string      `json:"better"`
	BetUUIDs []uuid.UUID `json:"bet_uuids"`
}

func (CancelPendingBetsCommand) CommandType() CommandType { return CommandCancelPendingBets }

type CancelGameCommand struct {
	Moderator string    `json:"moderator"`
	GameUUID  uuid.UUID `json:"game_uuid"`
}

func (CancelGameCommand) CommandType() CommandType { return CommandCancelGame }

type UpdateGameMarketsCommand struct {
	Moderator string            `json:"moderator"`
	GameUUID  uuid.UUID         `json:"game_uuid"`
	Markets   []entities.Market `json:"markets"`
}

func (UpdateGameMarketsCommand) CommandType() CommandType { return CommandUpdateGameMarkets }

type UpdateGameStartTimeCommand struct {
	Moderator string    `json:"moderator"`
	GameUUID  uuid.UUID `json:"game_uuid"`
	StartTime time.Time `json:"start_time"`
}

func (UpdateGameStartTimeCommand) CommandType() CommandType { return CommandUpdateGameStartTime }

type PostGameResultsCommand struct {
	Moderator string             `json:"moderator"`
	GameUUID  uuid.UUID          `json:"game_uuid"`
	Wincases  []entities.Wincase `json:"wincases"`
}

func (PostGameResultsCommand) CommandType() CommandType { return CommandPostGameResults }

// BlockCommand advances head block time and runs the time-driven transitions
type BlockCommand struct {
	Time time.Time `json:"time"`
}

func (BlockCommand) CommandType() CommandType { return CommandBlock }

// DecodeCommand parses a command envelope
func DecodeCommand(data []byte) (Command, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal command envelope: %w", err)
	}

	var cmd Command
	switch envelope.Type {
	case CommandCreateGame:
		cmd = &CreateGameCommand{}
	case CommandPostBet:
		cmd = &PostBetCommand{}
	case CommandCancelPendingBets:
		cmd = &CancelPendingBetsCommand{}
	case CommandCancelGame:
		cmd = &CancelGameCommand{}
	case CommandUpdateGameMarkets:
		cmd = &UpdateGameMarketsCommand{}
	case CommandUpdateGameStartTime:
		cmd = &UpdateGameStartTimeCommand{}
	case CommandPostGameResults:
		cmd = &PostGameResultsCommand{}
	case CommandBlock:
		cmd = &BlockCommand{}
	default:
		return nil, fmt.Errorf("unknown command type: %q", envelope.Type)
	}

	if len(envelope.Payload) == 0 {
		return nil, fmt.Errorf("command %s has no payload", envelope.Type)
	}
	if err := json.Unmarshal(envelope.Payload, cmd); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", envelope.Type, err)
	}
	return cmd, nil
}

// EncodeCommand builds the wire form of a command
func EncodeCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd.CommandType(), err)
	}
	return json.Marshal(Envelope{Type: cmd.CommandType(), Payload: payload})
}

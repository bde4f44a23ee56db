package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"
	"oddsmatch/domain/services"

	log "github.com/sirupsen/logrus"
)

// MetricsRecorder receives command outcomes and committed engine state
type MetricsRecorder interface {
	RecordCommand(commandType string, err error, duration time.Duration)
	UpdateState(props *entities.GlobalProperties)
}

// CommandProcessor applies commands one at a time, each inside its own unit of
// work. A rejected command leaves no trace: no state change and no event.
type CommandProcessor struct {
	mu         sync.Mutex
	uowFactory interfaces.UnitOfWorkFactory
	metrics    MetricsRecorder
}

// NewCommandProcessor creates a new command processor
func NewCommandProcessor(uowFactory interfaces.UnitOfWorkFactory) *CommandProcessor {
	return &CommandProcessor{uowFactory: uowFactory}
}

// WithMetrics attaches a metrics recorder
func (p *CommandProcessor) WithMetrics(metrics MetricsRecorder) *CommandProcessor {
	p.metrics = metrics
	return p
}

// IsFatal reports whether err means the engine state can no longer be trusted
func IsFatal(err error) bool {
	return errors.Is(err, entities.ErrConsistency)
}

// Apply runs cmd atomically against the head block time
func (p *CommandProcessor) Apply(ctx context.Context, cmd Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd = normalize(cmd)
	started := time.Now()
	props, err := p.apply(ctx, cmd)
	if p.metrics != nil {
		p.metrics.RecordCommand(string(cmd.CommandType()), err, time.Since(started))
		if err == nil {
			p.metrics.UpdateState(props)
		}
	}
	return err
}

func (p *CommandProcessor) apply(ctx context.Context, cmd Command) (*entities.GlobalProperties, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
	}()

	if err := p.dispatch(ctx, uow, cmd); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Failed to roll back command")
		}
		return nil, err
	}

	props, err := uow.GlobalPropertiesRepository().Get(ctx)
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return props, nil
}

func (p *CommandProcessor) dispatch(ctx context.Context, uow interfaces.UnitOfWork, cmd Command) error {
	propsRepo := uow.GlobalPropertiesRepository()
	props, err := propsRepo.Get(ctx)
	if err != nil {
		return err
	}

	if block, ok := cmd.(*BlockCommand); ok {
		return p.applyBlock(ctx, uow, props, block.Time)
	}

	now := props.HeadBlockTime
	reg := services.NewRegistry(uow, now)

	switch c := cmd.(type) {
	case *CreateGameCommand:
		_, err = reg.Games.CreateGame(ctx, entities.CreateGameRequest{
			UUID:                c.UUID,
			Moderator:           c.Moderator,
			Sport:               c.Sport,
			Name:                c.Name,
			Markets:             c.Markets,
			StartTime:           c.StartTime.UTC(),
			AutoResolveDelaySec: c.AutoResolveDelaySec,
		}, now)
		return err
	case *PostBetCommand:
		odds, err := entities.ParseOdds(c.Odds)
		if err != nil {
			return err
		}
		return reg.Games.PostBet(ctx, entities.PostBetRequest{
			UUID:     c.UUID,
			GameUUID: c.GameUUID,
			Better:   c.Better,
			Wincase:  c.Wincase,
			Odds:     odds,
			Stake:    c.Stake,
			Live:     c.Live,
		}, now)
	case *CancelPendingBetsCommand:
		return reg.Betting.CancelBetterPendingBets(ctx, c.Better, c.BetUUIDs)
	case *CancelGameCommand:
		return reg.Games.CancelGame(ctx, c.Moderator, c.GameUUID, now)
	case *UpdateGameMarketsCommand:
		return reg.Games.UpdateGameMarkets(ctx, c.Moderator, c.GameUUID, c.Markets, now)
	case *UpdateGameStartTimeCommand:
		return reg.Games.UpdateGameStartTime(ctx, c.Moderator, c.GameUUID, c.StartTime.UTC(), now)
	case *PostGameResultsCommand:
		return reg.Games.PostGameResults(ctx, c.Moderator, c.GameUUID, c.Wincases, now)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

// normalize turns value commands into the pointer form DecodeCommand produces
func normalize(cmd Command) Command {
	switch c := cmd.(type) {
	case CreateGameCommand:
		return &c
	case PostBetCommand:
		return &c
	case CancelPendingBetsCommand:
		return &c
	case CancelGameCommand:
		return &c
	case UpdateGameMarketsCommand:
		return &c
	case UpdateGameStartTimeCommand:
		return &c
	case PostGameResultsCommand:
		return &c
	case BlockCommand:
		return &c
	}
	return cmd
}

// applyBlock moves head block time forward and runs the scheduler at the new time
func (p *CommandProcessor) applyBlock(ctx context.Context, uow interfaces.UnitOfWork, props *entities.GlobalProperties, blockTime time.Time) error {
	blockTime = blockTime.UTC()
	if blockTime.Before(props.HeadBlockTime) {
		return entities.NewValidationError("block time %s is before head block time %s",
			blockTime.Format(time.RFC3339), props.HeadBlockTime.Format(time.RFC3339))
	}

	props.HeadBlockNum++
	props.HeadBlockTime = blockTime
	if err := uow.GlobalPropertiesRepository().Update(ctx, props); err != nil {
		return err
	}

	reg := services.NewRegistry(uow, blockTime)
	return reg.Scheduler.ProcessBlock(ctx, blockTime)
}

// HandleMessage decodes and applies one wire command. Rejected commands are
// logged and acknowledged; only malformed input and fatal errors are returned.
func (p *CommandProcessor) HandleMessage(ctx context.Context, data []byte) error {
	cmd, err := DecodeCommand(data)
	if err != nil {
		return err
	}

	err = p.Apply(ctx, cmd)
	switch {
	case err == nil:
		log.WithField("command", cmd.CommandType()).Debug("Command applied")
		return nil
	case IsFatal(err):
		log.WithFields(log.Fields{
			"command": cmd.CommandType(),
			"error":   err,
		}).Error("Engine consistency violation")
		return err
	default:
		log.WithFields(log.Fields{
			"command": cmd.CommandType(),
			"error":   err,
		}).Warn("Command rejected")
		return nil
	}
}

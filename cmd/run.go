package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"oddsmatch/admin"
	"oddsmatch/application"
	"oddsmatch/config"
	"oddsmatch/database"
	"oddsmatch/domain/interfaces"
	"oddsmatch/events"
	"oddsmatch/infrastructure"
	"oddsmatch/repository"
	"oddsmatch/repository/memory"

	log "github.com/sirupsen/logrus"
)

// engine holds the wired command path shared by run and replay
type engine struct {
	bus        *events.Bus
	uowFactory interfaces.UnitOfWorkFactory
	metrics    *infrastructure.EngineMetrics
	processor  *application.CommandProcessor
	queries    *application.QueryService
	db         *database.DB
}

func (e *engine) Close() {
	if e.db != nil {
		log.Info("Closing database connection...")
		e.db.Close()
	}
}

// ConfigureLogging applies the configured logrus level and format
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func openEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	e := &engine{
		bus:     events.NewBus(),
		metrics: infrastructure.NewEngineMetrics(),
	}
	e.metrics.Attach(e.bus)

	switch cfg.StoreBackend {
	case config.StorePostgres:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		e.db = db
		e.uowFactory = repository.NewUnitOfWorkFactory(db, e.bus)
	default:
		log.Info("Using in-memory store")
		e.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore(), e.bus)
	}

	e.processor = application.NewCommandProcessor(e.uowFactory).WithMetrics(e.metrics)
	e.queries = application.NewQueryService(e.uowFactory)

	if err := application.SeedBalances(ctx, e.uowFactory, cfg.InitialBalances); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to seed initial balances: %w", err)
	}
	return e, nil
}

// fatalGuard stops the process when a command reports a consistency violation
type fatalGuard struct {
	processor *application.CommandProcessor
}

func (g fatalGuard) HandleMessage(ctx context.Context, data []byte) error {
	err := g.processor.HandleMessage(ctx, data)
	if application.IsFatal(err) {
		log.WithError(err).Fatal("Engine state is inconsistent, stopping")
	}
	return err
}

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"store":       cfg.StoreBackend,
	}).Info("Starting oddsmatch...")

	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	if cfg.NATSEnabled {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := publisher.EnsureEventStream(natsClient); err != nil {
			return err
		}
		publisher.Attach(e.bus)

		subscriber := infrastructure.NewNATSCommandSubscriber(natsClient, cfg.CommandSubject, fatalGuard{processor: e.processor})
		if err := subscriber.Start(ctx); err != nil {
			return fmt.Errorf("failed to start command subscriber: %w", err)
		}
	} else {
		log.Info("NATS disabled, commands are accepted over the admin API only")
	}

	server := admin.NewServer(e.queries, e.metrics.Registry()).
		WithCommands(e.processor, func(err error) {
			log.WithError(err).Fatal("Engine state is inconsistent, stopping")
		})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.AdminListenAddr)
	}()

	log.Info("Engine is running")
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("admin server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	server.Stop()
	return nil
}

// Replay applies a command log to a fresh engine and prints the final state
func Replay(ctx context.Context, path string) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open command log: %w", err)
	}
	defer file.Close()

	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := application.Replay(ctx, e.processor, file)
	if err != nil {
		return err
	}

	props, err := e.queries.Properties(ctx)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"applied":       result.Applied,
		"rejected":      result.Rejected,
		"headBlockNum":  props.HeadBlockNum,
		"headBlockTime": props.HeadBlockTime,
		"pendingVolume": props.Stats.PendingBetsVolume,
		"matchedVolume": props.Stats.MatchedBetsVolume,
	}).Info("Replay complete")

	accounts, err := e.queries.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		fmt.Printf("%s\t%d\n", account.Name, account.Balance)
	}
	return nil
}

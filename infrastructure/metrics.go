package infrastructure

import (
	"context"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	eventbus "oddsmatch/events"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics collects and exposes betting engine Prometheus metrics
type EngineMetrics struct {
	registry *prometheus.Registry

	BetsPlaced      *prometheus.CounterVec
	StakePlaced     prometheus.Counter
	BetsMatched     prometheus.Counter
	MatchedStake    prometheus.Counter
	BetsCancelled   *prometheus.CounterVec
	BetsResolved    *prometheus.CounterVec
	Payouts         prometheus.Counter
	GameTransitions *prometheus.CounterVec
	BalanceChanges  *prometheus.CounterVec

	PendingVolume prometheus.Gauge
	MatchedVolume prometheus.Gauge
	HeadBlockNum  prometheus.Gauge

	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
}

// NewEngineMetrics creates and registers the engine metrics on a private registry
func NewEngineMetrics() *EngineMetrics {
	m := &EngineMetrics{
		registry: prometheus.NewRegistry(),

		BetsPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_bets_placed_total",
				Help: "Total number of bets accepted",
			},
			[]string{"live"},
		),
		StakePlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsmatch_stake_placed_total",
			Help: "Total stake debited for accepted bets",
		}),
		BetsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsmatch_bets_matched_total",
			Help: "Total number of matched bets created",
		}),
		MatchedStake: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsmatch_matched_stake_total",
			Help: "Total stake committed to matched bets",
		}),
		BetsCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_bets_cancelled_total",
				Help: "Bets leaving the engine without settlement",
			},
			[]string{"kind", "source"},
		),
		BetsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_bets_resolved_total",
				Help: "Matched bets settled",
			},
			[]string{"outcome"},
		),
		Payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsmatch_payouts_total",
			Help: "Total amount paid out at settlement",
		}),
		GameTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_game_transitions_total",
				Help: "Game lifecycle transitions",
			},
			[]string{"status"},
		),
		BalanceChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_balance_changes_total",
				Help: "Ledger balance changes",
			},
			[]string{"type"},
		),
		PendingVolume: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oddsmatch_pending_bets_volume",
			Help: "Stake currently held in pending bets",
		}),
		MatchedVolume: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oddsmatch_matched_bets_volume",
			Help: "Stake currently held in matched bets",
		}),
		HeadBlockNum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oddsmatch_head_block_num",
			Help: "Number of the last applied block",
		}),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsmatch_commands_total",
				Help: "Commands applied",
			},
			[]string{"type", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddsmatch_command_duration_seconds",
				Help:    "Time spent applying a command",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"type"},
		),
	}

	m.registry.MustRegister(
		m.BetsPlaced,
		m.StakePlaced,
		m.BetsMatched,
		m.MatchedStake,
		m.BetsCancelled,
		m.BetsResolved,
		m.Payouts,
		m.GameTransitions,
		m.BalanceChanges,
		m.PendingVolume,
		m.MatchedVolume,
		m.HeadBlockNum,
		m.Commands,
		m.CommandDuration,
	)
	return m
}

// Registry returns the prometheus registry
func (m *EngineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Attach counts every event the bus delivers
func (m *EngineMetrics) Attach(bus *eventbus.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		m.RecordEvent(event)
	})
}

// RecordEvent updates the counters for one committed event
func (m *EngineMetrics) RecordEvent(event events.Event) {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		live := "false"
		if e.Live {
			live = "true"
		}
		m.BetsPlaced.WithLabelValues(live).Inc()
		m.StakePlaced.Add(float64(e.Stake))
	case events.BetMatchedEvent:
		m.BetsMatched.Inc()
		m.MatchedStake.Add(float64(e.MatchedStake1) + float64(e.MatchedStake2))
	case events.BetCancelledEvent:
		m.BetsCancelled.WithLabelValues(string(e.Kind), string(e.Source)).Inc()
	case events.BetResolvedEvent:
		m.BetsResolved.WithLabelValues(string(e.Outcome)).Inc()
		m.Payouts.Add(float64(e.Payout))
	case events.GameStatusChangedEvent:
		m.GameTransitions.WithLabelValues(string(e.NewStatus)).Inc()
	case events.BalanceChangeEvent:
		m.BalanceChanges.WithLabelValues(string(e.TransactionType)).Inc()
	}
}

// RecordCommand records the outcome and latency of one command
func (m *EngineMetrics) RecordCommand(commandType string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "rejected"
	}
	m.Commands.WithLabelValues(commandType, status).Inc()
	m.CommandDuration.WithLabelValues(commandType).Observe(duration.Seconds())
}

// UpdateState sets the gauges from the committed global properties
func (m *EngineMetrics) UpdateState(props *entities.GlobalProperties) {
	m.PendingVolume.Set(float64(props.Stats.PendingBetsVolume))
	m.MatchedVolume.Set(float64(props.Stats.MatchedBetsVolume))
	m.HeadBlockNum.Set(float64(props.HeadBlockNum))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crowdfund_dao/automation"
	"crowdfund_dao/config"
	"crowdfund_dao/contract"
	"crowdfund_dao/contract/dao"
	"crowdfund_dao/eventbus"
	"crowdfund_dao/metrics"
	"crowdfund_dao/sdk"
	"crowdfund_dao/store/sqlite"
)

// app wires the engine to its state, ledger and sinks.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *sqlite.Store
	engine    *contract.Contract
	registry  *prometheus.Registry
	collector *metrics.Collector
	natsConn  *nats.Conn
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}

	var state sdk.State
	if cfg.StatePath == "" {
		logger.Warn("state_path is empty, state lives in memory only")
		state = sdk.NewMemoryState()
	} else {
		store, err := sqlite.Open(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		a.store = store
		state = store
	}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.collector, err = metrics.New(a.registry, a.treasuryBalance)
	if err != nil {
		a.Close()
		return nil, err
	}
	sinks := []contract.Sink{a.collector}

	if cfg.NATS.URL != "" {
		conn, sink, err := eventbus.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.natsConn = conn
		sinks = append(sinks, sink)
		logger.Info("publishing events to nats", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
	}

	a.engine, err = contract.New(state, sdk.JournalLedger{Logger: logger}, engineCfg,
		contract.WithLogger(logger),
		contract.WithSinks(sinks...),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.bootstrapTrigger(ctx, engineCfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// bootstrapTrigger registers the configured poller identity when no trigger is set yet.
func (a *app) bootstrapTrigger(ctx context.Context, cfg dao.Config) error {
	identity := sdk.Address(a.cfg.Automation.Identity).Normalize()
	if identity.IsZero() {
		return nil
	}
	current, err := a.engine.AutomationTrigger(ctx)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		if current != identity {
			a.logger.Warn("configured automation identity differs from the registered trigger",
				"configured", identity.String(), "registered", current.String())
		}
		return nil
	}
	env := sdk.Env{Caller: cfg.Owner}
	if err := a.engine.SetAutomationTrigger(ctx, env, identity); err != nil {
		return fmt.Errorf("register automation trigger: %w", err)
	}
	return nil
}

// poller acts as the configured identity, falling back to the owner.
func (a *app) poller() *automation.Poller {
	identity := sdk.Address(a.cfg.Automation.Identity)
	if identity.IsZero() {
		identity = sdk.Address(a.cfg.DAO.Owner)
	}
	return automation.New(a.engine, identity,
		automation.WithLogger(a.logger),
		automation.WithObserver(a.collector),
	)
}

func (a *app) treasuryBalance() float64 {
	if a.engine == nil {
		return 0
	}
	bal, err := a.engine.GetTreasuryBalance(context.Background())
	if err != nil {
		return 0
	}
	return dao.AmountToFloat(bal)
}

func (a *app) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

func (a *app) ready(ctx context.Context) error {
	if a.store != nil {
		if err := a.store.Ping(ctx); err != nil {
			return fmt.Errorf("state store: %w", err)
		}
	}
	if a.natsConn != nil && !a.natsConn.IsConnected() {
		return fmt.Errorf("nats disconnected")
	}
	return nil
}

func (a *app) Close() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("drain nats", "err", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close state store", "err", err)
		}
	}
}

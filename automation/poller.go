// Package automation runs the ShouldAct/Act polling loop on a cron schedule.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// Engine is the slice of the contract the poller drives.
type Engine interface {
	ShouldAct(ctx context.Context, now int64) (bool, []uint64, error)
	Act(ctx context.Context, env sdk.Env, ids []uint64) (dao.ActReport, error)
}

// Observer is told about every pass that reached Act.
type Observer interface {
	ObserveAct(report dao.ActReport)
}

type Poller struct {
	engine   Engine
	identity sdk.Address
	clock    func() time.Time
	logger   *slog.Logger
	observer Observer

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Poller)

func WithClock(clock func() time.Time) Option {
	return func(p *Poller) { p.clock = clock }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

func WithObserver(o Observer) Option {
	return func(p *Poller) { p.observer = o }
}

// New builds a poller that calls Act as identity.
func New(engine Engine, identity sdk.Address, opts ...Option) *Poller {
	p := &Poller{
		engine:   engine,
		identity: identity.Normalize(),
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce performs a single pass: ask which proposals are due, then act on them.
func (p *Poller) RunOnce(ctx context.Context) (dao.ActReport, error) {
	now := p.clock().Unix()
	needed, ids, err := p.engine.ShouldAct(ctx, now)
	if err != nil {
		return dao.ActReport{}, fmt.Errorf("should act: %w", err)
	}
	if !needed {
		return dao.ActReport{}, nil
	}
	env := sdk.Env{Caller: p.identity, Timestamp: now, TxID: uuid.NewString()}
	report, err := p.engine.Act(ctx, env, ids)
	if p.observer != nil {
		p.observer.ObserveAct(report)
	}
	if err != nil {
		return report, fmt.Errorf("act: %w", err)
	}
	p.logger.InfoContext(ctx, "automation pass",
		"candidates", len(ids),
		"paid", len(report.Paid),
		"skipped", len(report.Skipped),
		"tx", env.TxID,
	)
	for _, s := range report.Skipped {
		p.logger.DebugContext(ctx, "proposal not settled", "proposal", s.ProposalID, "reason", string(s.Reason))
	}
	return report, nil
}

// Start schedules RunOnce with a cron spec such as "@every 30s". Overlapping passes are
// skipped. The schedule stops when ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context, schedule string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return fmt.Errorf("poller already started")
	}
	logger := cronLogger{l: p.logger}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := p.RunOnce(ctx); err != nil {
			p.logger.ErrorContext(ctx, "automation pass failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	p.cron = c
	c.Start()
	p.logger.Info("automation poller started", "schedule", schedule, "identity", p.identity.String())

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

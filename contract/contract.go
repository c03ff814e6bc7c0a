// Package contract is the crowdfund DAO engine: contributions, roles, proposals,
// voting, settlement and the automation trigger, all persisted through sdk.State.
package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// Contract serializes every operation over one State. Mutating operations run inside
// a write overlay that is committed in a single State.Commit or thrown away.
type Contract struct {
	mu     sync.RWMutex
	state  sdk.State
	ledger sdk.Ledger
	cfg    dao.Config
	logger *slog.Logger
	sinks  []Sink
	txIDs  func() string
}

// Option tweaks a Contract at construction.
type Option func(*Contract)

func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSinks registers receivers for committed events.
func WithSinks(sinks ...Sink) Option {
	return func(c *Contract) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithTxIDs replaces the generator used when an Env arrives without a TxID.
func WithTxIDs(gen func() string) Option {
	return func(c *Contract) {
		if gen != nil {
			c.txIDs = gen
		}
	}
}

// New opens the engine on state. The first call deploys cfg; later calls must pass the
// same config, since owner, fee and voting rules are fixed at deployment.
func New(state sdk.State, ledger sdk.Ledger, cfg dao.Config, opts ...Option) (*Contract, error) {
	if state == nil {
		return nil, errors.New("state is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	cfg.Owner = cfg.Owner.Normalize()
	cfg.FeeRecipient = cfg.FeeRecipient.Normalize()
	if cfg.Asset == "" {
		cfg.Asset = sdk.AssetHive
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Contract{
		state:  state,
		ledger: ledger,
		cfg:    cfg,
		logger: slog.Default(),
		txIDs:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	stored, err := loadConfig(state)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if *stored != cfg {
			return nil, fmt.Errorf("%w: deployed owner %s", ErrConfigMismatch, stored.Owner)
		}
		return c, nil
	}

	b := sdk.NewBatch(state)
	saveConfig(b, &cfg)
	owner := &dao.Member{Address: cfg.Owner, GrantedOwner: true}
	saveMember(b, owner)
	saveTreasury(b, &dao.Treasury{})
	if err := b.Flush(); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	c.logger.Info("dao deployed",
		"owner", cfg.Owner.String(),
		"dao_percentage", cfg.DaoPercentage,
		"threshold", cfg.StakeholderThreshold.String(),
		"quorum", cfg.QuorumPercent,
		"quorum_mode", cfg.QuorumMode.String(),
		"contribution_rule", cfg.ContributionRule.String(),
	)
	return c, nil
}

// Config returns the deployment config.
func (c *Contract) Config() dao.Config {
	return c.cfg
}

// unit is one atomic slice of work: an overlay, the env it runs under and the events
// it produced. Nested units layer over their parent's overlay.
type unit struct {
	b      *sdk.Batch
	env    sdk.Env
	events []dao.Event
}

func (u *unit) now() int64 { return u.env.Timestamp }

type unitKey struct{}

type inflight struct {
	c *Contract
	u *unit
}

// inflight returns the unit whose transfer is in progress when ctx came from inside a
// payout. Calls made from there join that unit instead of waiting on the lock.
func (c *Contract) inflight(ctx context.Context) *unit {
	f, ok := ctx.Value(unitKey{}).(inflight)
	if !ok || f.c != c {
		return nil
	}
	return f.u
}

func (c *Contract) withUnit(ctx context.Context, u *unit) context.Context {
	return context.WithValue(ctx, unitKey{}, inflight{c: c, u: u})
}

// exec runs fn atomically. Errors discard every write fn made.
func (c *Contract) exec(ctx context.Context, env sdk.Env, fn func(ctx context.Context, u *unit) error) error {
	if parent := c.inflight(ctx); parent != nil {
		return c.nested(ctx, parent, env, fn)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run(ctx, env, fn)
}

// run opens a top-level unit, commits it and publishes its events. Caller holds mu.
func (c *Contract) run(ctx context.Context, env sdk.Env, fn func(ctx context.Context, u *unit) error) error {
	u, err := c.begin(env)
	if err != nil {
		return err
	}
	if err := fn(c.withUnit(ctx, u), u); err != nil {
		return err
	}
	if err := u.b.Flush(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.publish(ctx, u.events)
	return nil
}

// nested runs fn over a child overlay of parent and folds it in on success.
func (c *Contract) nested(ctx context.Context, parent *unit, env sdk.Env, fn func(ctx context.Context, u *unit) error) error {
	child := &unit{
		b: sdk.NewBatch(parent.b),
		env: sdk.Env{
			Caller:    env.Caller.Normalize(),
			Timestamp: parent.env.Timestamp,
			TxID:      parent.env.TxID,
		},
	}
	if err := fn(c.withUnit(ctx, child), child); err != nil {
		return err
	}
	if err := child.b.Flush(); err != nil {
		return err
	}
	parent.events = append(parent.events, child.events...)
	return nil
}

// begin fixes the clock for the operation: never earlier than anything already committed.
func (c *Contract) begin(env sdk.Env) (*unit, error) {
	b := sdk.NewBatch(c.state)
	hw, err := loadClock(b)
	if err != nil {
		return nil, err
	}
	now := env.Timestamp
	if now > math.MaxInt64-c.cfg.VotingPeriodSeconds {
		return nil, fmt.Errorf("%w: timestamp %d leaves no room for a voting period", ErrInvalidArgument, now)
	}
	if now < hw {
		now = hw
	} else if now > hw {
		saveClock(b, now)
	}
	txID := env.TxID
	if txID == "" {
		txID = c.txIDs()
	}
	return &unit{
		b: b,
		env: sdk.Env{
			Caller:    env.Caller.Normalize(),
			Timestamp: now,
			TxID:      txID,
		},
	}, nil
}

// view runs a read-only fn against committed state, or against the in-flight overlay
// when called from inside a payout.
func (c *Contract) view(ctx context.Context, fn func(r reader) error) error {
	if u := c.inflight(ctx); u != nil {
		return fn(u.b)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.state)
}

// clampNow applies the committed high-water mark to a caller-supplied clock reading.
func clampNow(r reader, now int64) (int64, error) {
	hw, err := loadClock(r)
	if err != nil {
		return 0, err
	}
	if now < hw {
		return hw, nil
	}
	return now, nil
}

package contract

import (
	"context"
	"errors"
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// ShouldAct lists every unpaid proposal whose deadline has passed at now. It does not
// judge quorum or majority; Act re-checks the full predicate per candidate.
func (c *Contract) ShouldAct(ctx context.Context, now int64) (bool, []uint64, error) {
	var ids []uint64
	err := c.view(ctx, func(r reader) error {
		now, err := clampNow(r, now)
		if err != nil {
			return err
		}
		n, err := getCount(r, ProposalsCount)
		if err != nil {
			return err
		}
		for id := uint64(0); id < n; id++ {
			p, err := loadProposal(r, id)
			if err != nil {
				return err
			}
			if !p.Paid && now >= p.VotingDeadline {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return len(ids) > 0, ids, nil
}

// authorizeAct is a no-op unless acting is restricted to the trigger and owners.
func (c *Contract) authorizeAct(r reader, caller sdk.Address) error {
	if !c.cfg.RestrictActToTrigger {
		return nil
	}
	trigger, err := loadTrigger(r)
	if err != nil {
		return err
	}
	if !trigger.IsZero() && caller == trigger {
		return nil
	}
	if err := requireOwner(r, caller); err != nil {
		return fmt.Errorf("%w: only the automation trigger or an owner may act", ErrNotAuthorized)
	}
	return nil
}

// Act settles each candidate independently: one candidate failing its predicate or
// its transfer never blocks the others. Each settlement commits on its own.
// Example payload: Act(ctx, env, []uint64{0, 3})
func (c *Contract) Act(ctx context.Context, env sdk.Env, ids []uint64) (dao.ActReport, error) {
	var report dao.ActReport
	caller := env.Caller.Normalize()
	if env.TxID == "" {
		env.TxID = c.txIDs()
	}

	step := func(runOne func(fn func(ctx context.Context, u *unit) error) error, id uint64) error {
		var (
			payout dao.Payout
			reason dao.SkipReason
		)
		err := runOne(func(ctx context.Context, u *unit) error {
			var err error
			payout, reason, err = c.settle(ctx, u, id)
			return err
		})
		switch {
		case errors.Is(err, errTransferFailed):
			report.Skipped = append(report.Skipped, dao.Skip{ProposalID: id, Reason: dao.SkipTransferFailed})
		case err != nil:
			return fmt.Errorf("settle proposal %d: %w", id, err)
		case reason != "":
			report.Skipped = append(report.Skipped, dao.Skip{ProposalID: id, Reason: reason})
		default:
			report.Paid = append(report.Paid, payout)
		}
		return nil
	}

	if parent := c.inflight(ctx); parent != nil {
		if err := c.authorizeAct(parent.b, caller); err != nil {
			return report, err
		}
		for _, id := range ids {
			err := step(func(fn func(ctx context.Context, u *unit) error) error {
				return c.nested(ctx, parent, env, fn)
			}, id)
			if err != nil {
				return report, err
			}
		}
		return report, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.authorizeAct(c.state, caller); err != nil {
		return report, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := step(func(fn func(ctx context.Context, u *unit) error) error {
			return c.run(ctx, env, fn)
		}, id)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

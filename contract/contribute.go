package contract

import (
	"context"
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// Contribute adds amount to the caller's cumulative contribution and to the treasury.
// Repeated calls accumulate. The returned member reflects the post-contribution state.
// Example payload: Contribute(ctx, env, dao.FloatToAmount(1))
func (c *Contract) Contribute(ctx context.Context, env sdk.Env, amount dao.Amount) (dao.Member, error) {
	var out dao.Member
	if amount <= 0 {
		return out, fmt.Errorf("%w: amount must be positive, got %s", ErrInsufficientContribution, amount)
	}
	err := c.exec(ctx, env, func(ctx context.Context, u *unit) error {
		caller := u.env.Caller
		if caller.IsZero() {
			return fmt.Errorf("%w: caller is required", ErrNotAuthorized)
		}
		m, err := loadMemberOrEmpty(u.b, caller)
		if err != nil {
			return err
		}
		if c.cfg.ContributionRule == dao.ContributionEntryFee && !m.IsContributor() && amount < c.cfg.StakeholderThreshold {
			return fmt.Errorf("%w: first contribution of %s is below the entry fee %s",
				ErrInsufficientContribution, amount, c.cfg.StakeholderThreshold)
		}

		t, err := loadTreasury(u.b)
		if err != nil {
			return err
		}
		// every member total is bounded by the pool total
		if t.Contributed+amount < t.Contributed {
			return fmt.Errorf("%w: contribution overflows the treasury", ErrInvalidAmount)
		}
		if !m.CanVote() {
			t.VoterCount++
		}
		addTreasuryFunds(t, amount)

		m.Contributed += amount
		if m.JoinedAt == 0 {
			m.JoinedAt = u.now()
		}
		m.LastActionAt = u.now()
		saveMember(u.b, m)
		saveTreasury(u.b, t)
		out = *m
		return u.emit(dao.Event{
			Kind:   dao.EventContribution,
			Actor:  caller,
			Amount: amount,
		})
	})
	if err != nil {
		return dao.Member{}, err
	}
	return out, nil
}

package contract

import (
	"context"

	"crowdfund_dao/contract/dao"
)

// GetTreasury returns the pool aggregate including lifetime totals.
func (c *Contract) GetTreasury(ctx context.Context) (dao.Treasury, error) {
	var out dao.Treasury
	err := c.view(ctx, func(r reader) error {
		t, err := loadTreasury(r)
		if err != nil {
			return err
		}
		out = *t
		return nil
	})
	return out, err
}

// GetTreasuryBalance is the current pool balance.
func (c *Contract) GetTreasuryBalance(ctx context.Context) (dao.Amount, error) {
	t, err := c.GetTreasury(ctx)
	return t.Balance, err
}

// GetDaoPercentage is the fee share kept from every payout.
func (c *Contract) GetDaoPercentage() uint32 {
	return c.cfg.DaoPercentage
}

// GetStakeholderFee is the contribution threshold for stakeholder status.
func (c *Contract) GetStakeholderFee() dao.Amount {
	return c.cfg.StakeholderThreshold
}

// Now returns the logical clock high-water mark.
func (c *Contract) Now(ctx context.Context) (int64, error) {
	var ts int64
	err := c.view(ctx, func(r reader) error {
		var err error
		ts, err = loadClock(r)
		return err
	})
	return ts, err
}

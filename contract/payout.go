package contract

import (
	"context"
	"errors"
	"math/bits"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// errTransferFailed unwinds a settlement whose ledger transfer was refused.
var errTransferFailed = errors.New("transfer failed")

// meetsPercent reports part*100 >= whole*pct using 128-bit products.
func meetsPercent(part, whole uint64, pct uint32) bool {
	hiA, loA := bits.Mul64(part, 100)
	hiB, loB := bits.Mul64(whole, uint64(pct))
	if hiA != hiB {
		return hiA > hiB
	}
	return loA >= loB
}

func nonNegative(a dao.Amount) uint64 {
	if a < 0 {
		return 0
	}
	return uint64(a)
}

// quorumMet checks participation against the configured mode. Zero quorum always passes.
func quorumMet(cfg *dao.Config, p *dao.Proposal, t *dao.Treasury) bool {
	if cfg.QuorumPercent == 0 {
		return true
	}
	if cfg.QuorumMode == dao.QuorumByStake {
		return meetsPercent(nonNegative(p.VotedStake), nonNegative(t.Contributed), cfg.QuorumPercent)
	}
	return meetsPercent(p.VotesCast(), t.VoterCount, cfg.QuorumPercent)
}

// feeSplit floors the dao share; the recipient gets the rest.
func feeSplit(amount dao.Amount, pct uint32) (fee, net dao.Amount) {
	hi, lo := bits.Mul64(nonNegative(amount), uint64(pct))
	q, _ := bits.Div64(hi, lo, 100)
	fee = dao.Amount(q)
	return fee, amount - fee
}

// eligibility evaluates the settlement predicate without touching state.
func eligibility(cfg *dao.Config, p *dao.Proposal, t *dao.Treasury, now int64) dao.SkipReason {
	switch {
	case p.Paid:
		return dao.SkipAlreadyPaid
	case now < p.VotingDeadline:
		return dao.SkipVotingOpen
	case !quorumMet(cfg, p, t):
		return dao.SkipNoQuorum
	case p.VotesFor <= p.VotesAgainst:
		return dao.SkipNoMajority
	}
	return ""
}

// settle pays proposal id if it is eligible right now. The paid flag, treasury debit and
// ProposalPaid event are written to the unit before any ledger call, so a re-entrant
// call made by the ledger already sees the proposal as paid. A refused transfer returns
// errTransferFailed and the caller discards the unit.
func (c *Contract) settle(ctx context.Context, u *unit, id uint64) (dao.Payout, dao.SkipReason, error) {
	p, err := loadProposal(u.b, id)
	if errors.Is(err, ErrProposalNotFound) {
		return dao.Payout{}, dao.SkipNotFound, nil
	}
	if err != nil {
		return dao.Payout{}, "", err
	}
	t, err := loadTreasury(u.b)
	if err != nil {
		return dao.Payout{}, "", err
	}
	if reason := eligibility(&c.cfg, p, t, u.now()); reason != "" {
		return dao.Payout{}, reason, nil
	}

	fee, net := feeSplit(p.RequestedAmount, c.cfg.DaoPercentage)
	retainFee := c.cfg.FeeRecipient.IsZero()
	debit := p.RequestedAmount
	if retainFee {
		debit = net
	}
	if !removeTreasuryFunds(t, debit) {
		return dao.Payout{}, dao.SkipInsufficientTreasury, nil
	}
	if retainFee {
		t.FeesRetained += fee
	}

	p.Paid = true
	p.PaidAt = u.now()
	p.Tx = u.env.TxID
	saveProposal(u.b, p)
	saveTreasury(u.b, t)
	if err := u.emit(dao.Event{
		Kind:       dao.EventProposalPaid,
		ProposalID: id,
		Actor:      u.env.Caller,
		Subject:    p.Recipient,
		Amount:     net,
		Fee:        fee,
	}); err != nil {
		return dao.Payout{}, "", err
	}

	if err := c.transfer(ctx, p.Recipient, net); err != nil {
		c.logger.WarnContext(ctx, "payout transfer failed", "proposal", id, "to", p.Recipient.String(), "amount", net.String(), "err", err)
		return dao.Payout{}, dao.SkipTransferFailed, errTransferFailed
	}
	if !retainFee && fee > 0 {
		if err := c.transfer(ctx, c.cfg.FeeRecipient, fee); err != nil {
			// the recipient is already paid, so keep the fee in the pool instead of unwinding
			c.logger.WarnContext(ctx, "fee transfer failed, retaining fee", "proposal", id, "fee", fee.String(), "err", err)
			cur, err := loadTreasury(u.b)
			if err != nil {
				return dao.Payout{}, "", err
			}
			cur.Balance += fee
			cur.PaidOut -= fee
			cur.FeesRetained += fee
			saveTreasury(u.b, cur)
		}
	}
	return dao.Payout{ProposalID: id, Recipient: p.Recipient, Net: net, Fee: fee}, "", nil
}

func (c *Contract) transfer(ctx context.Context, to sdk.Address, amount dao.Amount) error {
	if amount <= 0 {
		return nil
	}
	return c.ledger.Transfer(ctx, to, dao.AmountToInt64(amount), c.cfg.Asset)
}

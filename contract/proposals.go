package contract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// -----------------------------------------------------------------------------
// Create Proposal
// -----------------------------------------------------------------------------

func validateProposalArgs(args *dao.CreateProposalArgs) error {
	args.Title = strings.TrimSpace(args.Title)
	args.Recipient = args.Recipient.Normalize()
	switch {
	case args.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	case utf8.RuneCountInString(args.Title) > MaxTitleLength:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidArgument, MaxTitleLength)
	case utf8.RuneCountInString(args.Description) > MaxDescriptionLength:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidArgument, MaxDescriptionLength)
	case args.Recipient.IsZero():
		return fmt.Errorf("%w: recipient is required", ErrInvalidArgument)
	case args.Amount <= 0:
		return fmt.Errorf("%w: requested amount must be positive", ErrInvalidAmount)
	}
	return nil
}

// CreateProposal stores a new Active proposal under the next sequential id. Only
// stakeholders may propose. The treasury is not consulted here; an unfunded request
// is discovered at settlement.
// Example payload: CreateProposal(ctx, env, dao.CreateProposalArgs{Title: "Pay devs", Recipient: "hive:dev", Amount: dao.FloatToAmount(1)})
func (c *Contract) CreateProposal(ctx context.Context, env sdk.Env, args dao.CreateProposalArgs) (uint64, error) {
	var id uint64
	err := c.exec(ctx, env, func(ctx context.Context, u *unit) error {
		caller := u.env.Caller
		m, err := loadMemberOrEmpty(u.b, caller)
		if err != nil {
			return err
		}
		if caller.IsZero() || !m.IsStakeholder(c.cfg.StakeholderThreshold) {
			return fmt.Errorf("%w: %s is not a stakeholder", ErrNotAuthorized, caller)
		}
		if err := validateProposalArgs(&args); err != nil {
			return err
		}
		id, err = getCount(u.b, ProposalsCount)
		if err != nil {
			return err
		}
		p := &dao.Proposal{
			ID:              id,
			Title:           args.Title,
			Description:     args.Description,
			Proposer:        caller,
			Recipient:       args.Recipient,
			RequestedAmount: args.Amount,
			CreatedAt:       u.now(),
			VotingDeadline:  u.now() + c.cfg.VotingPeriodSeconds,
			Tx:              u.env.TxID,
		}
		saveProposal(u.b, p)
		setCount(u.b, ProposalsCount, id+1)
		m.LastActionAt = u.now()
		saveMember(u.b, m)
		return u.emit(dao.Event{
			Kind:        dao.EventProposalCreated,
			ProposalID:  id,
			Actor:       caller,
			Subject:     p.Recipient,
			Amount:      p.RequestedAmount,
			Title:       p.Title,
			Description: p.Description,
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// GetProposal fails with ErrProposalNotFound for ids never assigned.
func (c *Contract) GetProposal(ctx context.Context, id uint64) (dao.Proposal, error) {
	var out dao.Proposal
	err := c.view(ctx, func(r reader) error {
		p, err := loadProposal(r, id)
		if err != nil {
			return err
		}
		out = *p
		return nil
	})
	return out, err
}

// ProposalCount is the number of ids assigned so far.
func (c *Contract) ProposalCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.view(ctx, func(r reader) error {
		var err error
		n, err = getCount(r, ProposalsCount)
		return err
	})
	return n, err
}

// ListProposals returns proposals in id order. Open means the deadline is still ahead
// of now; closed covers everything past it, paid or not.
func (c *Contract) ListProposals(ctx context.Context, now int64, filter dao.ProposalFilter) ([]dao.Proposal, error) {
	var out []dao.Proposal
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
			open := p.StateAt(now) == dao.ProposalActive
			switch filter {
			case dao.FilterOpen:
				if !open {
					continue
				}
			case dao.FilterClosed:
				if open {
					continue
				}
			}
			out = append(out, *p)
		}
		return nil
	})
	return out, err
}

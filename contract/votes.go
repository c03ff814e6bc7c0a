package contract

import (
	"context"
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// -----------------------------------------------------------------------------
// Voting
// -----------------------------------------------------------------------------

// VoteOnProposal records the caller's single ballot. Checks run in a fixed order:
// the proposal must exist, the caller must be a contributor or granted stakeholder,
// and the caller must not have voted on it before.
// Example payload: VoteOnProposal(ctx, env, 0, true)
func (c *Contract) VoteOnProposal(ctx context.Context, env sdk.Env, id uint64, support bool) error {
	return c.exec(ctx, env, func(ctx context.Context, u *unit) error {
		p, err := loadProposal(u.b, id)
		if err != nil {
			return err
		}
		voter := u.env.Caller
		m, err := loadMemberOrEmpty(u.b, voter)
		if err != nil {
			return err
		}
		if voter.IsZero() || !m.CanVote() {
			return fmt.Errorf("%w: %s has no voting rights", ErrNotAuthorized, voter)
		}
		if _, voted, err := loadVote(u.b, id, voter); err != nil {
			return err
		} else if voted {
			return fmt.Errorf("%w: %s on proposal %d", ErrAlreadyVoted, voter, id)
		}
		if p.Paid {
			return fmt.Errorf("%w: proposal %d is already paid", ErrVotingClosed, id)
		}
		if c.cfg.CloseVotingAtDeadline && u.now() >= p.VotingDeadline {
			return fmt.Errorf("%w: proposal %d deadline passed", ErrVotingClosed, id)
		}

		v := &dao.Vote{
			ProposalID: id,
			Voter:      voter,
			Support:    support,
			Weight:     m.Contributed,
			VotedAt:    u.now(),
		}
		saveVote(u.b, v)
		if support {
			p.VotesFor++
		} else {
			p.VotesAgainst++
		}
		p.VotedStake += v.Weight
		saveProposal(u.b, p)
		m.LastActionAt = u.now()
		saveMember(u.b, m)
		return u.emit(dao.Event{
			Kind:       dao.EventProposalVoted,
			ProposalID: id,
			Actor:      voter,
			Support:    support,
		})
	})
}

// GetVote returns the ballot of identity on proposal id; ok is false if none was cast.
func (c *Contract) GetVote(ctx context.Context, id uint64, identity sdk.Address) (dao.Vote, bool, error) {
	identity = identity.Normalize()
	var (
		out dao.Vote
		ok  bool
	)
	err := c.view(ctx, func(r reader) error {
		v, found, err := loadVote(r, id, identity)
		if err != nil || !found {
			return err
		}
		out, ok = *v, true
		return nil
	})
	return out, ok, err
}

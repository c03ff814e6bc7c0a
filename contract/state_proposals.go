package contract

import (
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

func loadProposal(r reader, id uint64) (*dao.Proposal, error) {
	ptr, err := r.Get(proposalKey(id))
	if err != nil {
		return nil, fmt.Errorf("read proposal %d: %w", id, err)
	}
	if ptr == nil || *ptr == "" {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	return dao.DecodeProposal([]byte(*ptr))
}

func saveProposal(b *sdk.Batch, p *dao.Proposal) {
	b.Set(proposalKey(p.ID), string(dao.EncodeProposal(p)))
}

// loadVote returns the stored ballot, or ok=false when the pair has not voted yet.
func loadVote(r reader, id uint64, voter sdk.Address) (*dao.Vote, bool, error) {
	ptr, err := r.Get(voteKey(id, voter))
	if err != nil {
		return nil, false, fmt.Errorf("read vote %d/%s: %w", id, voter, err)
	}
	if ptr == nil || *ptr == "" {
		return nil, false, nil
	}
	v, err := dao.DecodeVote([]byte(*ptr))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func saveVote(b *sdk.Batch, v *dao.Vote) {
	b.Set(voteKey(v.ProposalID, v.Voter), string(dao.EncodeVote(v)))
}

package api

import (
	"crowdfund_dao/contract/dao"
)

// Amounts cross the wire as decimal strings ("1.5") to avoid float drift.

type ContributeRequest struct {
	Amount string `json:"amount"`
}

type CreateProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
}

type VoteRequest struct {
	Support *bool `json:"support"`
}

type GrantRoleRequest struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

type SetTriggerRequest struct {
	Identity string `json:"identity"`
}

// ActRequest with no ids acts on whatever ShouldAct reports.
type ActRequest struct {
	IDs []uint64 `json:"ids"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type MemberView struct {
	Address       string `json:"address"`
	Contributed   string `json:"contributed"`
	IsContributor bool   `json:"is_contributor"`
	IsStakeholder bool   `json:"is_stakeholder"`
	IsOwner       bool   `json:"is_owner"`
	JoinedAt      int64  `json:"joined_at,omitempty"`
}

func memberView(m dao.Member, threshold dao.Amount) MemberView {
	return MemberView{
		Address:       m.Address.String(),
		Contributed:   m.Contributed.String(),
		IsContributor: m.IsContributor(),
		IsStakeholder: m.IsStakeholder(threshold),
		IsOwner:       m.GrantedOwner,
		JoinedAt:      m.JoinedAt,
	}
}

type ProposalView struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Proposer        string `json:"proposer"`
	Recipient       string `json:"recipient"`
	RequestedAmount string `json:"requested_amount"`
	CreatedAt       int64  `json:"created_at"`
	VotingDeadline  int64  `json:"voting_deadline"`
	VotesFor        uint64 `json:"votes_for"`
	VotesAgainst    uint64 `json:"votes_against"`
	Paid            bool   `json:"paid"`
	PaidAt          int64  `json:"paid_at,omitempty"`
	State           string `json:"state"`
}

func proposalView(p dao.Proposal, now int64) ProposalView {
	return ProposalView{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Proposer:        p.Proposer.String(),
		Recipient:       p.Recipient.String(),
		RequestedAmount: p.RequestedAmount.String(),
		CreatedAt:       p.CreatedAt,
		VotingDeadline:  p.VotingDeadline,
		VotesFor:        p.VotesFor,
		VotesAgainst:    p.VotesAgainst,
		Paid:            p.Paid,
		PaidAt:          p.PaidAt,
		State:           p.StateAt(now).String(),
	}
}

type TreasuryView struct {
	Balance           string `json:"balance"`
	Contributed       string `json:"contributed"`
	PaidOut           string `json:"paid_out"`
	FeesRetained      string `json:"fees_retained"`
	Voters            uint64 `json:"voters"`
	DaoPercentage     uint32 `json:"dao_percentage"`
	StakeholderFee    string `json:"stakeholder_fee"`
	AutomationTrigger string `json:"automation_trigger,omitempty"`
}

type ActView struct {
	Paid    []PayoutView `json:"paid"`
	Skipped []SkipView   `json:"skipped"`
}

type PayoutView struct {
	ProposalID uint64 `json:"proposal_id"`
	Recipient  string `json:"recipient"`
	Net        string `json:"net"`
	Fee        string `json:"fee"`
}

type SkipView struct {
	ProposalID uint64 `json:"proposal_id"`
	Reason     string `json:"reason"`
}

func actView(r dao.ActReport) ActView {
	out := ActView{Paid: []PayoutView{}, Skipped: []SkipView{}}
	for _, p := range r.Paid {
		out.Paid = append(out.Paid, PayoutView{
			ProposalID: p.ProposalID,
			Recipient:  p.Recipient.String(),
			Net:        p.Net.String(),
			Fee:        p.Fee.String(),
		})
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, SkipView{ProposalID: s.ProposalID, Reason: string(s.Reason)})
	}
	return out
}

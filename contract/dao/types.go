package dao

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"crowdfund_dao/sdk"
)

const AmountScale = 1000

// Amount is a fixed point currency value with AmountScale sub-units per unit.
type Amount int64

// FloatToAmount scales human floats by AmountScale and rounds to int64 so storage stays precise.
// Example payload: FloatToAmount(1.234)
func FloatToAmount(v float64) Amount {
	return Amount(math.Round(v * AmountScale))
}

// AmountToFloat converts back to float64 for reporting or events.
// Example payload: AmountToFloat(FloatToAmount(2.5))
func AmountToFloat(v Amount) float64 {
	return float64(v) / AmountScale
}

// AmountToInt64 exposes the raw scaled int64 for ledger transfer calls.
// Example payload: AmountToInt64(FloatToAmount(3.14))
func AmountToInt64(v Amount) int64 {
	return int64(v)
}

// String prints the amount with three decimals, e.g. "1.500".
func (a Amount) String() string {
	return strconv.FormatFloat(AmountToFloat(a), 'f', 3, 64)
}

// ParseAmount accepts "1.5" style decimals.
func ParseAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > float64(math.MaxInt64)/AmountScale {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	return FloatToAmount(f), nil
}

// Role is a grantable permission.
type Role uint8

const (
	RoleUnspecified Role = 0
	RoleOwner       Role = 1
	RoleStakeholder Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleStakeholder:
		return "stakeholder"
	default:
		return "unspecified"
	}
}

// ParseRole maps the lower-case role name back to the enum.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "stakeholder":
		return RoleStakeholder, nil
	default:
		return RoleUnspecified, fmt.Errorf("unknown role %q", s)
	}
}

// QuorumMode selects what the quorum percentage is measured against.
type QuorumMode uint8

const (
	// QuorumByVoters counts ballots against the number of identities allowed to vote.
	QuorumByVoters QuorumMode = 0
	// QuorumByStake weighs ballots by the voter's contribution against all contributions.
	QuorumByStake QuorumMode = 1
)

func (q QuorumMode) String() string {
	if q == QuorumByStake {
		return "stake"
	}
	return "voters"
}

func ParseQuorumMode(s string) (QuorumMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "voters":
		return QuorumByVoters, nil
	case "stake":
		return QuorumByStake, nil
	default:
		return QuorumByVoters, fmt.Errorf("unknown quorum mode %q", s)
	}
}

// ContributionRule decides which contributions are too small to accept.
type ContributionRule uint8

const (
	// ContributionCumulative accepts any positive amount; status follows the running total.
	ContributionCumulative ContributionRule = 0
	// ContributionEntryFee requires a newcomer's first contribution to cover the threshold.
	ContributionEntryFee ContributionRule = 1
)

func (c ContributionRule) String() string {
	if c == ContributionEntryFee {
		return "entry-fee"
	}
	return "cumulative"
}

func ParseContributionRule(s string) (ContributionRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cumulative":
		return ContributionCumulative, nil
	case "entry-fee", "entry_fee":
		return ContributionEntryFee, nil
	default:
		return ContributionCumulative, fmt.Errorf("unknown contribution rule %q", s)
	}
}

// Config is fixed at deployment and persisted with the rest of the state.
type Config struct {
	Owner                 sdk.Address
	DaoPercentage         uint32
	StakeholderThreshold  Amount
	VotingPeriodSeconds   int64
	QuorumPercent         uint32
	QuorumMode            QuorumMode
	ContributionRule      ContributionRule
	RestrictActToTrigger  bool
	CloseVotingAtDeadline bool
	FeeRecipient          sdk.Address
	Asset                 sdk.Asset
}

// Validate rejects configurations the engine cannot honour.
func (c Config) Validate() error {
	if c.Owner.IsZero() {
		return fmt.Errorf("owner is required")
	}
	if c.DaoPercentage > 100 {
		return fmt.Errorf("dao percentage must be within 0-100, got %d", c.DaoPercentage)
	}
	if c.QuorumPercent > 100 {
		return fmt.Errorf("quorum percentage must be within 0-100, got %d", c.QuorumPercent)
	}
	if c.StakeholderThreshold <= 0 {
		return fmt.Errorf("stakeholder threshold must be positive")
	}
	if c.VotingPeriodSeconds <= 0 {
		return fmt.Errorf("voting period must be positive")
	}
	if c.QuorumMode > QuorumByStake {
		return fmt.Errorf("unknown quorum mode %d", c.QuorumMode)
	}
	if c.ContributionRule > ContributionEntryFee {
		return fmt.Errorf("unknown contribution rule %d", c.ContributionRule)
	}
	return nil
}

// Member is keyed by address. The stakeholder and contributor flags are never stored;
// they are computed from Contributed so they cannot drift apart.
type Member struct {
	Address            sdk.Address
	Contributed        Amount
	JoinedAt           int64
	LastActionAt       int64
	GrantedOwner       bool
	GrantedStakeholder bool
}

// IsContributor reports a nonzero cumulative contribution.
func (m *Member) IsContributor() bool {
	return m.Contributed > 0
}

// IsStakeholder is true once the cumulative contribution reaches threshold, or after an
// explicit grant. Contributions only grow, so the flag never reverts.
func (m *Member) IsStakeholder(threshold Amount) bool {
	if m.GrantedStakeholder {
		return true
	}
	return m.Contributed > 0 && m.Contributed >= threshold
}

// CanVote is the voting-rights test: contributors and granted stakeholders.
func (m *Member) CanVote() bool {
	return m.IsContributor() || m.GrantedStakeholder
}

// ProposalState captures a proposal's lifecycle.
type ProposalState uint8

const (
	ProposalActive  ProposalState = 1
	ProposalExpired ProposalState = 2
	ProposalPaid    ProposalState = 3
)

// String prints the proposal state as lower-case text for events and logs.
// Example payload: dao.ProposalPaid.String()
func (ps ProposalState) String() string {
	switch ps {
	case ProposalActive:
		return "active"
	case ProposalExpired:
		return "expired"
	case ProposalPaid:
		return "paid"
	default:
		return "unspecified"
	}
}

type Proposal struct {
	ID              uint64
	Title           string
	Description     string
	Proposer        sdk.Address
	Recipient       sdk.Address
	RequestedAmount Amount
	CreatedAt       int64
	VotingDeadline  int64
	VotesFor        uint64
	VotesAgainst    uint64
	// VotedStake sums the contribution weight of every ballot for stake quorum.
	VotedStake Amount
	Paid       bool
	PaidAt     int64
	Tx         string
}

// StateAt derives the lifecycle state for the given clock reading.
func (p *Proposal) StateAt(now int64) ProposalState {
	switch {
	case p.Paid:
		return ProposalPaid
	case now < p.VotingDeadline:
		return ProposalActive
	default:
		return ProposalExpired
	}
}

// VotesCast is the total number of ballots recorded.
func (p *Proposal) VotesCast() uint64 {
	return p.VotesFor + p.VotesAgainst
}

// Vote is keyed by (proposal, voter) and written once.
type Vote struct {
	ProposalID uint64
	Voter      sdk.Address
	Support    bool
	Weight     Amount
	VotedAt    int64
}

// Treasury aggregates the pool. Balance == Contributed - PaidOut at all times.
type Treasury struct {
	Balance      Amount
	Contributed  Amount
	PaidOut      Amount
	FeesRetained Amount
	VoterCount   uint64
}

type CreateProposalArgs struct {
	Title       string
	Description string
	Recipient   sdk.Address
	Amount      Amount
}

// ProposalFilter mirrors the All / Open / Closed tabs of the proposal list.
type ProposalFilter string

const (
	FilterAll    ProposalFilter = "all"
	FilterOpen   ProposalFilter = "open"
	FilterClosed ProposalFilter = "closed"
)

func ParseProposalFilter(s string) (ProposalFilter, error) {
	switch ProposalFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterOpen:
		return FilterOpen, nil
	case FilterClosed:
		return FilterClosed, nil
	default:
		return FilterAll, fmt.Errorf("unknown proposal filter %q", s)
	}
}

// SkipReason explains why a candidate was not paid on this poll.
type SkipReason string

const (
	SkipNotFound             SkipReason = "not-found"
	SkipVotingOpen           SkipReason = "voting-open"
	SkipAlreadyPaid          SkipReason = "already-paid"
	SkipNoQuorum             SkipReason = "no-quorum"
	SkipNoMajority           SkipReason = "no-majority"
	SkipInsufficientTreasury SkipReason = "insufficient-treasury"
	SkipTransferFailed       SkipReason = "transfer-failed"
)

type Payout struct {
	ProposalID uint64
	Recipient  sdk.Address
	Net        Amount
	Fee        Amount
}

type Skip struct {
	ProposalID uint64
	Reason     SkipReason
}

// ActReport lists what one automation pass did with each candidate.
type ActReport struct {
	Paid    []Payout
	Skipped []Skip
}

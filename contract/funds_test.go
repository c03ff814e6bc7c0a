package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund_dao/contract"
	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// =============================================================================
// Settlement Scenarios
// =============================================================================

// TestPassingProposalIsPaidOnce walks the happy path from contribution to payout.
func TestPassingProposalIsPaidOnce(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someoneelse", id, true)

	ok, ids, err := ct.c.ShouldAct(ct.ctx, ct.now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ids)

	ct.passDeadline()
	ok, ids, err = ct.c.ShouldAct(ct.ctx, ct.now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []uint64{id}, ids)

	report := ct.act(ownerAddress, ids...)
	require.Len(t, report.Paid, 1)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, dao.Payout{
		ProposalID: id,
		Recipient:  "hive:recipient",
		Net:        dao.FloatToAmount(0.9),
		Fee:        dao.FloatToAmount(0.1),
	}, report.Paid[0])

	tr := ct.treasury()
	assert.Equal(t, dao.FloatToAmount(1.1), tr.Balance)
	assert.Equal(t, dao.FloatToAmount(0.9), tr.PaidOut)
	assert.Equal(t, dao.FloatToAmount(0.1), tr.FeesRetained)
	assert.Equal(t, int64(900), ct.ledger.Balance("hive:recipient"))

	p := ct.proposal(id)
	assert.True(t, p.Paid)
	assert.Equal(t, ct.now, p.PaidAt)
	assert.Equal(t, dao.ProposalPaid, p.StateAt(ct.now))

	paid := ct.eventsOf(dao.EventProposalPaid)
	require.Len(t, paid, 1)
	assert.Equal(t, "pp|id:0|to:hive:recipient|am:0.900|fee:0.100", paid[0].String())

	ok, _, err = ct.c.ShouldAct(ct.ctx, ct.now)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestProposalWithoutVotesIsNeverPaid checks that silence is not a majority.
func TestProposalWithoutVotesIsNeverPaid(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	assert.Empty(t, report.Paid)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipNoMajority}}, report.Skipped)
	assert.Equal(t, dao.FloatToAmount(2), ct.treasury().Balance)
	assert.Empty(t, ct.eventsOf(dao.EventProposalPaid))
	assert.Empty(t, ct.ledger.Transfers())
}

// TestTieIsNotAMajority checks strict majority.
func TestTieIsNotAMajority(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.vote("hive:someoneelse", id, false)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipNoMajority}}, report.Skipped)
	assert.False(t, ct.proposal(id).Paid)
}

// TestActBeforeDeadline checks that an open vote is never settled.
func TestActBeforeDeadline(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)

	report := ct.act(ownerAddress, id, 77)
	assert.Empty(t, report.Paid)
	assert.Equal(t, []dao.Skip{
		{ProposalID: id, Reason: dao.SkipVotingOpen},
		{ProposalID: 77, Reason: dao.SkipNotFound},
	}, report.Skipped)
}

// TestActIsIdempotent checks that a second poll cannot pay twice.
func TestActIsIdempotent(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	require.Len(t, ct.act(ownerAddress, id).Paid, 1)
	report := ct.act(ownerAddress, id, id)
	assert.Empty(t, report.Paid)
	assert.Equal(t, []dao.Skip{
		{ProposalID: id, Reason: dao.SkipAlreadyPaid},
		{ProposalID: id, Reason: dao.SkipAlreadyPaid},
	}, report.Skipped)
	assert.Len(t, ct.ledger.Transfers(), 1)
	assert.Len(t, ct.eventsOf(dao.EventProposalPaid), 1)
}

// TestCandidatesSettleIndependently checks that one bad candidate does not block another.
func TestCandidatesSettleIndependently(t *testing.T) {
	ct := SetupContractTest(t)
	big := ct.fundedProposal(50)
	small := ct.propose("hive:someone", "hive:recipient", 1)
	ct.vote("hive:someone", big, true)
	ct.vote("hive:someone", small, true)
	ct.passDeadline()

	report := ct.act(ownerAddress, big, small)
	require.Len(t, report.Paid, 1)
	assert.Equal(t, small, report.Paid[0].ProposalID)
	assert.Equal(t, []dao.Skip{{ProposalID: big, Reason: dao.SkipInsufficientTreasury}}, report.Skipped)

	ok, ids, err := ct.c.ShouldAct(ct.ctx, ct.now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []uint64{big}, ids)
}

// TestActStopsOnCancelledContext checks that a cancelled poll returns early.
func TestActStopsOnCancelledContext(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	ctx, cancel := context.WithCancel(ct.ctx)
	cancel()
	_, err := ct.c.Act(ctx, ct.env(ownerAddress), []uint64{id})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ct.proposal(id).Paid)
}

// =============================================================================
// Quorum
// =============================================================================

// TestQuorumByVoters counts ballots against everyone able to vote.
func TestQuorumByVoters(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) { c.QuorumPercent = 50 })
	id := ct.fundedProposal(1)
	ct.contribute("hive:member2", 1)
	ct.contribute("hive:outsider", 1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipNoQuorum}}, report.Skipped)

	// late ballots still count until the proposal is paid
	ct.vote("hive:member2", id, true)
	report = ct.act(ownerAddress, id)
	assert.Len(t, report.Paid, 1)
}

// TestQuorumByStake weighs ballots by contribution.
func TestQuorumByStake(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) {
		c.QuorumPercent = 50
		c.QuorumMode = dao.QuorumByStake
	})
	id := ct.fundedProposal(1)
	ct.contribute("hive:member2", 3)
	ct.vote("hive:someone", id, true)
	ct.vote("hive:someoneelse", id, true)
	ct.passDeadline()

	// 2 of 5 contributed
	report := ct.act(ownerAddress, id)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipNoQuorum}}, report.Skipped)

	// stake only counts toward quorum; the majority is still by ballots
	ct.vote("hive:member2", id, false)
	report = ct.act(ownerAddress, id)
	assert.Len(t, report.Paid, 1)
}

// =============================================================================
// Treasury
// =============================================================================

// TestInsufficientTreasury checks that an unfunded request stays a candidate.
func TestInsufficientTreasury(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(5)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipInsufficientTreasury}}, report.Skipped)
	assert.Equal(t, dao.FloatToAmount(2), ct.treasury().Balance)

	ct.contribute("hive:member2", 3)
	report = ct.act(ownerAddress, id)
	require.Len(t, report.Paid, 1)
	assert.Equal(t, dao.FloatToAmount(4.5), report.Paid[0].Net)
}

// TestFeeRecipientReceivesFee checks the split when fees leave the pool.
func TestFeeRecipientReceivesFee(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) { c.FeeRecipient = "hive:fees" })
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	require.Len(t, ct.act(ownerAddress, id).Paid, 1)
	assert.Equal(t, int64(900), ct.ledger.Balance("hive:recipient"))
	assert.Equal(t, int64(100), ct.ledger.Balance("hive:fees"))

	tr := ct.treasury()
	assert.Equal(t, dao.FloatToAmount(1), tr.Balance)
	assert.Equal(t, dao.FloatToAmount(1), tr.PaidOut)
	assert.Zero(t, tr.FeesRetained)
}

// TestFeeTransferFailureRetainsFee checks that a refused fee stays in the pool.
func TestFeeTransferFailureRetainsFee(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) { c.FeeRecipient = "hive:fees" })
	ct.ledger.Hook = func(_ context.Context, to sdk.Address, _ int64) error {
		if to == "hive:fees" {
			return sdk.ErrTransferRejected
		}
		return nil
	}
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	require.Len(t, report.Paid, 1)
	assert.True(t, ct.proposal(id).Paid)
	assert.Equal(t, int64(900), ct.ledger.Balance("hive:recipient"))
	assert.Zero(t, ct.ledger.Balance("hive:fees"))

	tr := ct.treasury()
	assert.Equal(t, dao.FloatToAmount(1.1), tr.Balance)
	assert.Equal(t, dao.FloatToAmount(0.9), tr.PaidOut)
	assert.Equal(t, dao.FloatToAmount(0.1), tr.FeesRetained)
}

// TestZeroPercentageSendsEverything checks the fee-free split.
func TestZeroPercentageSendsEverything(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) { c.DaoPercentage = 0 })
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	report := ct.act(ownerAddress, id)
	require.Len(t, report.Paid, 1)
	assert.Equal(t, dao.FloatToAmount(1), report.Paid[0].Net)
	assert.Zero(t, report.Paid[0].Fee)
	assert.Equal(t, dao.FloatToAmount(1), ct.treasury().Balance)
}

// TestTreasuryStaysBalanced checks Balance == Contributed - PaidOut across a mixed history.
func TestTreasuryStaysBalanced(t *testing.T) {
	ct := SetupContractTest(t)
	a := ct.fundedProposal(0.7)
	ct.contribute("hive:member2", 0.333)
	b := ct.propose("hive:someone", "hive:other", 0.123)
	c := ct.propose("hive:someone", "hive:other", 9)
	for _, id := range []uint64{a, b, c} {
		ct.vote("hive:someone", id, true)
	}
	ct.passDeadline()
	ct.act(ownerAddress, a, b, c)
	ct.contribute("hive:someoneelse", 0.5)

	tr := ct.treasury()
	assert.Equal(t, tr.Contributed-tr.PaidOut, tr.Balance)

	var sent int64
	for _, tx := range ct.ledger.Transfers() {
		sent += tx.Amount
	}
	assert.Equal(t, dao.AmountToInt64(tr.PaidOut), sent)

	var contributed dao.Amount
	for _, e := range ct.eventsOf(dao.EventContribution) {
		contributed += e.Amount
	}
	assert.Equal(t, tr.Contributed, contributed)
}

// =============================================================================
// Ledger failures and re-entrancy
// =============================================================================

// TestTransferFailureRollsBack checks that a refused payout leaves the proposal payable.
func TestTransferFailureRollsBack(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()
	before := len(ct.events)

	ct.ledger.Hook = func(context.Context, sdk.Address, int64) error { return sdk.ErrTransferRejected }
	report := ct.act(ownerAddress, id)
	assert.Empty(t, report.Paid)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipTransferFailed}}, report.Skipped)
	assert.False(t, ct.proposal(id).Paid)
	assert.Equal(t, dao.FloatToAmount(2), ct.treasury().Balance)
	assert.Len(t, ct.events, before)

	n, err := ct.c.EventCount(ct.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(before), n)

	ct.ledger.Hook = nil
	assert.Len(t, ct.act(ownerAddress, id).Paid, 1)
}

// TestReentrantActDuringTransfer checks that a callback from the ledger sees the payout as done.
func TestReentrantActDuringTransfer(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	var (
		inner     dao.ActReport
		innerErr  error
		seenPaid  bool
		seenFunds dao.Amount
	)
	ct.ledger.Hook = func(ctx context.Context, _ sdk.Address, _ int64) error {
		p, err := ct.c.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		seenPaid = p.Paid
		seenFunds, err = ct.c.GetTreasuryBalance(ctx)
		if err != nil {
			return err
		}
		inner, innerErr = ct.c.Act(ctx, ct.env("hive:recipient"), []uint64{id})
		return nil
	}

	report := ct.act(ownerAddress, id)
	require.NoError(t, innerErr)
	require.Len(t, report.Paid, 1)
	assert.True(t, seenPaid)
	assert.Equal(t, dao.FloatToAmount(1.1), seenFunds)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipAlreadyPaid}}, inner.Skipped)
	assert.Len(t, ct.ledger.Transfers(), 1)
	assert.Len(t, ct.eventsOf(dao.EventProposalPaid), 1)
}

// TestReentrantCallWithDerivedContext checks that a callback may wrap the transfer ctx.
func TestReentrantCallWithDerivedContext(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	var seenPaid bool
	ct.ledger.Hook = func(ctx context.Context, _ sdk.Address, _ int64) error {
		cctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		p, err := ct.c.GetProposal(cctx, id)
		if err != nil {
			return err
		}
		seenPaid = p.Paid
		return nil
	}

	env := ct.env(ownerAddress)
	done := make(chan dao.ActReport, 1)
	go func() {
		report, _ := ct.c.Act(ct.ctx, env, []uint64{id})
		done <- report
	}()
	select {
	case report := <-done:
		assert.Len(t, report.Paid, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("act did not return")
	}
	assert.True(t, seenPaid)
}

// TestReentrantWritesCommitWithPayout checks that nested operations land with the parent.
func TestReentrantWritesCommitWithPayout(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	var voteErr, contribErr error
	ct.ledger.Hook = func(ctx context.Context, _ sdk.Address, _ int64) error {
		voteErr = ct.c.VoteOnProposal(ctx, ct.env("hive:someoneelse"), id, false)
		_, contribErr = ct.c.Contribute(ctx, ct.env("hive:recipient"), dao.FloatToAmount(0.5))
		return nil
	}
	require.Len(t, ct.act(ownerAddress, id).Paid, 1)

	assert.ErrorIs(t, voteErr, contract.ErrVotingClosed)
	require.NoError(t, contribErr)
	m, err := ct.c.GetMember(ct.ctx, "hive:recipient")
	require.NoError(t, err)
	assert.Equal(t, dao.FloatToAmount(0.5), m.Contributed)
	assert.Equal(t, dao.FloatToAmount(1.6), ct.treasury().Balance)

	// the nested contribution is logged after the payout it ran inside
	kinds := []dao.EventKind{}
	for _, e := range ct.events[len(ct.events)-2:] {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []dao.EventKind{dao.EventProposalPaid, dao.EventContribution}, kinds)
}

// TestReentrantWritesVanishWithFailedPayout checks that nested writes roll back with the parent.
func TestReentrantWritesVanishWithFailedPayout(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someone", id, true)
	ct.passDeadline()

	ct.ledger.Hook = func(ctx context.Context, _ sdk.Address, _ int64) error {
		if _, err := ct.c.Contribute(ctx, ct.env("hive:recipient"), dao.FloatToAmount(0.5)); err != nil {
			return err
		}
		return sdk.ErrTransferRejected
	}
	report := ct.act(ownerAddress, id)
	assert.Equal(t, []dao.Skip{{ProposalID: id, Reason: dao.SkipTransferFailed}}, report.Skipped)

	m, err := ct.c.GetMember(ct.ctx, "hive:recipient")
	require.NoError(t, err)
	assert.False(t, m.IsContributor())
	assert.Equal(t, dao.FloatToAmount(2), ct.treasury().Balance)
}

// =============================================================================
// Automation gate
// =============================================================================

// TestRestrictedAct checks that only the trigger or an owner may settle when restricted.
func TestRestrictedAct(t *testing.T) {
	ct := SetupContractTest(t, func(c *dao.Config) { c.RestrictActToTrigger = true })
	a := ct.fundedProposal(1)
	b := ct.propose("hive:someone", "hive:recipient", 0.5)
	ct.vote("hive:someone", a, true)
	ct.vote("hive:someone", b, true)
	require.NoError(t, ct.c.SetAutomationTrigger(ct.ctx, ct.env(ownerAddress), "hive:bot"))
	ct.passDeadline()

	_, err := ct.c.Act(ct.ctx, ct.env("hive:someone"), []uint64{a})
	assert.ErrorIs(t, err, contract.ErrNotAuthorized)
	assert.False(t, ct.proposal(a).Paid)

	assert.Len(t, ct.act("hive:bot", a).Paid, 1)
	assert.Len(t, ct.act(ownerAddress, b).Paid, 1)
}

// TestEventLog checks ordering and paging of the persisted log.
func TestEventLog(t *testing.T) {
	ct := SetupContractTest(t)
	id := ct.fundedProposal(1)
	ct.vote("hive:someoneelse", id, true)
	ct.passDeadline()
	ct.act(ownerAddress, id)

	all, err := ct.c.Events(ct.ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ct.events, all)
	for i, e := range all {
		assert.Equal(t, uint64(i), e.Seq)
	}
	assert.Equal(t, "ct|by:hive:someone|am:1.000", all[0].String())
	assert.Equal(t, "pc|id:0|by:hive:someone|to:hive:recipient|am:1.000", all[2].String())
	assert.Equal(t, "v|id:0|by:hive:someoneelse|s:true", all[3].String())

	page, err := ct.c.Events(ct.ctx, 3, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, dao.EventProposalVoted, page[0].Kind)
}

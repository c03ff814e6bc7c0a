package contract_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"crowdfund_dao/contract"
	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

const (
	ownerAddress           = "hive:owner"
	defaultTimestamp int64 = 1_756_857_600 // 2025-09-03T00:00:00Z
	votingPeriod     int64 = 3600
)

// contractTest bundles a fresh engine over in-memory state with a controllable clock.
type contractTest struct {
	t      *testing.T
	ctx    context.Context
	c      *contract.Contract
	cfg    dao.Config
	state  *sdk.MemoryState
	ledger *sdk.MemoryLedger
	events []dao.Event
	now    int64
	tx     int
}

func defaultConfig() dao.Config {
	return dao.Config{
		Owner:                sdk.Address(ownerAddress),
		DaoPercentage:        10,
		StakeholderThreshold: dao.FloatToAmount(1),
		VotingPeriodSeconds:  votingPeriod,
		QuorumPercent:        0,
		Asset:                sdk.AssetHive,
	}
}

// SetupContractTest deploys the engine; mutators adjust the config before deployment.
func SetupContractTest(t *testing.T, mutate ...func(*dao.Config)) *contractTest {
	t.Helper()
	cfg := defaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	ct := &contractTest{
		t:      t,
		ctx:    context.Background(),
		cfg:    cfg,
		state:  sdk.NewMemoryState(),
		ledger: sdk.NewMemoryLedger(),
		now:    defaultTimestamp,
	}
	sink := contract.SinkFunc(func(_ context.Context, e dao.Event) error {
		ct.events = append(ct.events, e)
		return nil
	})
	c, err := contract.New(ct.state, ct.ledger, cfg, contract.WithSinks(sink))
	require.NoError(t, err)
	ct.c = c
	return ct
}

func (ct *contractTest) env(caller string) sdk.Env {
	ct.tx++
	return sdk.Env{Caller: sdk.Address(caller), Timestamp: ct.now, TxID: fmt.Sprintf("tx-%d", ct.tx)}
}

func (ct *contractTest) advance(seconds int64) { ct.now += seconds }

// passDeadline moves the clock to just after a proposal created now would expire.
func (ct *contractTest) passDeadline() { ct.advance(votingPeriod + 1) }

func (ct *contractTest) contribute(caller string, amount float64) dao.Member {
	ct.t.Helper()
	m, err := ct.c.Contribute(ct.ctx, ct.env(caller), dao.FloatToAmount(amount))
	require.NoError(ct.t, err)
	return m
}

func (ct *contractTest) propose(caller, recipient string, amount float64) uint64 {
	ct.t.Helper()
	id, err := ct.c.CreateProposal(ct.ctx, ct.env(caller), dao.CreateProposalArgs{
		Title:       "proposal by " + caller,
		Description: "pay " + recipient,
		Recipient:   sdk.Address(recipient),
		Amount:      dao.FloatToAmount(amount),
	})
	require.NoError(ct.t, err)
	return id
}

func (ct *contractTest) vote(caller string, id uint64, support bool) {
	ct.t.Helper()
	require.NoError(ct.t, ct.c.VoteOnProposal(ct.ctx, ct.env(caller), id, support))
}

func (ct *contractTest) act(caller string, ids ...uint64) dao.ActReport {
	ct.t.Helper()
	report, err := ct.c.Act(ct.ctx, ct.env(caller), ids)
	require.NoError(ct.t, err)
	return report
}

func (ct *contractTest) treasury() dao.Treasury {
	ct.t.Helper()
	tr, err := ct.c.GetTreasury(ct.ctx)
	require.NoError(ct.t, err)
	return tr
}

func (ct *contractTest) proposal(id uint64) dao.Proposal {
	ct.t.Helper()
	p, err := ct.c.GetProposal(ct.ctx, id)
	require.NoError(ct.t, err)
	return p
}

func (ct *contractTest) eventsOf(kind dao.EventKind) []dao.Event {
	var out []dao.Event
	for _, e := range ct.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// fundedProposal sets up the common case: a stakeholder proposer, a second contributor
// and one open proposal to hive:recipient.
func (ct *contractTest) fundedProposal(amount float64) uint64 {
	ct.t.Helper()
	ct.contribute("hive:someone", 1)
	ct.contribute("hive:someoneelse", 1)
	return ct.propose("hive:someone", "hive:recipient", amount)
}

package contract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"crowdfund_dao/contract/dao"
)

func TestMeetsPercent(t *testing.T) {
	cases := []struct {
		part, whole uint64
		pct         uint32
		want        bool
	}{
		{0, 0, 0, true},
		{0, 10, 0, true},
		{0, 10, 1, false},
		{5, 10, 50, true},
		{4, 10, 50, false},
		{1, 3, 33, true},
		{1, 3, 34, false},
		{10, 10, 100, true},
		{math.MaxUint64, math.MaxUint64, 100, true},
		{math.MaxUint64 / 2, math.MaxUint64, 51, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, meetsPercent(tc.part, tc.whole, tc.pct), "%d/%d at %d%%", tc.part, tc.whole, tc.pct)
	}
}

func TestFeeSplitFloorsFee(t *testing.T) {
	cases := []struct {
		amount   dao.Amount
		pct      uint32
		fee, net dao.Amount
	}{
		{1000, 10, 100, 900},
		{123, 10, 12, 111},
		{9, 10, 0, 9},
		{1000, 0, 0, 1000},
		{1000, 100, 1000, 0},
		{math.MaxInt64, 50, math.MaxInt64 / 2, math.MaxInt64 - math.MaxInt64/2},
	}
	for _, tc := range cases {
		fee, net := feeSplit(tc.amount, tc.pct)
		assert.Equal(t, tc.fee, fee, "fee of %d at %d%%", tc.amount, tc.pct)
		assert.Equal(t, tc.net, net)
		assert.Equal(t, tc.amount, fee+net)
	}
}

func TestEligibilityOrder(t *testing.T) {
	cfg := &dao.Config{QuorumPercent: 50}
	tr := &dao.Treasury{VoterCount: 4}
	now := int64(1000)

	p := &dao.Proposal{VotingDeadline: 2000, Paid: true}
	assert.Equal(t, dao.SkipAlreadyPaid, eligibility(cfg, p, tr, now))

	p = &dao.Proposal{VotingDeadline: 2000}
	assert.Equal(t, dao.SkipVotingOpen, eligibility(cfg, p, tr, now))

	p = &dao.Proposal{VotingDeadline: 1000, VotesFor: 1}
	assert.Equal(t, dao.SkipNoQuorum, eligibility(cfg, p, tr, now))

	p = &dao.Proposal{VotingDeadline: 1000, VotesFor: 1, VotesAgainst: 1}
	assert.Equal(t, dao.SkipNoMajority, eligibility(cfg, p, tr, now))

	p = &dao.Proposal{VotingDeadline: 1000, VotesFor: 2}
	assert.Equal(t, dao.SkipReason(""), eligibility(cfg, p, tr, now))
}

func TestKeysDoNotCollide(t *testing.T) {
	seen := map[string]string{}
	add := func(name, key string) {
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[key] = name
	}
	add("config", configKey())
	add("treasury", treasuryKey())
	add("trigger", triggerKey())
	add("clock", clockKey())
	add("member", memberKey("hive:a"))
	add("proposal 0", proposalKey(0))
	add("proposal 1", proposalKey(1))
	add("vote 0/a", voteKey(0, "hive:a"))
	add("vote 1/a", voteKey(1, "hive:a"))
	add("event 0", eventKey(0))
	add("count props", ProposalsCount)
	add("count events", EventsCount)
}

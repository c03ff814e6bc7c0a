// Package metrics exposes prometheus counters fed by committed DAO events and
// automation passes.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"crowdfund_dao/contract/dao"
)

const namespace = "crowdfund"

// Collector implements contract.Sink.
type Collector struct {
	events      *prometheus.CounterVec
	contributed prometheus.Counter
	paidOut     prometheus.Counter
	fees        prometheus.Counter
	votes       *prometheus.CounterVec
	skips       *prometheus.CounterVec
	polls       prometheus.Counter
}

// New registers the collector on reg. balance feeds the treasury gauge on scrape;
// it may be nil.
func New(reg prometheus.Registerer, balance func() float64) (*Collector, error) {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed events by kind.",
		}, []string{"kind"}),
		contributed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributed_total",
			Help:      "Units contributed to the treasury.",
		}),
		paidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paid_out_total",
			Help:      "Net units paid to proposal recipients.",
		}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_total",
			Help:      "Units charged as dao fee on payouts.",
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Ballots cast by side.",
		}, []string{"support"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_skips_total",
			Help:      "Candidates an automation pass did not pay, by reason.",
		}, []string{"reason"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "automation_polls_total",
			Help:      "Automation passes run.",
		}),
	}
	collectors := []prometheus.Collector{c.events, c.contributed, c.paidOut, c.fees, c.votes, c.skips, c.polls}
	if balance != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "treasury_balance",
			Help:      "Current treasury balance.",
		}, balance))
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// Publish counts e. It never fails.
func (c *Collector) Publish(_ context.Context, e dao.Event) error {
	c.events.WithLabelValues(e.Kind.String()).Inc()
	switch e.Kind {
	case dao.EventContribution:
		c.contributed.Add(dao.AmountToFloat(e.Amount))
	case dao.EventProposalPaid:
		c.paidOut.Add(dao.AmountToFloat(e.Amount))
		c.fees.Add(dao.AmountToFloat(e.Fee))
	case dao.EventProposalVoted:
		if e.Support {
			c.votes.WithLabelValues("for").Inc()
		} else {
			c.votes.WithLabelValues("against").Inc()
		}
	}
	return nil
}

// ObserveAct records one automation pass.
func (c *Collector) ObserveAct(report dao.ActReport) {
	c.polls.Inc()
	for _, s := range report.Skipped {
		c.skips.WithLabelValues(string(s.Reason)).Inc()
	}
}

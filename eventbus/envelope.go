// Package eventbus ships committed DAO events to NATS as JSON envelopes.
package eventbus

import (
	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jwriter"

	"crowdfund_dao/contract/dao"
)

// Envelope is the wire form of one event. Amounts travel as fixed three-decimal
// strings so consumers never see float rounding.
type Envelope struct {
	Event dao.Event
}

// MarshalTinyJSON writes the envelope, skipping fields that do not apply to the kind.
func (v Envelope) MarshalTinyJSON(w *jwriter.Writer) {
	e := v.Event
	w.RawString(`{"seq":`)
	w.Uint64(e.Seq)
	w.RawString(`,"kind":`)
	w.String(e.Kind.String())
	w.RawString(`,"tx":`)
	w.String(e.TxID)
	w.RawString(`,"ts":`)
	w.Int64(e.Timestamp)
	w.RawString(`,"line":`)
	w.String(e.String())

	switch e.Kind {
	case dao.EventProposalCreated, dao.EventProposalVoted, dao.EventProposalPaid:
		w.RawString(`,"proposal_id":`)
		w.Uint64(e.ProposalID)
	}
	if !e.Actor.IsZero() {
		w.RawString(`,"actor":`)
		w.String(e.Actor.String())
	}
	if !e.Subject.IsZero() {
		w.RawString(`,"subject":`)
		w.String(e.Subject.String())
	}
	switch e.Kind {
	case dao.EventContribution, dao.EventProposalCreated:
		w.RawString(`,"amount":`)
		w.String(e.Amount.String())
	case dao.EventProposalPaid:
		w.RawString(`,"amount":`)
		w.String(e.Amount.String())
		w.RawString(`,"fee":`)
		w.String(e.Fee.String())
	case dao.EventProposalVoted:
		w.RawString(`,"support":`)
		w.Bool(e.Support)
	case dao.EventRoleGranted:
		w.RawString(`,"role":`)
		w.String(e.Role.String())
	}
	if e.Kind == dao.EventProposalCreated {
		w.RawString(`,"title":`)
		w.String(e.Title)
		w.RawString(`,"description":`)
		w.String(e.Description)
	}
	w.RawByte('}')
}

// Marshal encodes e as an envelope.
func Marshal(e dao.Event) ([]byte, error) {
	return tinyjson.Marshal(Envelope{Event: e})
}

// MarshalJSON lets encoding/json callers reuse the tinyjson writer.
func (v Envelope) MarshalJSON() ([]byte, error) {
	return tinyjson.Marshal(v)
}

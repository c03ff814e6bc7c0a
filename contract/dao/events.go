package dao

import (
	"fmt"
	"strings"

	"crowdfund_dao/sdk"
)

// EventKind names an append-only log entry.
type EventKind uint8

const (
	EventContribution         EventKind = 1
	EventProposalCreated      EventKind = 2
	EventProposalVoted        EventKind = 3
	EventProposalPaid         EventKind = 4
	EventRoleGranted          EventKind = 5
	EventAutomationTriggerSet EventKind = 6
)

func (k EventKind) String() string {
	switch k {
	case EventContribution:
		return "Contribution"
	case EventProposalCreated:
		return "ProposalCreated"
	case EventProposalVoted:
		return "ProposalVoted"
	case EventProposalPaid:
		return "ProposalPaid"
	case EventRoleGranted:
		return "RoleGranted"
	case EventAutomationTriggerSet:
		return "AutomationTriggerSet"
	default:
		return "Unknown"
	}
}

// Code is the short prefix used in log lines.
func (k EventKind) Code() string {
	switch k {
	case EventContribution:
		return "ct"
	case EventProposalCreated:
		return "pc"
	case EventProposalVoted:
		return "v"
	case EventProposalPaid:
		return "pp"
	case EventRoleGranted:
		return "rg"
	case EventAutomationTriggerSet:
		return "at"
	default:
		return "??"
	}
}

// Event is one entry of the log. Fields that do not apply to a kind stay zero.
type Event struct {
	Seq        uint64
	Kind       EventKind
	TxID       string
	Timestamp  int64
	ProposalID uint64
	// Actor is who caused the event: contributor, proposer, voter or granter.
	Actor sdk.Address
	// Subject is who it is about: recipient, grantee or trigger.
	Subject     sdk.Address
	Amount      Amount
	Fee         Amount
	Support     bool
	Role        Role
	Title       string
	Description string
}

// String renders the pipe-delimited log line, e.g. "pp|id:3|to:hive:bob|am:9.000".
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Kind.Code())
	switch e.Kind {
	case EventContribution:
		fmt.Fprintf(&b, "|by:%s|am:%s", e.Actor, e.Amount)
	case EventProposalCreated:
		fmt.Fprintf(&b, "|id:%d|by:%s|to:%s|am:%s", e.ProposalID, e.Actor, e.Subject, e.Amount)
	case EventProposalVoted:
		fmt.Fprintf(&b, "|id:%d|by:%s|s:%t", e.ProposalID, e.Actor, e.Support)
	case EventProposalPaid:
		fmt.Fprintf(&b, "|id:%d|to:%s|am:%s|fee:%s", e.ProposalID, e.Subject, e.Amount, e.Fee)
	case EventRoleGranted:
		fmt.Fprintf(&b, "|r:%s|to:%s|by:%s", e.Role, e.Subject, e.Actor)
	case EventAutomationTriggerSet:
		fmt.Fprintf(&b, "|to:%s|by:%s", e.Subject, e.Actor)
	}
	return b.String()
}

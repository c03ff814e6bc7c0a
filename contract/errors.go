package contract

import "errors"

var (
	// ErrInsufficientContribution rejects contributions below the required minimum.
	ErrInsufficientContribution = errors.New("insufficient contribution")
	// ErrNotAuthorized means the caller lacks the role the operation needs.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrProposalNotFound references an id that was never assigned.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrAlreadyVoted is a second ballot on the same (proposal, voter) pair.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrVotingClosed is a ballot on a paid proposal, or past the deadline when closure is enforced.
	ErrVotingClosed = errors.New("voting closed")
	// ErrInvalidAmount is a non-positive amount where a positive one is required.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidArgument covers malformed titles, addresses, roles and timestamps.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfigMismatch is returned by New when the stored deployment differs from the supplied one.
	ErrConfigMismatch = errors.New("config does not match deployed state")
)

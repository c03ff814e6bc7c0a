package contract

// -----------------------------------------------------------------------------
// Validation Limits
// -----------------------------------------------------------------------------

const (
	// MaxTitleLength limits the size of a proposal title.
	MaxTitleLength = 256
	// MaxDescriptionLength limits the size of a proposal description.
	MaxDescriptionLength = 4096
	// MaxEventPage caps how many events one Events call returns.
	MaxEventPage = 500
)

package contract

import (
	"fmt"
	"strconv"

	"crowdfund_dao/sdk"
)

const (
	// ProposalsCount holds the next proposal id.
	ProposalsCount = "count:props"
	// EventsCount holds the next event sequence number.
	EventsCount = "count:events"
)

// reader is the read half of sdk.State; both the store and an open batch satisfy it.
type reader interface {
	Get(key string) (*string, error)
}

// getCount reads the decimal counter under key and defaults to zero.
func getCount(r reader, key string) (uint64, error) {
	ptr, err := r.Get(key)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	if ptr == nil || *ptr == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(*ptr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return n, nil
}

// setCount stores counters back as decimal strings.
func setCount(b *sdk.Batch, key string, n uint64) {
	b.Set(key, strconv.FormatUint(n, 10))
}

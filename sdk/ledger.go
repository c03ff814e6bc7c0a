package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Ledger moves value out of the pool. It is the only externally observable step of a
// payout and is invoked after the engine has already recorded the payout as done.
type Ledger interface {
	// Transfer runs while the engine holds its lock. Any call back into the engine from
	// inside Transfer must use ctx or a context derived from it; a fresh context waits
	// on the lock held by this very payout and never returns.
	Transfer(ctx context.Context, to Address, amount int64, asset Asset) error
}

// ErrTransferRejected is returned by ledgers that refuse a transfer.
var ErrTransferRejected = errors.New("transfer rejected")

// TransferRecord is one completed outbound transfer.
type TransferRecord struct {
	To     Address
	Amount int64
	Asset  Asset
}

// MemoryLedger records transfers and tracks the resulting balances per address.
// Hook runs before a transfer is recorded and receives the ctx given to Transfer;
// tests use it to fail transfers or to call back into the engine while a payout is
// in flight.
type MemoryLedger struct {
	mu        sync.Mutex
	balances  map[Address]int64
	transfers []TransferRecord
	Hook      func(ctx context.Context, to Address, amount int64) error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[Address]int64)}
}

func (l *MemoryLedger) Transfer(ctx context.Context, to Address, amount int64, asset Asset) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrTransferRejected, amount)
	}
	if hook := l.Hook; hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] += amount
	l.transfers = append(l.transfers, TransferRecord{To: to, Amount: amount, Asset: asset})
	return nil
}

// Balance returns how much the ledger has sent to addr so far.
func (l *MemoryLedger) Balance(addr Address) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// Transfers returns a copy of every recorded transfer in order.
func (l *MemoryLedger) Transfers() []TransferRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TransferRecord, len(l.transfers))
	copy(out, l.transfers)
	return out
}

// JournalLedger accepts every transfer and only writes it to the log. The service
// uses it when payouts are executed downstream by whoever consumes the event stream.
type JournalLedger struct {
	Logger *slog.Logger
}

func (l JournalLedger) Transfer(ctx context.Context, to Address, amount int64, asset Asset) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "ledger transfer", "to", to.String(), "amount", amount, "asset", asset.String())
	return nil
}

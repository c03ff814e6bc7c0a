package contract

import (
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// loadTreasury returns the pool aggregate; an empty pool before the first write.
func loadTreasury(r reader) (*dao.Treasury, error) {
	ptr, err := r.Get(treasuryKey())
	if err != nil {
		return nil, fmt.Errorf("read treasury: %w", err)
	}
	if ptr == nil || *ptr == "" {
		return &dao.Treasury{}, nil
	}
	return dao.DecodeTreasury([]byte(*ptr))
}

func saveTreasury(b *sdk.Batch, t *dao.Treasury) {
	b.Set(treasuryKey(), string(dao.EncodeTreasury(t)))
}

// addTreasuryFunds books a contribution.
func addTreasuryFunds(t *dao.Treasury, amount dao.Amount) {
	t.Balance += amount
	t.Contributed += amount
}

// removeTreasuryFunds books a payout and returns false if the balance cannot cover it.
func removeTreasuryFunds(t *dao.Treasury, amount dao.Amount) bool {
	if t.Balance < amount {
		return false
	}
	t.Balance -= amount
	t.PaidOut += amount
	return true
}

package contract

import (
	"fmt"
	"strconv"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// -----------------------------------------------------------------------------
// Deployment Config
// -----------------------------------------------------------------------------

// loadConfig returns nil when the engine was never deployed on this state.
func loadConfig(r reader) (*dao.Config, error) {
	ptr, err := r.Get(configKey())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if ptr == nil || *ptr == "" {
		return nil, nil
	}
	return dao.DecodeConfig([]byte(*ptr))
}

func saveConfig(b *sdk.Batch, cfg *dao.Config) {
	b.Set(configKey(), string(dao.EncodeConfig(cfg)))
}

// -----------------------------------------------------------------------------
// Automation Trigger Slot
// -----------------------------------------------------------------------------

func loadTrigger(r reader) (sdk.Address, error) {
	ptr, err := r.Get(triggerKey())
	if err != nil {
		return "", fmt.Errorf("read trigger: %w", err)
	}
	if ptr == nil {
		return "", nil
	}
	return sdk.Address(*ptr), nil
}

func saveTrigger(b *sdk.Batch, addr sdk.Address) error {
	return b.SetIfChanged(triggerKey(), addr.String())
}

// -----------------------------------------------------------------------------
// Logical Clock
// -----------------------------------------------------------------------------

// loadClock returns the highest timestamp any committed operation ran at.
func loadClock(r reader) (int64, error) {
	ptr, err := r.Get(clockKey())
	if err != nil {
		return 0, fmt.Errorf("read clock: %w", err)
	}
	if ptr == nil || *ptr == "" {
		return 0, nil
	}
	ts, err := strconv.ParseInt(*ptr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt clock: %w", err)
	}
	return ts, nil
}

func saveClock(b *sdk.Batch, ts int64) {
	b.Set(clockKey(), strconv.FormatInt(ts, 10))
}

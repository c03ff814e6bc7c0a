package sdk

import "sync"

// MemoryState keeps everything in a map. It backs tests and the `--state-path ""`
// mode of the CLI where nothing needs to survive a restart.
type MemoryState struct {
	mu sync.RWMutex
	db map[string]string
}

func NewMemoryState() *MemoryState {
	return &MemoryState{db: make(map[string]string)}
}

func (m *MemoryState) Get(key string) (*string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.db[key]
	if !ok {
		return nil, nil
	}
	return &val, nil
}

func (m *MemoryState) Commit(writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if w.Value == nil {
			delete(m.db, w.Key)
			continue
		}
		m.db[w.Key] = *w.Value
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryState) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.db)
}

package sdk

// State is the durable key/value store behind the engine. Reads are served one key
// at a time; writes only ever arrive as a whole batch so a backend can apply them
// all-or-nothing.
type State interface {
	Get(key string) (*string, error)
	Commit(writes []Write) error
}

// Write is a single buffered mutation. A nil Value deletes the key.
type Write struct {
	Key   string
	Value *string
}

// Batch buffers writes on top of a State. Reads see the buffered values first so an
// operation observes its own effects before they are committed.
type Batch struct {
	base    State
	pending map[string]*string
	order   []string
}

// NewBatch opens an empty overlay over base.
func NewBatch(base State) *Batch {
	return &Batch{
		base:    base,
		pending: make(map[string]*string),
	}
}

// Get returns the buffered value when the key was touched in this batch, falling back
// to the underlying state otherwise.
func (b *Batch) Get(key string) (*string, error) {
	if v, ok := b.pending[key]; ok {
		if v == nil {
			return nil, nil
		}
		cp := *v
		return &cp, nil
	}
	return b.base.Get(key)
}

// Set stores a key/value string pair in the overlay.
// Example payload: batch.Set("count", "5")
func (b *Batch) Set(key, value string) {
	b.track(key)
	v := value
	b.pending[key] = &v
}

// SetIfChanged avoids buffering a write when the stored value is already identical.
func (b *Batch) SetIfChanged(key, value string) error {
	existing, err := b.Get(key)
	if err != nil {
		return err
	}
	if existing != nil && *existing == value {
		return nil
	}
	b.Set(key, value)
	return nil
}

// Delete marks the key for removal.
func (b *Batch) Delete(key string) {
	b.track(key)
	b.pending[key] = nil
}

func (b *Batch) track(key string) {
	if _, ok := b.pending[key]; !ok {
		b.order = append(b.order, key)
	}
}

// Len reports how many distinct keys the batch touches.
func (b *Batch) Len() int { return len(b.order) }

// Writes lists the buffered mutations in first-touch order.
func (b *Batch) Writes() []Write {
	out := make([]Write, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, Write{Key: k, Value: b.pending[k]})
	}
	return out
}

// Commit layers writes onto the overlay without touching the base, so a Batch can
// itself be the base of a nested Batch.
func (b *Batch) Commit(writes []Write) error {
	for _, w := range writes {
		b.track(w.Key)
		b.pending[w.Key] = w.Value
	}
	return nil
}

// Flush hands every buffered write to the underlying state in one call.
func (b *Batch) Flush() error {
	if len(b.order) == 0 {
		return nil
	}
	return b.base.Commit(b.Writes())
}

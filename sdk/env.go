package sdk

// Env is the snapshot the execution environment hands to every call: who is
// calling, what the logical clock reads and which transaction this is.
// It is read once per operation so helpers never observe two different clocks.
type Env struct {
	Caller    Address
	Timestamp int64
	TxID      string
}

// WithTimestamp returns a copy of the env with the clock replaced, handy for
// tests that step through a voting period.
// Example payload: env.WithTimestamp(env.Timestamp + 3600)
func (e Env) WithTimestamp(ts int64) Env {
	e.Timestamp = ts
	return e
}

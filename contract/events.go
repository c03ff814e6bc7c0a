package contract

import (
	"context"
	"fmt"

	"crowdfund_dao/contract/dao"
)

// Sink receives every event after its operation committed. Sinks cannot veto a
// commit; a failing sink is logged and skipped.
type Sink interface {
	Publish(ctx context.Context, e dao.Event) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, e dao.Event) error

func (f SinkFunc) Publish(ctx context.Context, e dao.Event) error { return f(ctx, e) }

// emit appends e to the log inside the unit so it commits or vanishes with the
// state change it describes.
func (u *unit) emit(e dao.Event) error {
	seq, err := getCount(u.b, EventsCount)
	if err != nil {
		return err
	}
	e.Seq = seq
	e.TxID = u.env.TxID
	e.Timestamp = u.now()
	u.b.Set(eventKey(seq), string(dao.EncodeEvent(&e)))
	setCount(u.b, EventsCount, seq+1)
	u.events = append(u.events, e)
	return nil
}

// publish writes the terse event line to the log and fans out to sinks.
func (c *Contract) publish(ctx context.Context, events []dao.Event) {
	for _, e := range events {
		c.logger.InfoContext(ctx, e.String(), "seq", e.Seq, "tx", e.TxID)
		for _, s := range c.sinks {
			if err := s.Publish(ctx, e); err != nil {
				c.logger.WarnContext(ctx, "event sink failed", "seq", e.Seq, "kind", e.Kind.String(), "err", err)
			}
		}
	}
}

// Events reads up to limit log entries starting at fromSeq, oldest first.
func (c *Contract) Events(ctx context.Context, fromSeq uint64, limit int) ([]dao.Event, error) {
	if limit <= 0 || limit > MaxEventPage {
		limit = MaxEventPage
	}
	var out []dao.Event
	err := c.view(ctx, func(r reader) error {
		total, err := getCount(r, EventsCount)
		if err != nil {
			return err
		}
		for seq := fromSeq; seq < total && len(out) < limit; seq++ {
			ptr, err := r.Get(eventKey(seq))
			if err != nil {
				return fmt.Errorf("read event %d: %w", seq, err)
			}
			if ptr == nil {
				return fmt.Errorf("event %d missing", seq)
			}
			e, err := dao.DecodeEvent([]byte(*ptr))
			if err != nil {
				return err
			}
			out = append(out, *e)
		}
		return nil
	})
	return out, err
}

// EventCount is the sequence number the next event will get.
func (c *Contract) EventCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.view(ctx, func(r reader) error {
		var err error
		n, err = getCount(r, EventsCount)
		return err
	})
	return n, err
}

package eventbus

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"crowdfund_dao/contract/dao"
)

// Publisher is the slice of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every committed event to <subject>.<kind>, e.g.
// crowdfund.events.proposalpaid.
type NATSSink struct {
	pub     Publisher
	subject string
}

func NewNATSSink(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: strings.TrimSuffix(subject, ".")}
}

// Connect dials url and returns the connection plus a sink bound to it.
func Connect(url, subject string) (*nats.Conn, *NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("crowdfund-dao"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, NewNATSSink(conn, subject), nil
}

// Subject returns the subject an event of kind k is published on.
func (s *NATSSink) Subject(k dao.EventKind) string {
	return s.subject + "." + strings.ToLower(k.String())
}

// Publish checks the context first; the NATS client's Publish is fire-and-forget.
func (s *NATSSink) Publish(ctx context.Context, e dao.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", e.Seq, err)
	}
	if err := s.pub.Publish(s.Subject(e.Kind), data); err != nil {
		return fmt.Errorf("publish event %d: %w", e.Seq, err)
	}
	return nil
}

package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/nats-io/nats.go"
)

const natsSourceName = "nats"

// NatsSource consumes JSON encoded events published on a NATS subject.
type NatsSource struct {
	conn    *nats.Conn
	subject string
	queue   string
	logger  *slog.Logger

	malformed atomic.Uint64
}

func NewNatsSource(conn *nats.Conn, subject, queue string, logger *slog.Logger) *NatsSource {
	return &NatsSource{
		conn:    conn,
		subject: subject,
		queue:   queue,
		logger:  logger,
	}
}

func (n *NatsSource) Name() string {
	return natsSourceName
}

func (n *NatsSource) Run(ctx context.Context, out chan<- Delivery) error {
	msgs := make(chan *nats.Msg, DefaultBufferSize)

	var (
		sub *nats.Subscription
		err error
	)
	if n.queue != "" {
		sub, err = n.conn.ChanQueueSubscribe(n.subject, n.queue, msgs)
	} else {
		sub, err = n.conn.ChanSubscribe(n.subject, msgs)
	}
	if err != nil {
		return fmt.Errorf("failed subscribing to %s: %w", n.subject, err)
	}
	defer sub.Unsubscribe()

	n.logger.Info("NATS: subscribed", "subject", n.subject, "queue", n.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			ev, err := decodeEvent(msg.Data)
			if err != nil {
				n.malformed.Add(1)
				malformedCounter.WithLabelValues(natsSourceName).Inc()
				n.logger.Warn("NATS: bogus event message", "subject", msg.Subject, "err", err)
				continue
			}
			if err := deliver(ctx, out, Delivery{Source: natsSourceName, Event: ev}); err != nil {
				return err
			}
		}
	}
}

// Close is a no-op, the connection is owned by the caller.
func (n *NatsSource) Close() error {
	return nil
}

func decodeEvent(data []byte) (types.Event, error) {
	var ev types.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return types.Event{}, err
	}
	return ev, nil
}

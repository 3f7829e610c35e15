// internal/adapter/events/nats.go

package events

import (
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"

	"propmap/internal/domain/temporal"
)

// NATSBus carries view events over a NATS connection
type NATSBus struct {
	conn *nats.Conn
}

// NewNATSBus creates an event bus on an established connection
func NewNATSBus(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

// Publish sends data on subject
func (b *NATSBus) Publish(subject string, data []byte) error {
	if err := b.conn.Publish(subject, data); err != nil {
		return eris.Wrapf(err, "events: publish to %s", subject)
	}
	return nil
}

// Subscribe registers handler for messages on subject
func (b *NATSBus) Subscribe(subject string, handler func(data []byte)) (temporal.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "events: subscribe to %s", subject)
	}
	return sub, nil
}

package notification

import (
	"context"
	"encoding/json"
	"fmt"

	nats "github.com/nats-io/nats.go"
)

// Publisher is the slice of *nats.Conn the NATS notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier hands messages to a downstream mailer over NATS.
type NATSNotifier struct {
	conn    Publisher
	subject string
}

// NewNATSNotifier builds a notifier publishing JSON messages on subject.
func NewNATSNotifier(conn Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

// Send publishes message. Publishing is asynchronous in NATS, so ctx only
// guards against sending after cancellation.
func (n *NATSNotifier) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", message.Kind, err)
	}
	return nil
}

var _ Publisher = (*nats.Conn)(nil)

// Package messaging defines broker-neutral publish/subscribe interfaces used
// by the summary request/reply transport.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoReplySubject is returned by Reply for messages that expect no answer.
var ErrNoReplySubject = errors.New("message has no reply subject")

// Message is a message received from or sent to a broker.
type Message struct {
	Subject string
	Data    []byte
	// Reply is the subject a response should be published to, if any.
	Reply     string
	Metadata  map[string]string
	Timestamp time.Time
}

// MessageHandler processes a received message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
	Subject() string
	IsValid() bool
}

// Publisher publishes messages.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	// Request publishes data and waits up to timeout for one response.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Message, error)
	Close() error
}

// Subscriber receives messages.
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) (Subscription, error)
	// QueueSubscribe load-balances messages across members of queue.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)
	Close() error
}

// Client combines Publisher and Subscriber.
type Client interface {
	Publisher
	Subscriber
	// Drain closes the connection after in-flight messages complete.
	Drain() error
	IsConnected() bool
}

// Reply JSON-encodes v and publishes it to msg's reply subject.
func Reply(ctx context.Context, pub Publisher, msg *Message, v interface{}) error {
	if msg.Reply == "" {
		return ErrNoReplySubject
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	return pub.Publish(ctx, msg.Reply, data)
}

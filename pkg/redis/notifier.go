package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Change is the payload published when a topic's data changed
type Change struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

// Notifier publishes change notifications over Redis pub/sub
type Notifier struct {
	client *redis.Client
	prefix string
}

// NewNotifier creates a notifier; channels are named prefix + topic
func NewNotifier(c *redis.Client, prefix string) *Notifier {
	return &Notifier{client: c, prefix: prefix}
}

// Publish announces that topic changed
func (n *Notifier) Publish(ctx context.Context, topic string) error {
	payload, err := json.Marshal(Change{Topic: topic, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.prefix+topic, payload).Err()
}

// Subscribe returns a channel of changes for topic. The channel closes when ctx is done
// or the subscription breaks.
func (n *Notifier) Subscribe(ctx context.Context, topic string) (<-chan Change, error) {
	ps := n.client.Subscribe(ctx, n.prefix+topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					change = Change{Topic: topic, At: time.Now().UTC()}
				}
				select {
				case out <- change:
				default:
					// a slow reader only needs to know something changed
				}
			}
		}
	}()
	return out, nil
}

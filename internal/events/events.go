// Package events announces store changes so that external read caches can be invalidated.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/mkoziy/civic/exporter/internal/logging"
)

// TopicResourceChanged carries ResourceChanged payloads.
const TopicResourceChanged = "resource.changed"

// ResourceChanged says that rows of one resource type were created or replaced.
type ResourceChanged struct {
	Resource string    `json:"resource"`
	Dataset  string    `json:"dataset"`
	JobID    int64     `json:"job_id"`
	At       time.Time `json:"at"`
}

// Bus is the in-process pub/sub used when no external broker is configured.
type Bus struct {
	*gochannel.GoChannel
}

// NewBus creates an in-memory bus.
func NewBus() *Bus {
	return &Bus{
		GoChannel: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLogger()),
	}
}

// Publisher serializes change notifications onto a watermill publisher.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// ResourceChanged publishes ev on TopicResourceChanged.
func (p *Publisher) ResourceChanged(ctx context.Context, ev ResourceChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("resource", ev.Resource)
	msg.Metadata.Set("dataset", ev.Dataset)
	msg.SetContext(ctx)

	if err := p.pub.Publish(TopicResourceChanged, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicResourceChanged, err)
	}
	return nil
}

// Decode reads a ResourceChanged payload.
func Decode(msg *message.Message) (ResourceChanged, error) {
	var ev ResourceChanged
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("decode %s: %w", TopicResourceChanged, err)
	}
	return ev, nil
}

// LogInvalidations subscribes to change notifications and logs each one until
// ctx is cancelled. It stands in for a cache invalidator.
func LogInvalidations(ctx context.Context, sub message.Subscriber) error {
	msgs, err := sub.Subscribe(ctx, TopicResourceChanged)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicResourceChanged, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := Decode(msg)
			if err != nil {
				logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed change notification")
				msg.Ack()
				continue
			}
			logging.Info().
				Str("resource", ev.Resource).
				Str("dataset", ev.Dataset).
				Int64("job_id", ev.JobID).
				Time("at", ev.At).
				Msg("Resource changed, cached reads are stale")
			msg.Ack()
		}
	}
}

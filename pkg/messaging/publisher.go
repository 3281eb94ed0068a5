package messaging

import (
	"context"
)

// BrokerPublisher publishes typed events onto a single broker channel.
type BrokerPublisher struct {
	broker  Broker
	channel string
}

func NewBrokerPublisher(broker Broker, channel string) *BrokerPublisher {
	return &BrokerPublisher{broker: broker, channel: channel}
}

func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return p.broker.Publish(ctx, p.channel, Message{
		Type:    eventType,
		Payload: payload,
	})
}

// NoopPublisher discards events. Used in tests and when no broker is
// configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}

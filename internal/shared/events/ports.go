package events

import "context"

// Delivery is one message as handed over by a broker adapter.
type Delivery struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
}

// DeliveryHandler processes one delivery. A nil return lets the adapter
// commit the offset.
type DeliveryHandler func(ctx context.Context, delivery Delivery) error

// Publisher hands an envelope to the broker keyed by the aggregate id.
type Publisher interface {
	Publish(ctx context.Context, topic string, partitionKey string, envelope Envelope) error
}

// Subscriber attaches a handler to a topic under a consumer group.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler DeliveryHandler) error
}

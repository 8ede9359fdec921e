// Package nats wraps a Watermill NATS JetStream publisher, grounded on the
// teacher's internal/infrastructure/messaging/nats/publisher.go (connect,
// ensureStreams, GobMarshaler-backed watermill publisher), narrowed to the
// one subject hierarchy dataflow's execute events publish onto.
package nats

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// Publisher wraps a Watermill NATS publisher bound to the "dataflow"
// JetStream stream.
type Publisher struct {
	publisher *wmnats.Publisher
	logger    watermill.LoggerAdapter
}

// NewPublisher connects to natsURL, ensures the dataflow stream exists, and
// returns a Publisher ready to publish events.
func NewPublisher(natsURL string, logger watermill.LoggerAdapter) (*Publisher, error) {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if err := ensureStream(js); err != nil {
		return nil, err
	}

	pub, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{URL: natsURL, Marshaler: wmnats.GobMarshaler{}},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{publisher: pub, logger: logger}, nil
}

// Publish JSON-encodes payload and publishes it to subject.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return p.publisher.Publish(subject, msg)
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	return p.publisher.Close()
}

func ensureStream(js natsgo.JetStreamContext) error {
	const name = "dataflow-events"
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}
	_, err := js.AddStream(&natsgo.StreamConfig{
		Name:     name,
		Subjects: []string{"dataflow.events.>"},
		Storage:  natsgo.FileStorage,
		Replicas: 1,
	})
	return err
}

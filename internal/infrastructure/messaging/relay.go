// Package messaging bridges execute's in-process eventbus to NATS, so a
// second process (a dashboard, an audit log, another scheduler instance)
// can observe a run without sharing memory with the one that executed it.
// Grounded on the teacher's OutboxRelay (internal/infrastructure/messaging/
// outbox_relay.go) for the poll/relay worker shape, simplified from its
// Postgres-outbox-polling design to a direct eventbus subscription since
// execute.Run already publishes synchronously in-process — there is no
// separate outbox table to drain here, only a fan-out to an external
// transport.
package messaging

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nodeshop/dataflow/internal/execute"
	"github.com/nodeshop/dataflow/internal/pkg/eventbus"
)

// Publisher is the transport dependency EventRelay forwards onto —
// satisfied by nats.Publisher.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// EventRelay subscribes to an eventbus.EventBus and republishes every
// execute event onto a Publisher under a "dataflow.events.<type>" subject,
// bounding the number of publishes in flight at once so a slow transport
// can't unbound the goroutines eventbus.Publish already fans out per
// handler.
type EventRelay struct {
	publisher Publisher
	logger    *slog.Logger
	group     *errgroup.Group
}

// NewEventRelay wires relay against bus, limiting concurrent publishes to
// maxInFlight (zero uses 8, matching the teacher's relay batch size of 10
// scaled down for synchronous per-event publishing rather than batched
// polling).
func NewEventRelay(bus *eventbus.EventBus, publisher Publisher, logger *slog.Logger, maxInFlight int) *EventRelay {
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	group := &errgroup.Group{}
	group.SetLimit(maxInFlight)

	relay := &EventRelay{publisher: publisher, logger: logger, group: group}
	relay.subscribe(bus)
	return relay
}

func (r *EventRelay) subscribe(bus *eventbus.EventBus) {
	for _, eventType := range []string{
		(execute.NodeExecuted{}).EventType(),
		(execute.NodeFailed{}).EventType(),
		(execute.RunCompleted{}).EventType(),
		(execute.RunCancelled{}).EventType(),
	} {
		bus.Subscribe(eventType, r.forward)
	}
}

func (r *EventRelay) forward(ctx context.Context, event eventbus.Event) error {
	subject := "dataflow.events." + event.EventType()
	r.group.Go(func() error {
		if err := r.publisher.Publish(context.WithoutCancel(ctx), subject, event); err != nil {
			r.logger.Error("failed to relay event", "event_type", event.EventType(), "error", err)
			return err
		}
		return nil
	})
	return nil
}

// Wait blocks until every in-flight publish has completed, returning the
// first error encountered.
func (r *EventRelay) Wait() error {
	return r.group.Wait()
}

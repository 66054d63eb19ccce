// Package events fans flow lifecycle events out to in-process subscribers
package events

import (
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

type (
	// Hub publishes flow events to a single topic. Each subscriber reads
	// the topic through its own consumer
	Hub struct {
		topic  topic.Topic[*api.FlowEvent]
		prod   topic.Producer[*api.FlowEvent]
		mu     sync.RWMutex
		closed bool
	}

	// Filter reports whether a subscriber wants an event
	Filter func(*api.FlowEvent) bool
)

// NewHub creates an open event hub
func NewHub() *Hub {
	t := caravan.NewTopic[*api.FlowEvent]()
	return &Hub{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// Publish sends an event of the given type for id. Publishing to a closed
// hub is a no-op
func (h *Hub) Publish(typ api.EventType, id api.FlowID) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	message.Send(h.prod, &api.FlowEvent{
		Type:      typ,
		FlowID:    id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewConsumer subscribes to the hub. Callers must Close the consumer when
// done with it
func (h *Hub) NewConsumer() topic.Consumer[*api.FlowEvent] {
	return h.topic.NewConsumer()
}

// Close stops the hub from accepting further events
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.prod.Close()
}

// FilterTypes matches events whose type is one of types. With no types,
// every event matches
func FilterTypes(types ...api.EventType) Filter {
	if len(types) == 0 {
		return func(*api.FlowEvent) bool { return true }
	}
	set := make(map[api.EventType]struct{}, len(types))
	for _, typ := range types {
		set[typ] = struct{}{}
	}
	return func(ev *api.FlowEvent) bool {
		_, ok := set[ev.Type]
		return ok
	}
}

// FilterFlow matches events for a single flow
func FilterFlow(id api.FlowID) Filter {
	return func(ev *api.FlowEvent) bool {
		return ev.FlowID == id
	}
}

// And matches events accepted by every filter
func And(filters ...Filter) Filter {
	return func(ev *api.FlowEvent) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

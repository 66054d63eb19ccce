package api

type (
	// EventType names a flow lifecycle event
	EventType string

	// FlowEvent is published when a flow snapshot is created or deleted
	FlowEvent struct {
		Type      EventType `json:"type"`
		FlowID    FlowID    `json:"flow_id"`
		Timestamp int64     `json:"timestamp"`
	}
)

const (
	EventTypeFlowCreated EventType = "flow_created"
	EventTypeFlowDeleted EventType = "flow_deleted"
)

type (
	// SubscribeRequest is sent by WebSocket clients to narrow the events
	// they receive
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ClientSubscription selects events by type and flow. Empty fields
	// match everything
	ClientSubscription struct {
		EventTypes []EventType `json:"event_types,omitempty"`
		FlowID     FlowID      `json:"flow_id,omitempty"`
	}

	// SubscribedResult acknowledges a SubscribeRequest
	SubscribedResult struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}
)

const (
	MessageTypeSubscribe  = "subscribe"
	MessageTypeSubscribed = "subscribed"
)

package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventNodeAdded           EventType = "node_added"
	EventNodeMoved           EventType = "node_moved"
	EventNodeRenamed         EventType = "node_renamed"
	EventNodeCopied          EventType = "node_copied"
	EventNodeCutPasted       EventType = "node_cut_pasted"
	EventNodeDeleted         EventType = "node_deleted"
	EventNodesBulkMoved      EventType = "nodes_bulk_moved"
	EventNodesBulkCopied     EventType = "nodes_bulk_copied"
	EventMixinAdded          EventType = "mixin_added"
	EventMixinRemoved        EventType = "mixin_removed"
	EventPropertySaved       EventType = "property_saved"
	EventPropertyDeleted     EventType = "property_deleted"
	EventPropertiesSaved     EventType = "properties_saved"
	EventNodeTypesRegistered EventType = "node_types_registered"
	EventTypeIconAssociated  EventType = "type_icon_associated"
)

// Event represents a committed change
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers. A nil bus drops the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
